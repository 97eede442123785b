package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                  string
	Origin                string
	Environment           string
	JWTSecret             string
	JWTExpirationHours    int
	OTPExpiryMinutes      int
	GatewayTimeoutSeconds int
	Database              DatabaseConfig
	Twilio                TwilioConfig
	Google                GoogleOAuthConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// TwilioConfig holds the credentials and sender numbers for the Twilio API.
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	SMSFrom      string
	WhatsAppFrom string
}

// GoogleOAuthConfig holds Google OAuth configuration for calendar access
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "medigem"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	twilioConfig := TwilioConfig{
		AccountSID:   getEnv("TWILIO_SID", ""),
		AuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		SMSFrom:      getEnv("TWILIO_PHONE_NUMBER", ""),
		WhatsAppFrom: getEnv("TWILIO_WHATSAPP_NUMBER", ""),
	}

	googleConfig := GoogleOAuthConfig{
		ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
	}

	jwtExpHours, err := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %w", err)
	}

	otpExpiryMinutes, err := strconv.Atoi(getEnv("OTP_EXPIRY_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid OTP_EXPIRY_MINUTES: %w", err)
	}

	// Bounded timeout for calendar/notification calls so a slow external
	// service cannot hold a user-facing request open indefinitely.
	gatewayTimeout, err := strconv.Atoi(getEnv("GATEWAY_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT_SECONDS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:                  getEnv("PORT", "8000"),
		Origin:                getEnv("ORIGIN", "http://localhost:3000"),
		Environment:           getEnv("APP_ENV", "development"),
		JWTSecret:             getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTExpirationHours:    jwtExpHours,
		OTPExpiryMinutes:      otpExpiryMinutes,
		GatewayTimeoutSeconds: gatewayTimeout,
		Database:              dbConfig,
		Twilio:                twilioConfig,
		Google:                googleConfig,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

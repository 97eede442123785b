package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medigem-server/internal/config"
	"medigem-server/internal/models"
)

// Claims represents the JWT claims. A single token scheme covers both
// principal kinds; the Kind claim tells them apart.
type Claims struct {
	PrincipalID string               `json:"principal_id"`
	Kind        models.PrincipalKind `json:"kind"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed bearer token for the given principal.
func GenerateToken(principal models.Principal, cfg *config.Config) (string, error) {
	expirationTime := time.Now().Add(time.Duration(cfg.JWTExpirationHours) * time.Hour)
	claims := &Claims{
		PrincipalID: principal.ID,
		Kind:        principal.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   principal.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the embedded claims.
func ValidateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.Kind != models.KindDoctor && claims.Kind != models.KindPatient {
		return nil, fmt.Errorf("unknown principal kind %q", claims.Kind)
	}

	return claims, nil
}

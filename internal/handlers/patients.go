package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"medigem-server/internal/config"
	"medigem-server/internal/ledger"
	"medigem-server/internal/middleware"
	"medigem-server/internal/models"
	"medigem-server/internal/utils"
)

// SMSSender delivers one-time passwords over SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// PatientAuthHandler handles patient OTP login and patient-scoped reads.
type PatientAuthHandler struct {
	DB     *gorm.DB
	Cfg    *config.Config
	SMS    SMSSender
	Ledger *ledger.Ledger
}

// NewPatientAuthHandler creates a new PatientAuthHandler.
func NewPatientAuthHandler(db *gorm.DB, cfg *config.Config, sms SMSSender, led *ledger.Ledger) *PatientAuthHandler {
	return &PatientAuthHandler{DB: db, Cfg: cfg, SMS: sms, Ledger: led}
}

// SendOTPRequest represents the request body for requesting an OTP.
type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// SendOTP creates the patient record on first contact, stores a fresh
// 6-digit OTP and delivers it by SMS. A failed delivery is logged and the
// request still succeeds; in development the OTP is echoed back so the
// flow stays testable without a Twilio account.
func (h *PatientAuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	otp := fmt.Sprintf("%06d", rand.IntN(1000000))
	expiresAt := time.Now().Add(time.Duration(h.Cfg.OTPExpiryMinutes) * time.Minute)

	var patient models.Patient
	if err := h.DB.Where("phone = ?", req.Phone).
		FirstOrCreate(&patient, models.Patient{Phone: req.Phone}).Error; err != nil {
		utils.InternalServerError(c, "Failed to look up patient: "+err.Error())
		return
	}

	updates := map[string]interface{}{
		"otp":            otp,
		"otp_expires_at": expiresAt,
	}
	if err := h.DB.Model(&patient).Updates(updates).Error; err != nil {
		utils.InternalServerError(c, "Failed to store OTP: "+err.Error())
		return
	}

	body := fmt.Sprintf("Your MediGem OTP code is: %s. Valid for %d minutes.", otp, h.Cfg.OTPExpiryMinutes)
	sid, err := h.SMS.SendSMS(c.Request.Context(), req.Phone, body)
	if err != nil {
		log.Error().Err(err).Str("phone", req.Phone).Msg("OTP SMS delivery failed")

		data := gin.H{}
		if h.Cfg.Environment == "development" {
			data["otp"] = otp
		}
		utils.Success(c, "OTP sent (check logs in development)", data)
		return
	}

	utils.Success(c, "OTP sent successfully", gin.H{"messageSid": sid})
}

// VerifyOTPRequest represents the request body for verifying an OTP.
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// VerifyOTPResponse represents the response body for a verified OTP.
type VerifyOTPResponse struct {
	Token   string         `json:"token"`
	Patient models.Patient `json:"patient"`
}

// VerifyOTP checks the submitted OTP against the stored one, clears it and
// issues a bearer token for the patient.
func (h *PatientAuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := h.DB.Where("phone = ?", req.Phone).First(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found. Please request OTP first.")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if patient.OTP == "" || patient.OTP != req.OTP {
		utils.Unauthorized(c, "Invalid OTP code.")
		return
	}

	if patient.OTPExpiresAt != nil && patient.OTPExpiresAt.Before(time.Now()) {
		utils.Unauthorized(c, "OTP has expired. Please request a new one.")
		return
	}

	// One shot: a verified OTP is cleared before the token is issued.
	updates := map[string]interface{}{
		"otp":            "",
		"otp_expires_at": nil,
	}
	if err := h.DB.Model(&patient).Updates(updates).Error; err != nil {
		utils.InternalServerError(c, "Failed to clear OTP: "+err.Error())
		return
	}

	token, err := utils.GenerateToken(models.Principal{ID: patient.ID, Kind: models.KindPatient}, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token: "+err.Error())
		return
	}

	patient.OTP = ""
	patient.OTPExpiresAt = nil
	utils.Success(c, "OTP verified", VerifyOTPResponse{
		Token:   token,
		Patient: patient,
	})
}

// PatientMe returns the authenticated patient's profile.
func (h *PatientAuthHandler) PatientMe(c *gin.Context) {
	principal, exists := middleware.GetPrincipalFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", principal.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Profile fetched successfully", patient)
}

// PatientAppointments returns the patient's appointments, most recent first.
func (h *PatientAuthHandler) PatientAppointments(c *gin.Context) {
	principal, exists := middleware.GetPrincipalFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	appointments, err := h.Ledger.List(c.Request.Context(), principal)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medigem-server/internal/config"
	"medigem-server/internal/middleware"
	"medigem-server/internal/models"
	"medigem-server/internal/utils"
)

// AuthHandler handles doctor authentication requests.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg}
}

// DoctorLoginRequest represents the request body for doctor login.
type DoctorLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// DoctorLoginResponse represents the response body for a successful login.
type DoctorLoginResponse struct {
	Token  string                 `json:"token"`
	Doctor models.DoctorSanitized `json:"doctor"`
}

// DoctorLogin handles doctor email/password login.
func (h *AuthHandler) DoctorLogin(c *gin.Context) {
	var req DoctorLoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var doctor models.Doctor
	if err := h.DB.Where("email = ?", req.Email).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "The provided credentials are incorrect.")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !doctor.CheckPassword(req.Password) {
		utils.Unauthorized(c, "The provided credentials are incorrect.")
		return
	}

	token, err := utils.GenerateToken(models.Principal{ID: doctor.ID, Kind: models.KindDoctor}, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token: "+err.Error())
		return
	}

	utils.Success(c, "Login successful", DoctorLoginResponse{
		Token:  token,
		Doctor: doctor.Sanitize(),
	})
}

// DoctorMe returns the authenticated doctor's profile.
func (h *AuthHandler) DoctorMe(c *gin.Context) {
	principal, exists := middleware.GetPrincipalFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", principal.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Profile fetched successfully", doctor.Sanitize())
}

// DoctorLogout acknowledges logout. Tokens are stateless, so the client
// simply discards its copy.
func (h *AuthHandler) DoctorLogout(c *gin.Context) {
	utils.Success(c, "Logged out successfully", nil)
}

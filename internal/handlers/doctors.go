package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medigem-server/internal/models"
	"medigem-server/internal/utils"
)

// DoctorHandler serves the public doctor directory used by the booking flow.
type DoctorHandler struct {
	DB *gorm.DB
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{DB: db}
}

// ListDoctors returns all doctors, sanitized.
func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	var doctors []models.Doctor
	if err := h.DB.Order("name asc").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	sanitized := make([]models.DoctorSanitized, 0, len(doctors))
	for _, doctor := range doctors {
		sanitized = append(sanitized, doctor.Sanitize())
	}

	utils.Success(c, "Doctors fetched successfully", sanitized)
}

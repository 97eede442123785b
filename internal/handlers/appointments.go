package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"medigem-server/internal/ledger"
	"medigem-server/internal/middleware"
	"medigem-server/internal/utils"
)

// AppointmentHandler exposes the appointment ledger over HTTP. All state
// machine rules live in the ledger; this layer only binds requests,
// resolves the principal and maps ledger errors to responses.
type AppointmentHandler struct {
	Ledger *ledger.Ledger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(led *ledger.Ledger) *AppointmentHandler {
	return &AppointmentHandler{Ledger: led}
}

// CreateAppointmentRequest represents the request body for booking an
// appointment. The patient is taken from the token, never the body.
type CreateAppointmentRequest struct {
	DoctorID    string    `json:"doctorId" binding:"required"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	Reason      string    `json:"reason"`
	ClinicID    *string   `json:"clinicId"`
}

// Create books a new appointment for the authenticated patient.
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	principal, exists := middleware.GetPrincipalFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	appointment, err := h.Ledger.Create(c.Request.Context(), ledger.CreateInput{
		PatientID:   principal.ID,
		DoctorID:    req.DoctorID,
		ClinicID:    req.ClinicID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// List returns the appointments visible to the authenticated principal.
func (h *AppointmentHandler) List(c *gin.Context) {
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

// Approve approves a pending appointment owned by the authenticated doctor.
func (h *AppointmentHandler) Approve(c *gin.Context) {
	principal, exists := middleware.GetPrincipalFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	appointment, err := h.Ledger.Approve(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.Success(c, "Appointment approved successfully", appointment)
}

// Reject rejects a pending appointment owned by the authenticated doctor.
func (h *AppointmentHandler) Reject(c *gin.Context) {
	principal, exists := middleware.GetPrincipalFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	appointment, err := h.Ledger.Reject(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.Success(c, "Appointment rejected", appointment)
}

// Cancel cancels an appointment owned by the authenticated patient.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	principal, exists := middleware.GetPrincipalFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Not authenticated")
		return
	}

	appointment, err := h.Ledger.Cancel(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", appointment)
}

// respondLedgerError maps ledger errors onto the response envelope.
func respondLedgerError(c *gin.Context, err error) {
	var invalid *ledger.InvalidTransitionError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		utils.NotFound(c, "Appointment not found")
	case errors.Is(err, ledger.ErrDoctorNotFound):
		utils.UnprocessableEntity(c, "The selected doctor does not exist.")
	case errors.Is(err, ledger.ErrClinicNotFound):
		utils.UnprocessableEntity(c, "The selected clinic does not exist.")
	case errors.As(err, &invalid):
		utils.BadRequest(c, invalid.Error())
	default:
		utils.InternalServerError(c, "Unexpected error: "+err.Error())
	}
}

package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Appointment represents a scheduled medical appointment.
// PatientID and DoctorID are immutable after creation; rows are never
// hard-deleted, terminal states are kept for history.
type Appointment struct {
	BaseModel
	PatientID   string            `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID    string            `gorm:"size:36;index;not null" json:"doctorId"`
	ClinicID    *string           `gorm:"size:36;index" json:"clinicId,omitempty"`
	ScheduledAt time.Time         `gorm:"not null" json:"scheduledAt"`
	Status      AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reason      string            `gorm:"type:text" json:"reason,omitempty"`
	Notes       string            `gorm:"type:text" json:"notes,omitempty"`

	// Set only when the approve-time calendar sync succeeded. Nothing reads
	// this as a correctness signal; its absence never blocks a transition.
	GoogleCalendarEventID string `gorm:"size:255" json:"googleCalendarEventId,omitempty"`

	// Relations
	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Clinic  *Clinic  `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

package models

import (
	"time"
)

// Patient represents a patient identified by phone number.
// Patients are created implicitly the first time an OTP is requested for
// their phone, so every field except the phone is optional.
type Patient struct {
	BaseModel
	Name           string     `gorm:"size:255" json:"name,omitempty"`
	Phone          string     `gorm:"uniqueIndex;size:30;not null" json:"phone"`
	Email          string     `gorm:"size:255" json:"email,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	MedicalHistory string     `gorm:"type:text" json:"medicalHistory,omitempty"`

	// One-time password state for login
	OTP          string     `gorm:"size:10" json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	// Relations (not always preloaded)
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"-"`
}

// DisplayName returns the patient's name with a generic fallback for
// patients who never filled in a profile.
func (p *Patient) DisplayName() string {
	if p.Name == "" {
		return "Patient"
	}
	return p.Name
}

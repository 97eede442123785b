package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Doctor represents a doctor account in the system
type Doctor struct {
	BaseModel
	Name           string `gorm:"size:255;not null" json:"name"`
	Email          string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Phone          string `gorm:"size:30" json:"phone,omitempty"`
	Specialization string `gorm:"size:100" json:"specialization,omitempty"`
	Bio            string `gorm:"type:text" json:"bio,omitempty"`

	// Stored Google Calendar OAuth credentials. Absent for doctors who never
	// connected their calendar; the approve flow skips the event in that case.
	GoogleCalendarToken        string `gorm:"type:text" json:"-"`
	GoogleCalendarRefreshToken string `gorm:"type:text" json:"-"`

	// Relations (not always preloaded)
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
}

// DoctorSanitized represents the doctor data that is safe to send in API responses.
type DoctorSanitized struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

// SetPassword hashes a password and sets it on the doctor
func (d *Doctor) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	d.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the doctor's hashed password
func (d *Doctor) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(d.Password), []byte(password))
	return err == nil
}

// HasCalendarCredentials reports whether the doctor connected a Google Calendar.
func (d *Doctor) HasCalendarCredentials() bool {
	return d.GoogleCalendarToken != "" || d.GoogleCalendarRefreshToken != ""
}

// Sanitize creates a DoctorSanitized struct from a Doctor model, excluding sensitive data.
func (d *Doctor) Sanitize() DoctorSanitized {
	return DoctorSanitized{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Specialization: d.Specialization,
		Bio:            d.Bio,
	}
}

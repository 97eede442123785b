package models

// Clinic represents a physical clinic location
type Clinic struct {
	BaseModel
	Name    string `gorm:"size:255;not null" json:"name"`
	Address string `gorm:"size:255" json:"address,omitempty"`
	Phone   string `gorm:"size:30" json:"phone,omitempty"`
	Email   string `gorm:"size:255" json:"email,omitempty"`

	// Relations (not always preloaded)
	Appointments []Appointment `gorm:"foreignKey:ClinicID" json:"-"`
}

package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"medigem-server/internal/config"
	"medigem-server/internal/models"
)

// Seeds the database with the demo clinic and doctors. Idempotent: rows
// are matched on their unique columns before insert.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	clinic := models.Clinic{
		Name:    "MediGem Main Clinic",
		Address: "123 Healthcare Street, Dubai, UAE",
		Phone:   "+971501234567",
		Email:   "info@medigem.com",
	}
	if err := db.Where("name = ?", clinic.Name).FirstOrCreate(&clinic).Error; err != nil {
		log.Fatal().Err(err).Msg("Failed to seed clinic")
	}

	doctors := []struct {
		name           string
		email          string
		phone          string
		specialization string
		bio            string
	}{
		{"Dr. Sarah Ahmed", "sarah@medigem.com", "+971501111111", "Cardiologist", "Experienced cardiologist with 15+ years of practice."},
		{"Dr. John Smith", "john@medigem.com", "+971502222222", "General Practitioner", "General practitioner specializing in family medicine."},
		{"Dr. Emily Johnson", "emily@medigem.com", "+971503333333", "Pediatrician", "Pediatrician with expertise in child healthcare."},
	}

	for _, d := range doctors {
		if err := seedDoctor(db, d.name, d.email, d.phone, d.specialization, d.bio); err != nil {
			log.Fatal().Err(err).Str("email", d.email).Msg("Failed to seed doctor")
		}
	}

	log.Info().Msg("Seeding complete")
}

func seedDoctor(db *gorm.DB, name, email, phone, specialization, bio string) error {
	doctor := models.Doctor{
		Name:           name,
		Email:          email,
		Phone:          phone,
		Specialization: specialization,
		Bio:            bio,
	}
	if err := doctor.SetPassword("password"); err != nil {
		return err
	}
	return db.Where("email = ?", email).FirstOrCreate(&doctor).Error
}

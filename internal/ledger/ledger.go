package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"medigem-server/internal/models"
)

// CalendarGateway creates an event on a doctor's remote calendar.
type CalendarGateway interface {
	CreateEvent(ctx context.Context, doctor *models.Doctor, summary, description string, start, end time.Time) (string, error)
}

// NotificationGateway sends a templated text message to a phone number.
type NotificationGateway interface {
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
}

// Ledger owns appointment records and enforces their state machine.
// Transitions are validated and persisted inside a transaction; the
// calendar and notification side effects run after the commit and are
// best-effort: their failure is logged, never surfaced to the caller,
// and never reverts a committed transition.
type Ledger struct {
	db       *gorm.DB
	calendar CalendarGateway
	notifier NotificationGateway
}

// New creates a Ledger backed by the given database and gateways.
func New(db *gorm.DB, calendar CalendarGateway, notifier NotificationGateway) *Ledger {
	return &Ledger{db: db, calendar: calendar, notifier: notifier}
}

// CreateInput carries the fields for a new appointment request.
type CreateInput struct {
	PatientID   string
	DoctorID    string
	ClinicID    *string
	ScheduledAt time.Time
	Reason      string
}

// Create books a new appointment in the pending state. The referenced
// doctor (and clinic, when given) must exist. No availability or overlap
// checking is performed.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*models.Appointment, error) {
	var appointment models.Appointment
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doctor models.Doctor
		if err := tx.First(&doctor, "id = ?", in.DoctorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDoctorNotFound
			}
			return err
		}

		if in.ClinicID != nil && *in.ClinicID != "" {
			var clinic models.Clinic
			if err := tx.First(&clinic, "id = ?", *in.ClinicID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrClinicNotFound
				}
				return err
			}
		} else {
			in.ClinicID = nil
		}

		appointment = models.Appointment{
			PatientID:   in.PatientID,
			DoctorID:    in.DoctorID,
			ClinicID:    in.ClinicID,
			ScheduledAt: in.ScheduledAt,
			Reason:      in.Reason,
			Status:      models.StatusPending,
		}
		if err := tx.Create(&appointment).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		return tx.Preload("Doctor").Preload("Clinic").First(&appointment, "id = ?", appointment.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Approve transitions a pending appointment owned by the acting doctor to
// approved, then attempts the calendar and notification side effects.
func (l *Ledger) Approve(ctx context.Context, appointmentID, actingDoctorID string) (*models.Appointment, error) {
	appointment, err := l.transition(ctx, appointmentID, transitionSpec{
		ownerColumn: "doctor_id",
		ownerID:     actingDoctorID,
		from:        []models.AppointmentStatus{models.StatusPending},
		to:          models.StatusApproved,
		action:      "approved",
	})
	if err != nil {
		return nil, err
	}

	l.syncCalendar(ctx, appointment)
	l.notify(ctx, appointment, approvalMessage(appointment))

	return appointment, nil
}

// Reject transitions a pending appointment owned by the acting doctor to
// rejected and attempts a patient notification. No calendar action.
func (l *Ledger) Reject(ctx context.Context, appointmentID, actingDoctorID string) (*models.Appointment, error) {
	appointment, err := l.transition(ctx, appointmentID, transitionSpec{
		ownerColumn: "doctor_id",
		ownerID:     actingDoctorID,
		from:        []models.AppointmentStatus{models.StatusPending},
		to:          models.StatusRejected,
		action:      "rejected",
	})
	if err != nil {
		return nil, err
	}

	l.notify(ctx, appointment, rejectionMessage(appointment))

	return appointment, nil
}

// Cancel transitions an appointment owned by the acting patient to
// cancelled. Allowed from pending and approved; no side effects.
func (l *Ledger) Cancel(ctx context.Context, appointmentID, actingPatientID string) (*models.Appointment, error) {
	return l.transition(ctx, appointmentID, transitionSpec{
		ownerColumn: "patient_id",
		ownerID:     actingPatientID,
		from:        []models.AppointmentStatus{models.StatusPending, models.StatusApproved},
		to:          models.StatusCancelled,
		action:      "cancelled",
	})
}

// List returns the appointments visible to the principal. Doctors triage
// soonest-first, patients review most-recent-first.
func (l *Ledger) List(ctx context.Context, principal models.Principal) ([]models.Appointment, error) {
	var appointments []models.Appointment
	var err error

	switch principal.Kind {
	case models.KindDoctor:
		err = l.db.WithContext(ctx).
			Preload("Patient").Preload("Clinic").
			Where("doctor_id = ?", principal.ID).
			Order("scheduled_at asc").
			Find(&appointments).Error
	case models.KindPatient:
		err = l.db.WithContext(ctx).
			Preload("Doctor").Preload("Clinic").
			Where("patient_id = ?", principal.ID).
			Order("scheduled_at desc").
			Find(&appointments).Error
	default:
		return nil, fmt.Errorf("unknown principal kind %q", principal.Kind)
	}

	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// transitionSpec describes one row of the transition table.
type transitionSpec struct {
	ownerColumn string
	ownerID     string
	from        []models.AppointmentStatus
	to          models.AppointmentStatus
	action      string
}

// transition applies a guarded status change. The status precondition is
// re-checked in the UPDATE itself so a concurrent transition on the same
// row cannot slip past the initial read.
func (l *Ledger) transition(ctx context.Context, appointmentID string, spec transitionSpec) (*models.Appointment, error) {
	var appointment models.Appointment
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Patient").Preload("Doctor").Preload("Clinic").
			Where("id = ? AND "+spec.ownerColumn+" = ?", appointmentID, spec.ownerID).
			First(&appointment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !statusIn(appointment.Status, spec.from) {
			return &InvalidTransitionError{Action: spec.action, Status: appointment.Status}
		}

		result := tx.Model(&models.Appointment{}).
			Where("id = ? AND status IN ?", appointment.ID, spec.from).
			Update("status", spec.to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race against a concurrent transition.
			var current models.Appointment
			if err := tx.First(&current, "id = ?", appointment.ID).Error; err != nil {
				return err
			}
			return &InvalidTransitionError{Action: spec.action, Status: current.Status}
		}

		appointment.Status = spec.to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func statusIn(status models.AppointmentStatus, set []models.AppointmentStatus) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}

// syncCalendar creates a one-hour calendar event for an approved
// appointment and stores the returned event id in a secondary save.
// Doctors without stored calendar credentials are skipped silently.
func (l *Ledger) syncCalendar(ctx context.Context, appointment *models.Appointment) {
	if appointment.Doctor == nil || !appointment.Doctor.HasCalendarCredentials() {
		return
	}

	summary := "Appointment with " + appointmentPatientName(appointment)
	description := appointment.Reason
	if description == "" {
		description = "Medical appointment"
	}
	start := appointment.ScheduledAt
	end := start.Add(time.Hour)

	eventID, err := l.calendar.CreateEvent(ctx, appointment.Doctor, summary, description, start, end)
	if err != nil {
		log.Error().Err(err).
			Str("appointment_id", appointment.ID).
			Str("doctor_id", appointment.DoctorID).
			Msg("google calendar event creation failed")
		return
	}

	appointment.GoogleCalendarEventID = eventID
	if err := l.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ?", appointment.ID).
		Update("google_calendar_event_id", eventID).Error; err != nil {
		log.Error().Err(err).
			Str("appointment_id", appointment.ID).
			Msg("failed to store calendar event id")
	}
}

// notify sends a WhatsApp message to the appointment's patient.
func (l *Ledger) notify(ctx context.Context, appointment *models.Appointment, body string) {
	if appointment.Patient == nil || appointment.Patient.Phone == "" {
		log.Warn().
			Str("appointment_id", appointment.ID).
			Msg("no patient phone for notification")
		return
	}

	sid, err := l.notifier.SendWhatsApp(ctx, appointment.Patient.Phone, body)
	if err != nil {
		log.Error().Err(err).
			Str("appointment_id", appointment.ID).
			Msg("whatsapp notification failed")
		return
	}

	log.Debug().
		Str("appointment_id", appointment.ID).
		Str("message_sid", sid).
		Msg("whatsapp notification sent")
}

func appointmentPatientName(appointment *models.Appointment) string {
	if appointment.Patient == nil {
		return "Patient"
	}
	return appointment.Patient.DisplayName()
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"medigem-server/internal/models"
)

type calendarCall struct {
	doctorID    string
	summary     string
	description string
	start       time.Time
	end         time.Time
}

type fakeCalendar struct {
	eventID string
	err     error
	calls   []calendarCall
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, doctor *models.Doctor, summary, description string, start, end time.Time) (string, error) {
	f.calls = append(f.calls, calendarCall{
		doctorID:    doctor.ID,
		summary:     summary,
		description: description,
		start:       start,
		end:         end,
	})
	if f.err != nil {
		return "", f.err
	}
	return f.eventID, nil
}

type sentMessage struct {
	to   string
	body string
}

type fakeNotifier struct {
	err  error
	sent []sentMessage
}

func (f *fakeNotifier) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	if f.err != nil {
		return "", f.err
	}
	return "SM123", nil
}

func newTestLedger(t *testing.T) (*Ledger, *fakeCalendar, *fakeNotifier, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	calendar := &fakeCalendar{eventID: "evt-123"}
	notifier := &fakeNotifier{}
	return New(db, calendar, notifier), calendar, notifier, db
}

func seedDoctor(t *testing.T, db *gorm.DB, name string, withCalendar bool) *models.Doctor {
	t.Helper()

	doctor := &models.Doctor{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
	}
	require.NoError(t, doctor.SetPassword("password"))
	if withCalendar {
		doctor.GoogleCalendarToken = "access-token"
		doctor.GoogleCalendarRefreshToken = "refresh-token"
	}
	require.NoError(t, db.Create(doctor).Error)
	return doctor
}

func seedPatient(t *testing.T, db *gorm.DB, name, phone string) *models.Patient {
	t.Helper()

	patient := &models.Patient{Name: name, Phone: phone}
	require.NoError(t, db.Create(patient).Error)
	return patient
}

func seedClinic(t *testing.T, db *gorm.DB, name string) *models.Clinic {
	t.Helper()

	clinic := &models.Clinic{Name: name}
	require.NoError(t, db.Create(clinic).Error)
	return clinic
}

func seedAppointment(t *testing.T, db *gorm.DB, patient *models.Patient, doctor *models.Doctor, status models.AppointmentStatus) *models.Appointment {
	t.Helper()

	appointment := &models.Appointment{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: time.Date(2025, 12, 10, 10, 30, 0, 0, time.UTC),
		Status:      status,
	}
	require.NoError(t, db.Create(appointment).Error)
	return appointment
}

func currentStatus(t *testing.T, db *gorm.DB, id string) models.AppointmentStatus {
	t.Helper()

	var appointment models.Appointment
	require.NoError(t, db.First(&appointment, "id = ?", id).Error)
	return appointment.Status
}

func TestCreateStartsPending(t *testing.T) {
	led, _, _, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	clinic := seedClinic(t, db, "Main Clinic")

	appointment, err := led.Create(context.Background(), CreateInput{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ClinicID:    &clinic.ID,
		ScheduledAt: time.Date(2025, 12, 10, 10, 30, 0, 0, time.UTC),
		Reason:      "Annual checkup",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, appointment.Status)
	assert.Equal(t, patient.ID, appointment.PatientID)
	assert.Equal(t, doctor.ID, appointment.DoctorID)
	require.NotNil(t, appointment.Clinic)
	assert.Equal(t, "Main Clinic", appointment.Clinic.Name)
	require.NotNil(t, appointment.Doctor)
	assert.Equal(t, "sarah", appointment.Doctor.Name)
}

func TestCreateUnknownDoctor(t *testing.T) {
	led, _, _, db := newTestLedger(t)
	patient := seedPatient(t, db, "Ali", "+971500000001")

	_, err := led.Create(context.Background(), CreateInput{
		PatientID:   patient.ID,
		DoctorID:    "no-such-doctor",
		ScheduledAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestCreateUnknownClinic(t *testing.T) {
	led, _, _, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	missing := "no-such-clinic"

	_, err := led.Create(context.Background(), CreateInput{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ClinicID:    &missing,
		ScheduledAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrClinicNotFound)
}

func TestApproveTransitionsAndRunsSideEffects(t *testing.T) {
	led, calendar, notifier, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", true)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	appointment := seedAppointment(t, db, patient, doctor, models.StatusPending)

	approved, err := led.Approve(context.Background(), appointment.ID, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Calendar: one-hour window, patient name in the summary
	require.Len(t, calendar.calls, 1)
	call := calendar.calls[0]
	assert.Equal(t, doctor.ID, call.doctorID)
	assert.Equal(t, "Appointment with Ali", call.summary)
	assert.Equal(t, "Medical appointment", call.description)
	assert.True(t, call.start.Equal(appointment.ScheduledAt))
	assert.True(t, call.end.Equal(appointment.ScheduledAt.Add(time.Hour)))

	// Event id stored in the secondary save
	assert.Equal(t, "evt-123", approved.GoogleCalendarEventID)
	var persisted models.Appointment
	require.NoError(t, db.First(&persisted, "id = ?", appointment.ID).Error)
	assert.Equal(t, "evt-123", persisted.GoogleCalendarEventID)

	// Notification went to the patient's phone
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "+971500000001", notifier.sent[0].to)
	assert.Contains(t, notifier.sent[0].body, "Dr. sarah")
	assert.Contains(t, notifier.sent[0].body, "approved")
	assert.Contains(t, notifier.sent[0].body, "December 10, 2025 at 10:30 AM")
}

func TestApprovalMessageIncludesClinicOnlyWhenPresent(t *testing.T) {
	led, _, notifier, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	clinic := seedClinic(t, db, "Main Clinic")

	withClinic, err := led.Create(context.Background(), CreateInput{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ClinicID:    &clinic.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	withoutClinic, err := led.Create(context.Background(), CreateInput{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	_, err = led.Approve(context.Background(), withClinic.ID, doctor.ID)
	require.NoError(t, err)
	_, err = led.Approve(context.Background(), withoutClinic.ID, doctor.ID)
	require.NoError(t, err)

	require.Len(t, notifier.sent, 2)
	assert.Contains(t, notifier.sent[0].body, "Location: Main Clinic")
	assert.NotContains(t, notifier.sent[1].body, "Location")
}

func TestApproveSkipsCalendarWithoutCredentials(t *testing.T) {
	led, calendar, notifier, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	appointment := seedAppointment(t, db, patient, doctor, models.StatusPending)

	approved, err := led.Approve(context.Background(), appointment.ID, doctor.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Empty(t, calendar.calls)
	assert.Empty(t, approved.GoogleCalendarEventID)
	// The notification is independent of the calendar outcome
	assert.Len(t, notifier.sent, 1)
}

func TestApproveByNonOwnerIsNotFound(t *testing.T) {
	led, _, notifier, db := newTestLedger(t)
	owner := seedDoctor(t, db, "sarah", false)
	other := seedDoctor(t, db, "john", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	appointment := seedAppointment(t, db, patient, owner, models.StatusPending)

	_, err := led.Approve(context.Background(), appointment.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, models.StatusPending, currentStatus(t, db, appointment.ID))
	assert.Empty(t, notifier.sent)
}

func TestApproveOnlyFromPending(t *testing.T) {
	for _, status := range []models.AppointmentStatus{
		models.StatusApproved,
		models.StatusRejected,
		models.StatusCancelled,
		models.StatusCompleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			led, _, notifier, db := newTestLedger(t)
			doctor := seedDoctor(t, db, "sarah", false)
			patient := seedPatient(t, db, "Ali", "+971500000001")
			appointment := seedAppointment(t, db, patient, doctor, status)

			_, err := led.Approve(context.Background(), appointment.ID, doctor.ID)

			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, status, invalid.Status)
			assert.Equal(t, status, currentStatus(t, db, appointment.ID))
			assert.Empty(t, notifier.sent)
		})
	}
}

func TestApproveSurvivesGatewayFailures(t *testing.T) {
	led, calendar, notifier, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", true)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	appointment := seedAppointment(t, db, patient, doctor, models.StatusPending)

	calendar.err = errors.New("calendar unavailable")
	notifier.err = errors.New("carrier unavailable")

	approved, err := led.Approve(context.Background(), appointment.ID, doctor.ID)
	require.NoError(t, err)

	// Transition committed; failures were logged only
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, models.StatusApproved, currentStatus(t, db, appointment.ID))
	assert.Empty(t, approved.GoogleCalendarEventID)

	// Both side effects were still attempted: neither gates the other
	assert.Len(t, calendar.calls, 1)
	assert.Len(t, notifier.sent, 1)
}

func TestRejectNotifiesWithoutCalendar(t *testing.T) {
	led, calendar, notifier, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", true)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	appointment := seedAppointment(t, db, patient, doctor, models.StatusPending)

	rejected, err := led.Reject(context.Background(), appointment.ID, doctor.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Empty(t, calendar.calls)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].body, "rejected")
	assert.Contains(t, notifier.sent[0].body, "Dr. sarah")
}

func TestRejectOnlyFromPending(t *testing.T) {
	led, _, _, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	appointment := seedAppointment(t, db, patient, doctor, models.StatusCancelled)

	_, err := led.Reject(context.Background(), appointment.ID, doctor.ID)

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.StatusCancelled, invalid.Status)
}

func TestCancelFromPendingAndApproved(t *testing.T) {
	for _, status := range []models.AppointmentStatus{models.StatusPending, models.StatusApproved} {
		t.Run(string(status), func(t *testing.T) {
			led, _, notifier, db := newTestLedger(t)
			doctor := seedDoctor(t, db, "sarah", false)
			patient := seedPatient(t, db, "Ali", "+971500000001")
			appointment := seedAppointment(t, db, patient, doctor, status)

			cancelled, err := led.Cancel(context.Background(), appointment.ID, patient.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, cancelled.Status)
			// Cancel triggers no side effects
			assert.Empty(t, notifier.sent)
		})
	}
}

func TestCancelBlockedFromTerminalStates(t *testing.T) {
	for _, status := range []models.AppointmentStatus{
		models.StatusCancelled,
		models.StatusCompleted,
		models.StatusRejected,
	} {
		t.Run(string(status), func(t *testing.T) {
			led, _, _, db := newTestLedger(t)
			doctor := seedDoctor(t, db, "sarah", false)
			patient := seedPatient(t, db, "Ali", "+971500000001")
			appointment := seedAppointment(t, db, patient, doctor, status)

			_, err := led.Cancel(context.Background(), appointment.ID, patient.ID)

			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, status, invalid.Status)
			assert.Equal(t, status, currentStatus(t, db, appointment.ID))
		})
	}
}

func TestCancelByNonOwnerIsNotFound(t *testing.T) {
	led, _, _, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", false)
	owner := seedPatient(t, db, "Ali", "+971500000001")
	other := seedPatient(t, db, "Omar", "+971500000002")
	appointment := seedAppointment(t, db, owner, doctor, models.StatusPending)

	_, err := led.Cancel(context.Background(), appointment.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, models.StatusPending, currentStatus(t, db, appointment.ID))
}

func TestListOrderingPerKind(t *testing.T) {
	led, _, _, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")

	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	for _, offset := range []int{2, 0, 1} {
		appointment := &models.Appointment{
			PatientID:   patient.ID,
			DoctorID:    doctor.ID,
			ScheduledAt: base.AddDate(0, 0, offset),
			Status:      models.StatusPending,
		}
		require.NoError(t, db.Create(appointment).Error)
	}

	// Doctors triage soonest-first
	forDoctor, err := led.List(context.Background(), models.Principal{ID: doctor.ID, Kind: models.KindDoctor})
	require.NoError(t, err)
	require.Len(t, forDoctor, 3)
	assert.True(t, forDoctor[0].ScheduledAt.Before(forDoctor[1].ScheduledAt))
	assert.True(t, forDoctor[1].ScheduledAt.Before(forDoctor[2].ScheduledAt))

	// Patients review most-recent-first
	forPatient, err := led.List(context.Background(), models.Principal{ID: patient.ID, Kind: models.KindPatient})
	require.NoError(t, err)
	require.Len(t, forPatient, 3)
	assert.True(t, forPatient[0].ScheduledAt.After(forPatient[1].ScheduledAt))
	assert.True(t, forPatient[1].ScheduledAt.After(forPatient[2].ScheduledAt))
}

func TestListScopedToPrincipal(t *testing.T) {
	led, _, _, db := newTestLedger(t)
	doctorA := seedDoctor(t, db, "sarah", false)
	doctorB := seedDoctor(t, db, "john", false)
	patient := seedPatient(t, db, "Ali", "+971500000001")
	seedAppointment(t, db, patient, doctorA, models.StatusPending)

	forB, err := led.List(context.Background(), models.Principal{ID: doctorB.ID, Kind: models.KindDoctor})
	require.NoError(t, err)
	assert.Empty(t, forB)
}

func TestFullLifecycleScenario(t *testing.T) {
	led, calendar, notifier, db := newTestLedger(t)
	doctor := seedDoctor(t, db, "sarah", true)
	patient := seedPatient(t, db, "Ali", "+971500000001")

	appointment, err := led.Create(context.Background(), CreateInput{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: time.Date(2025, 12, 10, 10, 30, 0, 0, time.UTC),
		Reason:      "Chest pain follow-up",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, appointment.Status)

	approved, err := led.Approve(context.Background(), appointment.ID, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Len(t, calendar.calls, 1)
	assert.Equal(t, "Chest pain follow-up", calendar.calls[0].description)
	assert.Len(t, notifier.sent, 1)

	cancelled, err := led.Cancel(context.Background(), appointment.ID, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	_, err = led.Cancel(context.Background(), appointment.ID, patient.ID)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.StatusCancelled, invalid.Status)
	assert.Equal(t, models.StatusCancelled, currentStatus(t, db, appointment.ID))
}

package ledger

import (
	"strings"

	"medigem-server/internal/models"
)

const messageDateFormat = "January 2, 2006 at 3:04 PM"

// approvalMessage renders the WhatsApp text sent when a doctor approves an
// appointment. Includes the clinic as a location line when one is attached.
func approvalMessage(appointment *models.Appointment) string {
	var b strings.Builder
	b.WriteString("✅ Your appointment with Dr. " + appointmentDoctorName(appointment) + " has been approved!\n\n")
	b.WriteString("📅 Date & Time: " + appointment.ScheduledAt.Format(messageDateFormat) + "\n")
	if appointment.Clinic != nil {
		b.WriteString("📍 Location: " + appointment.Clinic.Name + "\n")
	}
	b.WriteString("\nWe look forward to seeing you!")
	return b.String()
}

// rejectionMessage renders the WhatsApp text sent when a doctor rejects an
// appointment request.
func rejectionMessage(appointment *models.Appointment) string {
	return "❌ Your appointment request with Dr. " + appointmentDoctorName(appointment) + " has been rejected.\n\n" +
		"Please contact us to reschedule or choose another time slot."
}

func appointmentDoctorName(appointment *models.Appointment) string {
	if appointment.Doctor == nil {
		return "your doctor"
	}
	return appointment.Doctor.Name
}

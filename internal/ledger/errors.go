package ledger

import (
	"errors"
	"fmt"

	"medigem-server/internal/models"
)

var (
	// ErrNotFound means no appointment matches the given id and owner.
	ErrNotFound = errors.New("appointment not found")

	// ErrDoctorNotFound means the referenced doctor does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrClinicNotFound means the referenced clinic does not exist.
	ErrClinicNotFound = errors.New("clinic not found")
)

// InvalidTransitionError means the appointment exists but its current
// status does not permit the requested action. The current status is
// surfaced to the caller.
type InvalidTransitionError struct {
	Action string
	Status models.AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("appointment cannot be %s. Current status: %s", e.Action, e.Status)
}

package models

// PrincipalKind tags an authenticated actor as a doctor or a patient.
type PrincipalKind string

const (
	KindDoctor  PrincipalKind = "doctor"
	KindPatient PrincipalKind = "patient"
)

// Principal is an authenticated actor. It is resolved once at the
// authentication boundary and passed down as a value; handlers and the
// ledger authorize on the kind tag plus an ownership-id comparison.
type Principal struct {
	ID   string
	Kind PrincipalKind
}

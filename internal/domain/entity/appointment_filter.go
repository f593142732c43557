package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter is a domain-level filter for querying appointments.
// Used by repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Date      *time.Time // whole calendar day
	Status    AppointmentStatus
}

// AppointmentOwner scopes a lookup to the appointments of one participant.
// RoleID selects the column: doctors own through doctor_id, patients through patient_id.
type AppointmentOwner struct {
	UserID uuid.UUID
	RoleID int
}

func (o AppointmentOwner) IsDoctor() bool {
	return o.RoleID == RoleIDDoctor
}

// Owns reports whether a belongs to the owner
func (o AppointmentOwner) Owns(a *Appointment) bool {
	if o.IsDoctor() {
		return a.DoctorID == o.UserID
	}
	return a.PatientID == o.UserID
}

// AppointmentTransition describes a conditional status change
type AppointmentTransition struct {
	From         []AppointmentStatus
	To           AppointmentStatus
	Prescription string
	Notes        string
	CompletedAt  *time.Time
}

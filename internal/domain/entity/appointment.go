package entity

import (
	"time"

	"telehealth-service/pkg/timefmt"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// appointmentTransitions lists the statuses each state may move to.
// Completed and cancelled have no outgoing edges.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending: {
		AppointmentStatusConfirmed,
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
	},
}

// CanTransitionTo reports whether an appointment in status s may move to next
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// IsActive reports whether the appointment still holds its slot
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// SourceStatuses returns every status from which target can be reached
func SourceStatuses(target AppointmentStatus) []AppointmentStatus {
	var sources []AppointmentStatus
	for _, from := range []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
	} {
		if from.CanTransitionTo(target) {
			sources = append(sources, from)
		}
	}
	return sources
}

// Appointment is a patient's reservation of one doctor slot.
// Date holds the calendar day, Time the 24-hour "HH:MM" clock value.
type Appointment struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Date         time.Time         `gorm:"type:date;not null;index" json:"date"`
	Time         string            `gorm:"type:varchar(5);not null" json:"time"`
	Status       AppointmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Prescription string            `gorm:"type:text" json:"prescription,omitempty"`
	Notes        string            `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient PatientProfile `gorm:"foreignKey:PatientID;references:UserID" json:"patient,omitempty"`
	Doctor  DoctorProfile  `gorm:"foreignKey:DoctorID;references:UserID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// DateString returns the appointment day as YYYY-MM-DD
func (a *Appointment) DateString() string {
	return a.Date.Format(timefmt.DateLayout)
}

// OwnedBy reports whether the user is the patient or the doctor of this appointment
func (a *Appointment) OwnedBy(userID uuid.UUID) bool {
	return a.PatientID == userID || a.DoctorID == userID
}

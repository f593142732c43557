package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctorId" validate:"required"`
	Date     string    `json:"date" validate:"required"` // Format: YYYY-MM-DD
	Time     string    `json:"time" validate:"required"` // Format: HH:MM (24-hour)
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes" validate:"max=4000"`
}

// Response DTOs

type ParticipantResponse struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Specialization string    `json:"specialization,omitempty"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
}

type AppointmentResponse struct {
	ID           uuid.UUID            `json:"id"`
	PatientID    uuid.UUID            `json:"patient_id"`
	DoctorID     uuid.UUID            `json:"doctor_id"`
	Date         string               `json:"date"`
	Time         string               `json:"time"`
	Slot         string               `json:"slot"`
	Status       string               `json:"status"`
	Prescription string               `json:"prescription,omitempty"`
	Notes        string               `json:"notes,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	Patient      *ParticipantResponse `json:"patient,omitempty"`
	Doctor       *ParticipantResponse `json:"doctor,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

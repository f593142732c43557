package dto

import (
	"github.com/google/uuid"
)

// PatientProfileResponse represents patient profile data in responses
type PatientProfileResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	DateOfBirth    string    `json:"date_of_birth,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Address        string    `json:"address,omitempty"`
	MedicalDetails string    `json:"medical_details,omitempty"`
}

// PatientSummaryResponse is one row of a doctor's patient list
type PatientSummaryResponse struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
}

type PatientListResponse struct {
	Patients []PatientSummaryResponse `json:"patients"`
	Page     int                      `json:"page"`
	Limit    int                      `json:"limit"`
	Total    int64                    `json:"total"`
}

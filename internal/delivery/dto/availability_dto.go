package dto

import "github.com/google/uuid"

// Request DTOs

type AvailabilityEntryRequest struct {
	Date  string   `json:"date" validate:"required,isodate"`
	Slots []string `json:"slots" validate:"dive,clock12"`
}

type SetAvailabilityRequest struct {
	Availability []AvailabilityEntryRequest `json:"availability" validate:"dive"`
}

// Response DTOs

type AvailabilityEntryResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type AvailabilityResponse struct {
	DoctorID     uuid.UUID                   `json:"doctor_id"`
	Availability []AvailabilityEntryResponse `json:"availability"`
}

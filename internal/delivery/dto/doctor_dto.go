package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type VerifyDoctorRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// DoctorSearchRequest is read from the directory query string
type DoctorSearchRequest struct {
	Specialization string `json:"specialization" validate:"max=100"`
	Name           string `json:"name" validate:"max=255"`
	MinExperience  *int   `json:"minExperience" validate:"omitempty,gte=0"`
	MaxExperience  *int   `json:"maxExperience" validate:"omitempty,gte=0"`
	SortBy         string `json:"sortBy" validate:"omitempty,oneof=name-asc name-desc experience-high experience-low"`
}

// Response DTOs

// DoctorProfileResponse is the doctor part of a user payload
type DoctorProfileResponse struct {
	LicenseNumber      string `json:"license_number"`
	Specialization     string `json:"specialization"`
	Experience         int    `json:"experience"`
	Address            string `json:"address,omitempty"`
	Biography          string `json:"biography,omitempty"`
	VerificationStatus string `json:"verification_status"`
}

type DoctorResponse struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	FullName           string    `json:"full_name"`
	LicenseNumber      string    `json:"license_number"`
	Specialization     string    `json:"specialization"`
	Experience         int       `json:"experience"`
	Address            string    `json:"address,omitempty"`
	Biography          string    `json:"biography,omitempty"`
	VerificationStatus string    `json:"verification_status"`
	IsActive           *bool     `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}

// BookableDoctorResponse is the directory view of an approved doctor
type BookableDoctorResponse struct {
	ID             uuid.UUID                   `json:"id"`
	FullName       string                      `json:"full_name"`
	Specialization string                      `json:"specialization"`
	Experience     int                         `json:"experience"`
	Address        string                      `json:"address,omitempty"`
	Biography      string                      `json:"biography,omitempty"`
	AvailableSlots []AvailabilityEntryResponse `json:"available_slots"`
}

type BookableDoctorListResponse struct {
	Doctors []BookableDoctorResponse `json:"doctors"`
	Total   int                      `json:"total"`
}

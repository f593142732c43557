package entity

import "github.com/google/uuid"

// DoctorSort orders a doctor directory listing
type DoctorSort string

const (
	DoctorSortNameAsc        DoctorSort = "name-asc"
	DoctorSortNameDesc       DoctorSort = "name-desc"
	DoctorSortExperienceHigh DoctorSort = "experience-high"
	DoctorSortExperienceLow  DoctorSort = "experience-low"
)

// DoctorFilter narrows the directory of bookable doctors.
// Text fields match case-insensitively anywhere in the value.
type DoctorFilter struct {
	Specialization string
	Name           string
	MinExperience  *int
	MaxExperience  *int
	Sort           DoctorSort
}

// PatientFilter pages through the distinct patients of one doctor
type PatientFilter struct {
	DoctorID uuid.UUID
	Search   string // name or email
	Limit    int
	Offset   int
}

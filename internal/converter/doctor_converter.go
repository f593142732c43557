package converter

import (
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"
)

// DoctorToResponse converts a DoctorProfile with its preloaded User to DoctorResponse DTO
func DoctorToResponse(doctor *entity.DoctorProfile) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:                 doctor.UserID,
		Email:              doctor.User.Email,
		FullName:           doctor.User.FullName,
		LicenseNumber:      doctor.LicenseNumber,
		Specialization:     doctor.Specialization,
		Experience:         doctor.Experience,
		Address:            doctor.Address,
		Biography:          doctor.Biography,
		VerificationStatus: string(doctor.VerificationStatus),
		IsActive:           doctor.User.IsActive,
		CreatedAt:          doctor.CreatedAt,
	}
}

func DoctorsToResponses(doctors []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *DoctorToResponse(&doctors[i])
	}
	return responses
}

// DoctorToBookableResponse omits licensing and account fields
func DoctorToBookableResponse(doctor *entity.DoctorProfile) dto.BookableDoctorResponse {
	return dto.BookableDoctorResponse{
		ID:             doctor.UserID,
		FullName:       doctor.User.FullName,
		Specialization: doctor.Specialization,
		Experience:     doctor.Experience,
		Address:        doctor.Address,
		Biography:      doctor.Biography,
		AvailableSlots: AvailabilityToResponse(doctor.UserID, doctor.AvailableSlots).Availability,
	}
}

func DoctorsToBookableResponses(doctors []entity.DoctorProfile) []dto.BookableDoctorResponse {
	responses := make([]dto.BookableDoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = DoctorToBookableResponse(&doctors[i])
	}
	return responses
}

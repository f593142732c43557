package converter

import (
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
// Includes DoctorProfile and PatientProfile if they are loaded
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.RoleName(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.DoctorProfile != nil {
		response.DoctorProfile = &dto.DoctorProfileResponse{
			LicenseNumber:      user.DoctorProfile.LicenseNumber,
			Specialization:     user.DoctorProfile.Specialization,
			Experience:         user.DoctorProfile.Experience,
			Address:            user.DoctorProfile.Address,
			Biography:          user.DoctorProfile.Biography,
			VerificationStatus: string(user.DoctorProfile.VerificationStatus),
		}
	}

	response.PatientProfile = PatientProfileToResponse(user.PatientProfile)

	return response
}

package converter

import (
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"
	"telehealth-service/pkg/timefmt"
)

func PatientProfileToResponse(profile *entity.PatientProfile) *dto.PatientProfileResponse {
	if profile == nil {
		return nil
	}

	response := &dto.PatientProfileResponse{
		UserID:         profile.UserID,
		PhoneNumber:    profile.PhoneNumber,
		Gender:         profile.Gender,
		Address:        profile.Address,
		MedicalDetails: profile.MedicalDetails,
	}
	if profile.DateOfBirth != nil {
		response.DateOfBirth = profile.DateOfBirth.Format(timefmt.DateLayout)
	}
	return response
}

func PatientToSummary(profile *entity.PatientProfile) dto.PatientSummaryResponse {
	summary := dto.PatientSummaryResponse{
		ID:          profile.UserID,
		FullName:    profile.User.FullName,
		Email:       profile.User.Email,
		PhoneNumber: profile.PhoneNumber,
		Gender:      profile.Gender,
	}
	if profile.DateOfBirth != nil {
		summary.DateOfBirth = profile.DateOfBirth.Format(timefmt.DateLayout)
	}
	return summary
}

func PatientsToSummaries(profiles []entity.PatientProfile) []dto.PatientSummaryResponse {
	summaries := make([]dto.PatientSummaryResponse, len(profiles))
	for i := range profiles {
		summaries[i] = PatientToSummary(&profiles[i])
	}
	return summaries
}

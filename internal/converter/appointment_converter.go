package converter

import (
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"
	"telehealth-service/pkg/timefmt"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:           appointment.ID,
		PatientID:    appointment.PatientID,
		DoctorID:     appointment.DoctorID,
		Date:         appointment.DateString(),
		Time:         appointment.Time,
		Status:       string(appointment.Status),
		Prescription: appointment.Prescription,
		Notes:        appointment.Notes,
		CompletedAt:  appointment.CompletedAt,
		CreatedAt:    appointment.CreatedAt,
		UpdatedAt:    appointment.UpdatedAt,
	}
	if slot, err := timefmt.To12Hour(appointment.Time); err == nil {
		response.Slot = slot
	}

	// Include participants when preloaded
	if appointment.Patient.UserID != uuid.Nil {
		response.Patient = &dto.ParticipantResponse{
			ID:          appointment.Patient.UserID,
			FullName:    appointment.Patient.User.FullName,
			Email:       appointment.Patient.User.Email,
			PhoneNumber: appointment.Patient.PhoneNumber,
		}
	}
	if appointment.Doctor.UserID != uuid.Nil {
		response.Doctor = &dto.ParticipantResponse{
			ID:             appointment.Doctor.UserID,
			FullName:       appointment.Doctor.User.FullName,
			Email:          appointment.Doctor.User.Email,
			Specialization: appointment.Doctor.Specialization,
		}
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

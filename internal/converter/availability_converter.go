package converter

import (
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"

	"github.com/google/uuid"
)

func AvailabilityToResponse(doctorID uuid.UUID, availability entity.Availability) *dto.AvailabilityResponse {
	entries := make([]dto.AvailabilityEntryResponse, len(availability))
	for i, e := range availability {
		slots := e.Slots
		if slots == nil {
			slots = []string{}
		}
		entries[i] = dto.AvailabilityEntryResponse{Date: e.Date, Slots: slots}
	}
	return &dto.AvailabilityResponse{
		DoctorID:     doctorID,
		Availability: entries,
	}
}

func AvailabilityRequestToEntries(req *dto.SetAvailabilityRequest) []entity.AvailabilityEntry {
	entries := make([]entity.AvailabilityEntry, len(req.Availability))
	for i, e := range req.Availability {
		entries[i] = entity.AvailabilityEntry{Date: e.Date, Slots: e.Slots}
	}
	return entries
}

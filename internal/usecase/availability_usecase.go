package usecase

import (
	"context"

	"telehealth-service/internal/converter"
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"
	"telehealth-service/internal/domain/repository"
	"telehealth-service/internal/service"
	"telehealth-service/pkg/timefmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AvailabilityUsecase interface {
	GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error)
	SetAvailability(ctx context.Context, actorID, doctorID uuid.UUID, req *dto.SetAvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type availabilityUsecase struct {
	transactor        repository.Transactor
	log               *logrus.Logger
	doctorProfileRepo repository.DoctorProfileRepository
	appointmentRepo   repository.AppointmentRepository
	availability      service.AvailabilityStore
	auditService      service.AuditService
}

func NewAvailabilityUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	doctorProfileRepo repository.DoctorProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	availability service.AvailabilityStore,
	auditService service.AuditService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		transactor:        transactor,
		log:               log,
		doctorProfileRepo: doctorProfileRepo,
		appointmentRepo:   appointmentRepo,
		availability:      availability,
		auditService:      auditService,
	}
}

func (u *availabilityUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error) {
	doctor, err := u.doctorProfileRepo.FindByUserID(u.transactor.DB(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.AvailabilityToResponse(doctor.UserID, doctor.AvailableSlots), nil
}

// SetAvailability replaces the doctor's whole published list. Active
// appointments are not consulted; a slot they hold may be published again.
func (u *availabilityUsecase) SetAvailability(ctx context.Context, actorID, doctorID uuid.UUID, req *dto.SetAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	entries := converter.AvailabilityRequestToEntries(req)
	for _, e := range entries {
		if !timefmt.IsDate(e.Date) {
			return nil, ErrInvalidDateFormat
		}
		for _, s := range e.Slots {
			if !timefmt.IsSlot(s) {
				return nil, ErrInvalidSlotFormat
			}
		}
	}

	var stored entity.Availability
	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		previous, next, err := u.availability.Replace(ctx, tx, doctorID, entries)
		if err != nil {
			return err
		}
		stored = next

		return u.auditService.LogUpdate(ctx, tx, &actorID, entity.AuditActionAvailabilityReplace,
			"doctor_availability", doctorID.String(), previous, next)
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Availability replaced for doctor %s by %s: %d days", doctorID, actorID, len(stored))
	u.warnRepublishedSlots(ctx, doctorID, stored)

	return converter.AvailabilityToResponse(doctorID, stored), nil
}

// warnRepublishedSlots logs active appointments whose slot is free again
func (u *availabilityUsecase) warnRepublishedSlots(ctx context.Context, doctorID uuid.UUID, stored entity.Availability) {
	active, err := u.appointmentRepo.FindActiveByDoctorID(u.transactor.DB(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to check active appointments of doctor %s: %+v", doctorID, err)
		return
	}
	for i := range active {
		slot, err := timefmt.To12Hour(active[i].Time)
		if err != nil {
			continue
		}
		if stored.HasSlot(active[i].DateString(), slot) {
			u.log.Warnf("Slot %s %s of doctor %s is published while appointment %s holds it",
				active[i].DateString(), slot, doctorID, active[i].ID)
		}
	}
}

package service

import (
	"context"
	"errors"

	"telehealth-service/internal/domain/entity"
	"telehealth-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// AvailabilityStore owns every mutation of a doctor's published slots.
// Each call reads the doctor row with FOR UPDATE, so the handle passed in must
// be a transaction; the lock holds until that transaction ends.
type AvailabilityStore interface {
	Replace(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, entries []entity.AvailabilityEntry) (entity.Availability, entity.Availability, error)
	RemoveSlot(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, date, slot string) (bool, error)
	RestoreSlot(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, date, slot string) (bool, error)
}

type availabilityStore struct {
	log        *logrus.Logger
	doctorRepo repository.DoctorProfileRepository
}

func NewAvailabilityStore(log *logrus.Logger, doctorRepo repository.DoctorProfileRepository) AvailabilityStore {
	return &availabilityStore{
		log:        log,
		doctorRepo: doctorRepo,
	}
}

func (s *availabilityStore) lock(tx *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	doctor, err := s.doctorRepo.FindByUserIDForUpdate(tx, doctorID)
	if err != nil {
		s.log.Warnf("Failed to lock doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return doctor, nil
}

// Replace swaps the whole list and returns the previous and the stored value
func (s *availabilityStore) Replace(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, entries []entity.AvailabilityEntry) (entity.Availability, entity.Availability, error) {
	doctor, err := s.lock(tx, doctorID)
	if err != nil {
		return nil, nil, err
	}

	next := entity.NormalizeAvailability(entries)
	if err := s.doctorRepo.UpdateAvailability(tx, doctorID, next); err != nil {
		s.log.Warnf("Failed to replace availability: %+v", err)
		return nil, nil, err
	}

	return doctor.AvailableSlots, next, nil
}

func (s *availabilityStore) RemoveSlot(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, date, slot string) (bool, error) {
	return s.mutate(tx, doctorID, func(a entity.Availability) bool {
		return a.RemoveSlot(date, slot)
	})
}

func (s *availabilityStore) RestoreSlot(ctx context.Context, tx *gorm.DB, doctorID uuid.UUID, date, slot string) (bool, error) {
	return s.mutate(tx, doctorID, func(a entity.Availability) bool {
		return a.RestoreSlot(date, slot)
	})
}

// mutate writes back only when change reports that something moved
func (s *availabilityStore) mutate(tx *gorm.DB, doctorID uuid.UUID, change func(entity.Availability) bool) (bool, error) {
	doctor, err := s.lock(tx, doctorID)
	if err != nil {
		return false, err
	}

	slots := doctor.AvailableSlots.Clone()
	if !change(slots) {
		return false, nil
	}

	if err := s.doctorRepo.UpdateAvailability(tx, doctorID, slots); err != nil {
		s.log.Warnf("Failed to update availability: %+v", err)
		return false, err
	}
	return true, nil
}

package repository

import (
	"telehealth-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(db *gorm.DB, profile *entity.DoctorProfile) error
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	// FindByUserIDForUpdate locks the doctor row until the surrounding transaction ends.
	FindByUserIDForUpdate(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	FindAll(db *gorm.DB, status entity.VerificationStatus) ([]entity.DoctorProfile, error)
	// FindBookable lists approved doctors whose user account is active
	FindBookable(db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, error)
	UpdateAvailability(db *gorm.DB, userID uuid.UUID, availability entity.Availability) error
	UpdateVerification(db *gorm.DB, userID uuid.UUID, status entity.VerificationStatus) (int64, error)
}

package repository

import (
	"telehealth-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientProfileRepository interface {
	Create(db *gorm.DB, profile *entity.PatientProfile) error
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error)
	// FindByDoctor lists each patient with at least one appointment with the doctor once
	FindByDoctor(db *gorm.DB, filter *entity.PatientFilter) ([]entity.PatientProfile, int64, error)
}

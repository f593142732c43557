package repository

import (
	"errors"

	"telehealth-service/internal/domain/entity"
	domainRepo "telehealth-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientProfileRepository struct{}

func NewPatientProfileRepository() domainRepo.PatientProfileRepository {
	return &patientProfileRepository{}
}

func (r *patientProfileRepository) Create(db *gorm.DB, profile *entity.PatientProfile) error {
	return db.Create(profile).Error
}

func (r *patientProfileRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	var profile entity.PatientProfile
	err := db.Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindByDoctor pages through distinct patients of a doctor ordered by name.
// The total counts patients, not appointments.
func (r *patientProfileRepository) FindByDoctor(db *gorm.DB, filter *entity.PatientFilter) ([]entity.PatientProfile, int64, error) {
	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(&entity.PatientProfile{}).
			Joins("JOIN users ON users.id = patient_profiles.user_id").
			Where("EXISTS (SELECT 1 FROM appointments WHERE appointments.patient_id = patient_profiles.user_id AND appointments.doctor_id = ?)", filter.DoctorID)
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			tx = tx.Where("(users.full_name ILIKE ? OR users.email ILIKE ?)", pattern, pattern)
		}
		return tx
	}

	var total int64
	if err := db.Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []entity.PatientProfile
	err := db.Scopes(scope).
		Preload("User").
		Order("users.full_name ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

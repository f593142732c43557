package repository

import (
	"errors"

	"telehealth-service/internal/domain/entity"
	domainRepo "telehealth-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) Create(db *gorm.DB, profile *entity.DoctorProfile) error {
	return db.Create(profile).Error
}

func (r *doctorProfileRepository) FindByUserID(db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.Preload("User").Where("user_id = ?", doctorID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindByUserIDForUpdate issues SELECT ... FOR UPDATE. Must run inside a transaction.
func (r *doctorProfileRepository) FindByUserIDForUpdate(db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", doctorID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *doctorProfileRepository) FindAll(db *gorm.DB, status entity.VerificationStatus) ([]entity.DoctorProfile, error) {
	var profiles []entity.DoctorProfile
	query := db.Preload("User")
	if status != "" {
		query = query.Where("verification_status = ?", status)
	}
	err := query.Order("created_at ASC").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// FindBookable returns approved doctors only when their user account is active.
func (r *doctorProfileRepository) FindBookable(db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	var profiles []entity.DoctorProfile
	query := db.
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("users.is_active = ? AND doctor_profiles.verification_status = ?", true, entity.VerificationApproved)

	var sort entity.DoctorSort
	if filter != nil {
		if filter.Specialization != "" {
			query = query.Where("doctor_profiles.specialization ILIKE ?", "%"+filter.Specialization+"%")
		}
		if filter.Name != "" {
			query = query.Where("users.full_name ILIKE ?", "%"+filter.Name+"%")
		}
		if filter.MinExperience != nil {
			query = query.Where("doctor_profiles.experience >= ?", *filter.MinExperience)
		}
		if filter.MaxExperience != nil {
			query = query.Where("doctor_profiles.experience <= ?", *filter.MaxExperience)
		}
		sort = filter.Sort
	}

	err := query.
		Preload("User").
		Order(doctorOrder(sort)).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func doctorOrder(sort entity.DoctorSort) string {
	switch sort {
	case entity.DoctorSortNameDesc:
		return "users.full_name DESC"
	case entity.DoctorSortExperienceHigh:
		return "doctor_profiles.experience DESC, users.full_name ASC"
	case entity.DoctorSortExperienceLow:
		return "doctor_profiles.experience ASC, users.full_name ASC"
	default:
		return "users.full_name ASC"
	}
}

func (r *doctorProfileRepository) UpdateAvailability(db *gorm.DB, doctorID uuid.UUID, availability entity.Availability) error {
	return db.Model(&entity.DoctorProfile{}).
		Where("user_id = ?", doctorID).
		Update("available_slots", availability).Error
}

func (r *doctorProfileRepository) UpdateVerification(db *gorm.DB, doctorID uuid.UUID, status entity.VerificationStatus) (int64, error) {
	result := db.Model(&entity.DoctorProfile{}).
		Where("user_id = ?", doctorID).
		Update("verification_status", status)
	return result.RowsAffected, result.Error
}

package repository

import (
	"errors"

	"telehealth-service/internal/domain/entity"
	domainRepo "telehealth-service/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Create(log).Error
}

func auditLogScope(filter *entity.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Model(&entity.AuditLog{})
		if filter.Action != "" {
			db = db.Where("action = ?", filter.Action)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.Entity != "" {
			db = db.Where("metadata->>'entity' = ?", filter.Entity)
		}
		if filter.EntityID != "" {
			db = db.Where("metadata->>'entity_id' = ?", filter.EntityID)
		}
		return db
	}
}

func (r *auditLogRepository) FindByFilter(db *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	if filter == nil {
		filter = &entity.AuditLogFilter{}
	}

	var total int64
	if err := db.Scopes(auditLogScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []entity.AuditLog
	query := db.Scopes(auditLogScope(filter)).
		Preload("User.Role").
		Order("created_at DESC, id DESC").
		Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *auditLogRepository) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.Preload("User.Role").First(&log, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

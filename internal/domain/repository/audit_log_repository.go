package repository

import (
	"telehealth-service/internal/domain/entity"

	"gorm.io/gorm"
)

// AuditLogRepository is append-only; entries are never updated or deleted
type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	// FindByFilter returns one page newest first together with the filtered total
	FindByFilter(db *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, int64, error)
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
}

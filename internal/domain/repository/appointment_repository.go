package repository

import (
	"telehealth-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindOwned(db *gorm.DB, id uuid.UUID, owner entity.AppointmentOwner) (*entity.Appointment, error)
	FindByFilter(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	FindActiveByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	// Transition applies t only to the row matching id, owner and one of the
	// statuses t.From. It returns the number of rows changed.
	Transition(db *gorm.DB, id uuid.UUID, owner entity.AppointmentOwner, t entity.AppointmentTransition) (int64, error)
}

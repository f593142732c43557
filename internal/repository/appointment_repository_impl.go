package repository

import (
	"errors"

	"telehealth-service/internal/domain/entity"
	domainRepo "telehealth-service/internal/domain/repository"
	"telehealth-service/pkg/timefmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func ownerColumn(owner entity.AppointmentOwner) string {
	if owner.IsDoctor() {
		return "doctor_id"
	}
	return "patient_id"
}

func withParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Patient.User").Preload("Doctor.User")
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := withParticipants(db).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindOwned(db *gorm.DB, id uuid.UUID, owner entity.AppointmentOwner) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("id = ? AND "+ownerColumn(owner)+" = ?", id, owner.UserID).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// FindByFilter lists appointments newest day first, earliest time first within a day.
func (r *appointmentRepository) FindByFilter(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := withParticipants(db)

	if filter != nil {
		if filter.PatientID != nil {
			query = query.Where("patient_id = ?", *filter.PatientID)
		}
		if filter.DoctorID != nil {
			query = query.Where("doctor_id = ?", *filter.DoctorID)
		}
		if filter.Date != nil {
			query = query.Where("date = ?", filter.Date.Format(timefmt.DateLayout))
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	err := query.Order("date DESC, time ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindActiveByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("doctor_id = ? AND status IN ?", doctorID, []entity.AppointmentStatus{
		entity.AppointmentStatusPending,
		entity.AppointmentStatusConfirmed,
	}).Order("date ASC, time ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// Transition updates the row only when id, owner and current status all match.
// Returns affected rows: 1 = applied, 0 = missing, foreign or already moved on.
func (r *appointmentRepository) Transition(db *gorm.DB, id uuid.UUID, owner entity.AppointmentOwner, t entity.AppointmentTransition) (int64, error) {
	updates := map[string]interface{}{"status": t.To}
	if t.Prescription != "" {
		updates["prescription"] = t.Prescription
	}
	if t.Notes != "" {
		updates["notes"] = t.Notes
	}
	if t.CompletedAt != nil {
		updates["completed_at"] = *t.CompletedAt
	}

	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND "+ownerColumn(owner)+" = ? AND status IN ?", id, owner.UserID, t.From).
		Updates(updates)
	return result.RowsAffected, result.Error
}

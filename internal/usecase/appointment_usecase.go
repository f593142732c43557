package usecase

import (
	"context"
	"errors"
	"time"

	"telehealth-service/internal/converter"
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"
	"telehealth-service/internal/domain/repository"
	"telehealth-service/internal/infrastructure/metrics"
	"telehealth-service/internal/service"
	"telehealth-service/pkg/timefmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidDateFormat = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidTimeFormat = errors.New("invalid time format, use HH:MM")
	ErrInvalidSlotFormat = errors.New("invalid slot format, use hh:MM AM/PM")
	ErrPastDate          = errors.New("cannot book an appointment in the past")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrDoctorNotFound    = service.ErrDoctorNotFound
	ErrSlotUnavailable   = errors.New("selected time slot is not available")
)

type AppointmentUsecase interface {
	Book(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	GetPatientAppointments(ctx context.Context, patientID uuid.UUID, date string) (*dto.AppointmentListResponse, error)
	GetDoctorAppointments(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AppointmentListResponse, error)
	GetAllAppointments(ctx context.Context, date string) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	transactor        repository.Transactor
	log               *logrus.Logger
	appointmentRepo   repository.AppointmentRepository
	doctorProfileRepo repository.DoctorProfileRepository
	patientRepo       repository.PatientProfileRepository
	availability      service.AvailabilityStore
	auditService      service.AuditService
	publisher         service.EventPublisher
	metrics           metrics.Recorder
	now               func() time.Time
}

func NewAppointmentUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	patientRepo repository.PatientProfileRepository,
	availability service.AvailabilityStore,
	auditService service.AuditService,
	publisher service.EventPublisher,
	recorder metrics.Recorder,
	now func() time.Time,
) AppointmentUsecase {
	if now == nil {
		now = time.Now
	}
	return &appointmentUsecase{
		transactor:        transactor,
		log:               log,
		appointmentRepo:   appointmentRepo,
		doctorProfileRepo: doctorProfileRepo,
		patientRepo:       patientRepo,
		availability:      availability,
		auditService:      auditService,
		publisher:         publisher,
		metrics:           recorder,
		now:               now,
	}
}

// Book reserves one published slot for the patient.
//
// Validation short-circuits in this order: date/time format, past date,
// patient, doctor, slot presence. The slot removal and the appointment insert
// share one transaction that holds the doctor row lock, so two requests for
// the same slot cannot both succeed.
func (u *appointmentUsecase) Book(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.book(ctx, patientID, req)
	switch {
	case err == nil:
		u.metrics.RecordBooking(metrics.OutcomeSuccess)
	case isBusinessError(err):
		u.metrics.RecordBooking(metrics.OutcomeRejected)
	default:
		u.metrics.RecordBooking(metrics.OutcomeError)
	}
	if err != nil {
		return nil, err
	}

	u.log.Infof("Appointment booked: id=%s, doctor=%s, date=%s, time=%s", appointment.ID, appointment.DoctorID, req.Date, req.Time)
	publishAppointmentEvent(ctx, u.publisher, u.log, service.EventAppointmentBooked, appointment, patientID, u.now())

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) book(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*entity.Appointment, error) {
	date, err := timefmt.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	slot, err := timefmt.To12Hour(req.Time)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}

	if timefmt.IsBefore(req.Date, timefmt.Today(u.now())) {
		return nil, ErrPastDate
	}

	db := u.transactor.DB(ctx)

	patient, err := u.patientRepo.FindByUserID(db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	doctor, err := u.doctorProfileRepo.FindByUserID(db, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	// Cheap rejection before taking the lock; the transaction re-checks.
	if !doctor.AvailableSlots.HasSlot(req.Date, slot) {
		return nil, ErrSlotUnavailable
	}

	appointment := &entity.Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctor.UserID,
		Date:      date,
		Time:      req.Time,
		Status:    entity.AppointmentStatusPending,
	}

	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		removed, err := u.availability.RemoveSlot(ctx, tx, doctor.UserID, req.Date, slot)
		if err != nil {
			return err
		}
		if !removed {
			return ErrSlotUnavailable
		}

		if err := u.appointmentRepo.Create(tx, appointment); err != nil {
			// a republished slot can still be held by an active appointment
			if isDuplicateKeyError(err, "active_slot") {
				return ErrSlotUnavailable
			}
			u.log.Warnf("Failed to create appointment: %+v", err)
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &patientID, entity.AuditActionAppointmentBook,
			"appointment", appointment.ID.String(), appointmentSnapshot(appointment))
	})
	if err != nil {
		return nil, err
	}

	appointment.Patient = *patient
	appointment.Doctor = *doctor
	return appointment, nil
}

func (u *appointmentUsecase) GetPatientAppointments(ctx context.Context, patientID uuid.UUID, date string) (*dto.AppointmentListResponse, error) {
	return u.list(ctx, &entity.AppointmentFilter{PatientID: &patientID}, date)
}

func (u *appointmentUsecase) GetDoctorAppointments(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AppointmentListResponse, error) {
	return u.list(ctx, &entity.AppointmentFilter{DoctorID: &doctorID}, date)
}

func (u *appointmentUsecase) GetAllAppointments(ctx context.Context, date string) (*dto.AppointmentListResponse, error) {
	return u.list(ctx, &entity.AppointmentFilter{}, date)
}

func (u *appointmentUsecase) list(ctx context.Context, filter *entity.AppointmentFilter, date string) (*dto.AppointmentListResponse, error) {
	if date != "" {
		day, err := timefmt.ParseDate(date)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		filter.Date = &day
	}

	appointments, err := u.appointmentRepo.FindByFilter(u.transactor.DB(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// isBusinessError reports errors caused by the request rather than the system
func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrInvalidDateFormat,
		ErrInvalidTimeFormat,
		ErrInvalidSlotFormat,
		ErrPastDate,
		ErrPatientNotFound,
		ErrDoctorNotFound,
		ErrSlotUnavailable,
		ErrAppointmentNotFound,
		ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func appointmentSnapshot(a *entity.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"patient_id": a.PatientID.String(),
		"doctor_id":  a.DoctorID.String(),
		"date":       a.DateString(),
		"time":       a.Time,
		"status":     string(a.Status),
	}
}

// publishAppointmentEvent runs after commit. A broker failure never undoes the change.
func publishAppointmentEvent(ctx context.Context, publisher service.EventPublisher, log *logrus.Logger, eventType string, a *entity.Appointment, actorID uuid.UUID, at time.Time) {
	event := service.AppointmentEvent{
		Type:          eventType,
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.DateString(),
		Time:          a.Time,
		Status:        string(a.Status),
		ActorID:       actorID,
		OccurredAt:    at,
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warnf("Failed to publish %s for appointment %s: %+v", eventType, a.ID, err)
	}
}

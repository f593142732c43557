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
	ErrAppointmentNotFound = errors.New("appointment not found or cannot be transitioned")
	ErrInvalidTransition   = errors.New("appointment status does not allow this action")
)

type AppointmentLifecycleUsecase interface {
	Confirm(ctx context.Context, doctorID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	CancelByPatient(ctx context.Context, patientID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	CancelByDoctor(ctx context.Context, doctorID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, doctorID, appointmentID uuid.UUID, req *dto.CompleteAppointmentRequest, prescription *service.PrescriptionFile) (*dto.AppointmentResponse, error)
}

type appointmentLifecycleUsecase struct {
	transactor      repository.Transactor
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	availability    service.AvailabilityStore
	auditService    service.AuditService
	publisher       service.EventPublisher
	storage         service.PrescriptionStorage
	metrics         metrics.Recorder
	now             func() time.Time
}

func NewAppointmentLifecycleUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	availability service.AvailabilityStore,
	auditService service.AuditService,
	publisher service.EventPublisher,
	storage service.PrescriptionStorage,
	recorder metrics.Recorder,
	now func() time.Time,
) AppointmentLifecycleUsecase {
	if now == nil {
		now = time.Now
	}
	return &appointmentLifecycleUsecase{
		transactor:      transactor,
		log:             log,
		appointmentRepo: appointmentRepo,
		availability:    availability,
		auditService:    auditService,
		publisher:       publisher,
		storage:         storage,
		metrics:         recorder,
		now:             now,
	}
}

// transitionRequest is one status change requested by a participant
type transitionRequest struct {
	owner       entity.AppointmentOwner
	id          uuid.UUID
	change      entity.AppointmentTransition
	action      string
	eventType   string
	restoreSlot bool
	// returned when the owned appointment is past the point of this change
	rejectErr error
}

func (u *appointmentLifecycleUsecase) Confirm(ctx context.Context, doctorID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.apply(ctx, transitionRequest{
		owner:     entity.AppointmentOwner{UserID: doctorID, RoleID: entity.RoleIDDoctor},
		id:        appointmentID,
		change:    entity.AppointmentTransition{To: entity.AppointmentStatusConfirmed},
		action:    entity.AuditActionAppointmentConfirm,
		eventType: service.EventAppointmentConfirmed,
		rejectErr: ErrInvalidTransition,
	})
}

func (u *appointmentLifecycleUsecase) CancelByPatient(ctx context.Context, patientID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.cancel(ctx, entity.AppointmentOwner{UserID: patientID, RoleID: entity.RoleIDPatient}, appointmentID)
}

func (u *appointmentLifecycleUsecase) CancelByDoctor(ctx context.Context, doctorID, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.cancel(ctx, entity.AppointmentOwner{UserID: doctorID, RoleID: entity.RoleIDDoctor}, appointmentID)
}

func (u *appointmentLifecycleUsecase) cancel(ctx context.Context, owner entity.AppointmentOwner, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.apply(ctx, transitionRequest{
		owner:       owner,
		id:          appointmentID,
		change:      entity.AppointmentTransition{To: entity.AppointmentStatusCancelled},
		action:      entity.AuditActionAppointmentCancel,
		eventType:   service.EventAppointmentCancelled,
		restoreSlot: true,
		rejectErr:   ErrAppointmentNotFound,
	})
}

// Complete closes the consultation. The prescription is uploaded before the
// status changes, so a failed upload leaves the appointment untouched.
func (u *appointmentLifecycleUsecase) Complete(ctx context.Context, doctorID, appointmentID uuid.UUID, req *dto.CompleteAppointmentRequest, prescription *service.PrescriptionFile) (*dto.AppointmentResponse, error) {
	owner := entity.AppointmentOwner{UserID: doctorID, RoleID: entity.RoleIDDoctor}

	current, err := u.appointmentRepo.FindOwned(u.transactor.DB(ctx), appointmentID, owner)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if current == nil {
		u.metrics.RecordTransition(string(entity.AppointmentStatusCompleted), metrics.OutcomeRejected)
		return nil, ErrAppointmentNotFound
	}
	if !current.Status.CanTransitionTo(entity.AppointmentStatusCompleted) {
		u.metrics.RecordTransition(string(entity.AppointmentStatusCompleted), metrics.OutcomeRejected)
		return nil, ErrInvalidTransition
	}

	completedAt := u.now()
	change := entity.AppointmentTransition{
		To:          entity.AppointmentStatusCompleted,
		CompletedAt: &completedAt,
	}
	if req != nil {
		change.Notes = req.Notes
	}

	if prescription != nil {
		url, err := u.storage.Upload(ctx, appointmentID, prescription)
		if err != nil {
			u.log.Warnf("Failed to upload prescription for appointment %s: %+v", appointmentID, err)
			u.metrics.RecordTransition(string(entity.AppointmentStatusCompleted), metrics.OutcomeError)
			return nil, err
		}
		change.Prescription = url
	}

	return u.apply(ctx, transitionRequest{
		owner:     owner,
		id:        appointmentID,
		change:    change,
		action:    entity.AuditActionAppointmentComplete,
		eventType: service.EventAppointmentCompleted,
		rejectErr: ErrInvalidTransition,
	})
}

// apply runs the conditional status update and its side effects in one transaction.
//
// Appointments owned by someone else read as not found. An owned appointment
// whose status cannot reach the target yields req.rejectErr: cancelling a
// cancelled or completed appointment reads as not found, while confirm and
// complete report ErrInvalidTransition.
func (u *appointmentLifecycleUsecase) apply(ctx context.Context, req transitionRequest) (*dto.AppointmentResponse, error) {
	req.change.From = entity.SourceStatuses(req.change.To)
	target := string(req.change.To)

	var updated *entity.Appointment
	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		current, err := u.appointmentRepo.FindOwned(tx, req.id, req.owner)
		if err != nil {
			u.log.Warnf("Failed to find appointment %s: %+v", req.id, err)
			return err
		}
		if current == nil {
			return ErrAppointmentNotFound
		}
		if !current.Status.CanTransitionTo(req.change.To) {
			return req.rejectErr
		}

		rows, err := u.appointmentRepo.Transition(tx, req.id, req.owner, req.change)
		if err != nil {
			u.log.Warnf("Failed to transition appointment %s to %s: %+v", req.id, target, err)
			return err
		}
		// Lost a race with another transition between the read and the update
		if rows == 0 {
			return req.rejectErr
		}

		updated, err = u.appointmentRepo.FindByID(tx, req.id)
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrAppointmentNotFound
		}

		if req.restoreSlot {
			if err := u.restoreSlot(ctx, tx, updated); err != nil {
				return err
			}
		}

		actorID := req.owner.UserID
		return u.auditService.LogUpdate(ctx, tx, &actorID, req.action, "appointment", req.id.String(),
			map[string]interface{}{"status": string(current.Status)},
			appointmentSnapshot(updated))
	})
	if err != nil {
		if isBusinessError(err) {
			u.metrics.RecordTransition(target, metrics.OutcomeRejected)
		} else {
			u.metrics.RecordTransition(target, metrics.OutcomeError)
		}
		return nil, err
	}

	u.metrics.RecordTransition(target, metrics.OutcomeSuccess)
	u.log.Infof("Appointment %s moved to %s by %s", req.id, target, req.owner.UserID)
	publishAppointmentEvent(ctx, u.publisher, u.log, req.eventType, updated, req.owner.UserID, u.now())

	return converter.AppointmentToResponse(updated), nil
}

// restoreSlot puts the cancelled slot back. A doctor record that no longer
// exists has nothing to restore into, which does not block the cancellation.
func (u *appointmentLifecycleUsecase) restoreSlot(ctx context.Context, tx *gorm.DB, a *entity.Appointment) error {
	slot, err := timefmt.To12Hour(a.Time)
	if err != nil {
		u.log.Warnf("Appointment %s has malformed time %q, slot not restored", a.ID, a.Time)
		return nil
	}

	restored, err := u.availability.RestoreSlot(ctx, tx, a.DoctorID, a.DateString(), slot)
	if err != nil {
		if errors.Is(err, service.ErrDoctorNotFound) {
			u.log.Warnf("Doctor %s not found while restoring slot for appointment %s", a.DoctorID, a.ID)
			return nil
		}
		return err
	}
	if !restored {
		u.log.Infof("Slot %s %s not restored for doctor %s, day unpublished or slot already free", a.DateString(), slot, a.DoctorID)
	}
	return nil
}

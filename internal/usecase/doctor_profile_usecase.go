package usecase

import (
	"context"
	"errors"
	"strings"

	"telehealth-service/internal/converter"
	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/domain/entity"
	"telehealth-service/internal/domain/repository"
	"telehealth-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidVerificationAction = errors.New("action must be approve or reject")
	ErrDoctorAlreadyReviewed     = errors.New("doctor verification already decided")
	ErrInvalidExperienceRange    = errors.New("minimum experience cannot exceed maximum experience")
)

const (
	defaultPatientPageSize = 10
	maxPatientPageSize     = 100
)

type DoctorProfileUsecase interface {
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	GetPendingDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	VerifyDoctor(ctx context.Context, adminID, doctorID uuid.UUID, req *dto.VerifyDoctorRequest) (*dto.DoctorResponse, error)

	// Directory of bookable doctors, open to every signed-in role
	SearchDoctors(ctx context.Context, req *dto.DoctorSearchRequest) (*dto.BookableDoctorListResponse, error)
	GetBookableDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.BookableDoctorResponse, error)

	GetMyPatients(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) (*dto.PatientListResponse, error)
}

type doctorProfileUsecase struct {
	transactor        repository.Transactor
	log               *logrus.Logger
	doctorProfileRepo repository.DoctorProfileRepository
	patientRepo       repository.PatientProfileRepository
	auditService      service.AuditService
}

func NewDoctorProfileUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	doctorProfileRepo repository.DoctorProfileRepository,
	patientRepo repository.PatientProfileRepository,
	auditService service.AuditService,
) DoctorProfileUsecase {
	return &doctorProfileUsecase{
		transactor:        transactor,
		log:               log,
		doctorProfileRepo: doctorProfileRepo,
		patientRepo:       patientRepo,
		auditService:      auditService,
	}
}

func (u *doctorProfileUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorProfileRepo.FindByUserID(u.transactor.DB(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorProfileUsecase) GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	return u.list(ctx, "")
}

func (u *doctorProfileUsecase) GetPendingDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	return u.list(ctx, entity.VerificationPending)
}

func (u *doctorProfileUsecase) list(ctx context.Context, status entity.VerificationStatus) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorProfileRepo.FindAll(u.transactor.DB(ctx), status)
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

// VerifyDoctor records the admin decision on a pending doctor account
func (u *doctorProfileUsecase) VerifyDoctor(ctx context.Context, adminID, doctorID uuid.UUID, req *dto.VerifyDoctorRequest) (*dto.DoctorResponse, error) {
	var status entity.VerificationStatus
	switch req.Action {
	case "approve":
		status = entity.VerificationApproved
	case "reject":
		status = entity.VerificationRejected
	default:
		return nil, ErrInvalidVerificationAction
	}

	var doctor *entity.DoctorProfile
	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		current, err := u.doctorProfileRepo.FindByUserIDForUpdate(tx, doctorID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrDoctorNotFound
		}
		if current.VerificationStatus != entity.VerificationPending {
			return ErrDoctorAlreadyReviewed
		}

		if _, err := u.doctorProfileRepo.UpdateVerification(tx, doctorID, status); err != nil {
			u.log.Warnf("Failed to update verification of doctor %s: %+v", doctorID, err)
			return err
		}

		if err := u.auditService.LogUpdate(ctx, tx, &adminID, entity.AuditActionDoctorVerify, "doctor", doctorID.String(),
			map[string]interface{}{"verification_status": string(current.VerificationStatus)},
			map[string]interface{}{"verification_status": string(status)}); err != nil {
			return err
		}

		doctor, err = u.doctorProfileRepo.FindByUserID(tx, doctorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Doctor %s %s by admin %s", doctorID, status, adminID)
	return converter.DoctorToResponse(doctor), nil
}

// SearchDoctors lists approved doctors with active accounts, by name unless
// another order is requested
func (u *doctorProfileUsecase) SearchDoctors(ctx context.Context, req *dto.DoctorSearchRequest) (*dto.BookableDoctorListResponse, error) {
	filter := &entity.DoctorFilter{}
	if req != nil {
		if req.MinExperience != nil && req.MaxExperience != nil && *req.MinExperience > *req.MaxExperience {
			return nil, ErrInvalidExperienceRange
		}
		filter.Specialization = strings.TrimSpace(req.Specialization)
		filter.Name = strings.TrimSpace(req.Name)
		filter.MinExperience = req.MinExperience
		filter.MaxExperience = req.MaxExperience
		filter.Sort = entity.DoctorSort(req.SortBy)
	}

	doctors, err := u.doctorProfileRepo.FindBookable(u.transactor.DB(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to search doctors: %+v", err)
		return nil, err
	}

	return &dto.BookableDoctorListResponse{
		Doctors: converter.DoctorsToBookableResponses(doctors),
		Total:   len(doctors),
	}, nil
}

// GetBookableDoctor hides pending, rejected and deactivated doctors as not found
func (u *doctorProfileUsecase) GetBookableDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.BookableDoctorResponse, error) {
	doctor, err := u.doctorProfileRepo.FindByUserID(u.transactor.DB(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil || !doctor.IsVerified() || !doctor.User.Active() {
		return nil, ErrDoctorNotFound
	}

	resp := converter.DoctorToBookableResponse(doctor)
	return &resp, nil
}

// GetMyPatients pages through everyone who has booked the doctor at least once.
// search matches name or email.
func (u *doctorProfileUsecase) GetMyPatients(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) (*dto.PatientListResponse, error) {
	if limit <= 0 {
		limit = defaultPatientPageSize
	}
	if limit > maxPatientPageSize {
		limit = maxPatientPageSize
	}
	if page <= 0 {
		page = 1
	}

	db := u.transactor.DB(ctx)
	doctor, err := u.doctorProfileRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	patients, total, err := u.patientRepo.FindByDoctor(db, &entity.PatientFilter{
		DoctorID: doctorID,
		Search:   strings.TrimSpace(search),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		u.log.Warnf("Failed to find patients of doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToSummaries(patients),
		Page:     page,
		Limit:    limit,
		Total:    total,
	}, nil
}

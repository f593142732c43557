package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/delivery/http/middleware"
	"telehealth-service/internal/service"
	"telehealth-service/internal/usecase"
	"telehealth-service/pkg/response"
	"telehealth-service/pkg/validator"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxPrescriptionSize = 10 << 20

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	lifecycleUsecase   usecase.AppointmentLifecycleUsecase
	validator          *validator.CustomValidator
	log                *logrus.Logger
}

func NewAppointmentHandler(
	appointmentUsecase usecase.AppointmentUsecase,
	lifecycleUsecase usecase.AppointmentLifecycleUsecase,
	validator *validator.CustomValidator,
	log *logrus.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		lifecycleUsecase:   lifecycleUsecase,
		validator:          validator,
		log:                log,
	}
}

// writeAppointmentError maps usecase errors to HTTP responses
func (h *AppointmentHandler) writeAppointmentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidDateFormat),
		errors.Is(err, usecase.ErrInvalidTimeFormat),
		errors.Is(err, usecase.ErrPastDate),
		errors.Is(err, usecase.ErrSlotUnavailable),
		errors.Is(err, usecase.ErrInvalidTransition):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrPatientNotFound),
		errors.Is(err, usecase.ErrDoctorNotFound),
		errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, err.Error())
	default:
		h.log.Errorf("%s: %+v", fallback, err)
		response.InternalServerError(w, fallback)
	}
}

// Book handles appointment booking
// @Summary Book an appointment
// @Tags Appointment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BookAppointmentRequest true "Booking Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /appointment/book [post]
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Book(r.Context(), patientID, &req)
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to book appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

// GetMyAppointments lists the patient's appointments, optionally for one ?date=
func (h *AppointmentHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	appointments, err := h.appointmentUsecase.GetPatientAppointments(r.Context(), patientID, r.URL.Query().Get("date"))
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	appointments, err := h.appointmentUsecase.GetDoctorAppointments(r.Context(), doctorID, r.URL.Query().Get("date"))
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentUsecase.GetAllAppointments(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

// actorAndAppointment reads the caller id from context and the appointment id from the path
func actorAndAppointment(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return uuid.Nil, uuid.Nil, false
	}

	appointmentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, appointmentID, true
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := actorAndAppointment(w, r)
	if !ok {
		return
	}

	appointment, err := h.lifecycleUsecase.CancelByPatient(r.Context(), patientID, appointmentID)
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

func (h *AppointmentHandler) DoctorCancel(w http.ResponseWriter, r *http.Request) {
	doctorID, appointmentID, ok := actorAndAppointment(w, r)
	if !ok {
		return
	}

	appointment, err := h.lifecycleUsecase.CancelByDoctor(r.Context(), doctorID, appointmentID)
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	doctorID, appointmentID, ok := actorAndAppointment(w, r)
	if !ok {
		return
	}

	appointment, err := h.lifecycleUsecase.Confirm(r.Context(), doctorID, appointmentID)
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to confirm appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment confirmed successfully", appointment)
}

// Complete accepts multipart/form-data with optional "notes" and "prescription"
// fields, or a JSON body carrying notes only.
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	doctorID, appointmentID, ok := actorAndAppointment(w, r)
	if !ok {
		return
	}

	var (
		req  dto.CompleteAppointmentRequest
		file *service.PrescriptionFile
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxPrescriptionSize+1<<20)
		if err := r.ParseMultipartForm(maxPrescriptionSize); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid multipart form", nil)
			return
		}
		req.Notes = r.FormValue("notes")

		upload, header, err := r.FormFile("prescription")
		switch {
		case err == nil:
			defer upload.Close()
			file = prescriptionFile(upload, header)
		case !errors.Is(err, http.ErrMissingFile):
			response.Error(w, http.StatusBadRequest, "Invalid prescription file", nil)
			return
		}
	} else if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.lifecycleUsecase.Complete(r.Context(), doctorID, appointmentID, &req, file)
	if err != nil {
		h.writeAppointmentError(w, err, "Failed to complete appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment completed successfully", appointment)
}

func prescriptionFile(f multipart.File, header *multipart.FileHeader) *service.PrescriptionFile {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &service.PrescriptionFile{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     f,
	}
}

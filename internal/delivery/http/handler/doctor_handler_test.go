package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/usecase"
	"telehealth-service/pkg/response"
	"telehealth-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDoctorUsecase struct {
	mock.Mock
}

func (m *mockDoctorUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	args := m.Called(doctorID)
	resp, _ := args.Get(0).(*dto.DoctorResponse)
	return resp, args.Error(1)
}

func (m *mockDoctorUsecase) GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	args := m.Called()
	resp, _ := args.Get(0).(*dto.DoctorListResponse)
	return resp, args.Error(1)
}

func (m *mockDoctorUsecase) GetPendingDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	args := m.Called()
	resp, _ := args.Get(0).(*dto.DoctorListResponse)
	return resp, args.Error(1)
}

func (m *mockDoctorUsecase) VerifyDoctor(ctx context.Context, adminID, doctorID uuid.UUID, req *dto.VerifyDoctorRequest) (*dto.DoctorResponse, error) {
	args := m.Called(adminID, doctorID, req)
	resp, _ := args.Get(0).(*dto.DoctorResponse)
	return resp, args.Error(1)
}

func (m *mockDoctorUsecase) SearchDoctors(ctx context.Context, req *dto.DoctorSearchRequest) (*dto.BookableDoctorListResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*dto.BookableDoctorListResponse)
	return resp, args.Error(1)
}

func (m *mockDoctorUsecase) GetBookableDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.BookableDoctorResponse, error) {
	args := m.Called(doctorID)
	resp, _ := args.Get(0).(*dto.BookableDoctorResponse)
	return resp, args.Error(1)
}

func (m *mockDoctorUsecase) GetMyPatients(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) (*dto.PatientListResponse, error) {
	args := m.Called(doctorID, page, limit, search)
	resp, _ := args.Get(0).(*dto.PatientListResponse)
	return resp, args.Error(1)
}

func newTestDoctorHandler() (*DoctorHandler, *mockDoctorUsecase) {
	du := &mockDoctorUsecase{}
	return NewDoctorHandler(du, validator.NewValidator()), du
}

func TestDoctorHandler_SearchDoctorsParsesQuery(t *testing.T) {
	h, du := newTestDoctorHandler()
	du.On("SearchDoctors", mock.MatchedBy(func(req *dto.DoctorSearchRequest) bool {
		return req.Specialization == "cardio" && req.Name == "alice" &&
			req.MinExperience != nil && *req.MinExperience == 3 &&
			req.MaxExperience == nil && req.SortBy == "experience-high"
	})).Return(&dto.BookableDoctorListResponse{Doctors: []dto.BookableDoctorResponse{{FullName: "Dr. Alice"}}, Total: 1}, nil).Once()

	rec := httptest.NewRecorder()
	h.SearchDoctors(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/doctors?specialization=cardio&name=alice&minExperience=3&sortBy=experience-high", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
	du.AssertExpectations(t)
}

func TestDoctorHandler_SearchDoctorsRejections(t *testing.T) {
	h, du := newTestDoctorHandler()
	du.On("SearchDoctors", mock.Anything).Return(nil, usecase.ErrInvalidExperienceRange).Once()

	for _, query := range []string{
		"minExperience=ten",
		"maxExperience=1.5",
		"minExperience=-1",
		"sortBy=rating-high",
		"minExperience=9&maxExperience=2",
	} {
		rec := httptest.NewRecorder()
		h.SearchDoctors(rec, httptest.NewRequest(http.MethodGet, "/api/v1/doctors?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
	du.AssertExpectations(t)
}

func TestDoctorHandler_GetBookableDoctor(t *testing.T) {
	h, du := newTestDoctorHandler()
	found := uuid.New()
	missing := uuid.New()
	du.On("GetBookableDoctor", found).Return(&dto.BookableDoctorResponse{ID: found}, nil).Once()
	du.On("GetBookableDoctor", missing).Return(nil, usecase.ErrDoctorNotFound).Once()

	call := func(id string) int {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": id})
		rec := httptest.NewRecorder()
		h.GetBookableDoctor(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(found.String()))
	assert.Equal(t, http.StatusNotFound, call(missing.String()))
	assert.Equal(t, http.StatusBadRequest, call("42"))
	du.AssertExpectations(t)
}

func TestDoctorHandler_GetMyPatientsWritesPageMeta(t *testing.T) {
	h, du := newTestDoctorHandler()
	doctorID := uuid.New()
	du.On("GetMyPatients", doctorID, 2, 5, "ann").Return(&dto.PatientListResponse{
		Patients: []dto.PatientSummaryResponse{{FullName: "Ann Able"}},
		Page:     2,
		Limit:    5,
		Total:    6,
	}, nil).Once()

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/doctor/my-patients?page=2&limit=5&search=ann", nil), doctorID)
	rec := httptest.NewRecorder()
	h.GetMyPatients(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	require.NotNil(t, body.Meta)
	assert.Equal(t, response.Meta{Page: 2, Limit: 5, Total: 6, TotalPages: 2}, *body.Meta)
	du.AssertExpectations(t)

	rec = httptest.NewRecorder()
	h.GetMyPatients(rec, httptest.NewRequest(http.MethodGet, "/api/v1/doctor/my-patients", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDoctorHandler_VerifyDoctorConflict(t *testing.T) {
	h, du := newTestDoctorHandler()
	adminID := uuid.New()
	doctorID := uuid.New()
	du.On("VerifyDoctor", adminID, doctorID, &dto.VerifyDoctorRequest{Action: "approve"}).
		Return(nil, usecase.ErrDoctorAlreadyReviewed).Once()

	req := asUser(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"action":"approve"}`)), adminID)
	req = mux.SetURLVars(req, map[string]string{"id": doctorID.String()})
	rec := httptest.NewRecorder()
	h.VerifyDoctor(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, usecase.ErrDoctorAlreadyReviewed.Error(), decodeResponse(t, rec).Message)
	du.AssertExpectations(t)
}

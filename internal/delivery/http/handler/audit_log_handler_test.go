package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/usecase"
	"telehealth-service/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuditLogUsecase struct {
	mock.Mock
}

func (m *mockAuditLogUsecase) GetAllAuditLogs(ctx context.Context, query *dto.AuditLogQuery) (*dto.AuditLogListResponse, error) {
	args := m.Called(query)
	resp, _ := args.Get(0).(*dto.AuditLogListResponse)
	return resp, args.Error(1)
}

func (m *mockAuditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	args := m.Called(id)
	resp, _ := args.Get(0).(*dto.AuditLogResponse)
	return resp, args.Error(1)
}

func TestAuditLogHandler_GetAllAuditLogsFilters(t *testing.T) {
	au := &mockAuditLogUsecase{}
	h := NewAuditLogHandler(au)
	userID := uuid.New()
	au.On("GetAllAuditLogs", &dto.AuditLogQuery{
		Page:     3,
		Limit:    0,
		Action:   "appointment.cancel",
		UserID:   &userID,
		Entity:   "appointment",
		EntityID: "abc",
	}).Return(&dto.AuditLogListResponse{
		Logs:  []dto.AuditLogResponse{{ID: 7, Action: "appointment.cancel"}},
		Page:  3,
		Limit: 50,
		Total: 101,
	}, nil).Once()

	rec := httptest.NewRecorder()
	h.GetAllAuditLogs(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/admin/audit-logs?page=3&limit=lots&action=appointment.cancel&user_id="+userID.String()+"&entity=appointment&entity_id=abc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	require.NotNil(t, body.Meta)
	assert.Equal(t, response.Meta{Page: 3, Limit: 50, Total: 101, TotalPages: 3}, *body.Meta)
	au.AssertExpectations(t)
}

func TestAuditLogHandler_RejectsBadIDs(t *testing.T) {
	au := &mockAuditLogUsecase{}
	h := NewAuditLogHandler(au)

	rec := httptest.NewRecorder()
	h.GetAllAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs?user_id=me", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	au.On("GetAuditLog", int64(9)).Return(nil, usecase.ErrAuditLogNotFound).Once()
	call := func(id string) int {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": id})
		rec := httptest.NewRecorder()
		h.GetAuditLog(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusBadRequest, call("nine"))
	assert.Equal(t, http.StatusNotFound, call("9"))

	au.AssertNotCalled(t, "GetAllAuditLogs", mock.Anything)
	au.AssertExpectations(t)
}

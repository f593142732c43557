package handler

import (
	"errors"
	"net/http"
	"strconv"

	"telehealth-service/internal/delivery/dto"
	"telehealth-service/internal/usecase"
	"telehealth-service/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auditLogID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		if errors.Is(err, usecase.ErrAuditLogNotFound) {
			response.NotFound(w, "Audit log not found")
			return
		}
		response.InternalServerError(w, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

// GetAllAuditLogs supports ?page=&limit=&action=&user_id=&entity=&entity_id=.
// Bad page or limit values fall back to defaults; a bad user_id is rejected.
func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := &dto.AuditLogQuery{
		Action:   params.Get("action"),
		Entity:   params.Get("entity"),
		EntityID: params.Get("entity_id"),
	}
	query.Page, _ = strconv.Atoi(params.Get("page"))
	query.Limit, _ = strconv.Atoi(params.Get("limit"))
	if raw := params.Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid user ID")
			return
		}
		query.UserID = &userID
	}

	auditLogs, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), query)
	if err != nil {
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	response.Page(w, "Audit logs retrieved successfully", auditLogs.Logs, auditLogs.Page, auditLogs.Limit, auditLogs.Total)
}

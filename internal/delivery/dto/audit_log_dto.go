package dto

import (
	"time"

	"telehealth-service/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

// AuditLogQuery is read from the query string of the admin listing
type AuditLogQuery struct {
	Page     int
	Limit    int
	Action   string
	UserID   *uuid.UUID
	Entity   string
	EntityID string
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	Action    string        `json:"action"`
	Metadata  entity.JSON   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int64              `json:"total"`
}

package entity

import "github.com/google/uuid"

// AuditLogFilter narrows the audit trail. Entity and EntityID match the
// metadata written by the audit service.
type AuditLogFilter struct {
	Action   string
	UserID   *uuid.UUID
	Entity   string
	EntityID string
	Limit    int
	Offset   int
}

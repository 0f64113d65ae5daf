package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

// AuditRepo appends rows to `audit_logs`.  It has no update or delete.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Store inserts one audit entry.  A zero CreatedAt leaves the timestamp to
// the database.
func (r *AuditRepo) Store(ctx context.Context, e model.AuditEntry) error {
	var createdAt *time.Time
	if !e.CreatedAt.IsZero() {
		createdAt = &e.CreatedAt
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_logs
		 (usuario_id, username, action, resource, resource_id, method, endpoint, ip_address, user_agent, request_body, response_status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		e.UsuarioID, e.Username, e.Action, e.Resource, e.ResourceID, e.Method, e.Endpoint,
		e.IPAddress, e.UserAgent, e.RequestBody, e.ResponseStatus, e.ErrorMessage, createdAt)
	return err
}

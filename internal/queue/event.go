// Package queue defines the audit message carried over the broker and the
// consumer that persists it.
package queue

import (
	"time"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

// AuditQueueName is the durable queue audit entries travel through.
const AuditQueueName = "audit.entries"

// AuditEvent is one audit entry in transit.  RecordedAt is when the entry
// left the API process and becomes the row's created_at, so broker delay
// does not shift the audit timeline.
type AuditEvent struct {
	Entry      model.AuditEntry `json:"entry"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// NewAuditEvent wraps e for publishing.
func NewAuditEvent(e model.AuditEntry, at time.Time) AuditEvent {
	return AuditEvent{Entry: e, RecordedAt: at.UTC()}
}

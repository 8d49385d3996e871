package entity

import "time"

// AuditAction is the kind of recorded document activity.
type AuditAction string

const (
	AuditView     AuditAction = "view"
	AuditDownload AuditAction = "download"
	AuditSign     AuditAction = "sign"
)

// AuditEvent is one append-only activity record. Events are never
// deduplicated and are deleted only together with their document.
type AuditEvent struct {
	ID         int64       `json:"id"`
	DocumentID string      `json:"document_id"`
	ActorID    string      `json:"actor_id"`
	Action     AuditAction `json:"action"`
	CreatedAt  time.Time   `json:"created_at"`
}

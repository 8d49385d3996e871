package repository

import (
	"context"

	"docuflow/internal/domain/entity"
)

type DocumentRepository interface {
	// Create persists a new document record. The title must be unique;
	// a collision surfaces as an error from the store.
	Create(ctx context.Context, doc *entity.Document) error

	// FindByID loads a document with its approval chain.
	// Returns (nil, nil) when no document exists.
	FindByID(ctx context.Context, id string) (*entity.Document, error)

	// List returns a filtered page plus the total match count.
	List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, int, error)

	// Inbox returns sent documents on which the actor is an unsigned receiver.
	Inbox(ctx context.Context, actorID string) ([]*entity.Document, error)

	// AttachChain stores the routed chain and flips the document to sent.
	// Guarded by the document version; returns entity.ErrConflict when stale.
	AttachChain(ctx context.Context, doc *entity.Document) error

	// CommitSigning persists one signing step atomically: the signed entry,
	// the advanced document state, and the sign audit event commit together.
	// Guarded by the document version; returns entity.ErrConflict when stale.
	CommitSigning(ctx context.Context, doc *entity.Document, entryIdx int, actorID string) error

	// UpdateState persists status/cursor/completion fields alone, guarded by
	// the document version. Used for completion self-healing.
	UpdateState(ctx context.Context, doc *entity.Document) error

	// Delete removes the document record with its chain and audit trail.
	Delete(ctx context.Context, id string) error
}

type CounterRepository interface {
	// Next atomically increments and returns the per-division sequence,
	// creating the counter at 1 on first use. Never rolled back.
	Next(ctx context.Context, division string) (int, error)
}

type AuditRepository interface {
	// Record appends a view/download event. Fire-and-forget; no dedup.
	Record(ctx context.Context, documentID, actorID string, action entity.AuditAction) error

	// ListByDocument returns the full ordered activity log.
	ListByDocument(ctx context.Context, documentID string) ([]*entity.AuditEvent, error)
}

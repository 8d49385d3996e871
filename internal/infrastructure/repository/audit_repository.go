package repository

import (
	"context"
	"fmt"

	"docuflow/internal/domain/entity"
	"docuflow/internal/domain/repository"
	"docuflow/internal/infrastructure/database"
)

type auditRepository struct {
	db *database.Database
}

func NewAuditRepository(db *database.Database) repository.AuditRepository {
	return &auditRepository{
		db: db,
	}
}

func (r *auditRepository) Record(ctx context.Context, documentID, actorID string, action entity.AuditAction) error {
	query := `
		INSERT INTO audit_events (document_id, actor_id, action)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.DB.ExecContext(ctx, query, documentID, actorID, action)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", action, err)
	}

	return nil
}

func (r *auditRepository) ListByDocument(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	query := `
		SELECT id, document_id, actor_id, action, created_at
		FROM audit_events
		WHERE document_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*entity.AuditEvent
	for rows.Next() {
		var e entity.AuditEvent
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.ActorID, &e.Action, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}

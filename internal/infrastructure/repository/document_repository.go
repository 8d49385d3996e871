package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"docuflow/internal/domain/entity"
	"docuflow/internal/domain/repository"
	"docuflow/internal/infrastructure/database"
)

type documentRepository struct {
	db     *database.Database
	logger *zap.Logger
}

func NewDocumentRepository(db *database.Database, logger *zap.Logger) repository.DocumentRepository {
	return &documentRepository{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `
	id, title, content, division, doc_type, access, uploader_id, uploader_role,
	status, COALESCE(signing_mode, ''), current_rank, date_expired, date_complete,
	version, created_at, updated_at
`

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (
			id, title, content, division, doc_type, access, uploader_id,
			uploader_role, status, current_rank, date_expired, version,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Division,
		doc.Type,
		doc.Access,
		doc.UploaderID,
		doc.UploaderRole,
		doc.Status,
		doc.Chain.Current,
		doc.DateExpired,
		doc.Version,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func scanDocument(row interface{ Scan(...interface{}) error }) (*entity.Document, error) {
	var doc entity.Document
	var mode string
	var dateExpired, dateComplete sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Division,
		&doc.Type,
		&doc.Access,
		&doc.UploaderID,
		&doc.UploaderRole,
		&doc.Status,
		&mode,
		&doc.Chain.Current,
		&dateExpired,
		&dateComplete,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Chain.Mode = entity.SigningMode(mode)
	if dateExpired.Valid {
		doc.DateExpired = &dateExpired.Time
	}
	if dateComplete.Valid {
		doc.DateComplete = &dateComplete.Time
	}

	return &doc, nil
}

func (r *documentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(r.db.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Not found, return nil without error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document by id: %w", err)
	}

	if err := r.loadEntries(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *documentRepository) loadEntries(ctx context.Context, doc *entity.Document) error {
	query := `
		SELECT id, rank, signer_id, signed, date_sent, date_signed,
		       page, pos_x, pos_y, width, height
		FROM approval_entries
		WHERE document_id = $1
		ORDER BY rank, id
	`

	rows, err := r.db.DB.QueryContext(ctx, query, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to load approval entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e entity.ApprovalEntry
		var dateSent, dateSigned sql.NullTime

		err := rows.Scan(
			&e.ID,
			&e.Rank,
			&e.SignerID,
			&e.Signed,
			&dateSent,
			&dateSigned,
			&e.Placement.Page,
			&e.Placement.X,
			&e.Placement.Y,
			&e.Placement.Width,
			&e.Placement.Height,
		)
		if err != nil {
			return fmt.Errorf("failed to scan approval entry: %w", err)
		}

		if dateSent.Valid {
			e.DateSent = &dateSent.Time
		}
		if dateSigned.Valid {
			e.DateSigned = &dateSigned.Time
		}

		doc.Chain.Entries = append(doc.Chain.Entries, e)
	}

	return rows.Err()
}

func (r *documentRepository) List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	if len(filter.Statuses) > 0 {
		where += fmt.Sprintf(" AND status = ANY($%d)", len(args)+1)
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
	}
	if filter.Division != "" {
		where += fmt.Sprintf(" AND division = $%d", len(args)+1)
		args = append(args, filter.Division)
	}
	if filter.Type != "" {
		where += fmt.Sprintf(" AND doc_type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND title ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.UploaderID != "" {
		where += fmt.Sprintf(" AND uploader_id = $%d", len(args)+1)
		args = append(args, filter.UploaderID)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM documents " + where
	if err := r.db.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT "+documentColumns+" FROM documents %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func (r *documentRepository) Inbox(ctx context.Context, actorID string) ([]*entity.Document, error) {
	query := `
		SELECT DISTINCT ` + documentColumns + `
		FROM documents
		WHERE status = 'sent'
		  AND id IN (
			SELECT document_id FROM approval_entries
			WHERE signer_id = $1 AND signed = FALSE
		  )
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbox: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inbox document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if err := r.loadEntries(ctx, doc); err != nil {
			return nil, err
		}
	}

	return docs, nil
}

func (r *documentRepository) AttachChain(ctx context.Context, doc *entity.Document) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := `
		UPDATE documents
		SET status = $1, signing_mode = $2, current_rank = $3,
		    version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	res, err := tx.ExecContext(ctx, update,
		doc.Status,
		doc.Chain.Mode,
		doc.Chain.Current,
		time.Now(),
		doc.ID,
		doc.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update document for routing: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return entity.ErrConflict
	}

	insert := `
		INSERT INTO approval_entries (
			document_id, rank, signer_id, signed, date_sent,
			page, pos_x, pos_y, width, height
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, e := range doc.Chain.Entries {
		_, err := tx.ExecContext(ctx, insert,
			doc.ID,
			e.Rank,
			e.SignerID,
			e.Signed,
			e.DateSent,
			e.Placement.Page,
			e.Placement.X,
			e.Placement.Y,
			e.Placement.Width,
			e.Placement.Height,
		)
		if err != nil {
			return fmt.Errorf("failed to insert approval entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit routing: %w", err)
	}

	doc.Version++
	return nil
}

func (r *documentRepository) CommitSigning(ctx context.Context, doc *entity.Document, entryIdx int, actorID string) error {
	entry := &doc.Chain.Entries[entryIdx]

	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Version check first: a stale document must not touch the entry.
	update := `
		UPDATE documents
		SET status = $1, current_rank = $2, date_complete = $3,
		    version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	res, err := tx.ExecContext(ctx, update,
		doc.Status,
		doc.Chain.Current,
		doc.DateComplete,
		time.Now(),
		doc.ID,
		doc.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to advance document: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return entity.ErrConflict
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE approval_entries SET signed = TRUE, date_signed = $1 WHERE id = $2`,
		entry.DateSigned,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark entry signed: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_events (document_id, actor_id, action) VALUES ($1, $2, $3)`,
		doc.ID,
		actorID,
		entity.AuditSign,
	)
	if err != nil {
		return fmt.Errorf("failed to record sign event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signing: %w", err)
	}

	doc.Version++
	return nil
}

func (r *documentRepository) UpdateState(ctx context.Context, doc *entity.Document) error {
	query := `
		UPDATE documents
		SET status = $1, current_rank = $2, date_complete = $3,
		    version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	res, err := r.db.DB.ExecContext(ctx, query,
		doc.Status,
		doc.Chain.Current,
		doc.DateComplete,
		time.Now(),
		doc.ID,
		doc.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update document state: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return entity.ErrConflict
	}

	doc.Version++
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	// Entries and audit events cascade with the document row.
	_, err := r.db.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

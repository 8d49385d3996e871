package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuflow/internal/domain/access"
	"docuflow/internal/domain/entity"
	"docuflow/internal/domain/naming"
	"docuflow/internal/domain/repository"
	"docuflow/internal/infrastructure/artifact"
	"docuflow/internal/infrastructure/stamper"
)

type DocumentUsecase interface {
	Create(ctx context.Context, actor entity.Actor, req *entity.CreateDocumentRequest) (*entity.Document, error)
	List(ctx context.Context, actor entity.Actor, filter entity.DocumentFilter) ([]*entity.Document, int, error)
	// Inbox returns sent documents still awaiting the actor's signature.
	Inbox(ctx context.Context, actor entity.Actor) ([]*entity.Document, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.Document, error)
	GetBlob(ctx context.Context, actor entity.Actor, id string) ([]byte, *entity.BlobMeta, error)
	Delete(ctx context.Context, actor entity.Actor, id string) error
	Audit(ctx context.Context, actor entity.Actor, id string) ([]*entity.AuditEvent, error)
	// SaveSignature stores the actor's reference signature image.
	SaveSignature(ctx context.Context, actor entity.Actor, content []byte) error
}

type documentUsecase struct {
	repo      repository.DocumentRepository
	counters  repository.CounterRepository
	audit     repository.AuditRepository
	artifacts artifact.Store
	logger    *zap.Logger
}

func NewDocumentUsecase(
	repo repository.DocumentRepository,
	counters repository.CounterRepository,
	audit repository.AuditRepository,
	artifacts artifact.Store,
	logger *zap.Logger,
) DocumentUsecase {
	return &documentUsecase{
		repo:      repo,
		counters:  counters,
		audit:     audit,
		artifacts: artifacts,
		logger:    logger,
	}
}

func (u *documentUsecase) Create(ctx context.Context, actor entity.Actor, req *entity.CreateDocumentRequest) (*entity.Document, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: uploader", entity.ErrNotFound)
	}
	if req.Content == "" {
		return nil, entity.ErrMissingFields
	}
	if len(req.File) == 0 {
		return nil, entity.ErrMissingFile
	}

	division, err := entity.ParseDivision(req.Division)
	if err != nil {
		return nil, err
	}
	docType, err := entity.ParseDocType(req.Type)
	if err != nil {
		return nil, err
	}
	if req.Access == "" {
		req.Access = string(entity.AccessPublic)
	}
	acc, err := entity.ParseAccess(req.Access)
	if err != nil {
		return nil, err
	}

	// Per-division sequence drives the immutable title. The counter never
	// rolls back, so an aborted create leaves a gap, never a collision.
	seq, err := u.counters.Next(ctx, string(division))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &entity.Document{
		ID:           uuid.NewString(),
		Title:        naming.DocumentTitle(seq, division, docType, now),
		Content:      req.Content,
		Division:     division,
		Type:         docType,
		Access:       acc,
		UploaderID:   actor.ID,
		UploaderRole: actor.Role,
		Status:       entity.StatusSaved,
		DateExpired:  req.DateExpired,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := u.artifacts.SaveDocument(doc.ID, req.File); err != nil {
		// No record without a binary: roll the metadata back.
		if delErr := u.repo.Delete(ctx, doc.ID); delErr != nil {
			u.logger.Error("Failed to roll back document record",
				zap.String("document_id", doc.ID),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	u.logger.Info("Document created",
		zap.String("document_id", doc.ID),
		zap.String("title", doc.Title),
		zap.String("uploader", actor.ID),
	)

	return doc, nil
}

func (u *documentUsecase) List(ctx context.Context, actor entity.Actor, filter entity.DocumentFilter) ([]*entity.Document, int, error) {
	// Non-admins only see their own uploads.
	if !actor.IsAdmin() {
		filter.UploaderID = actor.ID
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return u.repo.List(ctx, filter)
}

func (u *documentUsecase) Inbox(ctx context.Context, actor entity.Actor) ([]*entity.Document, error) {
	return u.repo.Inbox(ctx, actor.ID)
}

func (u *documentUsecase) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Document, error) {
	doc, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, entity.ErrNotFound
	}
	if !access.CanView(doc, actor) {
		return nil, entity.ErrAccessDenied
	}

	u.recordActivity(ctx, id, actor.ID, entity.AuditView)

	return doc, nil
}

func (u *documentUsecase) GetBlob(ctx context.Context, actor entity.Actor, id string) ([]byte, *entity.BlobMeta, error) {
	doc, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, entity.ErrNotFound
	}
	if !access.CanView(doc, actor) {
		return nil, nil, entity.ErrAccessDenied
	}

	// Fold in a committed-but-unpromoted staged body so downloads always
	// reflect the stored signing state.
	if err := u.artifacts.RecoverDocument(id, doc.Version); err != nil {
		return nil, nil, err
	}

	content, err := u.artifacts.LoadDocument(id)
	if err != nil {
		return nil, nil, err
	}

	u.recordActivity(ctx, id, actor.ID, entity.AuditDownload)

	meta := &entity.BlobMeta{
		CurrentRank: doc.Chain.Current,
		SigningMode: doc.Chain.Mode,
	}
	return content, meta, nil
}

func (u *documentUsecase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	doc, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return entity.ErrNotFound
	}
	if !access.CanModify(doc, actor) {
		return entity.ErrNotOwner
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}
	// The binary goes with the record.
	if err := u.artifacts.DeleteDocument(id); err != nil {
		u.logger.Warn("Failed to delete document binary",
			zap.String("document_id", id),
			zap.Error(err),
		)
	}

	u.logger.Info("Document deleted",
		zap.String("document_id", id),
		zap.String("actor", actor.ID),
	)

	return nil
}

func (u *documentUsecase) Audit(ctx context.Context, actor entity.Actor, id string) ([]*entity.AuditEvent, error) {
	doc, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, entity.ErrNotFound
	}
	if !access.CanView(doc, actor) {
		return nil, entity.ErrAccessDenied
	}

	return u.audit.ListByDocument(ctx, id)
}

func (u *documentUsecase) SaveSignature(ctx context.Context, actor entity.Actor, content []byte) error {
	if len(content) == 0 {
		return entity.ErrMissingFile
	}
	if _, err := stamper.DetectFormat(content); err != nil {
		return err
	}

	if err := u.artifacts.SaveSignature(actor.ID, content); err != nil {
		return err
	}

	u.logger.Info("Signature image saved", zap.String("user", actor.ID))
	return nil
}

// recordActivity appends a view/download event. Fire-and-forget: a failed
// append never blocks the read path.
func (u *documentUsecase) recordActivity(ctx context.Context, documentID, actorID string, action entity.AuditAction) {
	if err := u.audit.Record(ctx, documentID, actorID, action); err != nil {
		u.logger.Warn("Failed to record activity",
			zap.String("document_id", documentID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

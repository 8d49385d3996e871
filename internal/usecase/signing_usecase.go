package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docuflow/internal/config"
	"docuflow/internal/domain/access"
	"docuflow/internal/domain/chain"
	"docuflow/internal/domain/entity"
	"docuflow/internal/domain/repository"
	"docuflow/internal/infrastructure/artifact"
	"docuflow/internal/infrastructure/stamper"
)

const signLockPrefix = "docuflow:lock:document:"

// DocumentLocker serializes signing per document id. Backed by Redis SET NX;
// the version-guarded commit stays the source of truth.
type DocumentLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type SigningUsecase interface {
	// Route attaches an approval chain to a saved document (saved -> sent).
	Route(ctx context.Context, actor entity.Actor, id string, req *entity.RouteRequest) (*entity.Document, error)

	// Sign executes one signing step: eligibility, stamp, chain advance,
	// and atomic persistence of all three.
	Sign(ctx context.Context, actor entity.Actor, id string) (*entity.Document, error)
}

type signingUsecase struct {
	config    *config.Config
	repo      repository.DocumentRepository
	artifacts artifact.Store
	stamper   stamper.Stamper
	locker    DocumentLocker
	logger    *zap.Logger
}

func NewSigningUsecase(
	cfg *config.Config,
	repo repository.DocumentRepository,
	artifacts artifact.Store,
	st stamper.Stamper,
	locker DocumentLocker,
	logger *zap.Logger,
) SigningUsecase {
	return &signingUsecase{
		config:    cfg,
		repo:      repo,
		artifacts: artifacts,
		stamper:   st,
		locker:    locker,
		logger:    logger,
	}
}

func (u *signingUsecase) Route(ctx context.Context, actor entity.Actor, id string, req *entity.RouteRequest) (*entity.Document, error) {
	doc, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, entity.ErrNotFound
	}
	if !access.CanModify(doc, actor) {
		return nil, entity.ErrNotOwner
	}
	if doc.Status != entity.StatusSaved {
		return nil, entity.ErrAlreadyRouted
	}

	mode, err := entity.ParseSigningMode(req.SigningMode)
	if err != nil {
		return nil, err
	}

	built, err := chain.New(mode, req.Entries, time.Now())
	if err != nil {
		return nil, err
	}

	doc.Chain = built
	doc.Status = entity.StatusSent

	if err := u.repo.AttachChain(ctx, doc); err != nil {
		return nil, err
	}

	u.logger.Info("Document routed",
		zap.String("document_id", doc.ID),
		zap.String("mode", string(mode)),
		zap.Int("signers", len(built.Entries)),
	)

	return doc, nil
}

func (u *signingUsecase) Sign(ctx context.Context, actor entity.Actor, id string) (*entity.Document, error) {
	lockKey := signLockPrefix + id
	acquired := false
	for attempt := 0; attempt < u.config.Signing.LockRetries; attempt++ {
		ok, err := u.locker.Acquire(ctx, lockKey, u.config.Signing.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire signing lock: %w", err)
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(u.config.Signing.LockRetryDelay):
		}
	}
	if !acquired {
		return nil, fmt.Errorf("%w: document is being signed", entity.ErrConflict)
	}
	defer func() {
		if err := u.locker.Release(ctx, lockKey); err != nil {
			u.logger.Warn("Failed to release signing lock",
				zap.String("document_id", id),
				zap.Error(err),
			)
		}
	}()

	doc, err := u.signOnce(ctx, actor, id)
	if errors.Is(err, entity.ErrConflict) {
		// Lost the version race: retry eligibility against a fresh load
		// instead of reapplying the stale stamp.
		u.logger.Warn("Signing commit conflicted, retrying",
			zap.String("document_id", id),
			zap.String("actor", actor.ID),
		)
		return u.signOnce(ctx, actor, id)
	}
	return doc, err
}

func (u *signingUsecase) signOnce(ctx context.Context, actor entity.Actor, id string) (*entity.Document, error) {
	doc, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, entity.ErrNotFound
	}
	// A staged body matching the stored version means a commit landed but
	// the promote never ran; fold it in before reading or stamping.
	if err := u.artifacts.RecoverDocument(id, doc.Version); err != nil {
		return nil, err
	}
	if doc.Status == entity.StatusSaved {
		return nil, entity.ErrNotRouted
	}
	if doc.Status == entity.StatusComplete {
		return nil, entity.ErrAlreadyComplete
	}

	idx, err := chain.Eligible(&doc.Chain, actor.ID)
	if err != nil {
		if errors.Is(err, entity.ErrAlreadyComplete) {
			// All ranks resolved but status never flipped: heal the record
			// rather than attempting an out-of-bounds stamp.
			u.heal(ctx, doc)
		}
		return nil, err
	}
	entry := doc.Chain.Entries[idx]

	signature, err := u.artifacts.LoadSignature(actor.ID)
	if err != nil {
		return nil, err
	}
	original, err := u.artifacts.LoadDocument(id)
	if err != nil {
		return nil, err
	}

	// Pure transform; the stored binary stays untouched until commit.
	stamped, err := u.stamper.Stamp(original, signature, entry.Placement)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if done := chain.Advance(&doc.Chain, idx, now); done {
		doc.Status = entity.StatusComplete
		doc.DateComplete = &now
	}

	// Stage the new binary tagged with the post-commit version, commit
	// chain + audit in one transaction, then promote. A crash between
	// commit and promote leaves the staged file for RecoverDocument on the
	// next access; a failed commit discards it.
	stagedVersion := doc.Version + 1
	if err := u.artifacts.StageDocument(id, stagedVersion, stamped); err != nil {
		return nil, err
	}
	if err := u.repo.CommitSigning(ctx, doc, idx, actor.ID); err != nil {
		if discardErr := u.artifacts.DiscardStage(id); discardErr != nil {
			u.logger.Warn("Failed to discard staged binary",
				zap.String("document_id", id),
				zap.Error(discardErr),
			)
		}
		return nil, err
	}
	if err := u.artifacts.PromoteDocument(id, stagedVersion); err != nil {
		return nil, err
	}

	u.logger.Info("Document signed",
		zap.String("document_id", id),
		zap.String("signer", actor.ID),
		zap.Int("rank", entry.Rank),
		zap.String("status", string(doc.Status)),
	)

	return doc, nil
}

// heal flips a fully resolved chain to complete. Best effort; the caller's
// rejection stands either way.
func (u *signingUsecase) heal(ctx context.Context, doc *entity.Document) {
	now := time.Now()
	doc.Status = entity.StatusComplete
	doc.DateComplete = &now
	if err := u.repo.UpdateState(ctx, doc); err != nil {
		u.logger.Warn("Failed to heal completed document",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
	}
}

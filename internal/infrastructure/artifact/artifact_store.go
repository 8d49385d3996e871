package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"docuflow/internal/config"
	"docuflow/internal/domain/entity"
)

// Store owns the binary artifacts: document bodies keyed 1:1 by document id
// and per-user reference signature images. Document writes go through a
// stage/promote pair so a stamped body becomes visible only after the
// matching chain advance has committed. Staged bodies are tagged with the
// document version they belong to, which lets RecoverDocument tell a
// committed-but-unpromoted stage (promote it) from an aborted one (drop it).
type Store interface {
	// SaveDocument writes a document body directly (initial upload).
	SaveDocument(id string, content []byte) error

	// LoadDocument reads a document body. Missing files surface as
	// entity.ErrFileMissing.
	LoadDocument(id string) ([]byte, error)

	// StageDocument durably writes a pending replacement body tagged with
	// the document version it will become once the commit lands.
	StageDocument(id string, version int64, content []byte) error

	// PromoteDocument atomically replaces the body with the staged one.
	PromoteDocument(id string, version int64) error

	// DiscardStage drops all staged bodies after an aborted commit.
	DiscardStage(id string) error

	// RecoverDocument promotes a staged body matching the stored document
	// version (a commit landed but the promote never ran) and drops any
	// stale stages from aborted attempts. No-op when nothing is staged.
	RecoverDocument(id string, version int64) error

	// DeleteDocument removes the body; deleting an absent body is not an
	// error so record deletion never leaves orphaned binaries behind.
	DeleteDocument(id string) error

	// SaveSignature stores the user's reference signature image,
	// overwriting any previous one. At most one per user.
	SaveSignature(userID string, content []byte) error

	// LoadSignature reads a user's reference signature image. Missing
	// images surface as entity.ErrMissingSignatureImage.
	LoadSignature(userID string) ([]byte, error)
}

type fileStore struct {
	config *config.StorageConfig
	logger *zap.Logger
}

func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	s := &fileStore{
		config: &cfg.Storage,
		logger: logger,
	}

	// Ensure all directories exist
	if err := s.ensureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create artifact directories: %w", err)
	}

	logger.Info("Artifact store initialized",
		zap.String("base_path", cfg.Storage.BasePath),
		zap.String("documents_path", s.documentsPath()),
		zap.String("signatures_path", s.signaturesPath()),
	)

	return s, nil
}

func (s *fileStore) ensureDirectories() error {
	dirs := []string{
		s.documentsPath(),
		s.signaturesPath(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func (s *fileStore) documentsPath() string {
	return filepath.Join(s.config.BasePath, s.config.DocumentsFolder)
}

func (s *fileStore) signaturesPath() string {
	return filepath.Join(s.config.BasePath, s.config.SignaturesFolder)
}

func (s *fileStore) documentFile(id string) string {
	return filepath.Join(s.documentsPath(), id+".pdf")
}

func (s *fileStore) stageFile(id string, version int64) string {
	return filepath.Join(s.documentsPath(), fmt.Sprintf("%s.pdf.staged.%d", id, version))
}

// stagedFiles lists every staged body for the document. Document ids are
// UUIDs, so the id never carries glob metacharacters.
func (s *fileStore) stagedFiles(id string) []string {
	matches, _ := filepath.Glob(filepath.Join(s.documentsPath(), id+".pdf.staged.*"))
	return matches
}

func (s *fileStore) signatureFile(userID string) string {
	return filepath.Join(s.signaturesPath(), userID)
}

func (s *fileStore) SaveDocument(id string, content []byte) error {
	if err := os.WriteFile(s.documentFile(id), content, 0644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", id, err)
	}
	return nil
}

func (s *fileStore) LoadDocument(id string) ([]byte, error) {
	content, err := os.ReadFile(s.documentFile(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, entity.ErrFileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return content, nil
}

func (s *fileStore) StageDocument(id string, version int64, content []byte) error {
	if err := os.WriteFile(s.stageFile(id, version), content, 0644); err != nil {
		return fmt.Errorf("failed to stage document %s: %w", id, err)
	}
	return nil
}

func (s *fileStore) PromoteDocument(id string, version int64) error {
	if err := os.Rename(s.stageFile(id, version), s.documentFile(id)); err != nil {
		return fmt.Errorf("failed to promote staged document %s: %w", id, err)
	}
	return nil
}

func (s *fileStore) DiscardStage(id string) error {
	for _, staged := range s.stagedFiles(id) {
		if err := os.Remove(staged); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to discard staged document %s: %w", id, err)
		}
	}
	return nil
}

func (s *fileStore) RecoverDocument(id string, version int64) error {
	staged := s.stageFile(id, version)
	if _, err := os.Stat(staged); err == nil {
		if err := os.Rename(staged, s.documentFile(id)); err != nil {
			return fmt.Errorf("failed to recover staged document %s: %w", id, err)
		}
		s.logger.Warn("Promoted leftover staged document",
			zap.String("document_id", id),
			zap.Int64("version", version),
		)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to inspect staged document %s: %w", id, err)
	}

	// Anything still staged belongs to an attempt that never committed.
	return s.DiscardStage(id)
}

func (s *fileStore) DeleteDocument(id string) error {
	_ = s.DiscardStage(id)
	err := os.Remove(s.documentFile(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

func (s *fileStore) SaveSignature(userID string, content []byte) error {
	if err := os.WriteFile(s.signatureFile(userID), content, 0644); err != nil {
		return fmt.Errorf("failed to write signature for %s: %w", userID, err)
	}
	return nil
}

func (s *fileStore) LoadSignature(userID string) ([]byte, error) {
	content, err := os.ReadFile(s.signatureFile(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, entity.ErrMissingSignatureImage
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read signature for %s: %w", userID, err)
	}
	return content, nil
}

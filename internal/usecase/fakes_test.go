package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docuflow/internal/domain/entity"
)

func cloneDoc(doc *entity.Document) *entity.Document {
	c := *doc
	c.Chain.Entries = append([]entity.ApprovalEntry(nil), doc.Chain.Entries...)
	return &c
}

type fakeDocumentRepository struct {
	docs    map[string]*entity.Document
	listed  entity.DocumentFilter
	commits int

	// conflictOnce fails the first CommitSigning and applies mutate to
	// simulate a concurrent winner.
	conflictOnce bool
	mutate       func(doc *entity.Document)
}

func newFakeDocumentRepository(docs ...*entity.Document) *fakeDocumentRepository {
	r := &fakeDocumentRepository{docs: map[string]*entity.Document{}}
	for _, d := range docs {
		r.docs[d.ID] = cloneDoc(d)
	}
	return r
}

func (r *fakeDocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *fakeDocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (r *fakeDocumentRepository) List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, int, error) {
	r.listed = filter
	var out []*entity.Document
	for _, d := range r.docs {
		out = append(out, cloneDoc(d))
	}
	return out, len(out), nil
}

func (r *fakeDocumentRepository) Inbox(ctx context.Context, actorID string) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range r.docs {
		if d.Status != entity.StatusSent {
			continue
		}
		for _, e := range d.Chain.Entries {
			if e.SignerID == actorID && !e.Signed {
				out = append(out, cloneDoc(d))
				break
			}
		}
	}
	return out, nil
}

func (r *fakeDocumentRepository) AttachChain(ctx context.Context, doc *entity.Document) error {
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return entity.ErrConflict
	}
	doc.Version++
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *fakeDocumentRepository) CommitSigning(ctx context.Context, doc *entity.Document, entryIdx int, actorID string) error {
	if r.conflictOnce {
		r.conflictOnce = false
		if r.mutate != nil {
			r.mutate(r.docs[doc.ID])
		}
		return entity.ErrConflict
	}
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return entity.ErrConflict
	}
	doc.Version++
	r.docs[doc.ID] = cloneDoc(doc)
	r.commits++
	return nil
}

func (r *fakeDocumentRepository) UpdateState(ctx context.Context, doc *entity.Document) error {
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return entity.ErrConflict
	}
	doc.Version++
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *fakeDocumentRepository) Delete(ctx context.Context, id string) error {
	delete(r.docs, id)
	return nil
}

type fakeCounterRepository struct {
	values map[string]int
}

func (r *fakeCounterRepository) Next(ctx context.Context, division string) (int, error) {
	if r.values == nil {
		r.values = map[string]int{}
	}
	r.values[division]++
	return r.values[division], nil
}

type fakeAuditRepository struct {
	events []*entity.AuditEvent
}

func (r *fakeAuditRepository) Record(ctx context.Context, documentID, actorID string, action entity.AuditAction) error {
	r.events = append(r.events, &entity.AuditEvent{
		DocumentID: documentID,
		ActorID:    actorID,
		Action:     action,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (r *fakeAuditRepository) ListByDocument(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	var out []*entity.AuditEvent
	for _, e := range r.events {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeArtifactStore struct {
	documents  map[string][]byte
	signatures map[string][]byte
	staged     map[string][]byte // keyed by stageKey(id, version)
	saveDocErr error
	discards   int
	promotions int
	recoveries int
}

func stageKey(id string, version int64) string {
	return fmt.Sprintf("%s@%d", id, version)
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{
		documents:  map[string][]byte{},
		signatures: map[string][]byte{},
		staged:     map[string][]byte{},
	}
}

func (s *fakeArtifactStore) SaveDocument(id string, content []byte) error {
	if s.saveDocErr != nil {
		return s.saveDocErr
	}
	s.documents[id] = content
	return nil
}

func (s *fakeArtifactStore) LoadDocument(id string) ([]byte, error) {
	content, ok := s.documents[id]
	if !ok {
		return nil, entity.ErrFileMissing
	}
	return content, nil
}

func (s *fakeArtifactStore) StageDocument(id string, version int64, content []byte) error {
	s.staged[stageKey(id, version)] = content
	return nil
}

func (s *fakeArtifactStore) PromoteDocument(id string, version int64) error {
	key := stageKey(id, version)
	content, ok := s.staged[key]
	if !ok {
		return fmt.Errorf("no staged body for %s", key)
	}
	s.documents[id] = content
	delete(s.staged, key)
	s.promotions++
	return nil
}

func (s *fakeArtifactStore) dropStages(id string) {
	for key := range s.staged {
		if strings.HasPrefix(key, id+"@") {
			delete(s.staged, key)
		}
	}
}

func (s *fakeArtifactStore) DiscardStage(id string) error {
	s.dropStages(id)
	s.discards++
	return nil
}

func (s *fakeArtifactStore) RecoverDocument(id string, version int64) error {
	key := stageKey(id, version)
	if content, ok := s.staged[key]; ok {
		s.documents[id] = content
		delete(s.staged, key)
		s.recoveries++
	}
	s.dropStages(id)
	return nil
}

func (s *fakeArtifactStore) DeleteDocument(id string) error {
	delete(s.documents, id)
	s.dropStages(id)
	return nil
}

func (s *fakeArtifactStore) SaveSignature(userID string, content []byte) error {
	s.signatures[userID] = content
	return nil
}

func (s *fakeArtifactStore) LoadSignature(userID string) ([]byte, error) {
	content, ok := s.signatures[userID]
	if !ok {
		return nil, entity.ErrMissingSignatureImage
	}
	return content, nil
}

type fakeStamper struct {
	calls int
	err   error
}

func (s *fakeStamper) Stamp(pdf, signature []byte, placement entity.Placement) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := append([]byte("stamped:"), pdf...)
	return out, nil
}

type fakeLocker struct {
	busy     bool
	acquires int
	releases int
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.acquires++
	return !l.busy, nil
}

func (l *fakeLocker) Release(ctx context.Context, key string) error {
	l.releases++
	return nil
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"docuflow/internal/config"
	"docuflow/internal/domain/entity"
)

func signingConfig() *config.Config {
	return &config.Config{
		Signing: config.SigningConfig{
			LockTTL:        time.Second,
			LockRetries:    2,
			LockRetryDelay: time.Millisecond,
		},
	}
}

func newSigningUsecase(repo *fakeDocumentRepository, artifacts *fakeArtifactStore, st *fakeStamper, locker *fakeLocker) SigningUsecase {
	return NewSigningUsecase(signingConfig(), repo, artifacts, st, locker, zap.NewNop())
}

func savedDoc() *entity.Document {
	return &entity.Document{
		ID:         "d1",
		Title:      "001/FIN/BA/VIII/2026",
		Access:     entity.AccessPublic,
		UploaderID: "owner",
		Status:     entity.StatusSaved,
		Version:    1,
	}
}

func routeRequest(mode string, ranks ...int) *entity.RouteRequest {
	req := &entity.RouteRequest{SigningMode: mode}
	for i, r := range ranks {
		req.Entries = append(req.Entries, entity.RouteEntry{
			Rank:     r,
			SignerID: signerID(i),
			Placement: entity.Placement{
				Page: 1, X: 40, Y: 60, Width: 150, Height: 80,
			},
		})
	}
	return req
}

func signerID(i int) string {
	return "signer-" + string(rune('0'+i))
}

// sentDoc returns a routed document with the given chain already attached,
// plus its binary and each signer's signature image in the store.
func sentDoc(artifacts *fakeArtifactStore, mode entity.SigningMode, ranks ...int) *entity.Document {
	doc := savedDoc()
	doc.Status = entity.StatusSent
	doc.Chain = entity.ApprovalChain{Mode: mode, Current: ranks[0]}
	sent := time.Now()
	for i, r := range ranks {
		if r < doc.Chain.Current {
			doc.Chain.Current = r
		}
		doc.Chain.Entries = append(doc.Chain.Entries, entity.ApprovalEntry{
			ID:       int64(i + 1),
			Rank:     r,
			SignerID: signerID(i),
			DateSent: &sent,
			Placement: entity.Placement{
				Page: 1, X: 40, Y: 60, Width: 150, Height: 80,
			},
		})
		artifacts.signatures[signerID(i)] = pngHeader
	}
	artifacts.documents[doc.ID] = []byte("%PDF-1.7 original")
	return doc
}

func TestRouteAttachesChain(t *testing.T) {
	repo := newFakeDocumentRepository(savedDoc())
	uc := newSigningUsecase(repo, newFakeArtifactStore(), &fakeStamper{}, &fakeLocker{})

	doc, err := uc.Route(context.Background(), entity.Actor{ID: "owner"}, "d1", routeRequest("sequential", 2, 1))
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if doc.Status != entity.StatusSent {
		t.Errorf("status = %s, want sent", doc.Status)
	}
	if doc.Chain.Current != 1 {
		t.Errorf("current = %d, want lowest rank 1", doc.Chain.Current)
	}
	if len(doc.Chain.Entries) != 2 || doc.Chain.Entries[0].Rank != 1 {
		t.Errorf("entries not sorted by rank: %+v", doc.Chain.Entries)
	}

	stored := repo.docs["d1"]
	if stored.Status != entity.StatusSent || len(stored.Chain.Entries) != 2 {
		t.Error("chain was not persisted")
	}
}

func TestRouteRejections(t *testing.T) {
	repo := newFakeDocumentRepository(savedDoc())
	uc := newSigningUsecase(repo, newFakeArtifactStore(), &fakeStamper{}, &fakeLocker{})

	if _, err := uc.Route(context.Background(), entity.Actor{ID: "owner"}, "missing", routeRequest("sequential", 1)); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("missing doc: got %v, want ErrNotFound", err)
	}
	if _, err := uc.Route(context.Background(), entity.Actor{ID: "stranger"}, "d1", routeRequest("sequential", 1)); !errors.Is(err, entity.ErrNotOwner) {
		t.Errorf("non-owner: got %v, want ErrNotOwner", err)
	}
	if _, err := uc.Route(context.Background(), entity.Actor{ID: "owner"}, "d1", routeRequest("roundrobin", 1)); !errors.Is(err, entity.ErrValidation) {
		t.Errorf("bad mode: got %v, want ErrValidation", err)
	}
	if _, err := uc.Route(context.Background(), entity.Actor{ID: "owner"}, "d1", routeRequest("sequential")); !errors.Is(err, entity.ErrValidation) {
		t.Errorf("empty chain: got %v, want ErrValidation", err)
	}

	// Route once, then again.
	if _, err := uc.Route(context.Background(), entity.Actor{ID: "owner"}, "d1", routeRequest("sequential", 1)); err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if _, err := uc.Route(context.Background(), entity.Actor{ID: "owner"}, "d1", routeRequest("sequential", 1)); !errors.Is(err, entity.ErrAlreadyRouted) {
		t.Errorf("second route: got %v, want ErrAlreadyRouted", err)
	}
}

func TestSignAdvancesThenCompletes(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1, 2)
	repo := newFakeDocumentRepository(doc)
	st := &fakeStamper{}
	locker := &fakeLocker{}
	uc := newSigningUsecase(repo, artifacts, st, locker)

	signed, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1")
	if err != nil {
		t.Fatalf("first sign failed: %v", err)
	}
	if signed.Status != entity.StatusSent {
		t.Errorf("status = %s, want sent after first of two ranks", signed.Status)
	}
	if signed.Chain.Current != 2 {
		t.Errorf("current = %d, want 2", signed.Chain.Current)
	}
	if st.calls != 1 {
		t.Errorf("stamper calls = %d, want 1", st.calls)
	}
	if !strings.HasPrefix(string(artifacts.documents["d1"]), "stamped:") {
		t.Error("stored binary should be the stamped output")
	}
	if artifacts.promotions != 1 || len(artifacts.staged) != 0 {
		t.Error("staged binary should have been promoted")
	}
	if locker.releases != locker.acquires {
		t.Error("lock must be released")
	}

	done, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(1)}, "d1")
	if err != nil {
		t.Fatalf("second sign failed: %v", err)
	}
	if done.Status != entity.StatusComplete {
		t.Errorf("status = %s, want complete", done.Status)
	}
	if done.DateComplete == nil {
		t.Error("dateComplete should be set on completion")
	}
	if repo.docs["d1"].Status != entity.StatusComplete {
		t.Error("completion was not persisted")
	}
	// Both stamps applied in order.
	if !strings.HasPrefix(string(artifacts.documents["d1"]), "stamped:stamped:") {
		t.Error("second stamp should layer on the first")
	}
}

func TestSignRejectsIneligibleSigners(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1, 2)
	repo := newFakeDocumentRepository(doc)
	st := &fakeStamper{}
	uc := newSigningUsecase(repo, artifacts, st, &fakeLocker{})

	if _, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(1)}, "d1"); !errors.Is(err, entity.ErrNotEligible) {
		t.Errorf("out-of-turn signer: got %v, want ErrNotEligible", err)
	}
	if _, err := uc.Sign(context.Background(), entity.Actor{ID: "stranger"}, "d1"); !errors.Is(err, entity.ErrNotEligible) {
		t.Errorf("stranger: got %v, want ErrNotEligible", err)
	}
	if st.calls != 0 {
		t.Errorf("rejections must not stamp, got %d calls", st.calls)
	}

	if _, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1"); err != nil {
		t.Fatalf("eligible sign failed: %v", err)
	}
	if _, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1"); !errors.Is(err, entity.ErrAlreadySigned) {
		t.Errorf("repeat signer: got %v, want ErrAlreadySigned", err)
	}
	if st.calls != 1 {
		t.Errorf("stamper calls = %d, want exactly 1", st.calls)
	}
}

func TestSignUnroutedAndMissingDocuments(t *testing.T) {
	artifacts := newFakeArtifactStore()
	repo := newFakeDocumentRepository(savedDoc())
	uc := newSigningUsecase(repo, artifacts, &fakeStamper{}, &fakeLocker{})

	if _, err := uc.Sign(context.Background(), entity.Actor{ID: "anyone"}, "d1"); !errors.Is(err, entity.ErrNotRouted) {
		t.Errorf("saved doc: got %v, want ErrNotRouted", err)
	}
	if _, err := uc.Sign(context.Background(), entity.Actor{ID: "anyone"}, "missing"); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("missing doc: got %v, want ErrNotFound", err)
	}
}

func TestSignRequiresSignatureImage(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1)
	delete(artifacts.signatures, signerID(0))
	repo := newFakeDocumentRepository(doc)
	uc := newSigningUsecase(repo, artifacts, &fakeStamper{}, &fakeLocker{})

	if _, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1"); !errors.Is(err, entity.ErrMissingSignatureImage) {
		t.Errorf("got %v, want ErrMissingSignatureImage", err)
	}
	if repo.commits != 0 {
		t.Error("nothing should be committed without a signature image")
	}
}

func TestSignBusyLockReturnsConflict(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1)
	repo := newFakeDocumentRepository(doc)
	st := &fakeStamper{}
	locker := &fakeLocker{busy: true}
	uc := newSigningUsecase(repo, artifacts, st, locker)

	if _, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1"); !errors.Is(err, entity.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if locker.acquires != 2 {
		t.Errorf("acquire attempts = %d, want LockRetries (2)", locker.acquires)
	}
	if st.calls != 0 {
		t.Error("busy lock must not reach the stamper")
	}
}

// Two co-signers race on a shared rank. The loser's commit conflicts, the
// retry sees the winner's resolved rank from a fresh load, and the loser's
// staged binary is discarded.
func TestSignCommitConflictRetriesFromFreshLoad(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1, 1, 2)
	repo := newFakeDocumentRepository(doc)
	repo.conflictOnce = true
	repo.mutate = func(stored *entity.Document) {
		now := time.Now()
		stored.Chain.Entries[1].Signed = true
		stored.Chain.Entries[1].DateSigned = &now
		stored.Chain.Current = 2
		stored.Version++
	}
	st := &fakeStamper{}
	uc := newSigningUsecase(repo, artifacts, st, &fakeLocker{})

	_, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1")
	if !errors.Is(err, entity.ErrRankResolved) {
		t.Fatalf("got %v, want ErrRankResolved after retry", err)
	}
	if st.calls != 1 {
		t.Errorf("stamper calls = %d, want 1 (no restamp on resolved rank)", st.calls)
	}
	if artifacts.discards != 1 || len(artifacts.staged) != 0 {
		t.Error("loser's staged binary should be discarded")
	}
	if string(artifacts.documents["d1"]) != "%PDF-1.7 original" {
		t.Error("stored binary must not carry the loser's stamp")
	}
	if repo.commits != 0 {
		t.Errorf("commits = %d, want 0", repo.commits)
	}
}

// A crash between commit and promote leaves the stamped body staged at the
// committed version; the next sign folds it in before stamping so the earlier
// signer's stamp is never lost.
func TestSignPromotesLeftoverStage(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1, 2)
	now := time.Now()
	doc.Chain.Entries[0].Signed = true
	doc.Chain.Entries[0].DateSigned = &now
	doc.Chain.Current = 2
	doc.Version = 2
	artifacts.staged[stageKey("d1", 2)] = []byte("stamped:%PDF-1.7 original")
	repo := newFakeDocumentRepository(doc)
	uc := newSigningUsecase(repo, artifacts, &fakeStamper{}, &fakeLocker{})

	done, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(1)}, "d1")
	if err != nil {
		t.Fatalf("sign after interrupted promote failed: %v", err)
	}
	if done.Status != entity.StatusComplete {
		t.Errorf("status = %s, want complete", done.Status)
	}
	if artifacts.recoveries != 1 {
		t.Errorf("recoveries = %d, want 1", artifacts.recoveries)
	}
	if !strings.HasPrefix(string(artifacts.documents["d1"]), "stamped:stamped:") {
		t.Error("second stamp must layer on the recovered first stamp")
	}
	if len(artifacts.staged) != 0 {
		t.Error("no staged bodies should remain")
	}
}

func TestSignCompleteDocumentRejected(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1)
	doc.Status = entity.StatusComplete
	repo := newFakeDocumentRepository(doc)
	uc := newSigningUsecase(repo, artifacts, &fakeStamper{}, &fakeLocker{})

	if _, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1"); !errors.Is(err, entity.ErrAlreadyComplete) {
		t.Errorf("got %v, want ErrAlreadyComplete", err)
	}
}

// A sent document whose ranks are all resolved is healed to complete when the
// inconsistency is observed.
func TestSignHealsResolvedButSentDocument(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningSequential, 1, 1)
	now := time.Now()
	doc.Chain.Entries[0].Signed = true
	doc.Chain.Entries[0].DateSigned = &now
	repo := newFakeDocumentRepository(doc)
	uc := newSigningUsecase(repo, artifacts, &fakeStamper{}, &fakeLocker{})

	if _, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(1)}, "d1"); !errors.Is(err, entity.ErrAlreadyComplete) {
		t.Fatalf("got %v, want ErrAlreadyComplete", err)
	}
	stored := repo.docs["d1"]
	if stored.Status != entity.StatusComplete {
		t.Errorf("status = %s, want healed to complete", stored.Status)
	}
	if stored.DateComplete == nil {
		t.Error("healed document should carry dateComplete")
	}
}

func TestSignParallelOutOfOrder(t *testing.T) {
	artifacts := newFakeArtifactStore()
	doc := sentDoc(artifacts, entity.SigningParallel, 1, 2)
	repo := newFakeDocumentRepository(doc)
	uc := newSigningUsecase(repo, artifacts, &fakeStamper{}, &fakeLocker{})

	// Rank-2 signer goes first.
	signed, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(1)}, "d1")
	if err != nil {
		t.Fatalf("parallel out-of-order sign failed: %v", err)
	}
	if signed.Status != entity.StatusSent {
		t.Errorf("status = %s, want sent", signed.Status)
	}
	if signed.Chain.Current != 1 {
		t.Errorf("current = %d, want lowest unresolved rank 1", signed.Chain.Current)
	}

	done, err := uc.Sign(context.Background(), entity.Actor{ID: signerID(0)}, "d1")
	if err != nil {
		t.Fatalf("final parallel sign failed: %v", err)
	}
	if done.Status != entity.StatusComplete {
		t.Errorf("status = %s, want complete", done.Status)
	}
}

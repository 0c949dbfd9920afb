package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/infrastructure/site"
	"HempNewsPipeline/internal/infrastructure/storage"
	"HempNewsPipeline/internal/logging"
)

var moderationNow = time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

func seedDrafts(t *testing.T, store *memStore, drafts ...domain.DraftArticle) {
	t.Helper()
	index := &domain.DraftIndex{}
	for _, d := range drafts {
		index.Add(d)
	}
	if err := store.SaveDrafts(context.Background(), index); err != nil {
		t.Fatalf("seed drafts: %v", err)
	}
}

func pendingDraft(id string, age time.Duration) domain.DraftArticle {
	return domain.DraftArticle{
		ID:        id,
		Article:   domain.RewrittenArticle{Title: "Стаття " + id, Category: domain.CategoryAgro},
		CreatedAt: moderationNow.Add(-age),
		Status:    domain.StatusPending,
	}
}

func newTestModeration(store *memStore, inbox *fakeInbox, pub *fakePublisher, social *fakeSocial) *Moderation {
	deps := ModerationDeps{
		Drafts:        store,
		Publisher:     pub,
		Logger:        logging.Discard(),
		MaxPendingAge: 48 * time.Hour,
		Now:           func() time.Time { return moderationNow },
	}
	if inbox != nil {
		deps.Inbox = inbox
	}
	if social != nil {
		deps.Social = social
	}
	return NewModeration(deps)
}

func TestSweepExpiresStaleDrafts(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("fresh001", time.Hour), pendingDraft("stale001", 49*time.Hour))

	expired, err := newTestModeration(store, nil, &fakePublisher{}, nil).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "stale001" || expired[0].Status != domain.StatusExpired {
		t.Fatalf("unexpected expired drafts: %+v", expired)
	}
	index := store.mustDrafts()
	if len(index.Drafts) != 1 || index.Drafts[0].ID != "fresh001" {
		t.Fatalf("stale draft must be purged: %+v", index.Drafts)
	}
}

func TestSweepWithoutChangesDoesNotSave(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("fresh001", time.Hour))
	saves := store.saveDrafts

	if _, err := newTestModeration(store, nil, &fakePublisher{}, nil).Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if store.saveDrafts != saves {
		t.Fatalf("nothing changed, yet drafts were saved")
	}
}

func TestApproveUnknownDraftIsNoop(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("abc12345", time.Hour))
	pub := &fakePublisher{}

	outcome, err := newTestModeration(store, nil, pub, nil).Apply(context.Background(),
		domain.OperatorEvent{Action: domain.ActionApprove, DraftID: "missing1"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome.Applied || !strings.Contains(outcome.Message, "не знайдено") {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(pub.published) != 0 || len(store.mustDrafts().Drafts) != 1 {
		t.Fatalf("unknown id must not change anything")
	}
}

func TestApproveStaleDraftExpiresInstead(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("stale001", 72*time.Hour))
	pub := &fakePublisher{}

	outcome, err := newTestModeration(store, nil, pub, nil).Apply(context.Background(),
		domain.OperatorEvent{Action: domain.ActionApprove, DraftID: "stale001"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome.Applied || outcome.Status != domain.StatusExpired {
		t.Fatalf("stale draft must expire: %+v", outcome)
	}
	if len(pub.published) != 0 || len(store.mustDrafts().Drafts) != 0 {
		t.Fatalf("expired draft must not be published and must be purged")
	}
}

func TestRejectRemovesDraft(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("abc12345", time.Hour), pendingDraft("def67890", time.Hour))

	m := newTestModeration(store, nil, &fakePublisher{}, nil)
	outcome, err := m.Apply(context.Background(), domain.OperatorEvent{Action: domain.ActionReject, DraftID: "abc12345"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !outcome.Applied || outcome.Status != domain.StatusRejected || outcome.Draft == nil {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	index := store.mustDrafts()
	if len(index.Drafts) != 1 || index.Drafts[0].ID != "def67890" {
		t.Fatalf("rejected draft must leave the index: %+v", index.Drafts)
	}

	again, err := m.Apply(context.Background(), domain.OperatorEvent{Action: domain.ActionReject, DraftID: "abc12345"})
	if err != nil || again.Applied {
		t.Fatalf("second decision must be a no-op: %+v %v", again, err)
	}
}

func TestDecisionOnTerminalDraftIsNoop(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	decided := pendingDraft("done0001", time.Hour)
	decided.Status = domain.StatusApproved
	seedDrafts(t, store, decided)
	pub := &fakePublisher{}

	outcome, err := newTestModeration(store, nil, pub, nil).Apply(context.Background(),
		domain.OperatorEvent{Action: domain.ActionReject, DraftID: "done0001"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome.Applied || outcome.Status != domain.StatusApproved {
		t.Fatalf("terminal draft must not move: %+v", outcome)
	}
	if len(pub.published) != 0 {
		t.Fatalf("terminal draft must not be published")
	}
}

func TestApprovePublishFailureKeepsDraftPending(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("abc12345", time.Hour))
	pub := &fakePublisher{err: errors.New("disk full")}

	outcome, err := newTestModeration(store, nil, pub, nil).Apply(context.Background(),
		domain.OperatorEvent{Action: domain.ActionApprove, DraftID: "abc12345"})
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if outcome.Applied {
		t.Fatalf("failed publish must not apply: %+v", outcome)
	}
	index := store.mustDrafts()
	if len(index.Drafts) != 1 || index.Drafts[0].Status != domain.StatusPending {
		t.Fatalf("draft must stay pending: %+v", index.Drafts)
	}
}

func TestApproveSocialFailureIsSoft(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("abc12345", time.Hour))
	pub := &fakePublisher{}
	social := &fakeSocial{err: errors.New("channel unreachable")}

	outcome, err := newTestModeration(store, nil, pub, social).Apply(context.Background(),
		domain.OperatorEvent{Action: domain.ActionApprove, DraftID: "abc12345"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !outcome.Applied || outcome.Publication == nil || social.posts != 1 {
		t.Fatalf("unexpected outcome: %+v posts=%d", outcome, social.posts)
	}
	if len(store.mustDrafts().Drafts) != 0 {
		t.Fatalf("approved draft must be purged")
	}
}

func TestStatusListsPendingDrafts(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("abc12345", 90*time.Minute), pendingDraft("def67890", 10*time.Minute))

	outcome, err := newTestModeration(store, nil, &fakePublisher{}, nil).Apply(context.Background(),
		domain.OperatorEvent{Action: domain.ActionStatus})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for _, want := range []string{"На модерації: 2", "[abc12345]", "1 год 30 хв", "10 хв"} {
		if !strings.Contains(outcome.Message, want) {
			t.Fatalf("status missing %q:\n%s", want, outcome.Message)
		}
	}

	empty := &memStore{}
	outcome, _ = newTestModeration(empty, nil, &fakePublisher{}, nil).Apply(context.Background(),
		domain.OperatorEvent{Action: domain.ActionStatus})
	if !strings.Contains(outcome.Message, "Немає") {
		t.Fatalf("unexpected empty status: %q", outcome.Message)
	}
}

func TestProcessInboxAppliesEventsAndStoresOffset(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedDrafts(t, store, pendingDraft("abc12345", time.Hour), pendingDraft("def67890", time.Hour))
	inbox := &fakeInbox{
		next: 42,
		events: []domain.OperatorEvent{
			{Action: domain.ActionApprove, DraftID: "abc12345", Operator: "editor"},
			{Action: domain.ActionApprove, DraftID: "abc12345", Operator: "editor"},
			{Action: domain.ActionHelp},
		},
	}
	pub := &fakePublisher{}

	m := newTestModeration(store, inbox, pub, nil)
	handled, err := m.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox: %v", err)
	}
	if handled != 3 || len(inbox.replies) != 3 {
		t.Fatalf("expected 3 handled events, got %d/%d", handled, len(inbox.replies))
	}
	if !inbox.replies[0].Applied || inbox.replies[1].Applied {
		t.Fatalf("duplicate approval must be a no-op: %+v", inbox.replies)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one publication, got %d", len(pub.published))
	}

	index := store.mustDrafts()
	if index.UpdateOffset != 42 || len(index.Drafts) != 1 {
		t.Fatalf("unexpected index after inbox: %+v", index)
	}

	if err := m.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if inbox.offsets[len(inbox.offsets)-1] != 42 {
		t.Fatalf("next poll must resume from the stored offset: %v", inbox.offsets)
	}
}

func TestApproveWritesSitePage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := storage.NewJSONStore(filepath.Join(dir, "data"), 0, 0)
	contentDir := filepath.Join(dir, "content")

	p := NewPipeline(PipelineDeps{
		Rewriter: &fakeRewriter{},
		History:  store,
		Drafts:   store,
		Notifier: &fakeNotifier{},
		Logger:   logging.Discard(),
		Now:      func() time.Time { return moderationNow.Add(-time.Hour) },
		Sleep:    noSleep,
	})
	result, err := p.RunBatch(context.Background(), []domain.Candidate{{
		Title:       "Hemp textile plant opens in Lviv",
		Link:        "https://example.com/lviv",
		Source:      "Hemp Daily",
		Fingerprint: "fp-lviv",
	}})
	if err != nil || len(result.DraftIDs) != 1 {
		t.Fatalf("RunBatch: %+v %v", result, err)
	}

	inbox := &fakeInbox{next: 7, events: []domain.OperatorEvent{{Action: domain.ActionApprove, DraftID: result.DraftIDs[0]}}}
	m := NewModeration(ModerationDeps{
		Drafts:        store,
		Inbox:         inbox,
		Publisher:     site.NewEmitter(contentDir, "https://hempnews.example", time.UTC),
		Logger:        logging.Discard(),
		MaxPendingAge: 48 * time.Hour,
		Now:           func() time.Time { return moderationNow },
	})
	if err := m.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(inbox.replies) != 1 || !inbox.replies[0].Applied || inbox.replies[0].Publication == nil {
		t.Fatalf("approval not applied: %+v", inbox.replies)
	}

	raw, err := os.ReadFile(inbox.replies[0].Publication.Path)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	page := string(raw)
	for _, want := range []string{"UA: Hemp textile plant opens in Lviv", "https://example.com/lviv", "Текст статті."} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}

	index, err := store.LoadDrafts(context.Background())
	if err != nil {
		t.Fatalf("LoadDrafts: %v", err)
	}
	if len(index.Drafts) != 0 || index.UpdateOffset != 7 {
		t.Fatalf("unexpected drafts after approval: %+v", index)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/logging"
)

var batchStart = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func candidates(n int) []domain.Candidate {
	out := make([]domain.Candidate, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Candidate{
			Title:       fmt.Sprintf("Hemp story number %d", i),
			Link:        fmt.Sprintf("https://example.com/%d", i),
			Source:      "Hemp Daily",
			Fingerprint: fmt.Sprintf("fp%02d", i),
		})
	}
	return out
}

func newTestPipeline(store *memStore, rw *fakeRewriter, notifier *fakeNotifier) *Pipeline {
	return NewPipeline(PipelineDeps{
		Rewriter: rw,
		Images:   fakeImages{},
		History:  store,
		Drafts:   store,
		Notifier: notifier,
		Logger:   logging.Discard(),
		Delay:    time.Second,
		Now:      func() time.Time { return batchStart },
		NewID:    sequentialIDs(),
		Sleep:    noSleep,
	})
}

func TestRunBatchCountsFailuresWithoutAborting(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	rw := &fakeRewriter{failTitles: map[string]bool{"Hemp story number 7": true}}
	notifier := &fakeNotifier{}

	result, err := newTestPipeline(store, rw, notifier).RunBatch(context.Background(), candidates(10))
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Found != 10 || result.Rewritten != 9 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.DraftIDs) != 9 {
		t.Fatalf("expected 9 draft ids, got %v", result.DraftIDs)
	}

	index := store.mustDrafts()
	if len(index.Drafts) != 9 {
		t.Fatalf("expected 9 stored drafts, got %d", len(index.Drafts))
	}
	for _, d := range index.Drafts {
		if d.Status != domain.StatusPending || d.Image == nil || d.MessageID == 0 {
			t.Fatalf("draft not fully prepared: %+v", d)
		}
	}

	history := store.mustHistory()
	if len(history.Fingerprints) != 10 {
		t.Fatalf("every candidate must be recorded, got %d", len(history.Fingerprints))
	}
	if !history.Contains("fp07") {
		t.Fatalf("failed candidate must still be recorded")
	}
	if len(history.RecentTitles) != 9 {
		t.Fatalf("only rewritten titles are remembered, got %d", len(history.RecentTitles))
	}
	if history.RecentTitles[0] != "Hemp story number 1" {
		t.Fatalf("history must keep the raw title, got %q", history.RecentTitles[0])
	}
	if len(notifier.drafts) != 9 {
		t.Fatalf("expected 9 notifications, got %d", len(notifier.drafts))
	}
}

func TestRunBatchEmptyDoesNothing(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	rw := &fakeRewriter{}
	result, err := newTestPipeline(store, rw, &fakeNotifier{}).RunBatch(context.Background(), nil)
	if err != nil || result.Found != 0 || rw.calls != 0 {
		t.Fatalf("unexpected result %+v err %v calls %d", result, err, rw.calls)
	}
	if store.history != nil || store.drafts != nil {
		t.Fatalf("empty batch must not touch state")
	}
}

func TestRunBatchImageAndNotifyFailuresAreSoft(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	p := NewPipeline(PipelineDeps{
		Rewriter: &fakeRewriter{},
		Images:   fakeImages{err: errors.New("unsplash down")},
		History:  store,
		Drafts:   store,
		Notifier: &fakeNotifier{err: errors.New("telegram down")},
		Logger:   logging.Discard(),
		NewID:    sequentialIDs(),
		Sleep:    noSleep,
	})

	result, err := p.RunBatch(context.Background(), candidates(2))
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Rewritten != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, d := range store.mustDrafts().Drafts {
		if d.Image != nil || d.MessageID != 0 {
			t.Fatalf("draft should have no image and no message: %+v", d)
		}
	}
}

func TestRunBatchDraftSaveFailureFailsCandidate(t *testing.T) {
	t.Parallel()

	store := &memStore{failDraftAt: 1}
	result, err := newTestPipeline(store, &fakeRewriter{}, &fakeNotifier{}).RunBatch(context.Background(), candidates(2))
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Rewritten != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	index := store.mustDrafts()
	if len(index.Drafts) != 1 || index.Drafts[0].Fingerprint != "fp02" {
		t.Fatalf("unsaved draft must not linger: %+v", index.Drafts)
	}
	if len(store.mustHistory().Fingerprints) != 2 {
		t.Fatalf("both candidates must be recorded")
	}
}

func TestRunBatchStateSaveFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := &memStore{failHistory: errors.New("read-only filesystem")}
	rw := &fakeRewriter{}
	result, err := newTestPipeline(store, rw, &fakeNotifier{}).RunBatch(context.Background(), candidates(3))
	if !errors.Is(err, ErrStateNotSaved) {
		t.Fatalf("expected ErrStateNotSaved, got %v", err)
	}
	if rw.calls != 1 || result.Rewritten != 1 {
		t.Fatalf("batch must stop after the first candidate: calls=%d result=%+v", rw.calls, result)
	}
}

func TestRunBatchStopsWhenContextEnds(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	ctx, cancel := context.WithCancel(context.Background())
	rw := &fakeRewriter{}
	p := NewPipeline(PipelineDeps{
		Rewriter: rw,
		History:  store,
		Drafts:   store,
		Logger:   logging.Discard(),
		NewID:    sequentialIDs(),
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})

	_, err := p.RunBatch(ctx, candidates(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rw.calls != 1 {
		t.Fatalf("expected a single rewrite, got %d", rw.calls)
	}
}

func TestUniqueIDSkipsTakenIdentifiers(t *testing.T) {
	t.Parallel()

	ids := []string{"aaaa1111", "aaaa1111", "bbbb2222"}
	p := NewPipeline(PipelineDeps{NewID: func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}})
	index := &domain.DraftIndex{}
	index.Add(domain.DraftArticle{ID: p.uniqueID(index)})
	if got := p.uniqueID(index); got != "bbbb2222" {
		t.Fatalf("expected a fresh id, got %q", got)
	}
	if len(shortID()) != draftIDLength {
		t.Fatalf("short id has wrong length")
	}
}

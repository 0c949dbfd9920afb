package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"HempNewsPipeline/internal/domain"
)

// memStore keeps history and drafts as JSON documents, so every load returns a fresh copy.
type memStore struct {
	mu          sync.Mutex
	history     []byte
	drafts      []byte
	saveDrafts  int
	failHistory error
	failDraftAt int
}

func (s *memStore) LoadHistory(context.Context) (*domain.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := domain.NewHistory(0, 0)
	if s.history == nil {
		return h, nil
	}
	if err := json.Unmarshal(s.history, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *memStore) SaveHistory(_ context.Context, h *domain.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failHistory != nil {
		return s.failHistory
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return err
	}
	s.history = raw
	return nil
}

func (s *memStore) LoadDrafts(context.Context) (*domain.DraftIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := &domain.DraftIndex{}
	if s.drafts == nil {
		return index, nil
	}
	if err := json.Unmarshal(s.drafts, index); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *memStore) SaveDrafts(_ context.Context, index *domain.DraftIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveDrafts++
	if s.saveDrafts == s.failDraftAt {
		return errors.New("disk full")
	}
	raw, err := json.Marshal(index)
	if err != nil {
		return err
	}
	s.drafts = raw
	return nil
}

func (s *memStore) mustHistory() *domain.History {
	h, err := s.LoadHistory(context.Background())
	if err != nil {
		panic(err)
	}
	return h
}

func (s *memStore) mustDrafts() *domain.DraftIndex {
	index, err := s.LoadDrafts(context.Background())
	if err != nil {
		panic(err)
	}
	return index
}

type fakeRewriter struct {
	failTitles map[string]bool
	calls      int
}

func (r *fakeRewriter) Rewrite(_ context.Context, c domain.Candidate) (domain.RewrittenArticle, error) {
	r.calls++
	if r.failTitles[c.Title] {
		return domain.RewrittenArticle{}, fmt.Errorf("rewrite %q: all providers failed", c.Title)
	}
	return domain.RewrittenArticle{
		Title:    "UA: " + c.Title,
		Summary:  "Короткий опис.",
		Body:     "Текст статті.",
		Category: domain.CategoryTextile,
		Tags:     []string{"коноплі", "текстиль"},
	}, nil
}

type fakeImages struct {
	err error
}

func (f fakeImages) Resolve(_ context.Context, req domain.ImageRequest) (*domain.ImageAsset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ImageAsset{URL: "https://img/" + req.CandidateID + ".jpg", SourceTag: "unsplash"}, nil
}

type fakeNotifier struct {
	drafts []domain.DraftArticle
	err    error
}

func (n *fakeNotifier) NotifyDraft(_ context.Context, d domain.DraftArticle) (int, error) {
	if n.err != nil {
		return 0, n.err
	}
	n.drafts = append(n.drafts, d)
	return 1000 + len(n.drafts), nil
}

type fakeInbox struct {
	events  []domain.OperatorEvent
	next    int
	offsets []int
	replies []domain.DecisionOutcome
}

func (i *fakeInbox) Poll(_ context.Context, offset int) ([]domain.OperatorEvent, int, error) {
	i.offsets = append(i.offsets, offset)
	events := i.events
	i.events = nil
	return events, i.next, nil
}

func (i *fakeInbox) Reply(_ context.Context, _ domain.OperatorEvent, outcome domain.DecisionOutcome) error {
	i.replies = append(i.replies, outcome)
	return nil
}

type fakePublisher struct {
	published []domain.DraftArticle
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, d domain.DraftArticle, _ time.Time) (domain.Publication, error) {
	if p.err != nil {
		return domain.Publication{}, p.err
	}
	p.published = append(p.published, d)
	return domain.Publication{Path: "/site/" + d.ID + ".md", Stem: d.ID, URL: "https://site/news/" + d.ID + "/"}, nil
}

type fakeSocial struct {
	posts int
	err   error
}

func (s *fakeSocial) Post(context.Context, domain.DraftArticle, domain.Publication) error {
	s.posts++
	return s.err
}

type recordedAlert struct {
	level  domain.AlertLevel
	title  string
	detail string
}

type fakeAlerter struct {
	alerts []recordedAlert
}

func (a *fakeAlerter) Alert(_ context.Context, level domain.AlertLevel, title, detail string) error {
	a.alerts = append(a.alerts, recordedAlert{level: level, title: title, detail: detail})
	return nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%06d", n)
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

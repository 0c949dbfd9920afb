// Package usecase holds the application workflows: the admission pipeline,
// moderation and run reporting.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

const draftIDLength = 8

// ErrStateNotSaved marks a failure to persist history or drafts after a candidate.
var ErrStateNotSaved = errors.New("pipeline state not saved")

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Rewriter ports.Rewriter
	Images   ports.ImageResolver
	History  ports.HistoryStore
	Drafts   ports.DraftStore
	Notifier ports.ModerationNotifier
	Logger   *slog.Logger

	// Delay is the pause between two candidates.
	Delay time.Duration
	Now   func() time.Time
	NewID func() string
	Sleep func(context.Context, time.Duration) error
}

// Pipeline drives candidates one by one through rewrite, image, draft and notification.
type Pipeline struct {
	rewriter ports.Rewriter
	images   ports.ImageResolver
	history  ports.HistoryStore
	drafts   ports.DraftStore
	notifier ports.ModerationNotifier
	logger   *slog.Logger
	delay    time.Duration
	now      func() time.Time
	newID    func() string
	sleep    func(context.Context, time.Duration) error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		rewriter: deps.Rewriter,
		images:   deps.Images,
		history:  deps.History,
		drafts:   deps.Drafts,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		delay:    deps.Delay,
		now:      deps.Now,
		newID:    deps.NewID,
		sleep:    deps.Sleep,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = shortID
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	return p
}

// RunBatch processes candidates sequentially. Candidate failures are counted and
// never abort the batch; failing to load or save state does.
func (p *Pipeline) RunBatch(ctx context.Context, candidates []domain.Candidate) (domain.BatchResult, error) {
	start := p.now()
	result := domain.BatchResult{Found: len(candidates)}
	if len(candidates) == 0 {
		return result, nil
	}
	if p.rewriter == nil || p.history == nil || p.drafts == nil {
		return result, fmt.Errorf("pipeline misconfigured")
	}

	history, err := p.history.LoadHistory(ctx)
	if err != nil {
		return result, fmt.Errorf("load history: %w", err)
	}
	index, err := p.drafts.LoadDrafts(ctx)
	if err != nil {
		return result, fmt.Errorf("load drafts: %w", err)
	}

	for i, candidate := range candidates {
		if i > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				result.Duration = p.now().Sub(start)
				return result, err
			}
		}

		log := p.logger.With("fingerprint", candidate.Fingerprint, "source", candidate.Source)
		id, err := p.process(ctx, candidate, index)
		if err != nil {
			result.Failed++
			log.Warn("candidate failed", "title", candidate.Title, "error", err)
			history.Record(candidate.Fingerprint, "")
		} else {
			result.Rewritten++
			result.DraftIDs = append(result.DraftIDs, id)
			log.Info("draft created", "draft_id", id)
			history.Record(candidate.Fingerprint, strings.TrimSpace(candidate.Title))
		}

		if err := p.saveState(ctx, history, index); err != nil {
			result.Duration = p.now().Sub(start)
			return result, err
		}
	}

	result.Duration = p.now().Sub(start)
	return result, nil
}

// process runs one candidate and returns the id of its draft.
func (p *Pipeline) process(ctx context.Context, candidate domain.Candidate, index *domain.DraftIndex) (string, error) {
	article, err := p.rewriter.Rewrite(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}

	id := p.uniqueID(index)
	var image *domain.ImageAsset
	if p.images != nil {
		image, err = p.images.Resolve(ctx, domain.ImageRequest{
			Query:            article.ImageQuery,
			FallbackCategory: article.Category,
			CandidateID:      id,
			SourceImages:     candidate.Images,
			SourceLabel:      candidate.Source,
		})
		if err != nil {
			p.logger.Warn("image lookup failed", "draft_id", id, "error", err)
			image = nil
		}
	}

	draft := domain.DraftArticle{
		ID:          id,
		Article:     article,
		SourceURL:   candidate.Link,
		SourceName:  candidate.Source,
		Fingerprint: candidate.Fingerprint,
		Image:       image,
		CreatedAt:   p.now().UTC(),
		Status:      domain.StatusPending,
	}
	index.Add(draft)
	if err := p.drafts.SaveDrafts(ctx, index); err != nil {
		index.Remove(id)
		return "", fmt.Errorf("persist draft: %w", err)
	}

	if p.notifier == nil {
		return id, nil
	}
	messageID, err := p.notifier.NotifyDraft(ctx, draft)
	if err != nil {
		p.logger.Warn("moderation notification failed", "draft_id", id, "error", err)
		return id, nil
	}
	if stored, ok := index.Find(id); ok {
		stored.MessageID = messageID
	}
	return id, nil
}

// saveState persists both documents after every candidate. A failure here is fatal to
// the batch: continuing would admit candidates whose history entry may never reach disk.
func (p *Pipeline) saveState(ctx context.Context, history *domain.History, index *domain.DraftIndex) error {
	if err := p.history.SaveHistory(ctx, history); err != nil {
		return fmt.Errorf("%w: history: %w", ErrStateNotSaved, err)
	}
	if err := p.drafts.SaveDrafts(ctx, index); err != nil {
		return fmt.Errorf("%w: drafts: %w", ErrStateNotSaved, err)
	}
	return nil
}

func (p *Pipeline) uniqueID(index *domain.DraftIndex) string {
	for {
		id := p.newID()
		if _, taken := index.Find(id); !taken {
			return id
		}
	}
}

func shortID() string {
	return uuid.NewString()[:draftIDLength]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

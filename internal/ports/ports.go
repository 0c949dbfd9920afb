package ports

import (
	"context"
	"time"

	"HempNewsPipeline/internal/domain"
)

// FeedSource pulls raw entries from one configured feed.
type FeedSource interface {
	Fetch(ctx context.Context, source domain.SourceRef) (domain.Feed, error)
}

// HistoryStore persists ProcessedHistory as a whole document.
type HistoryStore interface {
	LoadHistory(ctx context.Context) (*domain.History, error)
	SaveHistory(ctx context.Context, history *domain.History) error
}

// DraftStore persists the pending draft index as a whole document.
type DraftStore interface {
	LoadDrafts(ctx context.Context) (*domain.DraftIndex, error)
	SaveDrafts(ctx context.Context, index *domain.DraftIndex) error
}

// StateStore is the combined durable state owned by the pipeline.
type StateStore interface {
	HistoryStore
	DraftStore
	Close() error
}

// BodyEnricher fetches a fuller article body for a candidate.
type BodyEnricher interface {
	Enrich(ctx context.Context, candidate domain.Candidate) (string, error)
}

// Rewriter turns a candidate into a structured article.
type Rewriter interface {
	Rewrite(ctx context.Context, candidate domain.Candidate) (domain.RewrittenArticle, error)
}

// TextGenerator is a single generative backend used by the rewrite chain.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ImageResolver picks an illustration for a draft; nil means none was found.
type ImageResolver interface {
	Resolve(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error)
}

// ImageProvider is one source of images tried by the resolver.
type ImageProvider interface {
	Name() string
	Find(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error)
}

// ModerationNotifier announces a new draft to operators and returns the message reference.
type ModerationNotifier interface {
	NotifyDraft(ctx context.Context, draft domain.DraftArticle) (int, error)
}

// OperatorInbox delivers operator events and carries replies back.
type OperatorInbox interface {
	Poll(ctx context.Context, offset int) ([]domain.OperatorEvent, int, error)
	Reply(ctx context.Context, event domain.OperatorEvent, outcome domain.DecisionOutcome) error
}

// Alerter raises operator-facing alerts.
type Alerter interface {
	Alert(ctx context.Context, level domain.AlertLevel, title, detail string) error
}

// Publisher emits an approved draft to the static site.
type Publisher interface {
	Publish(ctx context.Context, draft domain.DraftArticle, at time.Time) (domain.Publication, error)
}

// SocialPoster announces a publication on social channels.
type SocialPoster interface {
	Post(ctx context.Context, draft domain.DraftArticle, pub domain.Publication) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/textutil"
)

const (
	statusListLimit  = 10
	statusTitleWidth = 50
)

const helpText = `Команди модерації:
/status - чернетки, що чекають рішення
/help - цей список

Кнопки під прев'ю публікують або відхиляють статтю.`

// ModerationDeps wires the moderation gateway.
type ModerationDeps struct {
	Drafts        ports.DraftStore
	Inbox         ports.OperatorInbox
	Publisher     ports.Publisher
	Social        ports.SocialPoster
	Logger        *slog.Logger
	MaxPendingAge time.Duration
	Now           func() time.Time
}

// Moderation applies operator decisions and expiry to drafts.
type Moderation struct {
	drafts    ports.DraftStore
	inbox     ports.OperatorInbox
	publisher ports.Publisher
	social    ports.SocialPoster
	logger    *slog.Logger
	maxAge    time.Duration
	now       func() time.Time
}

// NewModeration builds the gateway.
func NewModeration(deps ModerationDeps) *Moderation {
	m := &Moderation{
		drafts:    deps.Drafts,
		inbox:     deps.Inbox,
		publisher: deps.Publisher,
		social:    deps.Social,
		logger:    deps.Logger,
		maxAge:    deps.MaxPendingAge,
		now:       deps.Now,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Sweep expires stale pending drafts and purges terminal ones.
func (m *Moderation) Sweep(ctx context.Context) ([]domain.DraftArticle, error) {
	index, err := m.drafts.LoadDrafts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}

	expired := m.expire(index)
	purged := index.PurgeTerminal()
	if len(expired) == 0 && len(purged) == 0 {
		return nil, nil
	}
	if err := m.drafts.SaveDrafts(ctx, index); err != nil {
		return nil, fmt.Errorf("save drafts: %w", err)
	}
	return expired, nil
}

// Apply handles a single operator event against the stored drafts.
func (m *Moderation) Apply(ctx context.Context, event domain.OperatorEvent) (domain.DecisionOutcome, error) {
	index, err := m.drafts.LoadDrafts(ctx)
	if err != nil {
		return domain.DecisionOutcome{}, fmt.Errorf("load drafts: %w", err)
	}

	outcome, changed, applyErr := m.apply(ctx, index, event)
	if changed {
		index.PurgeTerminal()
		if err := m.drafts.SaveDrafts(ctx, index); err != nil {
			return outcome, errors.Join(applyErr, fmt.Errorf("save drafts: %w", err))
		}
	}
	return outcome, applyErr
}

// ProcessInbox polls operator events, applies them in order and replies to each.
// It returns the number of events handled.
func (m *Moderation) ProcessInbox(ctx context.Context) (int, error) {
	if m.inbox == nil {
		return 0, nil
	}
	index, err := m.drafts.LoadDrafts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load drafts: %w", err)
	}

	events, next, err := m.inbox.Poll(ctx, index.UpdateOffset)
	if err != nil {
		return 0, fmt.Errorf("poll operator events: %w", err)
	}

	changed := next != index.UpdateOffset
	index.UpdateOffset = next
	for _, event := range events {
		outcome, eventChanged, applyErr := m.apply(ctx, index, event)
		changed = changed || eventChanged
		if applyErr != nil {
			m.logger.Error("operator event failed", "action", event.Action, "draft_id", event.DraftID, "error", applyErr)
		}
		if err := m.inbox.Reply(ctx, event, outcome); err != nil {
			m.logger.Warn("operator reply failed", "action", event.Action, "draft_id", event.DraftID, "error", err)
		}
	}

	if !changed {
		return len(events), nil
	}
	index.PurgeTerminal()
	if err := m.drafts.SaveDrafts(ctx, index); err != nil {
		return len(events), fmt.Errorf("save drafts: %w", err)
	}
	return len(events), nil
}

// Cycle is one moderation pass: operator events first, then expiry.
func (m *Moderation) Cycle(ctx context.Context) error {
	handled, err := m.ProcessInbox(ctx)
	if err != nil {
		return err
	}
	expired, err := m.Sweep(ctx)
	if err != nil {
		return err
	}
	if handled > 0 || len(expired) > 0 {
		m.logger.Info("moderation cycle", "events", handled, "expired", len(expired))
	}
	return nil
}

func (m *Moderation) expire(index *domain.DraftIndex) []domain.DraftArticle {
	if m.maxAge <= 0 {
		return nil
	}
	now := m.now()
	var expired []domain.DraftArticle
	for i := range index.Drafts {
		if index.Drafts[i].ExpireIfStale(now, m.maxAge) {
			m.logger.Info("draft expired", "draft_id", index.Drafts[i].ID, "age", index.Drafts[i].Age(now).Round(time.Minute))
			expired = append(expired, index.Drafts[i])
		}
	}
	return expired
}

// apply mutates index in memory and reports whether anything changed.
func (m *Moderation) apply(ctx context.Context, index *domain.DraftIndex, event domain.OperatorEvent) (domain.DecisionOutcome, bool, error) {
	switch event.Action {
	case domain.ActionStatus:
		return domain.DecisionOutcome{Message: m.statusText(index)}, false, nil
	case domain.ActionHelp:
		return domain.DecisionOutcome{Message: helpText}, false, nil
	case domain.ActionApprove, domain.ActionReject:
	default:
		return domain.DecisionOutcome{Message: "Невідома дія"}, false, nil
	}

	draft, ok := index.Find(event.DraftID)
	if !ok {
		return domain.DecisionOutcome{Message: fmt.Sprintf("Чернетку %s не знайдено", event.DraftID)}, false, nil
	}
	if m.maxAge > 0 && draft.ExpireIfStale(m.now(), m.maxAge) {
		snapshot := *draft
		return domain.DecisionOutcome{
			Status:  snapshot.Status,
			Message: fmt.Sprintf("Чернетка %s застаріла", draft.ID),
			Draft:   &snapshot,
		}, true, nil
	}
	if draft.Status != domain.StatusPending {
		snapshot := *draft
		return domain.DecisionOutcome{
			Status:  snapshot.Status,
			Message: fmt.Sprintf("Чернетка %s вже має статус %s", draft.ID, draft.Status),
			Draft:   &snapshot,
		}, false, nil
	}

	log := m.logger.With("draft_id", draft.ID, "operator", event.Operator)
	now := m.now()

	if event.Action == domain.ActionReject {
		if err := draft.Move(domain.StatusRejected, now); err != nil {
			return domain.DecisionOutcome{Message: "Не вдалося відхилити"}, false, err
		}
		log.Info("draft rejected")
		snapshot := *draft
		return domain.DecisionOutcome{
			Applied: true,
			Status:  domain.StatusRejected,
			Message: fmt.Sprintf("❌ Відхилено: %s", draft.Article.Title),
			Draft:   &snapshot,
		}, true, nil
	}

	if m.publisher == nil {
		return domain.DecisionOutcome{Message: "Публікацію не налаштовано"}, false, fmt.Errorf("approve %s: publisher not configured", draft.ID)
	}
	pub, err := m.publisher.Publish(ctx, *draft, now)
	if err != nil {
		return domain.DecisionOutcome{
			Status:  domain.StatusPending,
			Message: fmt.Sprintf("Помилка публікації %s, чернетка лишається на модерації", draft.ID),
		}, false, fmt.Errorf("publish %s: %w", draft.ID, err)
	}
	if err := draft.Move(domain.StatusApproved, now); err != nil {
		return domain.DecisionOutcome{Message: "Не вдалося схвалити"}, false, err
	}
	log.Info("draft approved", "path", pub.Path, "url", pub.URL)

	if m.social != nil {
		if err := m.social.Post(ctx, *draft, pub); err != nil {
			log.Warn("social post failed", "error", err)
		}
	}

	snapshot := *draft
	return domain.DecisionOutcome{
		Applied:     true,
		Status:      domain.StatusApproved,
		Message:     fmt.Sprintf("✅ Опубліковано: %s\n%s", draft.Article.Title, pub.URL),
		Draft:       &snapshot,
		Publication: &pub,
	}, true, nil
}

func (m *Moderation) statusText(index *domain.DraftIndex) string {
	pending := index.Pending()
	if len(pending) == 0 {
		return "📋 Немає статей на модерації."
	}

	now := m.now()
	var b strings.Builder
	fmt.Fprintf(&b, "📋 На модерації: %d\n", len(pending))
	for i, d := range pending {
		if i == statusListLimit {
			fmt.Fprintf(&b, "\n... та ще %d", len(pending)-statusListLimit)
			break
		}
		fmt.Fprintf(&b, "\n%d. [%s] %s\n   %s тому", i+1, d.ID,
			textutil.Truncate(d.Article.Title, statusTitleWidth), formatAge(d.Age(now)))
	}
	return b.String()
}

func formatAge(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours == 0 {
		return fmt.Sprintf("%d хв", minutes)
	}
	return fmt.Sprintf("%d год %d хв", hours, minutes)
}

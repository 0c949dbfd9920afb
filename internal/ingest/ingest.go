// Package ingest turns configured feeds into a bounded, ranked batch of candidates.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"HempNewsPipeline/internal/dedup"
	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/policy"
	"HempNewsPipeline/internal/ports"
)

// ErrNoSources is returned when Ingest is called without any source.
var ErrNoSources = errors.New("no feed sources configured")

const sourceLabelRuneLimit = 50

// Options bound which entries become candidates.
type Options struct {
	MaxAgeDays          int
	MinTitleLength      int
	BatchCap            int
	SimilarityThreshold float64
	SummaryLimit        int
	BodyLimit           int
	MaxImages           int
	EnrichBelowRunes    int
}

// Deps wires collaborators of the ingester.
type Deps struct {
	Source   ports.FeedSource
	History  ports.HistoryStore
	Policy   *policy.KeywordPolicy
	Enricher ports.BodyEnricher
	Logger   *slog.Logger
	Now      func() time.Time
}

// Ingester implements the feed admission filter chain.
type Ingester struct {
	source   ports.FeedSource
	history  ports.HistoryStore
	policy   *policy.KeywordPolicy
	enricher ports.BodyEnricher
	logger   *slog.Logger
	now      func() time.Time
	opts     Options
}

// New builds an ingester. A nil policy falls back to the built-in keyword tables.
func New(deps Deps, opts Options) *Ingester {
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = dedup.DefaultThreshold
	}
	if opts.SummaryLimit <= 0 {
		opts.SummaryLimit = 500
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 5000
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = 5
	}
	return &Ingester{
		source:   deps.Source,
		history:  deps.History,
		policy:   deps.Policy,
		enricher: deps.Enricher,
		logger:   deps.Logger,
		now:      deps.Now,
		opts:     opts,
	}
}

// rejection reasons, used for the per-run tally
const (
	reasonShortTitle = "short_title"
	reasonStale      = "stale"
	reasonExact      = "exact_duplicate"
	reasonPolicy     = "policy"
	reasonFuzzy      = "near_duplicate"
)

// Ingest fetches every source, filters entries and returns at most BatchCap candidates,
// newest first. A failing source is logged and skipped; when all of them fail the
// result is simply empty.
func (in *Ingester) Ingest(ctx context.Context, sources []domain.SourceRef) ([]domain.Candidate, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if in.source == nil {
		return nil, fmt.Errorf("feed source is not configured")
	}

	history := domain.NewHistory(0, 0)
	if in.history != nil {
		loaded, err := in.history.LoadHistory(ctx)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		history = loaded
	}

	now := in.now().UTC()
	dd := dedup.New(history, in.opts.SimilarityThreshold)
	rejected := map[string]int{}

	var (
		accepted []domain.Candidate
		failures []error
	)
	for _, src := range sources {
		feed, err := in.source.Fetch(ctx, src)
		if err != nil {
			in.logger.Warn("source fetch failed", "source", src.Name, "url", src.URL, "error", err)
			failures = append(failures, err)
			continue
		}

		label := sourceLabel(feed, src)
		before := len(accepted)
		for _, entry := range feed.Entries {
			candidate, reason := in.admit(entry, label, now, dd)
			if reason != "" {
				rejected[reason]++
				continue
			}
			accepted = append(accepted, candidate)
		}
		in.logger.Info("source scanned", "source", label, "entries", len(feed.Entries), "accepted", len(accepted)-before)
	}

	if len(failures) == len(sources) {
		in.logger.Error("every feed source failed", "sources", len(sources), "error", errors.Join(failures...))
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].PublishedAt.After(accepted[j].PublishedAt)
	})
	if in.opts.BatchCap > 0 && len(accepted) > in.opts.BatchCap {
		accepted = accepted[:in.opts.BatchCap]
	}

	in.enrich(ctx, accepted)

	in.logger.Info("ingestion finished",
		"sources", len(sources),
		"failed_sources", len(failures),
		"candidates", len(accepted),
		"rejected", rejected)
	return accepted, nil
}

// admit normalizes one entry and runs it through the filter chain.
// It returns a non-empty reason when the entry is rejected.
func (in *Ingester) admit(entry domain.FeedEntry, label string, now time.Time, dd *dedup.Deduplicator) (domain.Candidate, string) {
	title := StripHTML(entry.Title)
	if utf8.RuneCountInString(title) < in.opts.MinTitleLength {
		return domain.Candidate{}, reasonShortTitle
	}

	published, known := entryDate(entry)
	if known && in.opts.MaxAgeDays > 0 && published.Before(now.AddDate(0, 0, -in.opts.MaxAgeDays)) {
		return domain.Candidate{}, reasonStale
	}
	if !known {
		published = now
	}

	link := strings.TrimSpace(entry.Link)
	fp := dedup.Fingerprint(title, link)
	if dd.SeenExact(fp) {
		return domain.Candidate{}, reasonExact
	}

	summary := StripHTML(entry.Summary)
	if verdict := in.policy.Classify(title, summary); !verdict.Accept {
		in.logger.Debug("entry blocked by keyword policy", "title", title, "term", verdict.Term, "hard", verdict.Hard)
		return domain.Candidate{}, reasonPolicy
	}

	if dd.NearDuplicate(title) {
		return domain.Candidate{}, reasonFuzzy
	}
	dd.Accept(fp, title)

	body := summary
	if content := StripHTML(entry.Content); utf8.RuneCountInString(content) > utf8.RuneCountInString(summary) {
		body = content
	}

	return domain.Candidate{
		Title:       title,
		Link:        link,
		Summary:     clip(summary, in.opts.SummaryLimit),
		Body:        clip(body, in.opts.BodyLimit),
		PublishedAt: published,
		DateKnown:   known,
		Source:      label,
		Fingerprint: fp,
		Images:      collectImages(entry.Content, entry.Summary, entry.Media, in.opts.MaxImages),
	}, ""
}

func (in *Ingester) enrich(ctx context.Context, candidates []domain.Candidate) {
	if in.enricher == nil || in.opts.EnrichBelowRunes <= 0 {
		return
	}
	for i := range candidates {
		c := &candidates[i]
		if utf8.RuneCountInString(c.Body) >= in.opts.EnrichBelowRunes {
			continue
		}
		text, err := in.enricher.Enrich(ctx, *c)
		if err != nil {
			in.logger.Warn("body enrichment failed", "link", c.Link, "error", err)
			continue
		}
		text = collapse(text)
		if utf8.RuneCountInString(text) > utf8.RuneCountInString(c.Body) {
			c.Body = clip(text, in.opts.BodyLimit)
		}
	}
}

func sourceLabel(feed domain.Feed, src domain.SourceRef) string {
	label := strings.TrimSpace(feed.Title)
	if label == "" {
		label = src.URL
	}
	return clip(label, sourceLabelRuneLimit)
}

// clip cuts s to at most n runes.
func clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

package parser

import (
	"context"
	"fmt"
	"log/slog"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/scanner"
)

// StrategySource implements FeedSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Fetch resolves the scanner configured for source and runs it.
func (s *StrategySource) Fetch(ctx context.Context, source domain.SourceRef) (domain.Feed, error) {
	if s.registry == nil {
		return domain.Feed{}, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(source.Scanner)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("source %s: %w", source.Name, err)
	}

	s.debug("scan source", "source", source.Name, "scanner", strategy.Name(), "url", source.URL)
	feed, err := strategy.Scan(ctx, scanner.Request{SourceName: source.Name, URL: source.URL})
	if err != nil {
		return domain.Feed{}, fmt.Errorf("scan source %s: %w", source.Name, err)
	}

	if source.Name != "" {
		feed.Title = source.Name
	}
	s.debug("source produced entries", "source", source.Name, "count", len(feed.Entries))
	return feed, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

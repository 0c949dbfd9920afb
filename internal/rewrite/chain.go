// Package rewrite turns candidates into structured articles through an ordered
// chain of text generators.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

var (
	// ErrRateLimited is returned by generators when the backend asks the caller to slow down.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransient is returned by generators for failures worth retrying on the same backend.
	ErrTransient = errors.New("transient generator failure")
	// ErrProvidersExhausted is returned when every generator in the chain failed.
	ErrProvidersExhausted = errors.New("all rewrite providers failed")
)

// ClassifyStatus maps an HTTP status to the retry class a generator should report.
// It returns nil for statuses that are not worth retrying.
func ClassifyStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= http.StatusInternalServerError:
		return ErrTransient
	default:
		return nil
	}
}

// ChainConfig tunes retries.
type ChainConfig struct {
	SystemPrompt     string
	MaxAttempts      int
	RateLimitBackoff time.Duration
	TransientBackoff time.Duration
}

// Chain tries each generator in order, retrying within a generator on rate limits,
// transient failures and malformed replies.
type Chain struct {
	generators []ports.TextGenerator
	cfg        ChainConfig
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

var _ ports.Rewriter = (*Chain)(nil)

// NewChain builds the rewrite chain.
func NewChain(generators []ports.TextGenerator, cfg ChainConfig, logger *slog.Logger) *Chain {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		generators: generators,
		cfg:        cfg,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// WithSleep replaces the wait function; tests use it to skip real delays.
func (c *Chain) WithSleep(fn func(context.Context, time.Duration) error) *Chain {
	c.sleep = fn
	return c
}

// Rewrite sends the candidate through the chain until one generator returns a valid article.
func (c *Chain) Rewrite(ctx context.Context, candidate domain.Candidate) (domain.RewrittenArticle, error) {
	if len(c.generators) == 0 {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: chain is empty", ErrProvidersExhausted)
	}

	prompt := UserPrompt(candidate)
	var errs []error
	for _, gen := range c.generators {
		article, err := c.attempt(ctx, gen, prompt)
		if err == nil {
			return article, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.RewrittenArticle{}, ctxErr
		}
		c.logger.Warn("rewrite provider gave up", "provider", gen.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", gen.Name(), err))
	}
	return domain.RewrittenArticle{}, fmt.Errorf("%w: %w", ErrProvidersExhausted, errors.Join(errs...))
}

func (c *Chain) attempt(ctx context.Context, gen ports.TextGenerator, prompt string) (domain.RewrittenArticle, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		text, err := gen.Generate(ctx, c.cfg.SystemPrompt, prompt)
		if err == nil {
			article, parseErr := Parse(text)
			if parseErr == nil {
				return article, nil
			}
			// generators are not deterministic, so a bad reply is retried without delay
			c.logger.Debug("malformed rewrite reply", "provider", gen.Name(), "attempt", attempt, "error", parseErr)
			lastErr = parseErr
			continue
		}

		lastErr = err
		var wait time.Duration
		switch {
		case errors.Is(err, ErrRateLimited):
			wait = c.cfg.RateLimitBackoff * time.Duration(attempt)
		case errors.Is(err, ErrTransient):
			wait = c.cfg.TransientBackoff
		default:
			return domain.RewrittenArticle{}, err
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}
		c.logger.Info("rewrite retry scheduled", "provider", gen.Name(), "attempt", attempt, "wait", wait, "error", err)
		if err := c.sleep(ctx, wait); err != nil {
			return domain.RewrittenArticle{}, err
		}
	}
	return domain.RewrittenArticle{}, lastErr
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

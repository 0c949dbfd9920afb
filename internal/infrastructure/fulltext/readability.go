// Package fulltext fetches article pages and extracts their readable text.
package fulltext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

const (
	maxPageBytes = 5 << 20
	userAgent    = "Mozilla/5.0 (compatible; HempNewsPipeline/1.0)"
)

// ErrNotHTML is returned for pages that are not HTML documents.
var ErrNotHTML = errors.New("fulltext: page is not html")

// ReadabilityEnricher downloads the candidate link and runs readability over it.
type ReadabilityEnricher struct {
	httpClient *http.Client
}

var _ ports.BodyEnricher = (*ReadabilityEnricher)(nil)

// NewReadabilityEnricher builds an enricher; a nil client gets one with the given timeout.
func NewReadabilityEnricher(client *http.Client, timeout time.Duration) *ReadabilityEnricher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &ReadabilityEnricher{httpClient: client}
}

// Enrich returns the readable text of the candidate page.
func (e *ReadabilityEnricher) Enrich(ctx context.Context, candidate domain.Candidate) (string, error) {
	pageURL, err := url.Parse(candidate.Link)
	if err != nil || pageURL.Host == "" {
		return "", fmt.Errorf("parse link %q: invalid url", candidate.Link)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch page: unexpected status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("%w: %s", ErrNotHTML, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}
	return strings.TrimSpace(article.TextContent), nil
}

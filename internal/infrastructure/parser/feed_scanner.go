package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/scanner"
)

const userAgent = "HempNewsPipeline/1.0 (+feed reader)"

// FeedScanner reads RSS, Atom and JSON feeds through gofeed.
type FeedScanner struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewFeedScanner wires an HTTP client; timeout bounds a single feed fetch.
func NewFeedScanner(client *http.Client, timeout time.Duration) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	p := gofeed.NewParser()
	p.Client = client
	p.UserAgent = userAgent
	return &FeedScanner{parser: p, timeout: timeout}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan downloads and parses one feed.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) (domain.Feed, error) {
	if strings.TrimSpace(req.URL) == "" {
		return domain.Feed{}, fmt.Errorf("source %s has no url", req.SourceName)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(req.URL, ctx)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("parse feed %s: %w", req.URL, err)
	}

	feed := domain.Feed{
		Title:   strings.TrimSpace(parsed.Title),
		URL:     req.URL,
		Entries: make([]domain.FeedEntry, 0, len(parsed.Items)),
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Entries = append(feed.Entries, toEntry(item))
	}
	return feed, nil
}

func toEntry(item *gofeed.Item) domain.FeedEntry {
	entry := domain.FeedEntry{
		Title:        item.Title,
		Link:         strings.TrimSpace(item.Link),
		Summary:      item.Description,
		Content:      item.Content,
		Published:    item.PublishedParsed,
		Updated:      item.UpdatedParsed,
		PublishedRaw: item.Published,
		UpdatedRaw:   item.Updated,
	}

	for _, media := range item.Extensions["media"]["content"] {
		entry.Media = append(entry.Media, mediaFromExtension(media))
	}
	for _, group := range item.Extensions["media"]["group"] {
		for _, media := range group.Children["content"] {
			entry.Media = append(entry.Media, mediaFromExtension(media))
		}
	}
	for _, thumb := range item.Extensions["media"]["thumbnail"] {
		entry.Media = append(entry.Media, domain.MediaRef{URL: thumb.Attrs["url"], Medium: "image"})
	}
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		entry.Media = append(entry.Media, domain.MediaRef{URL: enc.URL, Type: enc.Type})
	}
	if item.Image != nil && item.Image.URL != "" {
		entry.Media = append(entry.Media, domain.MediaRef{URL: item.Image.URL, Medium: "image"})
	}

	return entry
}

func mediaFromExtension(e ext.Extension) domain.MediaRef {
	return domain.MediaRef{
		URL:    e.Attrs["url"],
		Type:   e.Attrs["type"],
		Medium: e.Attrs["medium"],
	}
}

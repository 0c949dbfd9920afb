package ingest

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"HempNewsPipeline/internal/domain"
)

// entryDate returns the best-known publish date: parsed published, parsed updated,
// then the raw strings of both through a lenient parser.
func entryDate(e domain.FeedEntry) (time.Time, bool) {
	for _, t := range []*time.Time{e.Published, e.Updated} {
		if t != nil && !t.IsZero() {
			return t.UTC(), true
		}
	}
	for _, raw := range []string{e.PublishedRaw, e.UpdatedRaw} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

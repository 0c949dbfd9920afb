// Package dedup detects exact and near-duplicate feed items.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"HempNewsPipeline/internal/domain"
)

// DefaultThreshold is the similarity score a title must exceed to count as a duplicate.
const DefaultThreshold = 0.6

var (
	editorialPrefix = regexp.MustCompile(`^(breaking|update|new|report|exclusive)[:\s-]+`)
	punctuation     = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
)

// Fingerprint is the exact-dedup key of a (title, link) pair.
func Fingerprint(title, link string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(title)) + "|" + strings.TrimSpace(link)))
	return hex.EncodeToString(sum[:])
}

// NormalizeTitle folds case, drops an editorial prefix and punctuation, and collapses whitespace.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = editorialPrefix.ReplaceAllString(t, "")
	t = punctuation.ReplaceAllString(t, "")
	return strings.Join(strings.Fields(t), " ")
}

// Similarity is |A∩B| / min(|A|,|B|) over the word sets of two normalized titles.
// A short title fully contained in a longer one scores 1.
func Similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	common := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			common++
		}
	}
	return float64(common) / float64(min(len(wa), len(wb)))
}

// IsDuplicate reports whether title is more similar than threshold to any of known.
func IsDuplicate(title string, known []string, threshold float64) bool {
	normalized := NormalizeTitle(title)
	for _, existing := range known {
		if Similarity(normalized, NormalizeTitle(existing)) > threshold {
			return true
		}
	}
	return false
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Deduplicator carries the comparison state of one ingestion run.
// Titles accepted during the run are appended immediately, so the first one seen wins.
type Deduplicator struct {
	threshold float64
	known     map[string]struct{}
	seen      map[string]struct{}
	titles    []string
}

// New seeds a run-local deduplicator from persisted history. History keeps raw titles,
// so they are normalized exactly once, like titles accepted during the run.
func New(history *domain.History, threshold float64) *Deduplicator {
	d := &Deduplicator{
		threshold: threshold,
		known:     map[string]struct{}{},
		seen:      map[string]struct{}{},
	}
	if history != nil {
		for _, fp := range history.Fingerprints {
			d.known[fp] = struct{}{}
		}
		for _, t := range history.RecentTitles {
			d.titles = append(d.titles, NormalizeTitle(t))
		}
	}
	return d
}

// SeenExact reports whether fp is in history or was accepted earlier in this run.
func (d *Deduplicator) SeenExact(fp string) bool {
	if _, ok := d.known[fp]; ok {
		return true
	}
	_, ok := d.seen[fp]
	return ok
}

// NearDuplicate reports whether title resembles an accepted title.
func (d *Deduplicator) NearDuplicate(title string) bool {
	normalized := NormalizeTitle(title)
	for _, existing := range d.titles {
		if Similarity(normalized, existing) > d.threshold {
			return true
		}
	}
	return false
}

// Accept adds an admitted item to the run-local working set.
func (d *Deduplicator) Accept(fp, title string) {
	d.seen[fp] = struct{}{}
	if n := NormalizeTitle(title); n != "" {
		d.titles = append(d.titles, n)
	}
}

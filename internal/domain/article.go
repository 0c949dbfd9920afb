package domain

import (
	"encoding/json"
	"time"
)

// ImageRef is an image reference embedded in a feed entry.
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// MediaRef is a media attachment advertised by a feed (enclosure, media:content).
type MediaRef struct {
	URL    string
	Type   string
	Medium string
}

// FeedEntry is a raw item as delivered by a feed source, before normalization.
type FeedEntry struct {
	Title        string
	Link         string
	Summary      string
	Content      string
	Published    *time.Time
	Updated      *time.Time
	PublishedRaw string
	UpdatedRaw   string
	Media        []MediaRef
}

// Feed is the result of scanning a single source.
type Feed struct {
	Title   string
	URL     string
	Entries []FeedEntry
}

// Candidate is a normalized feed item considered for admission.
type Candidate struct {
	Title       string
	Link        string
	Summary     string
	Body        string
	PublishedAt time.Time
	// DateKnown is false when no feed date parsed and PublishedAt holds the ingestion time.
	DateKnown   bool
	Source      string
	Fingerprint string
	Images      []ImageRef
}

// RewrittenArticle is the structured output of the rewrite step.
type RewrittenArticle struct {
	Title      string                     `json:"title"`
	Summary    string                     `json:"summary"`
	Body       string                     `json:"body"`
	Category   Category                   `json:"category"`
	Tags       []string                   `json:"tags"`
	ImageQuery string                     `json:"image_query,omitempty"`
	Extras     map[string]json.RawMessage `json:"extras,omitempty"`
}

// ImageAsset is an image assigned to a draft.
type ImageAsset struct {
	URL             string `json:"url"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	AttributionText string `json:"attribution_text,omitempty"`
	AttributionURL  string `json:"attribution_url,omitempty"`
	PageURL         string `json:"page_url,omitempty"`
	SourceTag       string `json:"source_tag"`
}

// ImageRequest describes what the image resolver should look for.
type ImageRequest struct {
	Query            string
	FallbackCategory Category
	CandidateID      string
	SourceImages     []ImageRef
	SourceLabel      string
}

// Publication describes where an approved article ended up.
type Publication struct {
	Path string
	Stem string
	URL  string
}

// BatchResult aggregates the outcome of a pipeline run.
type BatchResult struct {
	Found     int
	Rewritten int
	Failed    int
	DraftIDs  []string
	Duration  time.Duration
}

// SourceRef identifies a configured feed.
type SourceRef struct {
	Name    string
	URL     string
	Scanner string
}

// AlertLevel grades operator alerts.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarn     AlertLevel = "WARN"
	AlertError    AlertLevel = "ERROR"
	AlertCritical AlertLevel = "CRITICAL"
)

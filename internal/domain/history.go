package domain

const (
	DefaultFingerprintCap = 500
	DefaultTitleCap       = 200
)

// History is the bounded record of items the pipeline has already handled.
// Both lists are FIFO: overflow evicts from the front.
type History struct {
	Fingerprints []string `json:"articles"`
	RecentTitles []string `json:"recent_titles"`

	fingerprintCap int
	titleCap       int
}

// NewHistory returns an empty history with the given caps.
func NewHistory(fingerprintCap, titleCap int) *History {
	h := &History{}
	h.SetCaps(fingerprintCap, titleCap)
	return h
}

// SetCaps changes the eviction caps and trims the lists accordingly.
func (h *History) SetCaps(fingerprintCap, titleCap int) {
	if fingerprintCap <= 0 {
		fingerprintCap = DefaultFingerprintCap
	}
	if titleCap <= 0 {
		titleCap = DefaultTitleCap
	}
	h.fingerprintCap = fingerprintCap
	h.titleCap = titleCap
	h.Fingerprints = keepTail(h.Fingerprints, fingerprintCap)
	h.RecentTitles = keepTail(h.RecentTitles, titleCap)
}

// Contains reports whether fp has been recorded.
func (h *History) Contains(fp string) bool {
	for _, known := range h.Fingerprints {
		if known == fp {
			return true
		}
	}
	return false
}

// Record appends a fingerprint and, when non-empty, the item's raw title.
func (h *History) Record(fp, title string) {
	if h.fingerprintCap == 0 {
		h.SetCaps(0, 0)
	}
	if fp != "" {
		h.Fingerprints = keepTail(append(h.Fingerprints, fp), h.fingerprintCap)
	}
	if title != "" {
		h.RecentTitles = keepTail(append(h.RecentTitles, title), h.titleCap)
	}
}

// Clone returns a deep copy.
func (h *History) Clone() *History {
	out := &History{
		Fingerprints:   append([]string(nil), h.Fingerprints...),
		RecentTitles:   append([]string(nil), h.RecentTitles...),
		fingerprintCap: h.fingerprintCap,
		titleCap:       h.titleCap,
	}
	return out
}

func keepTail(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}
	return append([]string(nil), items[len(items)-limit:]...)
}

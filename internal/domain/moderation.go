package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIllegalTransition is returned when a status change is not allowed.
	ErrIllegalTransition = errors.New("illegal moderation transition")
	// ErrDraftNotFound is returned when an identifier does not match any draft.
	ErrDraftNotFound = errors.New("draft not found")
)

// ModerationStatus is the lifecycle state of a draft.
type ModerationStatus uint8

const (
	StatusPending ModerationStatus = iota
	StatusApproved
	StatusRejected
	StatusExpired
)

var statusNames = map[ModerationStatus]string{
	StatusPending:  "pending",
	StatusApproved: "approved",
	StatusRejected: "rejected",
	StatusExpired:  "expired",
}

func (s ModerationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether no further transitions are possible.
func (s ModerationStatus) Terminal() bool {
	return s != StatusPending
}

// Transition returns the target status when moving from s to next is legal.
// Only pending drafts can move, and only into one of the terminal states.
func (s ModerationStatus) Transition(next ModerationStatus) (ModerationStatus, error) {
	if s != StatusPending || next == StatusPending {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
	}
	if _, ok := statusNames[next]; !ok {
		return s, fmt.Errorf("%w: unknown target %d", ErrIllegalTransition, uint8(next))
	}
	return next, nil
}

// MarshalText encodes the status as its name.
func (s ModerationStatus) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown moderation status %d", uint8(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a status name.
func (s *ModerationStatus) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown moderation status %q", string(text))
}

// DraftArticle is a rewritten article awaiting an operator decision.
type DraftArticle struct {
	ID          string           `json:"id"`
	Article     RewrittenArticle `json:"article"`
	SourceURL   string           `json:"source_url"`
	SourceName  string           `json:"source_name"`
	Fingerprint string           `json:"fingerprint"`
	Image       *ImageAsset      `json:"image,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Status      ModerationStatus `json:"status"`
	DecidedAt   *time.Time       `json:"decided_at,omitempty"`
	// MessageID references the moderation message so its buttons can be cleared later.
	MessageID int `json:"message_id,omitempty"`
}

// Age is the time elapsed since the draft was created.
func (d DraftArticle) Age(now time.Time) time.Duration {
	return now.Sub(d.CreatedAt)
}

// Move applies a status transition and stamps the decision time.
func (d *DraftArticle) Move(next ModerationStatus, at time.Time) error {
	status, err := d.Status.Transition(next)
	if err != nil {
		return fmt.Errorf("draft %s: %w", d.ID, err)
	}
	d.Status = status
	decided := at.UTC()
	d.DecidedAt = &decided
	return nil
}

// ExpireIfStale moves a pending draft to expired when it is older than maxAge.
func (d *DraftArticle) ExpireIfStale(now time.Time, maxAge time.Duration) bool {
	if d.Status != StatusPending || d.Age(now) <= maxAge {
		return false
	}
	return d.Move(StatusExpired, now) == nil
}

// DraftIndex is the persisted set of drafts still awaiting moderation.
type DraftIndex struct {
	Drafts []DraftArticle `json:"articles"`
	// UpdateOffset is the next chat update identifier to request.
	UpdateOffset int `json:"update_offset,omitempty"`
}

// Add appends a draft to the index.
func (x *DraftIndex) Add(d DraftArticle) {
	x.Drafts = append(x.Drafts, d)
}

// Find returns a pointer to the draft with the given id.
func (x *DraftIndex) Find(id string) (*DraftArticle, bool) {
	for i := range x.Drafts {
		if x.Drafts[i].ID == id {
			return &x.Drafts[i], true
		}
	}
	return nil, false
}

// Remove drops a draft by id and reports whether it was present.
func (x *DraftIndex) Remove(id string) bool {
	for i := range x.Drafts {
		if x.Drafts[i].ID == id {
			x.Drafts = append(x.Drafts[:i], x.Drafts[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns drafts still waiting for a decision.
func (x *DraftIndex) Pending() []DraftArticle {
	out := make([]DraftArticle, 0, len(x.Drafts))
	for _, d := range x.Drafts {
		if d.Status == StatusPending {
			out = append(out, d)
		}
	}
	return out
}

// PurgeTerminal removes every draft in a terminal state and returns them.
func (x *DraftIndex) PurgeTerminal() []DraftArticle {
	var purged []DraftArticle
	kept := x.Drafts[:0]
	for _, d := range x.Drafts {
		if d.Status.Terminal() {
			purged = append(purged, d)
			continue
		}
		kept = append(kept, d)
	}
	x.Drafts = kept
	return purged
}

// OperatorAction enumerates inbound operator events.
type OperatorAction string

const (
	ActionApprove OperatorAction = "approve"
	ActionReject  OperatorAction = "reject"
	ActionStatus  OperatorAction = "status"
	ActionHelp    OperatorAction = "help"
)

// OperatorEvent is an inbound instruction from the moderation channel.
type OperatorEvent struct {
	Action     OperatorAction
	DraftID    string
	Operator   string
	ChatID     int64
	MessageID  int
	CallbackID string
}

// DecisionOutcome reports what the gateway did with an event.
type DecisionOutcome struct {
	Applied     bool
	Status      ModerationStatus
	Message     string
	Draft       *DraftArticle
	Publication *Publication
}

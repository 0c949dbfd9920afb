// Package policy decides whether a text is drug-related using a three-tier keyword rule.
package policy

import "strings"

// Verdict is the classification outcome.
type Verdict struct {
	Accept bool
	// Term is the phrase that caused rejection, empty on accept.
	Term string
	Hard bool
}

// KeywordPolicy holds the keyword tiers. Matching is substring containment on
// case-folded text, so a blocked phrase inside a longer word still matches.
type KeywordPolicy struct {
	hard  []string
	soft  []string
	allow []string
}

// New builds a policy from explicit tiers. Entries are case-folded once.
func New(hard, soft, allow []string) *KeywordPolicy {
	return &KeywordPolicy{
		hard:  fold(hard),
		soft:  fold(soft),
		allow: fold(allow),
	}
}

// Default returns the policy backed by the built-in tables.
func Default() *KeywordPolicy {
	return New(HardBlock, SoftBlock, AllowContext)
}

// Classify inspects title and body together.
func (p *KeywordPolicy) Classify(title, body string) Verdict {
	text := strings.ToLower(title + " " + body)

	if term, ok := firstContained(text, p.hard); ok {
		return Verdict{Term: term, Hard: true}
	}

	term, ok := firstContained(text, p.soft)
	if !ok {
		return Verdict{Accept: true}
	}

	// allow-context is checked over the whole text, not near the token
	if _, allowed := firstContained(text, p.allow); allowed {
		return Verdict{Accept: true}
	}
	return Verdict{Term: term}
}

// IsDrugRelated is a convenience wrapper over Classify.
func (p *KeywordPolicy) IsDrugRelated(title, body string) bool {
	return !p.Classify(title, body).Accept
}

func firstContained(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return term, true
		}
	}
	return "", false
}

func fold(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		out = append(out, strings.ToLower(strings.TrimSpace(term)))
	}
	return out
}

package rewrite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"HempNewsPipeline/internal/domain"
)

var (
	// ErrMalformedResponse marks a generator reply that cannot become an article.
	ErrMalformedResponse = errors.New("malformed rewrite response")

	fencePattern = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*(.*?)\\s*```\\s*$")
)

// keys consumed by Parse; anything else lands in Extras
var knownKeys = map[string]bool{
	"title": true, "summary": true, "body": true, "content": true,
	"category": true, "tags": true, "image_query": true,
}

// Unfence removes a surrounding markdown code fence, or cuts the outermost JSON object
// out of chatter around it.
func Unfence(text string) string {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// Parse validates a generator reply. Title, summary, body, category and tags are
// required and must be non-null; category must belong to the fixed set.
func Parse(text string) (domain.RewrittenArticle, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(Unfence(text)), &fields); err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var article domain.RewrittenArticle
	var err error
	if article.Title, err = requiredString(fields, "title"); err != nil {
		return domain.RewrittenArticle{}, err
	}
	if article.Summary, err = requiredString(fields, "summary"); err != nil {
		return domain.RewrittenArticle{}, err
	}

	bodyKey := "body"
	if _, ok := fields[bodyKey]; !ok {
		bodyKey = "content"
	}
	if article.Body, err = requiredString(fields, bodyKey); err != nil {
		return domain.RewrittenArticle{}, err
	}

	category, err := requiredString(fields, "category")
	if err != nil {
		return domain.RewrittenArticle{}, err
	}
	article.Category = domain.Category(strings.ToLower(category))
	if !article.Category.Valid() {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: unknown category %q", ErrMalformedResponse, category)
	}

	raw, ok := fields["tags"]
	if !ok || isNull(raw) {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: missing tags", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, &article.Tags); err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: tags: %v", ErrMalformedResponse, err)
	}
	article.Tags = cleanTags(article.Tags)

	if raw, ok := fields["image_query"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &article.ImageQuery); err != nil {
			// not a string: keep the value for whoever reads Extras
			article.Extras = map[string]json.RawMessage{"image_query": raw}
		}
	}

	for key, value := range fields {
		if knownKeys[key] {
			continue
		}
		if article.Extras == nil {
			article.Extras = map[string]json.RawMessage{}
		}
		article.Extras[key] = value
	}
	return article, nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedResponse, key)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformedResponse, key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: empty %s", ErrMalformedResponse, key)
	}
	return value, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(tag)]; dup {
			continue
		}
		seen[strings.ToLower(tag)] = struct{}{}
		out = append(out, tag)
	}
	return out
}

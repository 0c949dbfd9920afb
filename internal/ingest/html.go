package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"HempNewsPipeline/internal/domain"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)

	blockElements = map[string]bool{
		"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"blockquote": true, "tr": true, "td": true, "th": true, "figure": true,
		"figcaption": true, "section": true, "article": true, "hr": true, "pre": true,
	}

	// url fragments that mark tracking pixels and decorative images
	trackerMarkers = []string{"pixel", "tracker", "1x1", "beacon", "analytics", "favicon", ".gif", "spacer"}

	imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".avif"}
)

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(tagPattern.ReplaceAllString(fragment, " "))
	}
	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	for _, n := range doc.Nodes {
		writeText(n, &sb)
	}
	return collapse(sb.String())
}

func writeText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, sb)
	}
	if block {
		sb.WriteByte(' ')
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// htmlImages lists <img> references in document order.
func htmlImages(fragment string) []domain.ImageRef {
	if !strings.Contains(fragment, "<img") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var refs []domain.ImageRef
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" {
			return
		}
		alt, _ := s.Attr("alt")
		refs = append(refs, domain.ImageRef{URL: strings.TrimSpace(src), Alt: strings.TrimSpace(alt)})
	})
	return refs
}

func isImageMedia(m domain.MediaRef) bool {
	if m.URL == "" {
		return false
	}
	if m.Medium == "image" || strings.HasPrefix(strings.ToLower(m.Type), "image/") {
		return true
	}
	if m.Type != "" || m.Medium != "" {
		return false
	}
	return hasImageExtension(m.URL)
}

func hasImageExtension(u string) bool {
	path := strings.ToLower(u)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func acceptableImageURL(u string) bool {
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "https://") {
		return false
	}
	for _, marker := range trackerMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// collectImages gathers up to limit secure, non-tracking image references.
// Order: content images, summary images, then feed media attachments.
func collectImages(content, summary string, media []domain.MediaRef, limit int) []domain.ImageRef {
	if limit <= 0 {
		return nil
	}

	candidates := append(htmlImages(content), htmlImages(summary)...)
	for _, m := range media {
		if isImageMedia(m) {
			candidates = append(candidates, domain.ImageRef{URL: strings.TrimSpace(m.URL)})
		}
	}

	seen := map[string]struct{}{}
	out := make([]domain.ImageRef, 0, limit)
	for _, ref := range candidates {
		if !acceptableImageURL(ref.URL) {
			continue
		}
		if _, dup := seen[ref.URL]; dup {
			continue
		}
		seen[ref.URL] = struct{}{}
		out = append(out, ref)
		if len(out) == limit {
			break
		}
	}
	return out
}

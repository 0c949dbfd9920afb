package rewrite

import (
	"fmt"
	"strings"

	"HempNewsPipeline/internal/domain"
)

const maxImageHints = 3

// UserPrompt renders the per-item part of the request.
func UserPrompt(c domain.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Заголовок: %s\n", c.Title)
	fmt.Fprintf(&b, "Джерело: %s\n", c.Source)
	fmt.Fprintf(&b, "Посилання: %s\n", c.Link)
	if !c.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "Дата: %s\n", c.PublishedAt.Format("2006-01-02"))
	}
	b.WriteString("\nТекст:\n")
	body := c.Body
	if strings.TrimSpace(body) == "" {
		body = c.Summary
	}
	b.WriteString(body)
	b.WriteString("\n")

	if len(c.Images) > 0 {
		b.WriteString("\nЗображення у джерелі:\n")
		for i, img := range c.Images {
			if i == maxImageHints {
				break
			}
			if img.Alt != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", img.URL, img.Alt)
				continue
			}
			fmt.Fprintf(&b, "- %s\n", img.URL)
		}
	}
	return b.String()
}

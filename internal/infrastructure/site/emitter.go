// Package site writes approved articles as Hugo markdown pages.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/textutil"
	"HempNewsPipeline/pkg/atomicfile"
)

const maxTags = 5

type frontMatter struct {
	Title          string    `yaml:"title"`
	Date           time.Time `yaml:"date"`
	Summary        string    `yaml:"summary"`
	Categories     []string  `yaml:"categories"`
	Tags           []string  `yaml:"tags"`
	Source         string    `yaml:"source"`
	SourceURL      string    `yaml:"source_url"`
	Image          string    `yaml:"image,omitempty"`
	ImageCredit    string    `yaml:"image_credit,omitempty"`
	ImageAuthorURL string    `yaml:"image_author_url,omitempty"`
	ImageSource    string    `yaml:"image_source,omitempty"`
	ImageSourceURL string    `yaml:"image_source_url,omitempty"`
	Draft          bool      `yaml:"draft"`
}

// Emitter writes one markdown file per approved draft.
type Emitter struct {
	contentDir string
	siteURL    string
	location   *time.Location
}

var _ ports.Publisher = (*Emitter)(nil)

// NewEmitter writes into contentDir; file name timestamps use loc.
func NewEmitter(contentDir, siteURL string, loc *time.Location) *Emitter {
	if loc == nil {
		loc = time.UTC
	}
	return &Emitter{contentDir: contentDir, siteURL: strings.TrimRight(siteURL, "/"), location: loc}
}

// Publish renders the draft and stores it as YYYYMMDD-HHMM-<slug>.md.
func (e *Emitter) Publish(_ context.Context, draft domain.DraftArticle, at time.Time) (domain.Publication, error) {
	at = at.In(e.location).Truncate(time.Second)
	article := repairEncoding(draft.Article)

	slug := Slugify(article.Title)
	if slug == "" {
		slug = draft.ID
	}
	stem := at.Format("20060102-1504") + "-" + slug
	path := filepath.Join(e.contentDir, stem+".md")
	if _, err := os.Stat(path); err == nil {
		stem += "-" + draft.ID
		path = filepath.Join(e.contentDir, stem+".md")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return domain.Publication{}, fmt.Errorf("stat %s: %w", path, err)
	}

	page, err := render(draft, article, at)
	if err != nil {
		return domain.Publication{}, err
	}
	if err := atomicfile.Write(path, page, 0o644); err != nil {
		return domain.Publication{}, fmt.Errorf("write article %s: %w", draft.ID, err)
	}

	return domain.Publication{
		Path: path,
		Stem: stem,
		URL:  e.siteURL + "/news/" + stem + "/",
	}, nil
}

func render(draft domain.DraftArticle, article domain.RewrittenArticle, at time.Time) ([]byte, error) {
	tags := article.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	if tags == nil {
		tags = []string{}
	}

	fm := frontMatter{
		Title:      article.Title,
		Date:       at,
		Summary:    article.Summary,
		Categories: []string{string(article.Category)},
		Tags:       tags,
		Source:     draft.SourceName,
		SourceURL:  draft.SourceURL,
	}
	if img := draft.Image; img != nil {
		fm.Image = img.URL
		fm.ImageCredit = img.AttributionText
		fm.ImageAuthorURL = img.AttributionURL
		fm.ImageSource = img.SourceTag
		fm.ImageSourceURL = img.PageURL
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(article.Body))
	b.WriteString("\n")
	if credit := creditLine(draft.Image); credit != "" {
		b.WriteString("\n---\n")
		b.WriteString(credit)
		b.WriteString("\n")
	}
	return b.Bytes(), nil
}

func creditLine(img *domain.ImageAsset) string {
	if img == nil || img.AttributionText == "" {
		return ""
	}
	if img.AttributionURL != "" {
		return fmt.Sprintf("*[%s](%s)*", img.AttributionText, img.AttributionURL)
	}
	return "*" + img.AttributionText + "*"
}

func repairEncoding(a domain.RewrittenArticle) domain.RewrittenArticle {
	a.Title = textutil.FixDoubleUTF8(a.Title)
	a.Summary = textutil.FixDoubleUTF8(a.Summary)
	a.Body = textutil.FixDoubleUTF8(a.Body)
	a.Category = domain.Category(textutil.FixDoubleUTF8(string(a.Category)))
	tags := make([]string, len(a.Tags))
	for i, t := range a.Tags {
		tags[i] = textutil.FixDoubleUTF8(t)
	}
	a.Tags = tags
	return a
}

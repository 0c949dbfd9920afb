package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/pkg/atomicfile"
)

// SourceTagGenerated marks images produced by the Gemini image model.
const SourceTagGenerated = "gemini"

// GeneratedCredit is shown under AI-generated illustrations.
const GeneratedCredit = "Зображення згенеровано AI"

const imagePrompt = "Generate a high-quality photo-realistic image for a news article. " +
	"The image MUST be in wide landscape format with 16:9 aspect ratio. " +
	"Make it look professional, suitable for a news website about industrial hemp. " +
	"Do NOT include any text, watermarks, logos, or UI elements in the image. " +
	"Topic: %s"

// GeminiGenerator asks a Gemini image model for an illustration and stores it
// under the static site directory.
type GeminiGenerator struct {
	endpoint   string
	model      string
	apiKey     string
	dir        string
	publicURL  string
	httpClient *http.Client
}

var _ ports.ImageProvider = (*GeminiGenerator)(nil)

// NewGeminiGenerator builds the generator from the shared Gemini settings.
func NewGeminiGenerator(cfg config.GeminiConfig, images config.ImagesConfig) *GeminiGenerator {
	return &GeminiGenerator{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.ImageModel,
		apiKey:     cfg.APIKey,
		dir:        images.GeneratedDir,
		publicURL:  strings.TrimRight(images.GeneratedURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the provider in logs.
func (g *GeminiGenerator) Name() string { return SourceTagGenerated }

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type imageResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string      `json:"text,omitempty"`
				InlineData *inlineData `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Find returns nil without an API key or when the model answered with text only.
func (g *GeminiGenerator) Find(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error) {
	if g.apiKey == "" || g.model == "" {
		return nil, nil
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": fmt.Sprintf(imagePrompt, req.Query)}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"TEXT", "IMAGE"},
		},
	}
	target := fmt.Sprintf("%s/%s:generateContent?key=%s", g.endpoint, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	var resp imageResponse
	if err := doJSON(ctx, g.httpClient, http.MethodPost, target, nil, payload, &resp); err != nil {
		return nil, fmt.Errorf("gemini image: %w", err)
	}

	var img *inlineData
	for _, c := range resp.Candidates {
		for _, part := range c.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				img = part.InlineData
				break
			}
		}
		if img != nil {
			break
		}
	}
	if img == nil {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}

	name := fileStem(req.CandidateID) + "." + extension(img.MimeType)
	if err := atomicfile.Write(filepath.Join(g.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("save generated image: %w", err)
	}

	public := g.publicURL + "/" + name
	return &domain.ImageAsset{
		URL:             public,
		ThumbnailURL:    public,
		AttributionText: GeneratedCredit,
		SourceTag:       SourceTagGenerated,
	}, nil
}

func extension(mime string) string {
	switch {
	case strings.Contains(mime, "png"):
		return "png"
	case strings.Contains(mime, "webp"):
		return "webp"
	default:
		return "jpg"
	}
}

func fileStem(id string) string {
	id = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '-'
		}
		return r
	}, strings.TrimSpace(id))
	if id == "" {
		return "img"
	}
	return id
}

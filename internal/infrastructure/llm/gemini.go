package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/ports"
)

// ErrEmptyReply is returned when a backend answers without any text.
var ErrEmptyReply = errors.New("llm: empty reply")

// GeminiProvider talks to the generateContent endpoint of one Gemini model.
type GeminiProvider struct {
	endpoint        string
	model           string
	apiKey          string
	temperature     float64
	maxOutputTokens int
	httpClient      *http.Client
}

var _ ports.TextGenerator = (*GeminiProvider)(nil)

// NewGeminiProvider builds a provider for the given model.
func NewGeminiProvider(cfg config.GeminiConfig, model string) *GeminiProvider {
	return &GeminiProvider{
		endpoint:        strings.TrimRight(cfg.Endpoint, "/"),
		model:           model,
		apiKey:          cfg.APIKey,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the provider in logs.
func (g *GeminiProvider) Name() string { return "gemini/" + g.model }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// Generate asks the model for a JSON reply.
func (g *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.apiKey == "" || g.endpoint == "" || g.model == "" {
		return "", fmt.Errorf("gemini provider misconfigured")
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: userPrompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      g.temperature,
			MaxOutputTokens:  g.maxOutputTokens,
			ResponseMimeType: "application/json",
		},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	target := fmt.Sprintf("%s/%s:generateContent?key=%s", g.endpoint, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	var resp geminiResponse
	if err := postJSON(ctx, g.httpClient, target, nil, payload, &resp); err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini %s: %w", g.model, ErrEmptyReply)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("gemini %s: %w", g.model, ErrEmptyReply)
	}
	return b.String(), nil
}

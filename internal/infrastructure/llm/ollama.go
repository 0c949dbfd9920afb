package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/rewrite"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// OllamaProvider generates text with a model served by a local Ollama instance.
type OllamaProvider struct {
	client      *ollama.Client
	model       string
	temperature float64
}

var _ ports.TextGenerator = (*OllamaProvider)(nil)

// NewOllamaProvider connects to cfg.Host.
func NewOllamaProvider(cfg config.OllamaConfig, model string, temperature float64) (*OllamaProvider, error) {
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	return &OllamaProvider{
		client:      ollama.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:       model,
		temperature: temperature,
	}, nil
}

// Name identifies the provider in logs.
func (o *OllamaProvider) Name() string { return "ollama/" + o.model }

// Generate runs a single non-streaming completion in JSON mode.
func (o *OllamaProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	stream := false
	var response strings.Builder
	err := o.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  o.model,
		System: systemPrompt,
		Prompt: userPrompt,
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": o.temperature,
		},
	}, func(res ollama.GenerateResponse) error {
		response.WriteString(res.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama %s: %w", o.model, classifyOllama(ctx, err))
	}

	text := strings.TrimSpace(thinkBlock.ReplaceAllString(response.String(), ""))
	if text == "" {
		return "", fmt.Errorf("ollama %s: %w", o.model, ErrEmptyReply)
	}
	return text, nil
}

func classifyOllama(ctx context.Context, err error) error {
	var status ollama.StatusError
	if errors.As(err, &status) {
		if class := rewrite.ClassifyStatus(status.StatusCode); class != nil {
			return fmt.Errorf("%w: %w", class, err)
		}
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	// connection refused while the server is starting up
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", rewrite.ErrTransient, err)
	}
	return err
}

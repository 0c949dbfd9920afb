package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/ports"
)

// ChatGPTProvider implements ports.TextGenerator backed by OpenAI-compatible APIs.
type ChatGPTProvider struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.TextGenerator = (*ChatGPTProvider)(nil)

// NewChatGPTProvider builds a provider from configuration.
func NewChatGPTProvider(cfg config.ChatGPTConfig, model string) *ChatGPTProvider {
	return &ChatGPTProvider{
		endpoint:   cfg.Endpoint,
		model:      model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the provider in logs.
func (c *ChatGPTProvider) Name() string { return "chatgpt/" + c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate posts the prompts as a chat completion and returns the first choice.
func (c *ChatGPTProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt provider is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chatgpt provider misconfigured")
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	payload := map[string]any{
		"model":           c.model,
		"messages":        messages,
		"response_format": map[string]string{"type": "json_object"},
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := postJSON(ctx, c.httpClient, c.endpoint, headers, payload, &resp); err != nil {
		return "", fmt.Errorf("chatgpt %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chatgpt %s: %w", c.model, ErrEmptyReply)
	}
	return resp.Choices[0].Message.Content, nil
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"HempNewsPipeline/internal/rewrite"
)

// postJSON sends payload and decodes the reply into v. Failures are tagged with the
// retry class the rewrite chain understands.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("do request: %w", err)
		}
		return fmt.Errorf("do request: %w: %w", rewrite.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := fmt.Sprintf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail)))
		if class := rewrite.ClassifyStatus(resp.StatusCode); class != nil {
			return fmt.Errorf("%s: %w", msg, class)
		}
		return fmt.Errorf("%s", msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

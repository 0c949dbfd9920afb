package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	raw := []byte(`
ingest:
  batchCap: 3
  similarityThreshold: 0.75
pipeline:
  candidateDelay: 2s
sources:
  - name: Test feed
    url: https://example.org/feed
`)
	if err := Parse(raw, &cfg); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Ingest.BatchCap != 3 || cfg.Ingest.SimilarityThreshold != 0.75 {
		t.Fatalf("overrides not applied: %+v", cfg.Ingest)
	}
	if cfg.Ingest.MaxAgeDays != 7 || cfg.Ingest.MinTitleLength != 20 {
		t.Fatalf("defaults lost: %+v", cfg.Ingest)
	}
	if cfg.Pipeline.CandidateDelay != 2*time.Second {
		t.Fatalf("duration not decoded: %v", cfg.Pipeline.CandidateDelay)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "Test feed" {
		t.Fatalf("sources should be replaced: %+v", cfg.Sources)
	}
	if len(cfg.Rewrite.Providers) != 3 {
		t.Fatalf("providers should keep defaults: %+v", cfg.Rewrite.Providers)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"no sources", func(c *Config) { c.Sources = nil }, ErrNoSources},
		{"zero threshold", func(c *Config) { c.Ingest.SimilarityThreshold = 0 }, ErrInvalidThreshold},
		{"threshold above one", func(c *Config) { c.Ingest.SimilarityThreshold = 1.5 }, ErrInvalidThreshold},
		{"zero batch", func(c *Config) { c.Ingest.BatchCap = 0 }, ErrInvalidBatchCap},
		{"zero pending age", func(c *Config) { c.Moderation.MaxPendingAge = 0 }, ErrInvalidAge},
		{"no providers", func(c *Config) { c.Rewrite.Providers = nil }, ErrNoProviders},
		{"unknown provider", func(c *Config) { c.Rewrite.Providers = []ProviderConfig{{Kind: "bard"}} }, ErrUnknownProvider},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "redis" }, ErrUnknownStorage},
	}

	for _, tc := range cases {
		cfg := defaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if tc.want == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := createTempConfigFile(t, `
logging:
  level: warn
scheduler:
  timezone: UTC
notifications:
  telegram:
    chatId: "100"
`)
	t.Setenv(configPathEnv, path)
	t.Setenv(telegramTokenEnv, "token-from-env")
	t.Setenv(geminiAPIKeyEnv, "gemini-key")
	t.Setenv(telegramAdminEnv, "")
	t.Setenv(telegramChatIDEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(storageDriverEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
	if cfg.Notifications.Telegram.BotToken != "token-from-env" || cfg.Gemini.APIKey != "gemini-key" {
		t.Fatalf("env overrides not applied: %+v", cfg.Notifications.Telegram)
	}
	if cfg.Notifications.Telegram.AdminChatID != "100" {
		t.Fatalf("admin chat should fall back to moderation chat, got %q", cfg.Notifications.Telegram.AdminChatID)
	}
	if cfg.Scheduler.Location() != time.UTC {
		t.Fatalf("unexpected location %v", cfg.Scheduler.Location())
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	t.Setenv(configPathEnv, createTempConfigFile(t, "ingest: [unclosed"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

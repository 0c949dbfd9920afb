package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone     = "Europe/Kyiv"
	defaultConfigPath   = "config.yaml"
	configPathEnv       = "HEMPNEWS_CONFIG"
	geminiAPIKeyEnv     = "GEMINI_API_KEY"
	chatGPTAPIKeyEnv    = "OPENAI_API_KEY"
	ollamaHostEnv       = "OLLAMA_HOST"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	telegramAdminEnv    = "TELEGRAM_ADMIN_CHAT_ID"
	telegramChannelEnv  = "TELEGRAM_CHANNEL_ID"
	unsplashAccessEnv   = "UNSPLASH_ACCESS_KEY"
	siteURLEnv          = "SITE_URL"
	storageDriverEnv    = "HEMPNEWS_STORAGE"
	logLevelEnv         = "LOG_LEVEL"
	StorageDriverJSON   = "json"
	StorageDriverSQLite = "sqlite"
)

var (
	ErrNoSources           = errors.New("config: no feed sources configured")
	ErrInvalidThreshold    = errors.New("config: similarity threshold must be in (0, 1]")
	ErrInvalidBatchCap     = errors.New("config: batch cap must be positive")
	ErrInvalidAge          = errors.New("config: max age must be positive")
	ErrNoProviders         = errors.New("config: no rewrite providers configured")
	ErrUnknownProvider     = errors.New("config: unknown rewrite provider")
	ErrUnknownStorage      = errors.New("config: unknown storage driver")
	ErrInvalidRetryAttempt = errors.New("config: rewrite attempts must be positive")
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Sources       []SourceConfig     `yaml:"sources"`
	Ingest        IngestConfig       `yaml:"ingest"`
	Enrich        EnrichConfig       `yaml:"enrich"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Rewrite       RewriteConfig      `yaml:"rewrite"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Ollama        OllamaConfig       `yaml:"ollama"`
	Images        ImagesConfig       `yaml:"images"`
	Storage       StorageConfig      `yaml:"storage"`
	Moderation    ModerationConfig   `yaml:"moderation"`
	Notifications NotificationConfig `yaml:"notifications"`
	Site          SiteConfig         `yaml:"site"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig controls the timezone of emitted timestamps and the watch-mode cadence.
type SchedulerConfig struct {
	Timezone           string         `yaml:"timezone"`
	ModerationInterval time.Duration  `yaml:"moderationInterval"`
	location           *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// SourceConfig describes a single feed and the scanner that reads it.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Scanner string `yaml:"scanner"`
}

// IngestConfig bounds which feed entries become candidates.
type IngestConfig struct {
	MaxAgeDays          int           `yaml:"maxAgeDays"`
	MinTitleLength      int           `yaml:"minTitleLength"`
	BatchCap            int           `yaml:"batchCap"`
	SimilarityThreshold float64       `yaml:"similarityThreshold"`
	FeedTimeout         time.Duration `yaml:"feedTimeout"`
	SummaryLimit        int           `yaml:"summaryLimit"`
	BodyLimit           int           `yaml:"bodyLimit"`
	MaxImages           int           `yaml:"maxImages"`
}

// EnrichConfig toggles fetching the article page when the feed body is short.
type EnrichConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MinBodyRunes int           `yaml:"minBodyRunes"`
	Timeout      time.Duration `yaml:"timeout"`
}

// PipelineConfig tunes the orchestrator.
type PipelineConfig struct {
	CandidateDelay time.Duration `yaml:"candidateDelay"`
}

// RewriteConfig drives the provider chain.
type RewriteConfig struct {
	SystemPrompt     string           `yaml:"systemPrompt"`
	MaxAttempts      int              `yaml:"maxAttempts"`
	RateLimitBackoff time.Duration    `yaml:"rateLimitBackoff"`
	TransientBackoff time.Duration    `yaml:"transientBackoff"`
	Providers        []ProviderConfig `yaml:"providers"`
}

// ProviderConfig names one link of the rewrite chain.
type ProviderConfig struct {
	Kind  string `yaml:"kind"`
	Model string `yaml:"model"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	APIKey          string        `yaml:"apiKey"`
	Temperature     float64       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"maxOutputTokens"`
	ImageModel      string        `yaml:"imageModel"`
	Timeout         time.Duration `yaml:"timeout"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible API.
type ChatGPTConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// OllamaConfig points at a local Ollama server.
type OllamaConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

// ImagesConfig orders image providers and configures them.
type ImagesConfig struct {
	Order        []string       `yaml:"order"`
	GeneratedDir string         `yaml:"generatedDir"`
	GeneratedURL string         `yaml:"generatedUrl"`
	Unsplash     UnsplashConfig `yaml:"unsplash"`
}

// UnsplashConfig holds Unsplash API access.
type UnsplashConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"accessKey"`
	Timeout   time.Duration `yaml:"timeout"`
}

// StorageConfig selects where history and drafts live.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlitePath"`
	HistoryCap int    `yaml:"historyCap"`
	TitleCap   int    `yaml:"titleCap"`
}

// ModerationConfig bounds how long a draft may wait.
type ModerationConfig struct {
	MaxPendingAge time.Duration `yaml:"maxPendingAge"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to talk to the bot API.
type TelegramConfig struct {
	BotToken    string `yaml:"botToken"`
	ChatID      string `yaml:"chatId"`
	AdminChatID string `yaml:"adminChatId"`
	ChannelID   string `yaml:"channelId"`
	Endpoint    string `yaml:"endpoint"`
}

// SiteConfig describes the static site receiving approved articles.
type SiteConfig struct {
	ContentDir string `yaml:"contentDir"`
	URL        string `yaml:"url"`
}

// Load reads YAML configuration (if present), applies environment overrides and validates.
func Load() (Config, error) {
	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of cfg; keys absent from raw keep their current values.
func Parse(raw []byte, cfg *Config) error {
	return yaml.Unmarshal(raw, cfg)
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	if c.Ingest.SimilarityThreshold <= 0 || c.Ingest.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, c.Ingest.SimilarityThreshold)
	}
	if c.Ingest.BatchCap <= 0 {
		return ErrInvalidBatchCap
	}
	if c.Ingest.MaxAgeDays <= 0 || c.Moderation.MaxPendingAge <= 0 {
		return ErrInvalidAge
	}
	if c.Rewrite.MaxAttempts <= 0 {
		return ErrInvalidRetryAttempt
	}
	if len(c.Rewrite.Providers) == 0 {
		return ErrNoProviders
	}
	for _, p := range c.Rewrite.Providers {
		switch p.Kind {
		case ProviderGemini, ProviderChatGPT, ProviderOllama:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownProvider, p.Kind)
		}
	}
	switch c.Storage.Driver {
	case StorageDriverJSON, StorageDriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Driver)
	}
	return nil
}

// Provider kinds accepted in rewrite.providers.
const (
	ProviderGemini  = "gemini"
	ProviderChatGPT = "chatgpt"
	ProviderOllama  = "ollama"
)

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{logLevelEnv, &c.Logging.Level},
		{geminiAPIKeyEnv, &c.Gemini.APIKey},
		{chatGPTAPIKeyEnv, &c.ChatGPT.APIKey},
		{ollamaHostEnv, &c.Ollama.Host},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
		{telegramAdminEnv, &c.Notifications.Telegram.AdminChatID},
		{telegramChannelEnv, &c.Notifications.Telegram.ChannelID},
		{unsplashAccessEnv, &c.Images.Unsplash.AccessKey},
		{siteURLEnv, &c.Site.URL},
		{storageDriverEnv, &c.Storage.Driver},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}

	// alerts fall back to the moderation chat
	if c.Notifications.Telegram.AdminChatID == "" {
		c.Notifications.Telegram.AdminChatID = c.Notifications.Telegram.ChatID
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

const defaultSystemPrompt = `Ти редактор українського новинного сайту про промислові коноплі.
Перепиши новину українською мовою: нейтральний інформаційний стиль, без згадок про наркотичне використання.
Відповідай ЛИШЕ JSON-об'єктом з ключами:
"title" (до 100 символів), "summary" (1-2 речення), "body" (3-6 абзаців у markdown),
"category" (одне з: текстиль, будівництво, агро, біопластик, автопром, харчова, енергетика, косметика, законодавство, наука, екологія, бізнес, інше),
"tags" (3-5 коротких тегів), "image_query" (англійський запит для пошуку фото).`

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, ModerationInterval: 5 * time.Minute},
		Sources: []SourceConfig{
			{Name: "Hemp Today", URL: "https://hemptoday.net/feed/", Scanner: "rss"},
			{Name: "Hemp Gazette", URL: "https://hempgazette.com/feed/", Scanner: "rss"},
			{Name: "HempBuild", URL: "https://hempbuildmag.com/feed", Scanner: "rss"},
		},
		Ingest: IngestConfig{
			MaxAgeDays:          7,
			MinTitleLength:      20,
			BatchCap:            8,
			SimilarityThreshold: 0.6,
			FeedTimeout:         15 * time.Second,
			SummaryLimit:        500,
			BodyLimit:           5000,
			MaxImages:           5,
		},
		Enrich:   EnrichConfig{Enabled: false, MinBodyRunes: 400, Timeout: 15 * time.Second},
		Pipeline: PipelineConfig{CandidateDelay: 5 * time.Second},
		Rewrite: RewriteConfig{
			SystemPrompt:     defaultSystemPrompt,
			MaxAttempts:      3,
			RateLimitBackoff: 10 * time.Second,
			TransientBackoff: 5 * time.Second,
			Providers: []ProviderConfig{
				{Kind: ProviderGemini, Model: "gemini-2.0-flash"},
				{Kind: ProviderGemini, Model: "gemini-2.0-flash-lite"},
				{Kind: ProviderChatGPT, Model: "gpt-4o-mini"},
			},
		},
		Gemini: GeminiConfig{
			Endpoint:        "https://generativelanguage.googleapis.com/v1beta/models",
			Temperature:     0.7,
			MaxOutputTokens: 2048,
			ImageModel:      "gemini-2.0-flash-exp-image-generation",
			Timeout:         60 * time.Second,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Timeout:  60 * time.Second,
		},
		Ollama: OllamaConfig{Host: "http://127.0.0.1:11434", Timeout: 120 * time.Second},
		Images: ImagesConfig{
			Order:        []string{"source", "gemini", "unsplash"},
			GeneratedDir: "site/static/images/generated",
			GeneratedURL: "/images/generated",
			Unsplash: UnsplashConfig{
				Endpoint: "https://api.unsplash.com",
				Timeout:  15 * time.Second,
			},
		},
		Storage: StorageConfig{
			Driver:     StorageDriverJSON,
			Dir:        "data",
			SQLitePath: "data/hempnews.db",
			HistoryCap: 500,
			TitleCap:   200,
		},
		Moderation: ModerationConfig{MaxPendingAge: 48 * time.Hour},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{Endpoint: "https://api.telegram.org/bot%s/%s"},
		},
		Site: SiteConfig{ContentDir: "site/content/news", URL: "https://hempnews.com.ua"},
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/imagery"
	"HempNewsPipeline/internal/infrastructure/fulltext"
	"HempNewsPipeline/internal/infrastructure/images"
	"HempNewsPipeline/internal/infrastructure/llm"
	"HempNewsPipeline/internal/infrastructure/parser"
	"HempNewsPipeline/internal/infrastructure/scheduler"
	"HempNewsPipeline/internal/infrastructure/site"
	"HempNewsPipeline/internal/infrastructure/storage"
	"HempNewsPipeline/internal/infrastructure/telegram"
	"HempNewsPipeline/internal/ingest"
	"HempNewsPipeline/internal/logging"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/policy"
	"HempNewsPipeline/internal/rewrite"
	"HempNewsPipeline/internal/scanner"
	"HempNewsPipeline/internal/usecase"
)

const (
	telegramTimeout = 30 * time.Second
	stopTimeout     = 30 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	store      ports.StateStore
	ingester   *ingest.Ingester
	pipeline   *usecase.Pipeline
	moderation *usecase.Moderation
	reporter   *usecase.Reporter
}

// New builds the application and opens its state store. Callers must Close it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	component := func(name string) *slog.Logger { return baseLogger.With("component", name) }

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	generators, err := buildGenerators(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	bot, err := telegram.NewBot(cfg.Notifications.Telegram, telegramTimeout)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	var api telegram.API
	if bot != nil {
		api = bot
	} else {
		baseLogger.Warn("telegram disabled: no bot token")
	}

	registry := scanner.NewRegistry("rss")
	registry.Register(parser.NewFeedScanner(nil, cfg.Ingest.FeedTimeout))
	source := parser.NewStrategySource(registry, component("source"))

	var enricher ports.BodyEnricher
	enrichBelow := 0
	if cfg.Enrich.Enabled {
		enricher = fulltext.NewReadabilityEnricher(nil, cfg.Enrich.Timeout)
		enrichBelow = cfg.Enrich.MinBodyRunes
	}

	ingester := ingest.New(ingest.Deps{
		Source:   source,
		History:  store,
		Policy:   policy.Default(),
		Enricher: enricher,
		Logger:   component("ingest"),
	}, ingest.Options{
		MaxAgeDays:          cfg.Ingest.MaxAgeDays,
		MinTitleLength:      cfg.Ingest.MinTitleLength,
		BatchCap:            cfg.Ingest.BatchCap,
		SimilarityThreshold: cfg.Ingest.SimilarityThreshold,
		SummaryLimit:        cfg.Ingest.SummaryLimit,
		BodyLimit:           cfg.Ingest.BodyLimit,
		MaxImages:           cfg.Ingest.MaxImages,
		EnrichBelowRunes:    enrichBelow,
	})

	chain := rewrite.NewChain(generators, rewrite.ChainConfig{
		SystemPrompt:     cfg.Rewrite.SystemPrompt,
		MaxAttempts:      cfg.Rewrite.MaxAttempts,
		RateLimitBackoff: cfg.Rewrite.RateLimitBackoff,
		TransientBackoff: cfg.Rewrite.TransientBackoff,
	}, component("rewrite"))

	tg := cfg.Notifications.Telegram
	var notifier ports.ModerationNotifier
	var inbox ports.OperatorInbox
	var social ports.SocialPoster
	if api != nil {
		notifier = telegram.NewNotifier(api, tg.ChatID)
		inbox = telegram.NewInbox(api, tg.ChatID, component("inbox"))
		if tg.ChannelID != "" {
			social = telegram.NewChannelPoster(api, tg.ChannelID, cfg.Site.URL, component("channel"))
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Rewriter: chain,
		Images:   imagery.NewResolver(buildImageProviders(cfg, component("images")), component("images")),
		History:  store,
		Drafts:   store,
		Notifier: notifier,
		Logger:   component("pipeline"),
		Delay:    cfg.Pipeline.CandidateDelay,
	})

	moderation := usecase.NewModeration(usecase.ModerationDeps{
		Drafts:        store,
		Inbox:         inbox,
		Publisher:     site.NewEmitter(cfg.Site.ContentDir, cfg.Site.URL, cfg.Scheduler.Location()),
		Social:        social,
		Logger:        component("moderation"),
		MaxPendingAge: cfg.Moderation.MaxPendingAge,
	})

	alerter := telegram.NewAlerter(api, tg.AdminChatID, component("alerts"))

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		store:      store,
		ingester:   ingester,
		pipeline:   pipeline,
		moderation: moderation,
		reporter:   usecase.NewReporter(alerter, component("report")),
	}, nil
}

// Run performs one ingest and admission batch, then reports the outcome.
func (a *Application) Run(ctx context.Context) error {
	candidates, err := a.ingester.Ingest(ctx, sourceRefs(a.cfg.Sources))
	if err != nil {
		err = fmt.Errorf("ingest: %w", err)
		a.reporter.Crash(ctx, err)
		return err
	}

	result, err := a.pipeline.RunBatch(ctx, candidates)
	if err != nil {
		err = fmt.Errorf("run batch: %w", err)
		a.reporter.Crash(ctx, err)
		return err
	}
	a.reporter.Report(ctx, result)
	return nil
}

// Moderate runs a single moderation cycle.
func (a *Application) Moderate(ctx context.Context) error {
	return a.moderation.Cycle(ctx)
}

// Watch runs moderation cycles on the configured interval until ctx ends.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.ModerationInterval)
	sched := usecase.NewScheduler(driver, a.moderation)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start moderation scheduler: %w", err)
	}
	a.logger.Info("watching moderation inbox", "interval", a.cfg.Scheduler.ModerationInterval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop moderation scheduler: %w", err)
	}
	return nil
}

// Close releases the state store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func buildGenerators(cfg config.Config) ([]ports.TextGenerator, error) {
	generators := make([]ports.TextGenerator, 0, len(cfg.Rewrite.Providers))
	var errs []error
	for _, p := range cfg.Rewrite.Providers {
		switch p.Kind {
		case config.ProviderGemini:
			generators = append(generators, llm.NewGeminiProvider(cfg.Gemini, p.Model))
		case config.ProviderChatGPT:
			generators = append(generators, llm.NewChatGPTProvider(cfg.ChatGPT, p.Model))
		case config.ProviderOllama:
			provider, err := llm.NewOllamaProvider(cfg.Ollama, p.Model, cfg.Gemini.Temperature)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			generators = append(generators, provider)
		default:
			errs = append(errs, fmt.Errorf("%w: %q", config.ErrUnknownProvider, p.Kind))
		}
	}
	if len(generators) == 0 {
		return nil, errors.Join(append(errs, config.ErrNoProviders)...)
	}
	return generators, nil
}

func buildImageProviders(cfg config.Config, logger *slog.Logger) []ports.ImageProvider {
	providers := make([]ports.ImageProvider, 0, len(cfg.Images.Order))
	for _, name := range cfg.Images.Order {
		switch name {
		case imagery.SourceTagEmbedded:
			providers = append(providers, imagery.SourceProvider{})
		case images.SourceTagGenerated:
			providers = append(providers, images.NewGeminiGenerator(cfg.Gemini, cfg.Images))
		case images.SourceTagUnsplash:
			providers = append(providers, images.NewUnsplashSearch(cfg.Images.Unsplash, logger))
		default:
			logger.Warn("unknown image provider ignored", "provider", name)
		}
	}
	return providers
}

func sourceRefs(sources []config.SourceConfig) []domain.SourceRef {
	refs := make([]domain.SourceRef, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, domain.SourceRef{Name: s.Name, URL: s.URL, Scanner: s.Scanner})
	}
	return refs
}

package app

import (
	"errors"
	"testing"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/imagery"
	"HempNewsPipeline/internal/infrastructure/images"
	"HempNewsPipeline/internal/logging"
)

func TestBuildGeneratorsKeepsOrder(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Rewrite: config.RewriteConfig{Providers: []config.ProviderConfig{
		{Kind: config.ProviderGemini, Model: "gemini-2.0-flash"},
		{Kind: config.ProviderChatGPT, Model: "gpt-4o-mini"},
		{Kind: config.ProviderOllama, Model: "llama3"},
	}}}
	cfg.Ollama.Host = "http://127.0.0.1:11434"

	generators, err := buildGenerators(cfg)
	if err != nil {
		t.Fatalf("buildGenerators: %v", err)
	}
	want := []string{"gemini/gemini-2.0-flash", "chatgpt/gpt-4o-mini", "ollama/llama3"}
	if len(generators) != len(want) {
		t.Fatalf("expected %d generators, got %d", len(want), len(generators))
	}
	for i, g := range generators {
		if g.Name() != want[i] {
			t.Fatalf("generator %d is %q, want %q", i, g.Name(), want[i])
		}
	}
}

func TestBuildGeneratorsRejectsEmptyChain(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Rewrite: config.RewriteConfig{Providers: []config.ProviderConfig{{Kind: "bard"}}}}
	_, err := buildGenerators(cfg)
	if !errors.Is(err, config.ErrNoProviders) || !errors.Is(err, config.ErrUnknownProvider) {
		t.Fatalf("expected both sentinels, got %v", err)
	}
}

func TestBuildImageProvidersFollowsOrder(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Images: config.ImagesConfig{
		Order: []string{images.SourceTagUnsplash, "flickr", imagery.SourceTagEmbedded, images.SourceTagGenerated},
	}}
	providers := buildImageProviders(cfg, logging.Discard())
	want := []string{images.SourceTagUnsplash, imagery.SourceTagEmbedded, images.SourceTagGenerated}
	if len(providers) != len(want) {
		t.Fatalf("expected %d providers, got %d", len(want), len(providers))
	}
	for i, p := range providers {
		if p.Name() != want[i] {
			t.Fatalf("provider %d is %q, want %q", i, p.Name(), want[i])
		}
	}
}

func TestSourceRefs(t *testing.T) {
	t.Parallel()

	refs := sourceRefs([]config.SourceConfig{{Name: "Hemp Today", URL: "https://hemptoday.net/feed/", Scanner: "rss"}})
	if len(refs) != 1 || refs[0].Name != "Hemp Today" || refs[0].Scanner != "rss" {
		t.Fatalf("unexpected refs: %+v", refs)
	}
}

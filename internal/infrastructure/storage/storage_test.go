package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

func openStores(t *testing.T) map[string]ports.StateStore {
	t.Helper()

	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "state.db"), 3, 2)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]ports.StateStore{
		"json":   NewJSONStore(t.TempDir(), 3, 2),
		"sqlite": sqlite,
	}
}

func TestStoresStartEmpty(t *testing.T) {
	t.Parallel()

	for name, store := range openStores(t) {
		history, err := store.LoadHistory(context.Background())
		if err != nil {
			t.Fatalf("%s: LoadHistory: %v", name, err)
		}
		if len(history.Fingerprints) != 0 || len(history.RecentTitles) != 0 {
			t.Fatalf("%s: expected empty history, got %+v", name, history)
		}
		index, err := store.LoadDrafts(context.Background())
		if err != nil {
			t.Fatalf("%s: LoadDrafts: %v", name, err)
		}
		if len(index.Drafts) != 0 || index.UpdateOffset != 0 {
			t.Fatalf("%s: expected empty index, got %+v", name, index)
		}
	}
}

func TestStoresRoundTripHistoryWithCaps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, store := range openStores(t) {
		history, _ := store.LoadHistory(ctx)
		for _, fp := range []string{"a", "b", "c", "d"} {
			history.Record(fp, "title "+fp)
		}
		if err := store.SaveHistory(ctx, history); err != nil {
			t.Fatalf("%s: SaveHistory: %v", name, err)
		}

		loaded, err := store.LoadHistory(ctx)
		if err != nil {
			t.Fatalf("%s: LoadHistory: %v", name, err)
		}
		if strings.Join(loaded.Fingerprints, ",") != "b,c,d" {
			t.Fatalf("%s: unexpected fingerprints %v", name, loaded.Fingerprints)
		}
		if strings.Join(loaded.RecentTitles, ",") != "title c,title d" {
			t.Fatalf("%s: unexpected titles %v", name, loaded.RecentTitles)
		}
		if loaded.Contains("a") || !loaded.Contains("d") {
			t.Fatalf("%s: eviction order broken", name)
		}
	}
}

func TestStoresRoundTripDrafts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	for name, store := range openStores(t) {
		index := &domain.DraftIndex{UpdateOffset: 42}
		index.Add(domain.DraftArticle{
			ID:          "ab12cd34",
			Article:     domain.RewrittenArticle{Title: "Текстиль", Summary: "S", Body: "B", Category: domain.CategoryTextile, Tags: []string{"коноплі"}},
			SourceURL:   "https://x/1",
			SourceName:  "Hemp Today",
			Fingerprint: "fp1",
			Image:       &domain.ImageAsset{URL: "https://img/1.jpg", SourceTag: "unsplash"},
			CreatedAt:   created,
			Status:      domain.StatusPending,
			MessageID:   77,
		})
		index.Add(domain.DraftArticle{ID: "ef56ab78", CreatedAt: created.Add(time.Hour), Status: domain.StatusRejected})

		if err := store.SaveDrafts(ctx, index); err != nil {
			t.Fatalf("%s: SaveDrafts: %v", name, err)
		}
		// saving twice must replace, not append
		if err := store.SaveDrafts(ctx, index); err != nil {
			t.Fatalf("%s: SaveDrafts again: %v", name, err)
		}

		loaded, err := store.LoadDrafts(ctx)
		if err != nil {
			t.Fatalf("%s: LoadDrafts: %v", name, err)
		}
		if len(loaded.Drafts) != 2 || loaded.UpdateOffset != 42 {
			t.Fatalf("%s: unexpected index %+v", name, loaded)
		}
		first := loaded.Drafts[0]
		if first.ID != "ab12cd34" || first.Status != domain.StatusPending || first.MessageID != 77 {
			t.Fatalf("%s: unexpected first draft %+v", name, first)
		}
		if !first.CreatedAt.Equal(created) || first.Image == nil || first.Article.Category != domain.CategoryTextile {
			t.Fatalf("%s: draft fields lost %+v", name, first)
		}
		if loaded.Drafts[1].Status != domain.StatusRejected {
			t.Fatalf("%s: status lost", name)
		}
	}
}

func TestJSONStoreLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewJSONStore(dir, 0, 0)
	history := domain.NewHistory(0, 0)
	history.Record("fp", "title")
	if err := store.SaveHistory(context.Background(), history); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	if err := store.SaveDrafts(context.Background(), &domain.DraftIndex{}); err != nil {
		t.Fatalf("SaveDrafts: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "pending.json,processed.json" {
		t.Fatalf("unexpected files %v", names)
	}

	raw, _ := os.ReadFile(filepath.Join(dir, "processed.json"))
	if !strings.Contains(string(raw), `"articles"`) || !strings.Contains(string(raw), `"recent_titles"`) {
		t.Fatalf("unexpected document %s", raw)
	}
}

func TestJSONStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pending.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := NewJSONStore(dir, 0, 0).LoadDrafts(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Parallel()

	store, err := Open(context.Background(), config.StorageConfig{Driver: config.StorageDriverJSON, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open json: %v", err)
	}
	if _, ok := store.(*JSONStore); !ok {
		t.Fatalf("expected JSONStore, got %T", store)
	}

	_, err = Open(context.Background(), config.StorageConfig{Driver: "redis"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

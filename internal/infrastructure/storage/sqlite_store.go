package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history_fingerprints (
	position    INTEGER PRIMARY KEY,
	fingerprint TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS history_titles (
	position INTEGER PRIMARY KEY,
	title    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS drafts (
	position   INTEGER NOT NULL,
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status);
CREATE TABLE IF NOT EXISTS moderation_state (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);`

const updateOffsetKey = "update_offset"

// SQLiteStore keeps history and drafts in a single SQLite file. Each save
// replaces the stored record inside one transaction.
type SQLiteStore struct {
	db             *sql.DB
	fingerprintCap int
	titleCap       int
}

var _ ports.StateStore = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, fingerprintCap, titleCap int) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, fingerprintCap: fingerprintCap, titleCap: titleCap}, nil
}

// LoadHistory reads both lists in insertion order.
func (s *SQLiteStore) LoadHistory(ctx context.Context) (*domain.History, error) {
	history := domain.NewHistory(s.fingerprintCap, s.titleCap)

	fps, err := s.selectStrings(ctx, sq.Select("fingerprint").From("history_fingerprints").OrderBy("position"))
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}
	titles, err := s.selectStrings(ctx, sq.Select("title").From("history_titles").OrderBy("position"))
	if err != nil {
		return nil, fmt.Errorf("load titles: %w", err)
	}

	history.Fingerprints = fps
	history.RecentTitles = titles
	history.SetCaps(s.fingerprintCap, s.titleCap)
	return history, nil
}

// SaveHistory replaces both lists.
func (s *SQLiteStore) SaveHistory(ctx context.Context, history *domain.History) error {
	if history == nil {
		return fmt.Errorf("save history: nil history")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := replaceList(ctx, tx, "history_fingerprints", "fingerprint", history.Fingerprints); err != nil {
			return err
		}
		return replaceList(ctx, tx, "history_titles", "title", history.RecentTitles)
	})
}

// LoadDrafts returns drafts in the order they were added.
func (s *SQLiteStore) LoadDrafts(ctx context.Context) (*domain.DraftIndex, error) {
	query, args, err := sq.Select("payload").From("drafts").OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build drafts query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}

	index := &domain.DraftIndex{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		var draft domain.DraftArticle
		if err := json.Unmarshal([]byte(payload), &draft); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode draft: %w", err)
		}
		index.Drafts = append(index.Drafts, draft)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	query, args, err = sq.Select("value").From("moderation_state").Where(sq.Eq{"key": updateOffsetKey}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build state query: %w", err)
	}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&index.UpdateOffset)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load update offset: %w", err)
	}
	return index, nil
}

// SaveDrafts replaces the stored index.
func (s *SQLiteStore) SaveDrafts(ctx context.Context, index *domain.DraftIndex) error {
	if index == nil {
		return fmt.Errorf("save drafts: nil index")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := execBuilder(ctx, tx, sq.Delete("drafts")); err != nil {
			return fmt.Errorf("clear drafts: %w", err)
		}
		if len(index.Drafts) > 0 {
			insert := sq.Insert("drafts").Columns("position", "id", "status", "created_at", "payload")
			for i, draft := range index.Drafts {
				payload, err := json.Marshal(draft)
				if err != nil {
					return fmt.Errorf("encode draft %s: %w", draft.ID, err)
				}
				insert = insert.Values(i, draft.ID, draft.Status.String(), draft.CreatedAt.Unix(), string(payload))
			}
			if err := execBuilder(ctx, tx, insert); err != nil {
				return fmt.Errorf("insert drafts: %w", err)
			}
		}

		upsert := sq.Insert("moderation_state").Columns("key", "value").
			Values(updateOffsetKey, index.UpdateOffset).
			Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value")
		if err := execBuilder(ctx, tx, upsert); err != nil {
			return fmt.Errorf("save update offset: %w", err)
		}
		return nil
	})
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) selectStrings(ctx context.Context, builder sq.SelectBuilder) ([]string, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return out, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func replaceList(ctx context.Context, tx *sql.Tx, table, column string, values []string) error {
	if err := execBuilder(ctx, tx, sq.Delete(table)); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if len(values) == 0 {
		return nil
	}
	insert := sq.Insert(table).Columns("position", column)
	for i, v := range values {
		insert = insert.Values(i, v)
	}
	if err := execBuilder(ctx, tx, insert); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func execBuilder(ctx context.Context, tx *sql.Tx, builder sq.Sqlizer) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

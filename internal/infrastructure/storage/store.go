package storage

import (
	"context"
	"errors"
	"fmt"

	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/ports"
)

// ErrUnknownDriver is returned for storage drivers other than json and sqlite.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (ports.StateStore, error) {
	switch cfg.Driver {
	case "", config.StorageDriverJSON:
		return NewJSONStore(cfg.Dir, cfg.HistoryCap, cfg.TitleCap), nil
	case config.StorageDriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, cfg.HistoryCap, cfg.TitleCap)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

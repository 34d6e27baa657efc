package db

import (
	"context"
	"fmt"

	"github.com/jane4246/coffee-advisory/config"
)

// Open builds the storage driver named in the config and seeds defaults.
func Open(ctx context.Context, cfg config.AppConfig) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch cfg.StorageDriver {
	case "", "memory":
		s = NewMemStorage()
	case "mongo", "mongodb":
		s, err = OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "sqlite":
		s, err = OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := Seed(ctx, s); err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	return s, nil
}

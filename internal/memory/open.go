package memory

import (
	"context"
	"database/sql"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/config"
)

// Open returns the store selected by the memory configuration. The sqlite
// backend shares db with the conversation log.
func Open(ctx context.Context, cfg config.Memory, db *sql.DB) (Store, error) {
	switch cfg.Backend {
	case "redis":
		internal.LogDebug("Using redis memory at %s (prefix %s)", cfg.RedisAddr, cfg.RedisPrefix)
		store, err := NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "sqlite":
		store, err := NewSQLiteStore(db)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, &internal.ConfigError{Field: "memory.backend", Err: errUnknownBackend(cfg.Backend)}
	}
}

type errUnknownBackend string

func (e errUnknownBackend) Error() string {
	return "unknown memory backend " + string(e)
}

package kvstore

import (
	"context"
	"fmt"

	"github.com/shipshape/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Open creates the slot store selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("kvstore")
	sc := cfg.Storage

	switch sc.Driver {
	case "memory":
		return NewMemoryBackend().NewContext(sc.ContextID), nil

	case "file":
		return NewFileStore(sc.Dir,
			WithFileLogger(logger),
			WithFileContextID(sc.ContextID))

	case "sqlite", "postgres":
		db, err := NewDatabase(cfg, logger)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLStore(ctx, db.DB,
			WithSQLLogger(logger),
			WithSQLContextID(sc.ContextID),
			WithPollInterval(sc.PollInterval),
			withOwnedDatabase(db))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil

	case "redis":
		return NewRedisStore(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB,
			WithRedisChannel(cfg.Redis.Channel),
			WithRedisLogger(logger),
			WithRedisContextID(sc.ContextID))

	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
}

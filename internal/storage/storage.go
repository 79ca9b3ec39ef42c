// Package storage picks the session store backend named by configuration.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-task-server/internal/config"
	"github.com/jrsteele09/go-task-server/sessions"
	"github.com/jrsteele09/go-task-server/sessions/postgres"
	fakesessionrepo "github.com/jrsteele09/go-task-server/sessions/repofakes"
	"github.com/jrsteele09/go-task-server/sessions/sqlite"
	"github.com/rs/zerolog/log"
)

// OpenSessions returns the configured session repo and a func releasing its
// resources. The memory store loses every session on restart.
func OpenSessions(ctx context.Context, cfg config.StoreConfig) (sessions.Repo, func(), error) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverMemory:
		log.Warn().Msg("using in-memory session store; sessions are lost on restart")
		return fakesessionrepo.NewFakeSessionRepo(), func() {}, nil

	case config.StoreDriverPostgres:
		pool, err := postgres.Open(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("using postgres session store")
		return postgres.New(pool), pool.Close, nil

	case config.StoreDriverSQLite:
		path := cfg.GetSQLitePath()
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, fmt.Errorf("sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", path).Msg("using sqlite session store")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Err(err).Msg("closing sqlite session store")
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.GetStoreDriver())
	}
}

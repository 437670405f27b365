package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/civicline/incident-admin/internal/resilience"
	"github.com/civicline/incident-admin/internal/store"
)

// initStore opens the configured store backend. Postgres connections retry
// through the resilience layer so a briefly unavailable database does not
// fail the command outright.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "trust.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		poolCfg := &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		}
		var st *store.PostgresStore
		err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			var connErr error
			st, connErr = store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
			return connErr
		})
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

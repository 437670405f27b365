// Package store provides the persistence backends for reporter trust
// records: SQLite for single-node deployments and Postgres for shared ones.
// Both implement trust.Store and share one behavioral contract.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/civicline/incident-admin/internal/model"
	"github.com/civicline/incident-admin/internal/trust"
)

// Store is the full persistence interface: the trust engine's surface plus
// record creation (driven by the upstream registration flow and tests) and
// lifecycle management.
type Store interface {
	trust.Store

	// CreateReporter inserts a new record. Zero timestamps default to now.
	CreateReporter(ctx context.Context, r model.Reporter) error

	// Migrate creates or updates the schema. Safe to run repeatedly.
	Migrate(ctx context.Context) error

	Close() error
}

// checkRowsAffected converts a zero-row UPDATE into a not-found error so
// callers can distinguish a missing reporter from a store failure.
func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(trust.ErrNotFound, "store: reporter %s", id)
	}
	return nil
}

// normalizeTimes fills zero timestamps on a new record.
func normalizeTimes(r *model.Reporter, now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
}

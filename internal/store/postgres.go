package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/civicline/incident-admin/internal/db"
	"github.com/civicline/incident-admin/internal/model"
	"github.com/civicline/incident-admin/internal/trust"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for the
// hot paths: single-record reads and the trust/flag updates.
var preparedStatements = map[string]string{
	"get_reporter": `SELECT id, name, email, phone, report_count, verified_reports, false_reports,
		trust_score, trust_reason, flagged, flag_reason, created_at, updated_at
		FROM reporters WHERE id = $1`,
	"update_trust": `UPDATE reporters SET trust_score = $1, trust_reason = $2, updated_at = $3 WHERE id = $4`,
	"update_flag":  `UPDATE reporters SET flagged = $1, flag_reason = $2, updated_at = $3 WHERE id = $4`,
	"insert_audit": `INSERT INTO trust_audit (id, reporter_id, action, actor, old_score, new_score, flagged, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reporters (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	email            TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	report_count     INTEGER NOT NULL DEFAULT 0,
	verified_reports INTEGER NOT NULL DEFAULT 0,
	false_reports    INTEGER NOT NULL DEFAULT 0,
	trust_score      INTEGER NOT NULL DEFAULT 0,
	trust_reason     TEXT NOT NULL DEFAULT '',
	flagged          BOOLEAN NOT NULL DEFAULT false,
	flag_reason      TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS trust_audit (
	id          TEXT PRIMARY KEY,
	reporter_id TEXT NOT NULL,
	action      TEXT NOT NULL,
	actor       TEXT NOT NULL DEFAULT '',
	old_score   INTEGER NOT NULL DEFAULT 0,
	new_score   INTEGER NOT NULL DEFAULT 0,
	flagged     BOOLEAN NOT NULL DEFAULT false,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reporters_trust_score ON reporters(trust_score);
CREATE INDEX IF NOT EXISTS idx_reporters_flagged ON reporters(flagged);
CREATE INDEX IF NOT EXISTS idx_trust_audit_reporter_id ON trust_audit(reporter_id, created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateReporter(ctx context.Context, r model.Reporter) error {
	normalizeTimes(&r, time.Now().UTC())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reporters (id, name, email, phone, report_count, verified_reports, false_reports,
			trust_score, trust_reason, flagged, flag_reason, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.Name, r.Email, r.Phone, r.ReportCount, r.VerifiedReports, r.FalseReports,
		r.TrustScore, r.TrustReason, r.Flagged, r.FlagReason, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert reporter %s", r.ID)
}

func (s *PostgresStore) GetReporter(ctx context.Context, id string) (*model.Reporter, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, report_count, verified_reports, false_reports,
			trust_score, trust_reason, flagged, flag_reason, created_at, updated_at
		 FROM reporters WHERE id = $1`, id)

	var r model.Reporter
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.ReportCount, &r.VerifiedReports,
		&r.FalseReports, &r.TrustScore, &r.TrustReason, &r.Flagged, &r.FlagReason,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(trust.ErrNotFound, "postgres: reporter %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get reporter %s", id)
	}
	r.Normalize()
	return &r, nil
}

func (s *PostgresStore) ListReporters(ctx context.Context) ([]model.Reporter, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, phone, report_count, verified_reports, false_reports,
			trust_score, trust_reason, flagged, flag_reason, created_at, updated_at
		 FROM reporters`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reporters")
	}
	defer rows.Close()

	var out []model.Reporter
	for rows.Next() {
		var r model.Reporter
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.ReportCount, &r.VerifiedReports,
			&r.FalseReports, &r.TrustScore, &r.TrustReason, &r.Flagged, &r.FlagReason,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reporter")
		}
		r.Normalize()
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list reporters")
}

func (s *PostgresStore) UpdateTrust(ctx context.Context, id string, score int, reason string, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reporters SET trust_score = $1, trust_reason = $2, updated_at = $3 WHERE id = $4`,
		score, reason, now.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update trust %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(trust.ErrNotFound, "postgres: reporter %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateFlag(ctx context.Context, id string, flagged bool, reason string, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reporters SET flagged = $1, flag_reason = $2, updated_at = $3 WHERE id = $4`,
		flagged, reason, now.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update flag %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(trust.ErrNotFound, "postgres: reporter %s", id)
	}
	return nil
}

func (s *PostgresStore) AppendAudit(ctx context.Context, e trust.AuditEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trust_audit (id, reporter_id, action, actor, old_score, new_score, flagged, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ReporterID, e.Action, e.Actor, e.OldScore, e.NewScore, e.Flagged, e.Reason, e.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert audit %s", e.ReporterID)
}

func (s *PostgresStore) ListAudit(ctx context.Context, reporterID string, limit int) ([]trust.AuditEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, reporter_id, action, actor, old_score, new_score, flagged, reason, created_at
		 FROM trust_audit WHERE reporter_id = $1 ORDER BY created_at DESC LIMIT $2`,
		reporterID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list audit %s", reporterID)
	}
	defer rows.Close()

	var out []trust.AuditEntry
	for rows.Next() {
		var e trust.AuditEntry
		if err := rows.Scan(&e.ID, &e.ReporterID, &e.Action, &e.Actor, &e.OldScore, &e.NewScore,
			&e.Flagged, &e.Reason, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list audit")
}

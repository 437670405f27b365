package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civicline/incident-admin/internal/model"
	"github.com/civicline/incident-admin/internal/trust"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	flagged          INTEGER NOT NULL DEFAULT 0,
	flag_reason      TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS trust_audit (
	id          TEXT PRIMARY KEY,
	reporter_id TEXT NOT NULL,
	action      TEXT NOT NULL,
	actor       TEXT NOT NULL DEFAULT '',
	old_score   INTEGER NOT NULL DEFAULT 0,
	new_score   INTEGER NOT NULL DEFAULT 0,
	flagged     INTEGER NOT NULL DEFAULT 0,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reporters_trust_score ON reporters(trust_score);
CREATE INDEX IF NOT EXISTS idx_reporters_flagged ON reporters(flagged);
CREATE INDEX IF NOT EXISTS idx_trust_audit_reporter_id ON trust_audit(reporter_id, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateReporter(ctx context.Context, r model.Reporter) error {
	normalizeTimes(&r, time.Now().UTC())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reporters (id, name, email, phone, report_count, verified_reports, false_reports,
			trust_score, trust_reason, flagged, flag_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Email, r.Phone, r.ReportCount, r.VerifiedReports, r.FalseReports,
		r.TrustScore, r.TrustReason, r.Flagged, r.FlagReason, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert reporter %s", r.ID)
}

const sqliteReporterCols = `id, name, email, phone, report_count, verified_reports, false_reports,
	trust_score, trust_reason, flagged, flag_reason, created_at, updated_at`

func (s *SQLiteStore) GetReporter(ctx context.Context, id string) (*model.Reporter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteReporterCols+` FROM reporters WHERE id = ?`, id)

	var r model.Reporter
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.ReportCount, &r.VerifiedReports,
		&r.FalseReports, &r.TrustScore, &r.TrustReason, &r.Flagged, &r.FlagReason,
		&r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(trust.ErrNotFound, "sqlite: reporter %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get reporter %s", id)
	}
	r.Normalize()
	return &r, nil
}

func (s *SQLiteStore) ListReporters(ctx context.Context) ([]model.Reporter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteReporterCols+` FROM reporters`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reporters")
	}
	defer rows.Close()

	var out []model.Reporter
	for rows.Next() {
		var r model.Reporter
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.ReportCount, &r.VerifiedReports,
			&r.FalseReports, &r.TrustScore, &r.TrustReason, &r.Flagged, &r.FlagReason,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reporter")
		}
		r.Normalize()
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list reporters")
}

func (s *SQLiteStore) UpdateTrust(ctx context.Context, id string, score int, reason string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reporters SET trust_score = ?, trust_reason = ?, updated_at = ? WHERE id = ?`,
		score, reason, now.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update trust %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) UpdateFlag(ctx context.Context, id string, flagged bool, reason string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reporters SET flagged = ?, flag_reason = ?, updated_at = ? WHERE id = ?`,
		flagged, reason, now.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update flag %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) AppendAudit(ctx context.Context, e trust.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trust_audit (id, reporter_id, action, actor, old_score, new_score, flagged, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ReporterID, e.Action, e.Actor, e.OldScore, e.NewScore, e.Flagged, e.Reason, e.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert audit %s", e.ReporterID)
}

func (s *SQLiteStore) ListAudit(ctx context.Context, reporterID string, limit int) ([]trust.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reporter_id, action, actor, old_score, new_score, flagged, reason, created_at
		 FROM trust_audit WHERE reporter_id = ? ORDER BY created_at DESC LIMIT ?`,
		reporterID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list audit %s", reporterID)
	}
	defer rows.Close()

	var out []trust.AuditEntry
	for rows.Next() {
		var e trust.AuditEntry
		if err := rows.Scan(&e.ID, &e.ReporterID, &e.Action, &e.Actor, &e.OldScore, &e.NewScore,
			&e.Flagged, &e.Reason, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list audit")
}

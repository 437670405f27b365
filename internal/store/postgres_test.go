package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicline/incident-admin/internal/trust"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func TestPostgresGetReporter(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "name", "email", "phone", "report_count", "verified_reports", "false_reports",
		"trust_score", "trust_reason", "flagged", "flag_reason", "created_at", "updated_at",
	}).AddRow("r1", "Alice", "alice@example.com", "", 10, 6, 1, 62, "seed", false, "", now, now)

	mock.ExpectQuery("FROM reporters WHERE id =").
		WithArgs("r1").
		WillReturnRows(rows)

	got, err := s.GetReporter(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, 62, got.TrustScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetReporterNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery("FROM reporters WHERE id =").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := s.GetReporter(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, trust.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateTrust(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE reporters SET trust_score =").
		WithArgs(77, "Automatic recalculation", now, "r1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateTrust(context.Background(), "r1", 77, "Automatic recalculation", now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateTrustNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE reporters SET trust_score =").
		WithArgs(50, "x", now, "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateTrust(context.Background(), "ghost", 50, "x", now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, trust.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateFlag(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE reporters SET flagged =").
		WithArgs(true, "suspicious burst", now, "r1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateFlag(context.Background(), "r1", true, "suspicious burst", now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendAudit(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO trust_audit").
		WithArgs("a1", "r1", trust.ActionFlag, "admin", 40, 40, true, "spam", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AppendAudit(context.Background(), trust.AuditEntry{
		ID: "a1", ReporterID: "r1", Action: trust.ActionFlag, Actor: "admin",
		OldScore: 40, NewScore: 40, Flagged: true, Reason: "spam", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListAudit(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "reporter_id", "action", "actor", "old_score", "new_score", "flagged", "reason", "created_at",
	}).
		AddRow("a2", "r1", trust.ActionRecalculate, "system", 40, 55, false, "Automatic recalculation", now).
		AddRow("a1", "r1", trust.ActionManualOverride, "admin", 10, 40, false, "verified", now.Add(-time.Minute))

	mock.ExpectQuery("FROM trust_audit WHERE reporter_id =").
		WithArgs("r1", 10).
		WillReturnRows(rows)

	entries, err := s.ListAudit(context.Background(), "r1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, trust.ActionRecalculate, entries[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reporters").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

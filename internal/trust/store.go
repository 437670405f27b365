package trust

import (
	"context"
	"time"

	"github.com/civicline/incident-admin/internal/model"
)

// Audit actions recorded for trust mutations.
const (
	ActionManualOverride = "manual_override"
	ActionRecalculate    = "recalculate"
	ActionFlag           = "flag"
	ActionUnflag         = "unflag"
)

// AuditEntry records one administrative state transition on a reporter.
type AuditEntry struct {
	ID         string    `json:"id"`
	ReporterID string    `json:"reporter_id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	OldScore   int       `json:"old_score"`
	NewScore   int       `json:"new_score"`
	Flagged    bool      `json:"flagged"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the persistence surface the trust engine consumes. Implementations
// return ErrNotFound (wrapped is fine) when the target reporter is absent;
// any other failure is treated as an opaque store error.
type Store interface {
	// GetReporter fetches a single record by id.
	GetReporter(ctx context.Context, id string) (*model.Reporter, error)

	// ListReporters returns all records in unspecified order.
	ListReporters(ctx context.Context) ([]model.Reporter, error)

	// UpdateTrust writes trust_score, trust_reason, and updated_at.
	UpdateTrust(ctx context.Context, id string, score int, reason string, now time.Time) error

	// UpdateFlag writes flagged, flag_reason, and updated_at.
	UpdateFlag(ctx context.Context, id string, flagged bool, reason string, now time.Time) error

	// AppendAudit persists an audit entry.
	AppendAudit(ctx context.Context, entry AuditEntry) error

	// ListAudit returns up to limit entries for a reporter, newest first.
	ListAudit(ctx context.Context, reporterID string, limit int) ([]AuditEntry, error)
}

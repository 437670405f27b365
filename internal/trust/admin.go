package trust

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/civicline/incident-admin/internal/model"
)

// reasonRecalculated is the system-generated trust reason written by the
// automatic recalculation path.
const reasonRecalculated = "Automatic recalculation"

// Admin orchestrates administrative trust mutations. Every operation is a
// single-record read-modify-write through the injected Store, followed by an
// audit entry. Concurrent administrators racing on the same record resolve at
// last-writer-wins granularity; Admin imposes no optimistic concurrency.
type Admin struct {
	store Store
	actor string
	now   func() time.Time
}

// NewAdmin creates an Admin writing through store. actor labels audit entries
// (typically the signed-in administrator's identifier).
func NewAdmin(store Store, actor string) *Admin {
	if actor == "" {
		actor = "system"
	}
	return &Admin{
		store: store,
		actor: actor,
		now:   time.Now,
	}
}

// ManualOverride sets a reporter's trust score directly. The reason is
// required and newScore must already be in [0,100]; out-of-range scores are
// rejected with ErrInvalidArgument rather than clamped. The flag state is
// left untouched.
func (a *Admin) ManualOverride(ctx context.Context, id string, newScore int, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return eris.Wrap(ErrInvalidArgument, "trust: override requires a reason")
	}
	if newScore < MinScore || newScore > MaxScore {
		return eris.Wrapf(ErrInvalidArgument, "trust: override score %d outside [%d,%d]", newScore, MinScore, MaxScore)
	}

	rec, err := a.store.GetReporter(ctx, id)
	if err != nil {
		return err
	}

	now := a.now().UTC()
	if err := a.store.UpdateTrust(ctx, id, newScore, reason, now); err != nil {
		return err
	}

	a.audit(ctx, AuditEntry{
		ReporterID: id,
		Action:     ActionManualOverride,
		OldScore:   rec.TrustScore,
		NewScore:   newScore,
		Flagged:    rec.Flagged,
		Reason:     reason,
		CreatedAt:  now,
	})

	zap.L().Info("trust score overridden",
		zap.String("reporter_id", id),
		zap.Int("old_score", rec.TrustScore),
		zap.Int("new_score", newScore),
		zap.String("actor", a.actor),
	)
	return nil
}

// Recalculate recomputes a reporter's score from its current counters and
// tenure, and persists the result with a system-generated reason. Idempotent
// for an unchanged counter/tenure-day snapshot. Returns the new score.
func (a *Admin) Recalculate(ctx context.Context, id string) (int, error) {
	rec, err := a.store.GetReporter(ctx, id)
	if err != nil {
		return 0, err
	}
	rec.Normalize()

	now := a.now().UTC()
	score := Compute(rec.ReportCount, rec.VerifiedReports, rec.FalseReports, rec.CreatedAt, now)

	if err := a.store.UpdateTrust(ctx, id, score, reasonRecalculated, now); err != nil {
		return 0, err
	}

	a.audit(ctx, AuditEntry{
		ReporterID: id,
		Action:     ActionRecalculate,
		OldScore:   rec.TrustScore,
		NewScore:   score,
		Flagged:    rec.Flagged,
		Reason:     reasonRecalculated,
		CreatedAt:  now,
	})
	return score, nil
}

// SweepOptions tunes a bulk recalculation.
type SweepOptions struct {
	// Concurrency bounds parallel per-record recalculations. Values below 2
	// run the sweep sequentially.
	Concurrency int

	// RatePerSec throttles record processing when positive.
	RatePerSec float64
}

// SweepFailure records one reporter the sweep could not update.
type SweepFailure struct {
	ReporterID string `json:"reporter_id"`
	Reason     string `json:"reason"`
}

// SweepResult summarizes a bulk recalculation.
type SweepResult struct {
	Updated int            `json:"updated"`
	Failed  []SweepFailure `json:"failed,omitempty"`
}

// RecalculateAll recalculates every known reporter. Individual failures
// (a record deleted mid-sweep, a transient store error) are logged, recorded
// in the result, and skipped; they never abort the remaining sweep. There is
// no atomicity across records: cancelling the context stops the sweep but
// already-applied updates remain committed. Re-running is safe because
// Recalculate is idempotent per snapshot.
func (a *Admin) RecalculateAll(ctx context.Context, opts SweepOptions) (*SweepResult, error) {
	log := zap.L().With(zap.String("op", "recalculate_all"))

	reporters, err := a.store.ListReporters(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "trust: list reporters")
	}
	log.Info("starting trust sweep", zap.Int("reporters", len(reporters)))

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}

	var (
		mu     sync.Mutex
		result SweepResult
	)
	record := func(id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			result.Updated++
			return
		}
		result.Failed = append(result.Failed, SweepFailure{ReporterID: id, Reason: err.Error()})
	}

	sweepOne := func(ctx context.Context, id string) error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if _, err := a.Recalculate(ctx, id); err != nil {
			log.Warn("recalculation skipped",
				zap.String("reporter_id", id),
				zap.Error(err),
			)
			record(id, err)
			return nil
		}
		record(id, nil)
		return nil
	}

	if opts.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for _, rec := range reporters {
			id := rec.ID
			g.Go(func() error { return sweepOne(gctx, id) })
		}
		if err := g.Wait(); err != nil {
			return &result, err
		}
	} else {
		for _, rec := range reporters {
			if ctx.Err() != nil {
				return &result, ctx.Err()
			}
			if err := sweepOne(ctx, rec.ID); err != nil {
				return &result, err
			}
		}
	}

	log.Info("trust sweep complete",
		zap.Int("updated", result.Updated),
		zap.Int("failed", len(result.Failed)),
	)
	return &result, nil
}

// SetFlag marks or clears a reporter's suspicious-activity flag. Flagging
// requires a non-empty reason; unflagging forces the stored reason to empty
// regardless of caller input. The trust score is untouched; flag state is
// orthogonal to scoring.
func (a *Admin) SetFlag(ctx context.Context, id string, flagged bool, reason string) error {
	reason = strings.TrimSpace(reason)
	if flagged && reason == "" {
		return eris.Wrap(ErrInvalidArgument, "trust: flagging requires a reason")
	}
	if !flagged {
		reason = ""
	}

	rec, err := a.store.GetReporter(ctx, id)
	if err != nil {
		return err
	}

	now := a.now().UTC()
	if err := a.store.UpdateFlag(ctx, id, flagged, reason, now); err != nil {
		return err
	}

	action := ActionFlag
	if !flagged {
		action = ActionUnflag
	}
	a.audit(ctx, AuditEntry{
		ReporterID: id,
		Action:     action,
		OldScore:   rec.TrustScore,
		NewScore:   rec.TrustScore,
		Flagged:    flagged,
		Reason:     reason,
		CreatedAt:  now,
	})

	zap.L().Info("reporter flag updated",
		zap.String("reporter_id", id),
		zap.Bool("flagged", flagged),
		zap.String("actor", a.actor),
	)
	return nil
}

// Get fetches a single normalized reporter record.
func (a *Admin) Get(ctx context.Context, id string) (*model.Reporter, error) {
	rec, err := a.store.GetReporter(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Normalize()
	return rec, nil
}

// Audit returns the newest audit entries for a reporter, up to limit.
func (a *Admin) Audit(ctx context.Context, reporterID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return a.store.ListAudit(ctx, reporterID, limit)
}

// audit appends an entry, filling in id and actor. A failed audit write is
// logged but does not undo or fail the already-applied mutation.
func (a *Admin) audit(ctx context.Context, e AuditEntry) {
	e.ID = uuid.New().String()
	e.Actor = a.actor
	if err := a.store.AppendAudit(ctx, e); err != nil {
		zap.L().Warn("audit write failed",
			zap.String("reporter_id", e.ReporterID),
			zap.String("action", e.Action),
			zap.Error(err),
		)
	}
}

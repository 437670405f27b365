package trust

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/civicline/incident-admin/internal/model"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu        sync.Mutex
	reporters map[string]model.Reporter
	audits    []AuditEntry

	// failTrustUpdates lists reporter ids whose UpdateTrust calls fail with
	// an opaque store error.
	failTrustUpdates map[string]bool

	// vanished lists reporter ids that disappear between ListReporters and
	// GetReporter, simulating a concurrent delete mid-sweep.
	vanished map[string]bool

	trustUpdates []string
	flagUpdates  []string
}

func newMockStore(reporters ...model.Reporter) *mockStore {
	m := &mockStore{
		reporters:        make(map[string]model.Reporter),
		failTrustUpdates: make(map[string]bool),
		vanished:         make(map[string]bool),
	}
	for _, r := range reporters {
		m.reporters[r.ID] = r
	}
	return m
}

func (m *mockStore) GetReporter(_ context.Context, id string) (*model.Reporter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reporters[id]
	if !ok || m.vanished[id] {
		return nil, eris.Wrapf(ErrNotFound, "mock: reporter %s", id)
	}
	cp := r
	return &cp, nil
}

func (m *mockStore) ListReporters(_ context.Context) ([]model.Reporter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Reporter, 0, len(m.reporters))
	for _, r := range m.reporters {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) UpdateTrust(_ context.Context, id string, score int, reason string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTrustUpdates[id] {
		return eris.New("mock: write failed")
	}
	r, ok := m.reporters[id]
	if !ok || m.vanished[id] {
		return eris.Wrapf(ErrNotFound, "mock: reporter %s", id)
	}
	r.TrustScore = score
	r.TrustReason = reason
	r.UpdatedAt = now
	m.reporters[id] = r
	m.trustUpdates = append(m.trustUpdates, id)
	return nil
}

func (m *mockStore) UpdateFlag(_ context.Context, id string, flagged bool, reason string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reporters[id]
	if !ok {
		return eris.Wrapf(ErrNotFound, "mock: reporter %s", id)
	}
	r.Flagged = flagged
	r.FlagReason = reason
	r.UpdatedAt = now
	m.reporters[id] = r
	m.flagUpdates = append(m.flagUpdates, id)
	return nil
}

func (m *mockStore) AppendAudit(_ context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, e)
	return nil
}

func (m *mockStore) ListAudit(_ context.Context, reporterID string, limit int) ([]AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AuditEntry
	for i := len(m.audits) - 1; i >= 0 && len(out) < limit; i-- {
		if m.audits[i].ReporterID == reporterID {
			out = append(out, m.audits[i])
		}
	}
	return out, nil
}

func (m *mockStore) get(id string) model.Reporter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reporters[id]
}

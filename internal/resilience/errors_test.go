package resilience

import (
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"sqlite busy", eris.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"postgres starting up", eris.New("FATAL: the database system is starting up"), true},
		{"postgres terminating", eris.New("FATAL: terminating connection due to administrator command"), true},
		{"io timeout", eris.New("read tcp 10.0.0.1:5432: i/o timeout"), true},
		{"wrapped transient", eris.Wrap(syscall.ECONNRESET, "postgres: ping"), true},
		{"constraint violation", eris.New("ERROR: duplicate key value violates unique constraint"), false},
		{"not found", eris.New("reporter not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

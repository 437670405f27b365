// Package resilience provides transient-error classification and retry with
// exponential backoff for the store boundary. Trust operations themselves
// never retry; retry policy belongs to the callers that open and ping the
// store.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// IsTransient returns true if the error looks like a temporary store or
// network condition that a retry could clear: timeouts, connection drops,
// DNS hiccups, a busy SQLite file, or a Postgres backend shutting down.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String heuristics for errors wrapped by database drivers.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"i/o timeout",
		"database is locked", // sqlite busy
		"sqlite_busy",
		"the database system is starting up", // postgres 57P03
		"terminating connection",             // postgres 57P01
		"server closed idle connection",
		"conn closed",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

package trust

import "github.com/rotisserie/eris"

// Sentinel errors returned by trust operations. Store failures that are
// neither of these are opaque and surfaced to the caller as-is; the trust
// layer does not interpret or retry them.
var (
	// ErrNotFound indicates the target reporter record does not exist.
	ErrNotFound = eris.New("reporter not found")

	// ErrInvalidArgument indicates a missing required reason or a score
	// outside the declared [0,100] domain. Out-of-range manual overrides are
	// rejected with this error, never silently clamped.
	ErrInvalidArgument = eris.New("invalid argument")
)

package trust

import "strings"

// Tier is a discrete trust level derived from a numeric score.
type Tier int

// Tiers, lowest to highest.
const (
	TierNew Tier = iota
	TierBasic
	TierReliable
	TierTrusted
	TierVerified
)

// Tier thresholds. A score belongs to the highest tier whose threshold it
// meets or exceeds. Downstream filtering depends on these exact boundaries.
const (
	ThresholdNew      = 0
	ThresholdBasic    = 20
	ThresholdReliable = 50
	ThresholdTrusted  = 80
	ThresholdVerified = 100
)

// Classify maps a score to its tier. Total over all integers: scores below
// the Basic threshold (including out-of-range negatives) are New, and
// anything at or above 100 is Verified.
func Classify(score int) Tier {
	switch {
	case score >= ThresholdVerified:
		return TierVerified
	case score >= ThresholdTrusted:
		return TierTrusted
	case score >= ThresholdReliable:
		return TierReliable
	case score >= ThresholdBasic:
		return TierBasic
	default:
		return TierNew
	}
}

// Label returns the human-readable tier name shown in the admin console.
func (t Tier) Label() string {
	switch t {
	case TierVerified:
		return "Verified"
	case TierTrusted:
		return "Trusted"
	case TierReliable:
		return "Reliable"
	case TierBasic:
		return "Basic"
	default:
		return "New"
	}
}

// Color returns the display color (hex) associated with the tier.
func (t Tier) Color() string {
	switch t {
	case TierVerified:
		return "#8e24aa" // purple
	case TierTrusted:
		return "#2e7d32" // green
	case TierReliable:
		return "#0288d1" // blue
	case TierBasic:
		return "#fb8c00" // orange
	default:
		return "#757575" // gray
	}
}

// Bounds returns the half-open score range [min, max) covered by the tier.
// The Verified tier is closed at the score ceiling.
func (t Tier) Bounds() (min, max int) {
	switch t {
	case TierVerified:
		return ThresholdVerified, MaxScore + 1
	case TierTrusted:
		return ThresholdTrusted, ThresholdVerified
	case TierReliable:
		return ThresholdReliable, ThresholdTrusted
	case TierBasic:
		return ThresholdBasic, ThresholdReliable
	default:
		return ThresholdNew, ThresholdBasic
	}
}

// ParseTier resolves a tier from its label, case-insensitively. The second
// return is false for unknown labels.
func ParseTier(label string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "new":
		return TierNew, true
	case "basic":
		return TierBasic, true
	case "reliable":
		return TierReliable, true
	case "trusted":
		return TierTrusted, true
	case "verified":
		return TierVerified, true
	default:
		return TierNew, false
	}
}

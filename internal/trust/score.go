// Package trust implements reporter trust scoring, tier classification, and
// the administrative operations (override, recalculation, flagging) that
// mutate a reporter's trust state.
package trust

import (
	"math"
	"time"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// baseScore is the starting score for any reporter with a record.
const baseScore = 10

// Compute derives a trust score in [0,100] from a reporter's activity
// counters and account tenure. It is deterministic and pure: negative inputs
// are treated as zero, and a zero or future createdAt counts as one day of
// tenure.
//
// The formula, in order: a base of 10, a verified-report bonus capped at 50,
// an accuracy-rate bonus up to 20, a tenure bonus of one point per 30 days
// capped at 10, and a penalty of 10 per false report. The penalty is capped
// at five below the accumulated score at the time it is applied, so the
// penalty alone never drops a reporter below 5.
func Compute(reportCount, verifiedReports, falseReports int, createdAt, now time.Time) int {
	if reportCount < 0 {
		reportCount = 0
	}
	if verifiedReports < 0 {
		verifiedReports = 0
	}
	if falseReports < 0 {
		falseReports = 0
	}

	tenureDays := 1
	if !createdAt.IsZero() {
		if d := int(now.Sub(createdAt).Hours() / 24); d > tenureDays {
			tenureDays = d
		}
	}

	score := baseScore

	verifiedBonus := verifiedReports * 5
	if verifiedBonus > 50 {
		verifiedBonus = 50
	}
	score += verifiedBonus

	if reportCount > 0 {
		accuracy := float64(verifiedReports) / float64(reportCount)
		score += int(math.Round(accuracy * 20))
	}

	tenureBonus := tenureDays / 30
	if tenureBonus > 10 {
		tenureBonus = 10
	}
	score += tenureBonus

	// The cap uses the score as accumulated so far, not a fixed constant.
	penalty := falseReports * 10
	if penalty > score-5 {
		penalty = score - 5
	}
	score -= penalty

	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}
	return score
}

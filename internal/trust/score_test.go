package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var scoreNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return scoreNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		reports    int
		verified   int
		false_     int
		createdAt  time.Time
		want       int
	}{
		{
			// base 10 + verified 40 + accuracy 16 + tenure 3, no penalty
			name:      "accurate established reporter",
			reports:   10,
			verified:  8,
			false_:    0,
			createdAt: daysAgo(90),
			want:      69,
		},
		{
			// base 10, no bonuses, penalty capped at score-5
			name:      "serial false reporter",
			reports:   5,
			verified:  0,
			false_:    4,
			createdAt: daysAgo(10),
			want:      5,
		},
		{
			name:      "brand new account",
			reports:   0,
			verified:  0,
			false_:    0,
			createdAt: daysAgo(0),
			want:      10,
		},
		{
			name:      "verified bonus caps at 50",
			reports:   100,
			verified:  100,
			false_:    0,
			createdAt: daysAgo(1),
			want:      80, // 10 + 50 + 20 + 0
		},
		{
			name:      "tenure bonus caps at 10",
			reports:   0,
			verified:  0,
			false_:    0,
			createdAt: daysAgo(3650),
			want:      20,
		},
		{
			name:      "perfect long-term record clamps at 100",
			reports:   20,
			verified:  20,
			false_:    0,
			createdAt: daysAgo(400),
			want:      90, // 10 + 50 + 20 + 10
		},
		{
			name:      "negative inputs treated as zero",
			reports:   -3,
			verified:  -1,
			false_:    -2,
			createdAt: daysAgo(5),
			want:      10,
		},
		{
			name:      "zero createdAt counts as one day",
			reports:   0,
			verified:  0,
			false_:    0,
			createdAt: time.Time{},
			want:      10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.reports, tt.verified, tt.false_, tt.createdAt, scoreNow)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeRangeInvariant(t *testing.T) {
	for reports := 0; reports <= 40; reports += 5 {
		for verified := 0; verified <= reports; verified += 5 {
			for false_ := 0; false_ <= reports-verified; false_ += 5 {
				for _, tenure := range []int{0, 1, 29, 30, 365, 4000} {
					got := Compute(reports, verified, false_, daysAgo(tenure), scoreNow)
					assert.GreaterOrEqual(t, got, MinScore,
						"reports=%d verified=%d false=%d tenure=%d", reports, verified, false_, tenure)
					assert.LessOrEqual(t, got, MaxScore,
						"reports=%d verified=%d false=%d tenure=%d", reports, verified, false_, tenure)
				}
			}
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := Compute(12, 7, 2, daysAgo(120), scoreNow)
	b := Compute(12, 7, 2, daysAgo(120), scoreNow)
	assert.Equal(t, a, b)
}

func TestComputeMonotonicity(t *testing.T) {
	createdAt := daysAgo(60)

	t.Run("more verified never lowers the score", func(t *testing.T) {
		prev := Compute(30, 0, 3, createdAt, scoreNow)
		for verified := 1; verified <= 27; verified++ {
			cur := Compute(30, verified, 3, createdAt, scoreNow)
			assert.GreaterOrEqual(t, cur, prev, "verified=%d", verified)
			prev = cur
		}
	})

	t.Run("more false reports never raises the score", func(t *testing.T) {
		prev := Compute(30, 10, 0, createdAt, scoreNow)
		for false_ := 1; false_ <= 20; false_++ {
			cur := Compute(30, 10, false_, createdAt, scoreNow)
			assert.LessOrEqual(t, cur, prev, "false=%d", false_)
			prev = cur
		}
	})
}

func TestComputePenaltyCapUsesAccumulatedScore(t *testing.T) {
	// Pre-penalty score: 10 + 25 + round(5/20*20)=5 + 2 = 42. Penalty for 10
	// false reports would be 100, capped at 42-5=37. Final: 5.
	got := Compute(20, 5, 10, daysAgo(60), scoreNow)
	assert.Equal(t, 5, got)
}

// Package model defines the core data types shared across the trust console.
package model

import "time"

// Reporter is one citizen reporter's trust record. The activity counters
// (ReportCount, VerifiedReports, FalseReports) are owned by the reporting
// subsystem and treated as read-only inputs here; this console mutates only
// the trust and flag fields.
type Reporter struct {
	ID              string    `json:"id"`
	Name            string    `json:"name,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	ReportCount     int       `json:"report_count"`
	VerifiedReports int       `json:"verified_reports"`
	FalseReports    int       `json:"false_reports"`
	TrustScore      int       `json:"trust_score"`
	TrustReason     string    `json:"trust_reason,omitempty"`
	Flagged         bool      `json:"flagged"`
	FlagReason      string    `json:"flag_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Normalize clamps negative or absent numeric fields to zero. Records coming
// out of the document store may predate the trust fields entirely; the score
// model's input contract assumes this has been applied at the read boundary.
func (r *Reporter) Normalize() {
	if r.ReportCount < 0 {
		r.ReportCount = 0
	}
	if r.VerifiedReports < 0 {
		r.VerifiedReports = 0
	}
	if r.FalseReports < 0 {
		r.FalseReports = 0
	}
	if r.TrustScore < 0 {
		r.TrustScore = 0
	}
	if r.TrustScore > 100 {
		r.TrustScore = 100
	}
}

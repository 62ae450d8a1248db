package compliance

import (
	"fmt"
	"time"
)

// Scoring weights. The model is an intentionally transparent linear
// combination so every score can be reconstructed from the event log.
const (
	ViolationWeight  = 10
	UnresolvedWeight = 15
	RecencyWindow    = 20 // days over which the recency boost decays to zero
)

// RiskScore is the transient per-run scoring result for one policy. It is
// recomputed from scratch on every evaluation and never persisted.
type RiskScore struct {
	Policy        string     `json:"policy"`
	Score         int        `json:"risk_score"`
	Violations    int        `json:"violations"`
	Unresolved    int        `json:"unresolved"`
	LastViolation *time.Time `json:"last_violation,omitempty"`
	Details       string     `json:"details"`
}

// ComputeRiskScore derives a score from the events observed for a policy
// within the lookback window. Deterministic for a fixed event set and "now":
// the caller supplies the reference time so repeated runs over the same
// snapshot agree.
func ComputeRiskScore(policy string, events []*ComplianceEvent, now time.Time) *RiskScore {
	rs := &RiskScore{Policy: policy}

	for _, e := range events {
		if !e.IsViolation() {
			continue
		}
		rs.Violations++
		if !e.IsResolved() {
			rs.Unresolved++
		}
		if rs.LastViolation == nil || e.Timestamp.After(*rs.LastViolation) {
			ts := e.Timestamp
			rs.LastViolation = &ts
		}
	}

	score := rs.Violations*ViolationWeight + rs.Unresolved*UnresolvedWeight

	boost := 0
	if rs.LastViolation != nil {
		days := int(now.Sub(*rs.LastViolation).Hours() / 24)
		if days >= 0 && days < RecencyWindow {
			boost = RecencyWindow - days
			score += boost
		}
	}

	rs.Score = ClampScore(score)
	rs.Details = fmt.Sprintf("%d violations (%d unresolved), recency boost %d",
		rs.Violations, rs.Unresolved, boost)

	return rs
}

// ClampScore bounds a raw score to the documented [0,100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

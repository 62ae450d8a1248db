package escalation

import (
	"context"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

// SeverityFloor is the fixed score at or above which a ticket is cut,
// independent of the per-policy and per-user alert thresholds.
const SeverityFloor = 70

// Service opens tickets in external trackers for severe risk
type Service interface {
	// Escalate attempts one ticket per qualifying score per configured
	// tracker. Failures are captured in the result, never returned.
	Escalate(ctx context.Context, scores []*compliance.RiskScore) *Result
}

// TicketTracker is one configured external issue tracker integration
type TicketTracker interface {
	// Name identifies the tracker in logs and results
	Name() string
	// CreateTicket opens a ticket and returns its external identifier
	CreateTicket(ctx context.Context, summary, description string) (string, error)
}

// TicketResult records a single ticket-creation attempt
type TicketResult struct {
	Policy   string
	Tracker  string
	TicketID string
	Success  bool
	Error    string
}

// Result aggregates ticket attempts for one run
type Result struct {
	Results []TicketResult
}

// Created returns the number of tickets successfully opened
func (r *Result) Created() int {
	n := 0
	for _, tr := range r.Results {
		if tr.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed ticket attempts
func (r *Result) Failed() int {
	return len(r.Results) - r.Created()
}

package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

// service implements the Service interface
type service struct {
	trackers      []TicketTracker
	logger        *slog.Logger
	ticketTimeout time.Duration
}

// NewService creates a new escalation service. Zero trackers is valid: the
// bridge becomes a no-op and the run still completes.
func NewService(trackers []TicketTracker, logger *slog.Logger, ticketTimeout time.Duration) Service {
	if ticketTimeout <= 0 {
		ticketTimeout = 15 * time.Second
	}
	return &service{
		trackers:      trackers,
		logger:        logger,
		ticketTimeout: ticketTimeout,
	}
}

// Escalate opens a ticket per qualifying policy per configured tracker. Each
// tracker call is attempted independently with its own timeout; a failing
// tracker degrades escalation, never the run.
//
// No deduplication is performed against earlier runs: sustained high risk
// cuts a new ticket every evaluation. The WARN log below gives operators a
// trail of repeats.
func (s *service) Escalate(ctx context.Context, scores []*compliance.RiskScore) *Result {
	result := &Result{}

	for _, score := range scores {
		if score.Score < SeverityFloor {
			continue
		}

		summary := fmt.Sprintf("Compliance risk %d for policy %s", score.Score, score.Policy)
		description := s.describeScore(score)

		for _, tracker := range s.trackers {
			tr := TicketResult{Policy: score.Policy, Tracker: tracker.Name()}

			ticketCtx, cancel := context.WithTimeout(ctx, s.ticketTimeout)
			ticketID, err := tracker.CreateTicket(ticketCtx, summary, description)
			cancel()

			if err != nil {
				tr.Error = err.Error()
				s.logger.ErrorContext(ctx, "ticket creation failed",
					"policy", score.Policy,
					"tracker", tracker.Name(),
					"error", err)
			} else {
				tr.Success = true
				tr.TicketID = ticketID
				s.logger.WarnContext(ctx, "escalation ticket created",
					"policy", score.Policy,
					"tracker", tracker.Name(),
					"ticket_id", ticketID,
					"score", score.Score)
			}

			result.Results = append(result.Results, tr)
		}
	}

	return result
}

// describeScore renders the explainable breakdown so an auditor can
// reconstruct the number from the event log.
func (s *service) describeScore(score *compliance.RiskScore) string {
	lastViolation := "none"
	if score.LastViolation != nil {
		lastViolation = score.LastViolation.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf(
		"Policy %q scored %d/100 (severity floor %d).\n"+
			"Breakdown: %s.\n"+
			"Violations in window: %d (%d unresolved). Last violation: %s.",
		score.Policy, score.Score, SeverityFloor,
		score.Details,
		score.Violations, score.Unresolved, lastViolation,
	)
}

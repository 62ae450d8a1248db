package evaluation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
)

// Service is the single exposed operation of the pipeline
type Service interface {
	// Run executes one evaluation: score, decide, notify, escalate.
	// Fire-and-forget; the report feeds logs and metrics only.
	Run(ctx context.Context, windowDays int, userID string) *RunReport
}

// MetricsCollector records pipeline outcomes
type MetricsCollector interface {
	// RecordRun records an evaluation run's aggregate outcome
	RecordRun(ctx context.Context, report *RunReport)
	// RecordDelivery records one channel delivery attempt
	RecordDelivery(ctx context.Context, channel notification.Channel, success bool)
	// RecordTicket records one ticket-creation attempt
	RecordTicket(ctx context.Context, tracker string, success bool)
}

// RunReport summarizes one evaluation run
type RunReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	Duration   time.Duration
	WindowDays int
	UserID     string

	HighRiskPolicies int
	Recipients       int
	Delivered        int
	DeliveryFailures int
	TicketsCreated   int
	TicketFailures   int

	// Aborted is set only when the run could not even enumerate policies
	// or recipients; partial failures never abort a run.
	Aborted bool
	Err     string
}

package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
	"github.com/davidleathers/compliance-risk-backend/internal/service/alerting"
	"github.com/davidleathers/compliance-risk-backend/internal/service/escalation"
	"github.com/davidleathers/compliance-risk-backend/internal/service/scoring"
)

// service implements the Service interface
type service struct {
	scoring    scoring.Service
	alerting   alerting.Service
	escalation escalation.Service
	metrics    MetricsCollector
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewService wires the pipeline stages into the single Run operation
func NewService(
	scoringSvc scoring.Service,
	alertingSvc alerting.Service,
	escalationSvc escalation.Service,
	metrics MetricsCollector,
	logger *slog.Logger,
) Service {
	return &service{
		scoring:    scoringSvc,
		alerting:   alertingSvc,
		escalation: escalationSvc,
		metrics:    metrics,
		logger:     logger,
		tracer:     otel.Tracer("evaluation"),
	}
}

// Run executes one evaluation over the current event log snapshot. The run
// is stateless: nothing persists between runs except what the event log and
// policy registry already hold. Concurrent runs are possible and safe; no
// single-flight guard is applied.
func (s *service) Run(ctx context.Context, windowDays int, userID string) *RunReport {
	ctx, span := s.tracer.Start(ctx, "evaluation.run",
		trace.WithAttributes(
			attribute.Int("window_days", windowDays),
			attribute.Bool("scoped", userID != ""),
		))
	defer span.End()

	report := &RunReport{
		RunID:      uuid.New(),
		StartedAt:  time.Now(),
		WindowDays: windowDays,
		UserID:     userID,
	}
	logger := s.logger.With("run_id", report.RunID.String())

	defer func() {
		report.Duration = time.Since(report.StartedAt)
		if s.metrics != nil {
			s.metrics.RecordRun(ctx, report)
		}
		logger.InfoContext(ctx, "evaluation run finished",
			"duration", report.Duration,
			"high_risk", report.HighRiskPolicies,
			"recipients", report.Recipients,
			"delivered", report.Delivered,
			"delivery_failures", report.DeliveryFailures,
			"tickets", report.TicketsCreated,
			"ticket_failures", report.TicketFailures,
			"aborted", report.Aborted)
	}()

	highRisk, err := s.scoring.Evaluate(ctx, windowDays, userID)
	if err != nil {
		report.Aborted = true
		report.Err = err.Error()
		logger.ErrorContext(ctx, "evaluation aborted: could not enumerate policies", "error", err)
		return report
	}
	report.HighRiskPolicies = len(highRisk)

	if len(highRisk) == 0 {
		logger.DebugContext(ctx, "no policies above threshold, nothing to deliver")
		return report
	}

	title, message := s.composeAlert(highRisk)

	recipients, err := s.alerting.ResolveRecipients(ctx, userID)
	if err != nil {
		// Escalation is independent of notification delivery: still
		// attempt tickets before reporting the failure.
		report.Err = err.Error()
		logger.ErrorContext(ctx, "recipient resolution failed, skipping notifications", "error", err)
	}
	report.Recipients = len(recipients)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, recipient := range recipients {
		wg.Add(1)
		go func(r *alerting.Recipient) {
			defer wg.Done()
			result := s.alerting.Dispatch(ctx, r, title, message)

			mu.Lock()
			report.Delivered += result.Delivered()
			report.DeliveryFailures += result.Failed()
			mu.Unlock()

			if s.metrics != nil {
				for _, cr := range result.Results {
					s.metrics.RecordDelivery(ctx, cr.Channel, cr.Success)
				}
			}
		}(recipient)
	}
	wg.Wait()

	escResult := s.escalation.Escalate(ctx, highRisk)
	report.TicketsCreated = escResult.Created()
	report.TicketFailures = escResult.Failed()
	if s.metrics != nil {
		for _, tr := range escResult.Results {
			s.metrics.RecordTicket(ctx, tr.Tracker, tr.Success)
		}
	}

	return report
}

// composeAlert renders one alert covering every high-risk policy in the run.
func (s *service) composeAlert(highRisk []*compliance.RiskScore) (title, message string) {
	if len(highRisk) == 1 {
		title = fmt.Sprintf("Compliance risk alert: policy %s", highRisk[0].Policy)
	} else {
		title = fmt.Sprintf("Compliance risk alert: %d policies above threshold", len(highRisk))
	}

	var b strings.Builder
	b.WriteString("The scheduled compliance evaluation flagged the following policies:\n")
	for _, rs := range highRisk {
		fmt.Fprintf(&b, "- %s: score %d/100 (%s)\n", rs.Policy, rs.Score, rs.Details)
	}
	return title, b.String()
}

package escalation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTracker struct {
	name string
	err  error

	mu      sync.Mutex
	tickets []string
}

func (f *fakeTracker) Name() string { return f.name }

func (f *fakeTracker) CreateTicket(ctx context.Context, summary, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	id := fmt.Sprintf("%s-%d", f.name, len(f.tickets)+1)
	f.tickets = append(f.tickets, summary)
	return id, nil
}

func score(policy string, value int) *compliance.RiskScore {
	last := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	return &compliance.RiskScore{
		Policy:        policy,
		Score:         value,
		Violations:    3,
		Unresolved:    1,
		LastViolation: &last,
		Details:       "3 violations (1 unresolved), recency boost 20",
	}
}

func TestService_Escalate_SeverityFloor(t *testing.T) {
	// Two high-risk policies, only one at or above the hard floor: exactly
	// one ticket attempt, for the qualifying policy only.
	tracker := &fakeTracker{name: "jira"}
	svc := NewService([]TicketTracker{tracker}, testLogger(), time.Second)

	result := svc.Escalate(context.Background(), []*compliance.RiskScore{
		score("data-access", 85),
		score("vendor-review", 55),
	})

	require.Len(t, result.Results, 1)
	assert.Equal(t, "data-access", result.Results[0].Policy)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, 1, result.Created())
	require.Len(t, tracker.tickets, 1)
	assert.Contains(t, tracker.tickets[0], "data-access")
}

func TestService_Escalate_BoundaryScore(t *testing.T) {
	tracker := &fakeTracker{name: "jira"}
	svc := NewService([]TicketTracker{tracker}, testLogger(), time.Second)

	result := svc.Escalate(context.Background(), []*compliance.RiskScore{
		score("exactly-at-floor", SeverityFloor),
		score("just-below", SeverityFloor-1),
	})

	require.Len(t, result.Results, 1)
	assert.Equal(t, "exactly-at-floor", result.Results[0].Policy)
}

func TestService_Escalate_MultipleTrackersIndependent(t *testing.T) {
	healthy := &fakeTracker{name: "jira"}
	broken := &fakeTracker{name: "servicedesk", err: fmt.Errorf("api token expired")}
	svc := NewService([]TicketTracker{healthy, broken}, testLogger(), time.Second)

	result := svc.Escalate(context.Background(), []*compliance.RiskScore{
		score("data-access", 90),
	})

	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Created())
	assert.Equal(t, 1, result.Failed())
	assert.Len(t, healthy.tickets, 1)

	var failed TicketResult
	for _, tr := range result.Results {
		if !tr.Success {
			failed = tr
		}
	}
	assert.Equal(t, "servicedesk", failed.Tracker)
	assert.Contains(t, failed.Error, "api token expired")
}

func TestService_Escalate_NoTrackersIsNoOp(t *testing.T) {
	svc := NewService(nil, testLogger(), time.Second)

	result := svc.Escalate(context.Background(), []*compliance.RiskScore{
		score("data-access", 95),
	})

	assert.Empty(t, result.Results)
}

func TestService_Escalate_TicketDescriptionExplainsScore(t *testing.T) {
	tracker := &fakeTracker{name: "jira"}
	svc := NewService([]TicketTracker{tracker}, testLogger(), time.Second).(*service)

	desc := svc.describeScore(score("data-access", 90))

	assert.Contains(t, desc, "data-access")
	assert.Contains(t, desc, "90/100")
	assert.Contains(t, desc, "recency boost")
	assert.Contains(t, desc, "2026-03-15T09:00:00Z")
}

package scoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() *compliance.MockClock {
	return &compliance.MockClock{
		CurrentTime: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func violation(policy string, ts time.Time, status compliance.EventStatus, resolved bool) *compliance.ComplianceEvent {
	e := compliance.NewComplianceEvent(policy, "export", "report", status)
	e.Timestamp = ts
	if resolved {
		at := ts.Add(time.Hour)
		e.ResolvedAt = &at
	}
	return e
}

func TestService_Score(t *testing.T) {
	ctx := context.Background()
	clock := fixedClock()
	now := clock.Now()

	tests := []struct {
		name       string
		policy     string
		setupMocks func(*mockEventRepo, *mockPolicyRepo)
		expected   int
		wantErr    error
	}{
		{
			name:   "high risk policy scores with recency boost",
			policy: "data-access",
			setupMocks: func(events *mockEventRepo, policies *mockPolicyRepo) {
				policies.On("GetByName", ctx, "data-access").Return(compliance.NewCompliancePolicy("data-access"), nil)
				events.On("Query", mock.Anything, mock.MatchedBy(func(f compliance.EventFilter) bool {
					return f.Policy == "data-access" && f.To.Equal(now)
				})).Return([]*compliance.ComplianceEvent{
					violation("data-access", now.AddDate(0, 0, -9), compliance.StatusFail, true),
					violation("data-access", now.AddDate(0, 0, -6), compliance.StatusFail, true),
					violation("data-access", now.AddDate(0, 0, -3), compliance.StatusFail, false),
					violation("data-access", now.Add(-2*time.Hour), compliance.StatusWarning, false),
				}, nil)
			},
			expected: 90,
		},
		{
			name:   "policy with no events scores zero",
			policy: "pii-handling",
			setupMocks: func(events *mockEventRepo, policies *mockPolicyRepo) {
				policies.On("GetByName", ctx, "pii-handling").Return(compliance.NewCompliancePolicy("pii-handling"), nil)
				events.On("Query", mock.Anything, mock.Anything).Return([]*compliance.ComplianceEvent{}, nil)
			},
			expected: 0,
		},
		{
			name:   "unknown policy is not scored",
			policy: "ghost",
			setupMocks: func(events *mockEventRepo, policies *mockPolicyRepo) {
				policies.On("GetByName", ctx, "ghost").Return(nil, compliance.ErrPolicyNotFound)
			},
			wantErr: compliance.ErrPolicyNotFound,
		},
		{
			name:   "disabled policy is not scored",
			policy: "legacy",
			setupMocks: func(events *mockEventRepo, policies *mockPolicyRepo) {
				disabled := compliance.NewCompliancePolicy("legacy")
				disabled.Enabled = false
				policies.On("GetByName", ctx, "legacy").Return(disabled, nil)
			},
			wantErr: compliance.ErrPolicyDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := new(mockEventRepo)
			policies := new(mockPolicyRepo)
			tt.setupMocks(events, policies)

			svc := NewService(events, policies, clock, testLogger(), DefaultConfig())

			score, err := svc.Score(ctx, tt.policy, 30)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score.Score)

			events.AssertExpectations(t)
			policies.AssertExpectations(t)
		})
	}
}

func TestService_Score_Deterministic(t *testing.T) {
	ctx := context.Background()
	clock := fixedClock()
	now := clock.Now()

	fixed := []*compliance.ComplianceEvent{
		violation("data-access", now.AddDate(0, 0, -2), compliance.StatusFail, false),
		violation("data-access", now.AddDate(0, 0, -8), compliance.StatusWarning, true),
	}

	events := new(mockEventRepo)
	policies := new(mockPolicyRepo)
	policies.On("GetByName", ctx, "data-access").Return(compliance.NewCompliancePolicy("data-access"), nil)
	events.On("Query", mock.Anything, mock.Anything).Return(fixed, nil)

	svc := NewService(events, policies, clock, testLogger(), DefaultConfig())

	first, err := svc.Score(ctx, "data-access", 30)
	require.NoError(t, err)
	second, err := svc.Score(ctx, "data-access", 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_Evaluate(t *testing.T) {
	ctx := context.Background()
	clock := fixedClock()
	now := clock.Now()

	dataAccess := compliance.NewCompliancePolicy("data-access")
	piiHandling := compliance.NewCompliancePolicy("pii-handling")

	events := new(mockEventRepo)
	policies := new(mockPolicyRepo)

	policies.On("ListEnabled", ctx).Return([]*compliance.CompliancePolicy{dataAccess, piiHandling}, nil)
	events.On("Query", mock.Anything, mock.MatchedBy(func(f compliance.EventFilter) bool {
		return f.Policy == "data-access"
	})).Return([]*compliance.ComplianceEvent{
		violation("data-access", now.Add(-time.Hour), compliance.StatusFail, false),
		violation("data-access", now.Add(-2*time.Hour), compliance.StatusFail, false),
		violation("data-access", now.Add(-3*time.Hour), compliance.StatusFail, false),
	}, nil)
	events.On("Query", mock.Anything, mock.MatchedBy(func(f compliance.EventFilter) bool {
		return f.Policy == "pii-handling"
	})).Return([]*compliance.ComplianceEvent{}, nil)

	svc := NewService(events, policies, clock, testLogger(), DefaultConfig())

	// data-access: 3*10 + 3*15 + 20 = 95 >= 70; pii-handling: 0, never flagged.
	highRisk, err := svc.Evaluate(ctx, 30, "")
	require.NoError(t, err)
	require.Len(t, highRisk, 1)
	assert.Equal(t, "data-access", highRisk[0].Policy)
	assert.Equal(t, 95, highRisk[0].Score)
}

func TestService_Evaluate_UserOverrideLowersThreshold(t *testing.T) {
	ctx := context.Background()
	clock := fixedClock()
	now := clock.Now()

	policy := compliance.NewCompliancePolicy("data-access")
	policy.UserThresholdOverrides = map[string]int{"user-x": 40}

	events := new(mockEventRepo)
	policies := new(mockPolicyRepo)
	policies.On("ListEnabled", mock.Anything).Return([]*compliance.CompliancePolicy{policy}, nil)
	// Two resolved violations today: base 20 + recency 20 = 40. At the
	// user-x override (40) that flags; at the default (70) it does not.
	events.On("Query", mock.Anything, mock.Anything).Return([]*compliance.ComplianceEvent{
		violation("data-access", now.Add(-time.Hour), compliance.StatusFail, true),
		violation("data-access", now.Add(-2*time.Hour), compliance.StatusWarning, true),
	}, nil)

	svc := NewService(events, policies, clock, testLogger(), DefaultConfig())

	scoped, err := svc.Evaluate(ctx, 30, "user-x")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, 40, scoped[0].Score)

	global, err := svc.Evaluate(ctx, 30, "")
	require.NoError(t, err)
	assert.Empty(t, global)
}

func TestService_Evaluate_SkipsFailingPolicy(t *testing.T) {
	ctx := context.Background()
	clock := fixedClock()
	now := clock.Now()

	broken := compliance.NewCompliancePolicy("broken")
	healthy := compliance.NewCompliancePolicy("healthy")

	events := new(mockEventRepo)
	policies := new(mockPolicyRepo)
	policies.On("ListEnabled", ctx).Return([]*compliance.CompliancePolicy{broken, healthy}, nil)
	events.On("Query", mock.Anything, mock.MatchedBy(func(f compliance.EventFilter) bool {
		return f.Policy == "broken"
	})).Return(nil, fmt.Errorf("event store unreachable"))
	events.On("Query", mock.Anything, mock.MatchedBy(func(f compliance.EventFilter) bool {
		return f.Policy == "healthy"
	})).Return([]*compliance.ComplianceEvent{
		violation("healthy", now.Add(-time.Hour), compliance.StatusFail, false),
		violation("healthy", now.Add(-2*time.Hour), compliance.StatusFail, false),
		violation("healthy", now.Add(-3*time.Hour), compliance.StatusFail, false),
	}, nil)

	svc := NewService(events, policies, clock, testLogger(), DefaultConfig())

	highRisk, err := svc.Evaluate(ctx, 30, "")
	require.NoError(t, err)
	require.Len(t, highRisk, 1)
	assert.Equal(t, "healthy", highRisk[0].Policy)
}

func TestService_Evaluate_NoPoliciesIsNoOp(t *testing.T) {
	ctx := context.Background()

	events := new(mockEventRepo)
	policies := new(mockPolicyRepo)
	policies.On("ListEnabled", ctx).Return([]*compliance.CompliancePolicy{}, nil)

	svc := NewService(events, policies, fixedClock(), testLogger(), DefaultConfig())

	highRisk, err := svc.Evaluate(ctx, 30, "")
	require.NoError(t, err)
	assert.Empty(t, highRisk)
}

package evaluation

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
	"github.com/davidleathers/compliance-risk-backend/internal/service/alerting"
	"github.com/davidleathers/compliance-risk-backend/internal/service/escalation"
)

type mockScoring struct {
	mock.Mock
}

func (m *mockScoring) Score(ctx context.Context, policyName string, windowDays int) (*compliance.RiskScore, error) {
	args := m.Called(ctx, policyName, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.RiskScore), args.Error(1)
}

func (m *mockScoring) Evaluate(ctx context.Context, windowDays int, userID string) ([]*compliance.RiskScore, error) {
	args := m.Called(ctx, windowDays, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*compliance.RiskScore), args.Error(1)
}

type mockAlerting struct {
	mock.Mock
}

func (m *mockAlerting) ResolveRecipients(ctx context.Context, userID string) ([]*alerting.Recipient, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alerting.Recipient), args.Error(1)
}

func (m *mockAlerting) Dispatch(ctx context.Context, recipient *alerting.Recipient, title, message string) *alerting.DispatchResult {
	args := m.Called(ctx, recipient, title, message)
	return args.Get(0).(*alerting.DispatchResult)
}

type mockEscalation struct {
	mock.Mock
}

func (m *mockEscalation) Escalate(ctx context.Context, scores []*compliance.RiskScore) *escalation.Result {
	args := m.Called(ctx, scores)
	return args.Get(0).(*escalation.Result)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordRun(ctx context.Context, report *RunReport) {
	m.Called(ctx, report)
}

func (m *mockMetrics) RecordDelivery(ctx context.Context, channel notification.Channel, success bool) {
	m.Called(ctx, channel, success)
}

func (m *mockMetrics) RecordTicket(ctx context.Context, tracker string, success bool) {
	m.Called(ctx, tracker, success)
}

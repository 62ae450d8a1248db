package scoring

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Query(ctx context.Context, filter compliance.EventFilter) ([]*compliance.ComplianceEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*compliance.ComplianceEvent), args.Error(1)
}

type mockPolicyRepo struct {
	mock.Mock
}

func (m *mockPolicyRepo) ListEnabled(ctx context.Context) ([]*compliance.CompliancePolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*compliance.CompliancePolicy), args.Error(1)
}

func (m *mockPolicyRepo) GetByName(ctx context.Context, name string) (*compliance.CompliancePolicy, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.CompliancePolicy), args.Error(1)
}

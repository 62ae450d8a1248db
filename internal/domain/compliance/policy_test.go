package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompliancePolicy_ResolveThreshold(t *testing.T) {
	policy := NewCompliancePolicy("data-access")
	policy.RiskAlertThreshold = 70
	policy.UserThresholdOverrides = map[string]int{"user-x": 40}

	tests := []struct {
		name     string
		userID   string
		expected int
	}{
		{
			name:     "user override takes precedence",
			userID:   "user-x",
			expected: 40,
		},
		{
			name:     "other user falls back to policy default",
			userID:   "user-y",
			expected: 70,
		},
		{
			name:     "empty user falls back to policy default",
			userID:   "",
			expected: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.ResolveThreshold(tt.userID))
		})
	}
}

func TestCompliancePolicy_ResolveThreshold_DocumentedDefault(t *testing.T) {
	policy := &CompliancePolicy{Name: "pii-handling", Enabled: true}

	assert.Equal(t, DefaultRiskAlertThreshold, policy.ResolveThreshold("anyone"))
	assert.Equal(t, DefaultRiskAlertThreshold, policy.ResolveThreshold(""))
}

func TestCompliancePolicy_ResolveThreshold_NilOverrides(t *testing.T) {
	policy := &CompliancePolicy{
		Name:               "vendor-review",
		Enabled:            true,
		RiskAlertThreshold: 55,
	}

	assert.Equal(t, 55, policy.ResolveThreshold("user-x"))
}

func TestCompliancePolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  *CompliancePolicy
		wantErr bool
	}{
		{
			name:    "valid policy",
			policy:  NewCompliancePolicy("data-access"),
			wantErr: false,
		},
		{
			name:    "empty name",
			policy:  &CompliancePolicy{RiskAlertThreshold: 70},
			wantErr: true,
		},
		{
			name:    "threshold above range",
			policy:  &CompliancePolicy{Name: "x", RiskAlertThreshold: 101},
			wantErr: true,
		},
		{
			name: "override above range",
			policy: &CompliancePolicy{
				Name:                   "x",
				RiskAlertThreshold:     70,
				UserThresholdOverrides: map[string]int{"u": 150},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

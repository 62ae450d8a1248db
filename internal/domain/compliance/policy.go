package compliance

import (
	"fmt"
	"time"
)

// DefaultRiskAlertThreshold is the documented fallback when a policy carries
// no explicit threshold and no user override applies.
const DefaultRiskAlertThreshold = 70

// CompliancePolicy is a named rule category against which events are scored.
// Policies are administered elsewhere; this pipeline only reads them.
type CompliancePolicy struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`

	// RiskAlertThreshold is the default score at or above which the policy
	// is considered high-risk for alerting, range [0,100].
	RiskAlertThreshold int `json:"risk_alert_threshold"`

	// UserThresholdOverrides replaces the default threshold for specific
	// users when a run is scoped to one of them.
	UserThresholdOverrides map[string]int `json:"user_threshold_overrides,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCompliancePolicy creates an enabled policy with the documented default
// threshold.
func NewCompliancePolicy(name string) *CompliancePolicy {
	now := time.Now()
	return &CompliancePolicy{
		Name:                   name,
		Enabled:                true,
		RiskAlertThreshold:     DefaultRiskAlertThreshold,
		UserThresholdOverrides: make(map[string]int),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// ResolveThreshold picks the effective alert threshold for a (policy, user)
// pair. Resolution never fails closed: user override first, then the policy
// default, then the documented default.
func (p *CompliancePolicy) ResolveThreshold(userID string) int {
	if userID != "" && p.UserThresholdOverrides != nil {
		if override, ok := p.UserThresholdOverrides[userID]; ok {
			return override
		}
	}
	if p.RiskAlertThreshold > 0 {
		return p.RiskAlertThreshold
	}
	return DefaultRiskAlertThreshold
}

// Validate checks administrator-supplied fields.
func (p *CompliancePolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}
	if p.RiskAlertThreshold < 0 || p.RiskAlertThreshold > 100 {
		return fmt.Errorf("risk alert threshold must be between 0 and 100")
	}
	for user, threshold := range p.UserThresholdOverrides {
		if threshold < 0 || threshold > 100 {
			return fmt.Errorf("threshold override for %s must be between 0 and 100", user)
		}
	}
	return nil
}

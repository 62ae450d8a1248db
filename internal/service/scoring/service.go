package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
	"github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
)

// service implements the Service interface
type service struct {
	events   compliance.EventRepository
	policies compliance.PolicyRepository
	clock    compliance.Clock
	logger   *slog.Logger
	config   Config
}

// NewService creates a new risk scoring service
func NewService(
	events compliance.EventRepository,
	policies compliance.PolicyRepository,
	clock compliance.Clock,
	logger *slog.Logger,
	config Config,
) Service {
	if clock == nil {
		clock = compliance.RealClock{}
	}
	if config.DefaultWindowDays <= 0 {
		config.DefaultWindowDays = DefaultConfig().DefaultWindowDays
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultConfig().FetchTimeout
	}

	return &service{
		events:   events,
		policies: policies,
		clock:    clock,
		logger:   logger,
		config:   config,
	}
}

// Score computes the risk score for one policy over the lookback window.
// A policy absent from the registry is not scored.
func (s *service) Score(ctx context.Context, policyName string, windowDays int) (*compliance.RiskScore, error) {
	policy, err := s.policies.GetByName(ctx, policyName)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, compliance.ErrPolicyNotFound
	}
	if !policy.Enabled {
		return nil, compliance.ErrPolicyDisabled
	}

	return s.scorePolicy(ctx, policy, windowDays)
}

// Evaluate runs the scoring engine once per enabled policy and filters to
// scores at or above the effective threshold. A failure scoring one policy is
// logged and skipped; the run continues for the remaining policies.
func (s *service) Evaluate(ctx context.Context, windowDays int, userID string) ([]*compliance.RiskScore, error) {
	policies, err := s.policies.ListEnabled(ctx)
	if err != nil {
		return nil, errors.NewInternalError("failed to list enabled policies").WithCause(err)
	}

	highRisk := make([]*compliance.RiskScore, 0, len(policies))
	for _, policy := range policies {
		score, err := s.scorePolicy(ctx, policy, windowDays)
		if err != nil {
			s.logger.ErrorContext(ctx, "scoring failed, skipping policy",
				"policy", policy.Name,
				"error", err)
			continue
		}

		threshold := policy.ResolveThreshold(userID)
		if score.Score >= threshold {
			s.logger.InfoContext(ctx, "policy flagged high-risk",
				"policy", policy.Name,
				"score", score.Score,
				"threshold", threshold,
				"details", score.Details)
			highRisk = append(highRisk, score)
		}
	}

	return highRisk, nil
}

func (s *service) scorePolicy(ctx context.Context, policy *compliance.CompliancePolicy, windowDays int) (*compliance.RiskScore, error) {
	if windowDays <= 0 {
		windowDays = s.config.DefaultWindowDays
	}

	now := s.clock.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	events, err := s.events.Query(fetchCtx, compliance.EventFilter{
		Policy: policy.Name,
		From:   now.AddDate(0, 0, -windowDays),
		To:     now,
	})
	if err != nil {
		return nil, errors.NewExternalError("EVENT_FETCH_FAILED",
			fmt.Sprintf("fetching events for policy %s", policy.Name)).WithCause(err)
	}

	return compliance.ComputeRiskScore(policy.Name, events, now), nil
}

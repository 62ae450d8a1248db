package scoring

import (
	"context"
	"time"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

// Service defines the risk scoring engine interface
type Service interface {
	// Score computes the risk score for one policy over the lookback window
	Score(ctx context.Context, policyName string, windowDays int) (*compliance.RiskScore, error)
	// Evaluate scores every enabled policy and returns the scores at or
	// above the effective alert threshold for the run
	Evaluate(ctx context.Context, windowDays int, userID string) ([]*compliance.RiskScore, error)
}

// Config tunes the scoring engine
type Config struct {
	// DefaultWindowDays is used when a caller passes a non-positive window
	DefaultWindowDays int
	// FetchTimeout bounds each event log query so one slow fetch cannot
	// stall the whole run
	FetchTimeout time.Duration
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		DefaultWindowDays: 30,
		FetchTimeout:      10 * time.Second,
	}
}

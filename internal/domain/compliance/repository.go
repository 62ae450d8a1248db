package compliance

import (
	"context"
	"time"
)

// EventFilter narrows an event log query. Zero values are ignored.
type EventFilter struct {
	Policy string
	From   time.Time
	To     time.Time
	Status EventStatus
}

// EventRepository reads the append-only compliance event log.
type EventRepository interface {
	// Query returns events matching the filter, oldest first.
	Query(ctx context.Context, filter EventFilter) ([]*ComplianceEvent, error)
}

// PolicyRepository reads the policy registry.
type PolicyRepository interface {
	// ListEnabled returns every policy with enabled=true.
	ListEnabled(ctx context.Context) ([]*CompliancePolicy, error)
	// GetByName returns the named policy or ErrPolicyNotFound.
	GetByName(ctx context.Context, name string) (*CompliancePolicy, error)
}

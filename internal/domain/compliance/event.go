package compliance

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the outcome recorded for a compliance-relevant action.
type EventStatus string

const (
	StatusSuccess EventStatus = "success"
	StatusFail    EventStatus = "fail"
	StatusWarning EventStatus = "warning"
)

// ComplianceEvent is a single entry in the append-only event log. Events are
// written by the audit collaborator and never mutated by this pipeline.
type ComplianceEvent struct {
	ID         uuid.UUID   `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	UserID     string      `json:"user_id,omitempty"`
	Action     string      `json:"action"`
	Resource   string      `json:"resource"`
	ResourceID string      `json:"resource_id,omitempty"`
	Status     EventStatus `json:"status"`
	Details    string      `json:"details,omitempty"`
	Policy     string      `json:"policy,omitempty"`

	// ResolvedAt marks a violation as handled. Nil means unresolved at
	// scoring time.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// IsViolation reports whether the event counts against the policy's risk
// score. Both hard failures and warnings are violations.
func (e *ComplianceEvent) IsViolation() bool {
	return e.Status == StatusFail || e.Status == StatusWarning
}

// IsResolved reports whether a resolution marker has been recorded.
func (e *ComplianceEvent) IsResolved() bool {
	return e.ResolvedAt != nil
}

// NewComplianceEvent creates an event with a fresh ID and the current time.
// Used by tests and the migrator seed; production events arrive through the
// external audit logger.
func NewComplianceEvent(policy, action, resource string, status EventStatus) *ComplianceEvent {
	return &ComplianceEvent{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Action:    action,
		Resource:  resource,
		Status:    status,
		Policy:    policy,
	}
}

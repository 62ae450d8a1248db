package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

// EventRepository reads the compliance event log from PostgreSQL. The table is
// append-only; this repository never writes to it.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new PostgreSQL-backed event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Query returns events matching the filter, oldest first. Zero-valued filter
// fields are not applied.
func (r *EventRepository) Query(ctx context.Context, filter compliance.EventFilter) ([]*compliance.ComplianceEvent, error) {
	query := `
		SELECT id, timestamp, user_id, action, resource, resource_id,
		       status, details, policy, resolved_at
		FROM compliance_events
		WHERE 1=1`

	args := []interface{}{}
	argNum := 1

	if filter.Policy != "" {
		query += fmt.Sprintf(" AND policy = $%d", argNum)
		args = append(args, filter.Policy)
		argNum++
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND timestamp >= $%d", argNum)
		args = append(args, filter.From)
		argNum++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND timestamp < $%d", argNum)
		args = append(args, filter.To)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}

	query += " ORDER BY timestamp ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance events: %w", err)
	}
	defer rows.Close()

	var events []*compliance.ComplianceEvent
	for rows.Next() {
		event := &compliance.ComplianceEvent{}
		var status string
		err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&event.UserID,
			&event.Action,
			&event.Resource,
			&event.ResourceID,
			&status,
			&event.Details,
			&event.Policy,
			&event.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance event: %w", err)
		}
		event.Status = compliance.EventStatus(status)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compliance events: %w", err)
	}

	return events, nil
}

// Insert appends an event. Only the migrator seed and tests use it.
func (r *EventRepository) Insert(ctx context.Context, event *compliance.ComplianceEvent) error {
	query := `
		INSERT INTO compliance_events (
			id, timestamp, user_id, action, resource, resource_id,
			status, details, policy, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.Timestamp,
		event.UserID,
		event.Action,
		event.Resource,
		event.ResourceID,
		string(event.Status),
		event.Details,
		event.Policy,
		event.ResolvedAt,
	)
	if err != nil {
		if IsDuplicateKeyViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert compliance event: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
)

// PolicyRepository reads the policy registry from PostgreSQL. Per-user
// threshold overrides are stored as a jsonb column.
type PolicyRepository struct {
	db *pgxpool.Pool
}

// NewPolicyRepository creates a new PostgreSQL-backed policy repository
func NewPolicyRepository(db *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// ListEnabled returns every policy with enabled=true, name order.
func (r *PolicyRepository) ListEnabled(ctx context.Context) ([]*compliance.CompliancePolicy, error) {
	query := `
		SELECT name, description, enabled, risk_alert_threshold,
		       user_threshold_overrides, created_at, updated_at
		FROM compliance_policies
		WHERE enabled = true
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled policies: %w", err)
	}
	defer rows.Close()

	var policies []*compliance.CompliancePolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	return policies, nil
}

// GetByName returns the named policy, or nil when it does not exist.
func (r *PolicyRepository) GetByName(ctx context.Context, name string) (*compliance.CompliancePolicy, error) {
	query := `
		SELECT name, description, enabled, risk_alert_threshold,
		       user_threshold_overrides, created_at, updated_at
		FROM compliance_policies
		WHERE name = $1`

	row := r.db.QueryRow(ctx, query, name)
	policy, err := scanPolicy(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return policy, nil
}

// Upsert writes a policy record. Only the migrator seed and tests use it.
func (r *PolicyRepository) Upsert(ctx context.Context, policy *compliance.CompliancePolicy) error {
	overrides, err := json.Marshal(policy.UserThresholdOverrides)
	if err != nil {
		return fmt.Errorf("failed to marshal threshold overrides: %w", err)
	}

	query := `
		INSERT INTO compliance_policies (
			name, description, enabled, risk_alert_threshold,
			user_threshold_overrides, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			enabled = EXCLUDED.enabled,
			risk_alert_threshold = EXCLUDED.risk_alert_threshold,
			user_threshold_overrides = EXCLUDED.user_threshold_overrides,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		policy.Name,
		policy.Description,
		policy.Enabled,
		policy.RiskAlertThreshold,
		overrides,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert policy: %w", err)
	}

	return nil
}

func scanPolicy(row pgx.Row) (*compliance.CompliancePolicy, error) {
	policy := &compliance.CompliancePolicy{}
	var overrides []byte

	err := row.Scan(
		&policy.Name,
		&policy.Description,
		&policy.Enabled,
		&policy.RiskAlertThreshold,
		&overrides,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &policy.UserThresholdOverrides); err != nil {
			return nil, fmt.Errorf("failed to unmarshal threshold overrides: %w", err)
		}
	}

	return policy, nil
}

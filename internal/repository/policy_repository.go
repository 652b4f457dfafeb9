package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// PolicyRepository reads and administers complaint policies.
type PolicyRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Policy, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.Policy, error)
	List(ctx context.Context) ([]domain.Policy, error)
	Create(ctx context.Context, policy *domain.Policy) error
	Update(ctx context.Context, policy *domain.Policy) error
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

const policyColumns = `id, channel_id, complaint_id, service, sla_hours, uic_id, description`

func (r *policyRepository) GetByID(ctx context.Context, id int64) (*domain.Policy, error) {
	const query = `SELECT ` + policyColumns + ` FROM complaint_policies WHERE id=$1`
	var policy domain.Policy
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&policy.ID,
		&policy.ChannelID,
		&policy.ComplaintID,
		&policy.Service,
		&policy.SlaHours,
		&policy.UicID,
		&policy.Description,
	); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Policy, error) {
	const query = `SELECT ` + policyColumns + ` FROM complaint_policies WHERE complaint_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func (r *policyRepository) List(ctx context.Context) ([]domain.Policy, error) {
	const query = `SELECT ` + policyColumns + ` FROM complaint_policies ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func (r *policyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	const query = `
        INSERT INTO complaint_policies (channel_id, complaint_id, service, sla_hours, uic_id, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		policy.ChannelID,
		policy.ComplaintID,
		policy.Service,
		policy.SlaHours,
		policy.UicID,
		policy.Description,
	).Scan(&policy.ID)
}

func (r *policyRepository) Update(ctx context.Context, policy *domain.Policy) error {
	const query = `
        UPDATE complaint_policies SET channel_id=$1, complaint_id=$2, service=$3,
            sla_hours=$4, uic_id=$5, description=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		policy.ChannelID,
		policy.ComplaintID,
		policy.Service,
		policy.SlaHours,
		policy.UicID,
		policy.Description,
		policy.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanPolicies(rows pgx.Rows) ([]domain.Policy, error) {
	var result []domain.Policy
	for rows.Next() {
		var policy domain.Policy
		if err := rows.Scan(
			&policy.ID,
			&policy.ChannelID,
			&policy.ComplaintID,
			&policy.Service,
			&policy.SlaHours,
			&policy.UicID,
			&policy.Description,
		); err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	return result, rows.Err()
}

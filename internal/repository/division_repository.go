package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DivisionRepository manages divisions and escalation assignee selection.
type DivisionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Division, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Division, error)
	// NextAssignee picks the least-recently-assigned active employee of
	// the division and advances the persisted last-assigned pointer in
	// the same transaction, so selection stays consistent across
	// restarts and concurrent instances. Returns pgx.ErrNoRows when the
	// division has no active staff.
	NextAssignee(ctx context.Context, divisionID string) (*domain.Employee, error)
}

type divisionRepository struct {
	pool *pgxpool.Pool
}

// NewDivisionRepository instantiates repository.
func NewDivisionRepository(pool *pgxpool.Pool) DivisionRepository {
	return &divisionRepository{pool: pool}
}

func (r *divisionRepository) GetByID(ctx context.Context, id string) (*domain.Division, error) {
	const query = `
        SELECT id, code, name, description, is_active, created_at, updated_at
        FROM divisions WHERE id=$1`
	var division domain.Division
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&division.ID,
		&division.Code,
		&division.Name,
		&division.Description,
		&division.IsActive,
		&division.CreatedAt,
		&division.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &division, nil
}

func (r *divisionRepository) List(ctx context.Context, includeInactive bool) ([]domain.Division, error) {
	query := `
        SELECT id, code, name, description, is_active, created_at, updated_at
        FROM divisions`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Division
	for rows.Next() {
		var division domain.Division
		if err := rows.Scan(
			&division.ID,
			&division.Code,
			&division.Name,
			&division.Description,
			&division.IsActive,
			&division.CreatedAt,
			&division.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, division)
	}
	return result, rows.Err()
}

func (r *divisionRepository) NextAssignee(ctx context.Context, divisionID string) (*domain.Employee, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const pick = `
        SELECT id, name, email, password_hash, role, division_id, active, last_assigned_at, created_at, updated_at
        FROM employees
        WHERE division_id=$1 AND active
        ORDER BY last_assigned_at ASC NULLS FIRST, id ASC
        LIMIT 1
        FOR UPDATE`
	var employee domain.Employee
	if err := tx.QueryRow(ctx, pick, divisionID).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.PasswordHash,
		&employee.Role,
		&employee.DivisionID,
		&employee.Active,
		&employee.LastAssignedAt,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}

	const bump = `UPDATE employees SET last_assigned_at=NOW(), updated_at=NOW() WHERE id=$1 RETURNING last_assigned_at`
	if err := tx.QueryRow(ctx, bump, employee.ID).Scan(&employee.LastAssignedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &employee, nil
}

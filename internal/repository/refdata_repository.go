package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// RefDataRepository reads the read-only lookup tables the engine
// validates against.
type RefDataRepository interface {
	Exists(ctx context.Context, kind domain.RefKind, id string) (bool, error)
	List(ctx context.Context, kind domain.RefKind) ([]domain.ReferenceEntry, error)
}

type refDataRepository struct {
	pool *pgxpool.Pool
}

// NewRefDataRepository instantiates repository.
func NewRefDataRepository(pool *pgxpool.Pool) RefDataRepository {
	return &refDataRepository{pool: pool}
}

// refTables whitelists table names; RefKind values never come from user
// input unvalidated.
var refTables = map[domain.RefKind]string{
	domain.RefKindPriority:     "priorities",
	domain.RefKindChannel:      "issue_channels",
	domain.RefKindSource:       "intake_sources",
	domain.RefKindComplaint:    "complaint_categories",
	domain.RefKindActivityType: "activity_types",
	domain.RefKindSenderType:   "sender_types",
}

func (r *refDataRepository) Exists(ctx context.Context, kind domain.RefKind, id string) (bool, error) {
	table, ok := refTables[kind]
	if !ok {
		return false, fmt.Errorf("unknown reference kind %q", kind)
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id=$1)`, table)
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *refDataRepository) List(ctx context.Context, kind domain.RefKind) ([]domain.ReferenceEntry, error) {
	table, ok := refTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	query := fmt.Sprintf(`SELECT id, label FROM %s ORDER BY id ASC`, table)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReferenceEntry
	for rows.Next() {
		var entry domain.ReferenceEntry
		if err := rows.Scan(&entry.ID, &entry.Label); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

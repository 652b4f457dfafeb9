package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ActivityRepository stores the append-only audit trail. Entries are never
// updated or deleted; soft-deleted tickets keep their full history.
type ActivityRepository interface {
	Append(ctx context.Context, entry *domain.ActivityEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityEntry, error)
	ListByTicketAndType(ctx context.Context, ticketID string, activityType domain.ActivityType) ([]domain.ActivityEntry, error)
	CountByTicket(ctx context.Context, ticketID string) (int64, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

const activityInsert = `
        INSERT INTO ticket_activities (ticket_id, sender_kind, sender_id, activity_type, content)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, activity_time`

func appendActivity(ctx context.Context, q Querier, entry *domain.ActivityEntry) error {
	return q.QueryRow(ctx, activityInsert,
		entry.TicketID,
		entry.Actor.Kind,
		entry.Actor.ID,
		entry.Type,
		entry.Content,
	).Scan(&entry.ID, &entry.OccurredAt)
}

func (r *activityRepository) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	return appendActivity(ctx, r.pool, entry)
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityEntry, error) {
	const query = `
        SELECT id, ticket_id, sender_kind, sender_id, activity_type, content, activity_time
        FROM ticket_activities WHERE ticket_id=$1 ORDER BY activity_time ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (r *activityRepository) ListByTicketAndType(ctx context.Context, ticketID string, activityType domain.ActivityType) ([]domain.ActivityEntry, error) {
	const query = `
        SELECT id, ticket_id, sender_kind, sender_id, activity_type, content, activity_time
        FROM ticket_activities WHERE ticket_id=$1 AND activity_type=$2
        ORDER BY activity_time ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID, activityType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (r *activityRepository) CountByTicket(ctx context.Context, ticketID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM ticket_activities WHERE ticket_id=$1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanActivities(rows pgx.Rows) ([]domain.ActivityEntry, error) {
	var result []domain.ActivityEntry
	for rows.Next() {
		var entry domain.ActivityEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Actor.Kind,
			&entry.Actor.ID,
			&entry.Type,
			&entry.Content,
			&entry.OccurredAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

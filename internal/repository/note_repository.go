package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// NoteRepository stores division notes, append-only.
type NoteRepository interface {
	Append(ctx context.Context, note *domain.DivisionNote) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.DivisionNote, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository instantiates repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Append(ctx context.Context, note *domain.DivisionNote) error {
	const query = `
        INSERT INTO division_notes (ticket_id, division_id, author_id, message)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.TicketID,
		note.DivisionID,
		note.AuthorID,
		note.Message,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.DivisionNote, error) {
	const query = `
        SELECT id, ticket_id, division_id, author_id, message, created_at
        FROM division_notes WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DivisionNote
	for rows.Next() {
		var note domain.DivisionNote
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.DivisionID,
			&note.AuthorID,
			&note.Message,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}

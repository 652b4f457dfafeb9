package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// TicketFilter captures listing parameters. Soft-deleted tickets are
// excluded unless IncludeDeleted is set.
type TicketFilter struct {
	CustomerID            *string
	ResponsibleEmployeeID *string
	ComplaintID           *string
	ChannelID             *string
	CustomerStatuses      []domain.CustomerStatus
	EmployeeStatuses      []domain.EmployeeStatus
	CreatedFrom           *time.Time
	CreatedTo             *time.Time
	IncludeDeleted        bool
	Limit                 int
	Offset                int
}

// MutateFunc validates and applies a change against the locked ticket row.
// Returning an error aborts the transaction with nothing written. The
// returned activity entry is appended in the same transaction as the
// ticket update.
type MutateFunc func(t *domain.Ticket) (*domain.ActivityEntry, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket, entry *domain.ActivityEntry) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListSlaBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, customer_status, employee_status, priority_id,
       issue_channel_id, intake_source_id, complaint_id, policy_id, customer_id,
       related_account_id, related_card_id, terminal_id, responsible_employee_id,
       description, created_time, committed_due_at, closed_time, deleted_at, deleted_by`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, entry *domain.ActivityEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO tickets (ticket_number, customer_status, employee_status, priority_id,
            issue_channel_id, intake_source_id, complaint_id, customer_id,
            related_account_id, related_card_id, terminal_id, description)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_time`
	if err := tx.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.CustomerStatus,
		ticket.EmployeeStatus,
		ticket.PriorityID,
		ticket.IssueChannelID,
		ticket.IntakeSourceID,
		ticket.ComplaintID,
		ticket.CustomerID,
		ticket.RelatedAccountID,
		ticket.RelatedCardID,
		ticket.TerminalID,
		ticket.Description,
	).Scan(&ticket.ID, &ticket.CreatedTime); err != nil {
		return err
	}

	if entry != nil {
		entry.TicketID = ticket.ID
		if err := appendActivity(ctx, tx, entry); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return fetchTicket(ctx, r.pool, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_number=$1`, ticketColumns)
	return fetchTicket(ctx, r.pool, query, number)
}

// Mutate serializes all writers of one ticket behind a row lock. The lock
// spans the status update and the activity append, and is released before
// any notification dispatch begins.
func (r *ticketRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 FOR UPDATE`, ticketColumns)
	ticket, err := fetchTicket(ctx, tx, query, id)
	if err != nil {
		return nil, err
	}

	entry, err := fn(ticket)
	if err != nil {
		return nil, err
	}

	const update = `
        UPDATE tickets SET customer_status=$1, employee_status=$2, priority_id=$3,
            complaint_id=$4, policy_id=$5, responsible_employee_id=$6,
            committed_due_at=$7, closed_time=$8, deleted_at=$9, deleted_by=$10
        WHERE id=$11`
	cmd, err := tx.Exec(ctx, update,
		ticket.CustomerStatus,
		ticket.EmployeeStatus,
		ticket.PriorityID,
		ticket.ComplaintID,
		ticket.PolicyID,
		ticket.ResponsibleEmployeeID,
		ticket.CommittedDueAt,
		ticket.ClosedTime,
		ticket.DeletedAt,
		ticket.DeletedBy,
		ticket.ID,
	)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}

	if entry != nil {
		entry.TicketID = ticket.ID
		if err := appendActivity(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.ResponsibleEmployeeID != nil {
		args = append(args, *filter.ResponsibleEmployeeID)
		clauses = append(clauses, fmt.Sprintf("responsible_employee_id=$%d", len(args)))
	}
	if filter.ComplaintID != nil {
		args = append(args, *filter.ComplaintID)
		clauses = append(clauses, fmt.Sprintf("complaint_id=$%d", len(args)))
	}
	if filter.ChannelID != nil {
		args = append(args, *filter.ChannelID)
		clauses = append(clauses, fmt.Sprintf("issue_channel_id=$%d", len(args)))
	}
	if len(filter.CustomerStatuses) > 0 {
		placeholders := make([]string, len(filter.CustomerStatuses))
		for i, status := range filter.CustomerStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("customer_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.EmployeeStatuses) > 0 {
		placeholders := make([]string, len(filter.EmployeeStatuses))
		for i, status := range filter.EmployeeStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("employee_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_time >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_time <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_time DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListSlaBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE committed_due_at IS NOT NULL
          AND committed_due_at < $1
          AND employee_status NOT IN ($2, $3)
          AND deleted_at IS NULL
        ORDER BY committed_due_at ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, now, domain.EmployeeStatusClosed, domain.EmployeeStatusDeclined)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func fetchTicket(ctx context.Context, q Querier, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(q.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.CustomerStatus,
		&ticket.EmployeeStatus,
		&ticket.PriorityID,
		&ticket.IssueChannelID,
		&ticket.IntakeSourceID,
		&ticket.ComplaintID,
		&ticket.PolicyID,
		&ticket.CustomerID,
		&ticket.RelatedAccountID,
		&ticket.RelatedCardID,
		&ticket.TerminalID,
		&ticket.ResponsibleEmployeeID,
		&ticket.Description,
		&ticket.CreatedTime,
		&ticket.CommittedDueAt,
		&ticket.ClosedTime,
		&ticket.DeletedAt,
		&ticket.DeletedBy,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

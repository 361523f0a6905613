package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-inventory/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	EventID   *string
	Type      *domain.TicketType
	Statuses  []domain.TicketStatus
	MinPrice  *float64
	MaxPrice  *float64
	ActiveAt  *time.Time
	MinRemain *int
	Limit     int
	Offset    int
}

// TicketRepository encapsulates ticket persistence. Update performs a
// version check and returns domain.ErrWriteConflict when the stored row has
// moved on, which is what the purchase coordinator retries against.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListExpirable(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, event_id, type, price, quota, remaining_quota, description,
               sale_start, sale_end, status, version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, event_id, type, price, quota, remaining_quota, description, sale_start, sale_end, status, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1)
        RETURNING version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.EventID,
		ticket.Type,
		ticket.Price,
		ticket.Quota,
		ticket.RemainingQuota,
		ticket.Description,
		ticket.SaleStart,
		ticket.SaleEnd,
		ticket.Status,
	).Scan(&ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET type=$1, price=$2, quota=$3, remaining_quota=$4, description=$5,
            sale_start=$6, sale_end=$7, status=$8, version=version+1, updated_at=NOW()
        WHERE id=$9 AND version=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Type,
		ticket.Price,
		ticket.Quota,
		ticket.RemainingQuota,
		ticket.Description,
		ticket.SaleStart,
		ticket.SaleEnd,
		ticket.Status,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Row missing entirely means not found; a present row with a newer
		// version means a concurrent writer won.
		exists, err := r.exists(ctx, ticket.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrWriteConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.Type,
		&ticket.Price,
		&ticket.Quota,
		&ticket.RemainingQuota,
		&ticket.Description,
		&ticket.SaleStart,
		&ticket.SaleEnd,
		&ticket.Status,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		clauses = append(clauses, fmt.Sprintf("event_id=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.ActiveAt != nil {
		args = append(args, *filter.ActiveAt)
		clauses = append(clauses, fmt.Sprintf("sale_start <= $%d AND sale_end >= $%d", len(args), len(args)))
	}
	if filter.MinRemain != nil {
		args = append(args, *filter.MinRemain)
		clauses = append(clauses, fmt.Sprintf("remaining_quota >= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListExpirable returns AVAILABLE tickets whose sale window has lapsed.
func (r *ticketRepository) ListExpirable(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE status=$1 AND sale_end < $2`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusAvailable, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.Type,
			&ticket.Price,
			&ticket.Quota,
			&ticket.RemainingQuota,
			&ticket.Description,
			&ticket.SaleStart,
			&ticket.SaleEnd,
			&ticket.Status,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

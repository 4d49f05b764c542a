package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/campusconnect/backend/core/queue"
)

type ticketRow struct {
	ID              string      `db:"id"`
	TicketNumber    string      `db:"ticket_number"`
	Service         string      `db:"service"`
	Department      string      `db:"department"`
	Description     string      `db:"description"`
	UserID          string      `db:"user_id"`
	HandledBy       null.String `db:"handled_by"`
	Status          string      `db:"status"`
	Position        int         `db:"position"`
	EstimatedTime   null.Time   `db:"estimated_time"`
	CompletedAt     null.Time   `db:"completed_at"`
	CancelledReason string      `db:"cancelled_reason"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (r ticketRow) toTicket() queue.Ticket {
	t := queue.Ticket{
		ID:              r.ID,
		TicketNumber:    r.TicketNumber,
		Service:         r.Service,
		Department:      r.Department,
		Description:     r.Description,
		UserID:          r.UserID,
		HandledBy:       r.HandledBy.String,
		Status:          r.Status,
		Position:        r.Position,
		CancelledReason: r.CancelledReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.EstimatedTime.Valid {
		eta := r.EstimatedTime.Time
		t.EstimatedTime = &eta
	}
	if r.CompletedAt.Valid {
		done := r.CompletedAt.Time
		t.CompletedAt = &done
	}
	return t
}

func toTickets(rows []ticketRow) []queue.Ticket {
	tickets := make([]queue.Ticket, len(rows))
	for i, r := range rows {
		tickets[i] = r.toTicket()
	}
	return tickets
}

const ticketColumns = `id, ticket_number, service, department, description, user_id, handled_by, status, position, estimated_time, completed_at, cancelled_reason, created_at, updated_at`

type queueRepository struct {
	db *sqlx.DB
}

var _ queue.Repository = (*queueRepository)(nil) // interface compliance check

func NewQueueRepository(db *sql.DB) queue.Repository {
	return &queueRepository{db: wrap(db)}
}

func (repo *queueRepository) CreateTicket(ctx context.Context, t queue.Ticket) (queue.Ticket, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(
		ctx,
		`INSERT INTO queue_ticket (`+ticketColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.TicketNumber, t.Service, t.Department, t.Description, t.UserID,
		null.NewString(t.HandledBy, t.HandledBy != ""), t.Status, t.Position,
		null.TimeFromPtr(t.EstimatedTime), null.TimeFromPtr(t.CompletedAt),
		t.CancelledReason, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return queue.Ticket{}, err
	}
	return t, nil
}

func (repo *queueRepository) GetTicketByID(ctx context.Context, id string) (queue.Ticket, error) {
	var r ticketRow
	err := repo.db.GetContext(ctx, &r, `SELECT `+ticketColumns+` FROM queue_ticket WHERE id = $1`, id)
	if isNoRows(err) {
		return queue.Ticket{}, queue.ErrNotFound
	} else if err != nil {
		return queue.Ticket{}, err
	}
	return r.toTicket(), nil
}

func (repo *queueRepository) GetTicketByIDForUser(ctx context.Context, id, userID string) (queue.Ticket, error) {
	var r ticketRow
	err := repo.db.GetContext(
		ctx, &r,
		`SELECT `+ticketColumns+` FROM queue_ticket WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if isNoRows(err) {
		return queue.Ticket{}, queue.ErrNotFound
	} else if err != nil {
		return queue.Ticket{}, err
	}
	return r.toTicket(), nil
}

func (repo *queueRepository) MaxActivePosition(ctx context.Context, service string) (int, error) {
	var max int
	err := repo.db.GetContext(
		ctx, &max,
		`SELECT COALESCE(MAX(position), 0) FROM queue_ticket WHERE service = $1 AND status = ANY($2)`,
		service, pq.Array(queue.ActiveStatuses),
	)
	return max, err
}

func (repo *queueRepository) QueryTicketsByUser(ctx context.Context, userID string) ([]queue.Ticket, error) {
	var rows []ticketRow
	err := repo.db.SelectContext(
		ctx, &rows,
		`SELECT `+ticketColumns+` FROM queue_ticket WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return toTickets(rows), nil
}

func (repo *queueRepository) QueryTicketsByService(ctx context.Context, service, status string) ([]queue.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM queue_ticket WHERE service = $1`
	args := []interface{}{service}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $2`
	}
	query += ` ORDER BY position, created_at`

	var rows []ticketRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toTickets(rows), nil
}

func (repo *queueRepository) QueryServices(ctx context.Context) ([]string, error) {
	var services []string
	err := repo.db.SelectContext(ctx, &services, `SELECT DISTINCT service FROM queue_ticket ORDER BY service`)
	return services, err
}

func (repo *queueRepository) UpdateTicket(ctx context.Context, t queue.Ticket) (queue.Ticket, error) {
	res, err := repo.db.ExecContext(
		ctx,
		`UPDATE queue_ticket SET
			handled_by = $2,
			status = $3,
			position = $4,
			estimated_time = $5,
			completed_at = $6,
			cancelled_reason = $7,
			updated_at = $8
		 WHERE id = $1`,
		t.ID, null.NewString(t.HandledBy, t.HandledBy != ""), t.Status, t.Position,
		null.TimeFromPtr(t.EstimatedTime), null.TimeFromPtr(t.CompletedAt),
		t.CancelledReason, time.Now().UTC(),
	)
	if err != nil {
		return queue.Ticket{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return queue.Ticket{}, queue.ErrNotFound
	}
	return t, nil
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusconnect/backend/core/lostfound"
)

type itemRow struct {
	ID            string         `db:"id"`
	Type          string         `db:"type"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Location      string         `db:"location"`
	ImageURL      string         `db:"image_url"`
	Question      string         `db:"question"`
	Options       pq.StringArray `db:"options"`
	CorrectAnswer string         `db:"correct_answer"`
	Status        string         `db:"status"`
	PostedBy      string         `db:"posted_by"`
	HistoryOf     pq.StringArray `db:"history_of"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r itemRow) toItem() lostfound.Item {
	return lostfound.Item{
		ID:            r.ID,
		Type:          r.Type,
		Title:         r.Title,
		Description:   r.Description,
		Location:      r.Location,
		ImageURL:      r.ImageURL,
		Question:      r.Question,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Status:        r.Status,
		PostedBy:      r.PostedBy,
		HistoryOf:     r.HistoryOf,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toItems(rows []itemRow) []lostfound.Item {
	items := make([]lostfound.Item, len(rows))
	for i, r := range rows {
		items[i] = r.toItem()
	}
	return items
}

const itemColumns = `id, type, title, description, location, image_url, question, options, correct_answer, status, posted_by, history_of, created_at, updated_at`

type itemRepository struct {
	db *sqlx.DB
}

var _ lostfound.Repository = (*itemRepository)(nil) // interface compliance check

func NewItemRepository(db *sql.DB) lostfound.Repository {
	return &itemRepository{db: wrap(db)}
}

func (repo *itemRepository) CreateItem(ctx context.Context, it lostfound.Item) (lostfound.Item, error) {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(
		ctx,
		`INSERT INTO item (`+itemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		it.ID, it.Type, it.Title, it.Description, it.Location, it.ImageURL,
		it.Question, pq.Array(it.Options), it.CorrectAnswer, it.Status, it.PostedBy,
		pq.Array(it.HistoryOf), it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return lostfound.Item{}, err
	}
	return it, nil
}

func (repo *itemRepository) GetItemByID(ctx context.Context, id string) (lostfound.Item, error) {
	var r itemRow
	err := repo.db.GetContext(ctx, &r, `SELECT `+itemColumns+` FROM item WHERE id = $1`, id)
	if isNoRows(err) {
		return lostfound.Item{}, lostfound.ErrNotFound
	} else if err != nil {
		return lostfound.Item{}, err
	}
	return r.toItem(), nil
}

// QueryOpenItemsByType returns candidates in posting order so score ties
// resolve to the earliest report.
func (repo *itemRepository) QueryOpenItemsByType(ctx context.Context, typ string) ([]lostfound.Item, error) {
	var rows []itemRow
	err := repo.db.SelectContext(
		ctx, &rows,
		`SELECT `+itemColumns+` FROM item WHERE type = $1 AND status = $2 ORDER BY created_at, id`,
		typ, lostfound.StatusOpen,
	)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

func (repo *itemRepository) SetItemStatus(ctx context.Context, id, status string) error {
	res, err := repo.db.ExecContext(
		ctx,
		`UPDATE item SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lostfound.ErrNotFound
	}
	return nil
}

func (repo *itemRepository) MarkItemReturned(ctx context.Context, id string, participants []string) error {
	res, err := repo.db.ExecContext(
		ctx,
		`UPDATE item SET
			status = $2,
			history_of = ARRAY(SELECT DISTINCT e FROM unnest(history_of || $3::uuid[]) AS e),
			updated_at = $4
		 WHERE id = $1`,
		id, lostfound.StatusReturned, pq.Array(participants), time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lostfound.ErrNotFound
	}
	return nil
}

func (repo *itemRepository) FilterItems(ctx context.Context, filter lostfound.QueryFilter) ([]lostfound.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item WHERE status NOT IN ($1, $2)`
	args := []interface{}{lostfound.StatusVerified, lostfound.StatusReturned}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $3`
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		p := "$3"
		if filter.Type != "" {
			p = "$4"
		}
		query += ` AND (title ILIKE ` + p + ` OR description ILIKE ` + p + ` OR location ILIKE ` + p + `)`
	}
	query += ` ORDER BY created_at DESC`

	var rows []itemRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

func (repo *itemRepository) QueryItemHistory(ctx context.Context, userID string) ([]lostfound.Item, error) {
	var rows []itemRow
	err := repo.db.SelectContext(
		ctx, &rows,
		`SELECT `+itemColumns+` FROM item
		 WHERE status IN ($2, $3) AND (posted_by = $1 OR $1::uuid = ANY(history_of))
		 ORDER BY updated_at DESC`,
		userID, lostfound.StatusVerified, lostfound.StatusReturned,
	)
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

func (repo *itemRepository) DeleteItem(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM item WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lostfound.ErrNotFound
	}
	return nil
}

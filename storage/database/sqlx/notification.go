package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusconnect/backend/core/notification"
)

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toNotification() notification.Notification {
	return notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		Type:      r.Type,
		Read:      r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sql.DB) notification.Repository {
	return &notificationRepository{db: wrap(db)}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(
		ctx,
		`INSERT INTO notification (id, user_id, message, type, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Message, n.Type, n.Read, n.CreatedAt,
	)
	if err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (repo *notificationRepository) QueryNotificationsByUser(ctx context.Context, userID string, limit int) ([]notification.Notification, error) {
	var rows []notificationRow
	err := repo.db.SelectContext(
		ctx, &rows,
		`SELECT id, user_id, message, type, is_read, created_at FROM notification
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	notifs := make([]notification.Notification, len(rows))
	for i, r := range rows {
		notifs[i] = r.toNotification()
	}
	return notifs, nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE notification SET is_read = true WHERE user_id = $1`, userID)
	return err
}

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/backend/core"
)

// latestLimit caps how many notifications a listing returns.
const latestLimit = 10

// Notification is an in-app message shown to a single user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryNotificationsByUser returns the user's latest notifications,
		// newest first, capped at limit.
		QueryNotificationsByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
		MarkAllRead(ctx context.Context, userID string) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create stores an in-app notification for the given user. Fire-and-forget:
// failures are logged and swallowed so a notification outage never fails the
// operation that triggered it.
func (svc *Service) Create(ctx context.Context, userID, message, typ string) {
	if typ == "" {
		typ = "general"
	}
	n := Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Message:   message,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := svc.repo.CreateNotification(ctx, n); err != nil {
		svc.logger.Warn(fmt.Sprintf("creating notification for %s: %v", userID, err))
	}
}

// ListMine returns the actor's latest notifications and the unread count.
func (svc *Service) ListMine(ctx context.Context, userID string) ([]Notification, int, error) {
	notifs, err := svc.repo.QueryNotificationsByUser(ctx, userID, latestLimit)
	if err != nil {
		return nil, 0, err
	}
	var unread int
	for _, n := range notifs {
		if !n.Read {
			unread++
		}
	}
	return notifs, unread, nil
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) error {
	return svc.repo.MarkAllRead(ctx, userID)
}

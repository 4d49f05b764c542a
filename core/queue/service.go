package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/user"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound     = errors.New("ticket not found")
	ErrStudentsOnly = errors.New("only students can join the queue")
	ErrNotActive    = errors.New("only active tickets can be cancelled")
)

type (
	Repository interface {
		CreateTicket(ctx context.Context, t Ticket) (Ticket, error)
		GetTicketByID(ctx context.Context, id string) (Ticket, error)
		GetTicketByIDForUser(ctx context.Context, id, userID string) (Ticket, error)
		// MaxActivePosition returns the highest position held by an active
		// ticket for the service, 0 when the line is empty.
		MaxActivePosition(ctx context.Context, service string) (int, error)
		QueryTicketsByUser(ctx context.Context, userID string) ([]Ticket, error)
		// QueryTicketsByService lists a service's tickets ordered by position
		// then creation time, optionally narrowed to one status.
		QueryTicketsByService(ctx context.Context, service, status string) ([]Ticket, error)
		// QueryServices lists the distinct service names seen so far, sorted.
		QueryServices(ctx context.Context) ([]string, error)
		UpdateTicket(ctx context.Context, t Ticket) (Ticket, error)
	}

	// Notifier creates in-app notifications, fire-and-forget.
	Notifier interface {
		Create(ctx context.Context, userID, message, typ string)
	}

	Service struct {
		repo  Repository
		notif Notifier
	}
)

func NewService(repo Repository, notif Notifier) *Service {
	return &Service{repo: repo, notif: notif}
}

// Join issues a ticket at the back of the service line. Position is one past
// the highest active position, so released slots are never reissued.
func (svc *Service) Join(ctx context.Context, actor user.User, nt NewTicket) (Ticket, error) {
	if !actor.IsStudent() {
		return Ticket{}, ErrStudentsOnly
	}

	dept := nt.Department
	if dept == "" {
		dept = actor.Department
	}

	highest, err := svc.repo.MaxActivePosition(ctx, nt.Service)
	if err != nil {
		return Ticket{}, pkgerrors.Wrap(err, "querying queue position")
	}

	now := nowFunc().UTC()
	t := Ticket{
		ID:           uuid.New().String(),
		TicketNumber: ticketNumber(nt.Service, now),
		Service:      nt.Service,
		Department:   dept,
		Description:  nt.Description,
		UserID:       actor.ID,
		Status:       StatusWaiting,
		Position:     highest + 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	t, err = svc.repo.CreateTicket(ctx, t)
	if err != nil {
		return Ticket{}, pkgerrors.Wrap(err, "creating ticket")
	}
	return t, nil
}

// ListMine lists the actor's tickets, newest first.
func (svc *Service) ListMine(ctx context.Context, actor user.User) ([]Ticket, error) {
	return svc.repo.QueryTicketsByUser(ctx, actor.ID)
}

// Cancel withdraws the actor's own active ticket and releases its position.
func (svc *Service) Cancel(ctx context.Context, actor user.User, id, reason string) (Ticket, error) {
	t, err := svc.repo.GetTicketByIDForUser(ctx, id, actor.ID)
	if err != nil {
		return Ticket{}, err
	}
	if !IsActiveStatus(t.Status) {
		return Ticket{}, ErrNotActive
	}

	if reason = core.CleanString(reason); reason == "" {
		reason = "Cancelled by user"
	}
	t.Status = StatusCancelled
	t.CancelledReason = reason
	t.Position = 0
	return svc.repo.UpdateTicket(ctx, t)
}

// ListServices lists the distinct service names (administrative).
func (svc *Service) ListServices(ctx context.Context) ([]string, error) {
	return svc.repo.QueryServices(ctx)
}

// ListQueue lists a service's tickets in line order (administrative).
func (svc *Service) ListQueue(ctx context.Context, service, status string) ([]Ticket, error) {
	service = core.CleanString(service)
	if service == "" {
		return nil, core.NewValidationError(
			errors.New("service is required"),
			core.FieldError{Field: "service", Error: "this field is required"},
		)
	}
	return svc.repo.QueryTicketsByService(ctx, service, core.CleanString(status, true /* lower */))
}

// UpdateStatus applies an administrative transition. Moving off an active
// status releases the ticket's position; the holder is notified of every
// user-visible transition.
func (svc *Service) UpdateStatus(ctx context.Context, actor user.User, id string, su StatusUpdate) (Ticket, error) {
	t, err := svc.repo.GetTicketByID(ctx, id)
	if err != nil {
		return Ticket{}, err
	}

	t.Status = su.Status
	if su.HandledBy != "" {
		t.HandledBy = su.HandledBy
	} else if su.Status == StatusCalled || su.Status == StatusServing {
		t.HandledBy = actor.ID
	}
	if su.EstimateMinutes > 0 {
		eta := nowFunc().UTC().Add(time.Duration(su.EstimateMinutes) * time.Minute)
		t.EstimatedTime = &eta
	}
	if su.Status == StatusCompleted {
		now := nowFunc().UTC()
		t.CompletedAt = &now
	}
	if su.Status == StatusCancelled {
		if t.CancelledReason = core.CleanString(su.Reason); t.CancelledReason == "" {
			t.CancelledReason = "Cancelled"
		}
	}
	if !IsActiveStatus(su.Status) {
		t.Position = 0
	}

	t, err = svc.repo.UpdateTicket(ctx, t)
	if err != nil {
		return Ticket{}, pkgerrors.Wrap(err, "updating ticket")
	}

	switch t.Status {
	case StatusCalled:
		svc.notif.Create(ctx, t.UserID, fmt.Sprintf("Your queue ticket for %q is being called. Please proceed to the counter.", t.Service), "queue")
	case StatusServing:
		svc.notif.Create(ctx, t.UserID, fmt.Sprintf("Your queue ticket for %q is now being served.", t.Service), "queue")
	case StatusCompleted:
		svc.notif.Create(ctx, t.UserID, fmt.Sprintf("Your queue ticket for %q has been completed.", t.Service), "queue")
	case StatusCancelled:
		svc.notif.Create(ctx, t.UserID, fmt.Sprintf("Your queue ticket for %q was cancelled.", t.Service), "queue")
	}
	return t, nil
}

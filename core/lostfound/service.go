package lostfound

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("item not found")
	ErrNotOwner      = errors.New("not your item")
	ErrItemFinalized = errors.New("item already verified/returned")
	ErrOpenClaims    = errors.New("item has active claims")
)

type (
	Repository interface {
		CreateItem(ctx context.Context, it Item) (Item, error)
		GetItemByID(ctx context.Context, id string) (Item, error)
		// QueryOpenItemsByType returns all items of the given type with status "open".
		QueryOpenItemsByType(ctx context.Context, typ string) ([]Item, error)
		SetItemStatus(ctx context.Context, id, status string) error
		// MarkItemReturned sets the item status to "returned" and appends the
		// given participants to its historyOf audit list.
		MarkItemReturned(ctx context.Context, id string, participants []string) error
		// FilterItems lists non-finalized items, optionally narrowed by type and
		// a case-insensitive search over title/description/location.
		FilterItems(ctx context.Context, filter QueryFilter) ([]Item, error)
		// QueryItemHistory lists finalized items the user posted or took part in.
		QueryItemHistory(ctx context.Context, userID string) ([]Item, error)
		DeleteItem(ctx context.Context, id string) error
	}

	// ClaimCounter reports how many claims in an active status reference an item.
	ClaimCounter interface {
		CountActiveClaimsByItem(ctx context.Context, itemID string) (int, error)
	}

	// UserDirectory resolves user identities referenced by items.
	UserDirectory interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
	}

	// Notifier creates in-app notifications, fire-and-forget.
	Notifier interface {
		Create(ctx context.Context, userID, message, typ string)
	}

	Service struct {
		repo    Repository
		claims  ClaimCounter
		users   UserDirectory
		mailSvc core.EmailService
		notif   Notifier
		logger  core.Logger
	}
)

func NewService(
	repo Repository,
	claims ClaimCounter,
	users UserDirectory,
	mailSvc core.EmailService,
	notif Notifier,
	logger core.Logger,
) *Service {
	return &Service{
		repo:    repo,
		claims:  claims,
		users:   users,
		mailSvc: mailSvc,
		notif:   notif,
		logger:  logger,
	}
}

// Create stores a new lost/found report and runs the matcher against all open
// reports of the opposite type. When the best candidate scores at or above the
// threshold, both items move to "matched" and both posters are notified. The
// returned Match is nil when no match was declared.
//
// Status mutations per invocation: exactly zero or two. All notifications are
// ordered after successful persistence.
func (svc *Service) Create(ctx context.Context, actor user.User, ni NewItem) (Item, *Match, error) {
	now := time.Now().UTC()
	it := Item{
		ID:            uuid.New().String(),
		Type:          ni.Type,
		Title:         ni.Title,
		Description:   ni.Description,
		Location:      ni.Location,
		ImageURL:      ni.ImageURL,
		Question:      ni.Question,
		Options:       ni.Options,
		CorrectAnswer: ni.CorrectAnswer,
		Status:        StatusOpen,
		PostedBy:      actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	it, err := svc.repo.CreateItem(ctx, it)
	if err != nil {
		return Item{}, nil, pkgerrors.Wrap(err, "creating item")
	}

	candidates, err := svc.repo.QueryOpenItemsByType(ctx, oppositeType(it.Type))
	if err != nil {
		return Item{}, nil, pkgerrors.Wrap(err, "querying match candidates")
	}

	best, score, ok := bestMatch(it, candidates)
	if !ok {
		return it, nil, nil
	}

	// Both saves must succeed before anyone is notified.
	if err = svc.repo.SetItemStatus(ctx, it.ID, StatusMatched); err != nil {
		return Item{}, nil, pkgerrors.Wrap(err, "marking new item matched")
	}
	if err = svc.repo.SetItemStatus(ctx, best.ID, StatusMatched); err != nil {
		return Item{}, nil, pkgerrors.Wrap(err, "marking candidate matched")
	}
	it.Status = StatusMatched
	best.Status = StatusMatched

	svc.notifyMatch(ctx, actor, it, best)
	return it, &Match{Item: best, Score: score}, nil
}

// notifyMatch emails and notifies both posters. Best-effort: failures are
// logged and never surface to the caller.
func (svc *Service) notifyMatch(ctx context.Context, actor user.User, it, best Item) {
	finder, owner := actor, actor
	if counterpart, err := svc.users.GetUserByID(ctx, best.PostedBy); err == nil {
		if it.Type == TypeFound {
			owner = counterpart
		} else {
			finder = counterpart
		}
	} else {
		svc.logger.Warn(fmt.Sprintf("match notification: resolving poster of %s: %v", best.ID, err))
		return
	}

	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:      []mail.Address{{Name: owner.Name, Address: owner.Email}},
			Subject: "Match found",
			Body:    fmt.Sprintf("We found a possible match for %q. Check CampusConnect.", it.Title),
		},
		&core.EmailMessage{
			To:      []mail.Address{{Name: finder.Name, Address: finder.Email}},
			Subject: "Match found",
			Body:    fmt.Sprintf("Someone might be the owner of %q. Check CampusConnect.", it.Title),
		},
	)
	svc.notif.Create(ctx, owner.ID, fmt.Sprintf("A possible match was found for %q.", it.Title), "lostfound")
	svc.notif.Create(ctx, finder.ID, fmt.Sprintf("Someone might be the owner of %q.", it.Title), "lostfound")
}

func (svc *Service) Get(ctx context.Context, id string) (Item, error) {
	return svc.repo.GetItemByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Item, error) {
	filter.Clean()
	return svc.repo.FilterItems(ctx, filter)
}

// History lists finalized items the actor posted or took part in resolving.
func (svc *Service) History(ctx context.Context, actor user.User) ([]Item, error) {
	return svc.repo.QueryItemHistory(ctx, actor.ID)
}

// Delete removes an item. Only the owner may delete, only while the item is
// not finalized and has no active claims referencing it (claims are an audit
// trail and are never orphaned).
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	it, err := svc.repo.GetItemByID(ctx, id)
	if err != nil {
		return err
	}
	if it.PostedBy != actor.ID {
		return ErrNotOwner
	}
	if it.IsFinalized() {
		return ErrItemFinalized
	}
	n, err := svc.claims.CountActiveClaimsByItem(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(err, "counting active claims")
	}
	if n > 0 {
		return ErrOpenClaims
	}
	return svc.repo.DeleteItem(ctx, id)
}

func oppositeType(typ string) string {
	if typ == TypeFound {
		return TypeLost
	}
	return TypeFound
}

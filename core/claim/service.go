package claim

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/lostfound"
	"github.com/campusconnect/backend/core/user"
)

// lockout applied to a claimant after a wrong verification answer
const (
	lockoutDays  = 7
	lockoutDelta = lockoutDays * 24 * time.Hour
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound    = errors.New("claim not found")
	ErrNotParty    = errors.New("not allowed")
	ErrClaimClosed = errors.New("claim already returned")
)

type (
	Repository interface {
		GetClaimByID(ctx context.Context, id string) (Claim, error)
		// GetActiveClaim returns the claim held by claimant on item while in an
		// active status (pending/approved/pending_handover), or ErrNotFound.
		GetActiveClaim(ctx context.Context, itemID, claimantID string) (Claim, error)
		// UpsertApproved atomically creates or updates the (item, claimant)
		// claim: status approved, lockout cleared. Raising a claim is idempotent.
		UpsertApproved(ctx context.Context, itemID, claimantID, counterpartyID, notes string) (Claim, error)
		// RecordFailedAttempt atomically creates or updates the (item, claimant)
		// claim after a wrong answer: attempts+1, lockedUntil set, status pending.
		RecordFailedAttempt(ctx context.Context, itemID, claimantID, counterpartyID string, lockedUntil time.Time, notes string) (Claim, error)
		// SetProof stores the given party's proof reference with a field-level
		// update (the other party's slot is never clobbered) and recomputes the
		// status: returned when both slots are set, pending_handover otherwise.
		SetProof(ctx context.Context, id string, party Party, ref string) (Claim, error)
		// QueryClaimsByUser lists claims where the user is claimant or counterparty.
		QueryClaimsByUser(ctx context.Context, userID string) ([]Claim, error)
		QueryAllClaims(ctx context.Context) ([]Claim, error)
		CountActiveClaimsByItem(ctx context.Context, itemID string) (int, error)
	}

	// ItemStore is the slice of the item repository the claim flow needs.
	ItemStore interface {
		GetItemByID(ctx context.Context, id string) (lostfound.Item, error)
		SetItemStatus(ctx context.Context, id, status string) error
		MarkItemReturned(ctx context.Context, id string, participants []string) error
	}

	// UserDirectory resolves user identities referenced by claims.
	UserDirectory interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
	}

	// Notifier creates in-app notifications, fire-and-forget.
	Notifier interface {
		Create(ctx context.Context, userID, message, typ string)
	}

	Service struct {
		repo    Repository
		items   ItemStore
		users   UserDirectory
		mailSvc core.EmailService
		notif   Notifier
		logger  core.Logger
	}
)

func NewService(
	repo Repository,
	items ItemStore,
	users UserDirectory,
	mailSvc core.EmailService,
	notif Notifier,
	logger core.Logger,
) *Service {
	return &Service{
		repo:    repo,
		items:   items,
		users:   users,
		mailSvc: mailSvc,
		notif:   notif,
		logger:  logger,
	}
}

// Raise asserts ownership of (or initiates a return for) the given item.
//
// Found items carrying a verification question require the matching answer;
// a wrong or empty answer increments the claimant's attempt counter and locks
// them out for 7 days (persisted on the claim, checked lazily). Lost items
// need no answer. Approval upserts the (item, claimant) claim, so repeated
// calls with the correct answer are idempotent.
func (svc *Service) Raise(ctx context.Context, actor user.User, itemID, selectedAnswer string) (Claim, error) {
	if itemID == "" {
		return Claim{}, core.NewValidationError(
			errors.New("item_id is required"),
			core.FieldError{Field: "item_id", Error: "this field is required"},
		)
	}

	it, err := svc.items.GetItemByID(ctx, itemID)
	if err != nil {
		return Claim{}, err
	}
	if it.IsFinalized() {
		return Claim{}, lostfound.ErrItemFinalized
	}

	if existing, err := svc.repo.GetActiveClaim(ctx, it.ID, actor.ID); err == nil {
		if existing.LockedAt(NowFunc()) {
			return Claim{}, &LockoutError{Until: *existing.LockedUntil}
		}
	} else if err != ErrNotFound {
		return Claim{}, pkgerrors.Wrap(err, "checking existing claim")
	}

	notes := "Return initiated for lost item"
	if it.Type == lostfound.TypeFound {
		notes = "Claim raised"
		if it.HasVerification() {
			given := normalizeAnswer(selectedAnswer)
			want := normalizeAnswer(it.CorrectAnswer)
			if given == "" || given != want {
				cl, err := svc.repo.RecordFailedAttempt(
					ctx, it.ID, actor.ID, it.PostedBy, NowFunc().Add(lockoutDelta), "Wrong answer attempt",
				)
				if err != nil {
					return Claim{}, pkgerrors.Wrap(err, "recording failed attempt")
				}
				return Claim{}, &WrongAnswerError{Attempts: cl.Attempts}
			}
			notes = "Answer correct / approved"
		}
	}

	cl, err := svc.repo.UpsertApproved(ctx, it.ID, actor.ID, it.PostedBy, notes)
	if err != nil {
		return Claim{}, pkgerrors.Wrap(err, "upserting claim")
	}

	// The handover flow is tracked on the Claim; the item stays "matched".
	if err = svc.items.SetItemStatus(ctx, it.ID, lostfound.StatusMatched); err != nil {
		return Claim{}, pkgerrors.Wrap(err, "marking item matched")
	}

	svc.notifyApproved(ctx, actor, it)
	return cl, nil
}

// UploadProof stores one party's proof of handover. The claim transitions to
// "returned" only once both slots are populated, commutatively in either
// submission order; "returned" is terminal and rejects further uploads.
func (svc *Service) UploadProof(ctx context.Context, actor user.User, claimID, proofRef string) (Claim, bool, error) {
	if proofRef == "" {
		return Claim{}, false, core.NewValidationError(
			errors.New("no file received"),
			core.FieldError{Field: "photo", Error: "this field is required"},
		)
	}

	cl, err := svc.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		return Claim{}, false, err
	}
	party, ok := cl.PartyOf(actor.ID)
	if !ok {
		return Claim{}, false, ErrNotParty
	}
	if cl.Status == StatusReturned {
		return Claim{}, false, ErrClaimClosed
	}

	cl, err = svc.repo.SetProof(ctx, cl.ID, party, proofRef)
	if err != nil {
		return Claim{}, false, pkgerrors.Wrap(err, "storing proof")
	}
	if !cl.Proof.Resolved() {
		return cl, false, nil
	}

	// Both proofs in: finalize the item and audit both participants.
	if err = svc.items.MarkItemReturned(ctx, cl.ItemID, []string{cl.ClaimantID, cl.CounterpartyID}); err != nil {
		return Claim{}, false, pkgerrors.Wrap(err, "marking item returned")
	}
	svc.notifyReturned(ctx, cl)
	return cl, true, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Claim, error) {
	return svc.repo.GetClaimByID(ctx, id)
}

// ListMine lists claims where the actor is claimant or counterparty.
func (svc *Service) ListMine(ctx context.Context, actor user.User) ([]Claim, error) {
	return svc.repo.QueryClaimsByUser(ctx, actor.ID)
}

// ListAll lists every claim (administrative).
func (svc *Service) ListAll(ctx context.Context) ([]Claim, error) {
	return svc.repo.QueryAllClaims(ctx)
}

// notifyApproved emails both parties and creates in-app notifications.
// Best-effort: failures are logged and never fail the claim.
func (svc *Service) notifyApproved(ctx context.Context, claimant user.User, it lostfound.Item) {
	counterparty, err := svc.users.GetUserByID(ctx, it.PostedBy)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("claim notification: resolving poster of %s: %v", it.ID, err))
		return
	}

	kind := "return"
	if it.Type == lostfound.TypeFound {
		kind = "claim"
	}
	subject := fmt.Sprintf("Claim approved for %q", it.Title)

	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:      []mail.Address{{Name: counterparty.Name, Address: counterparty.Email}},
			Subject: subject,
			Body: fmt.Sprintf(
				"Hi %s,\n\n%s has raised a %s for %q.\n"+
					"Please coordinate handover. You will both need to upload proof of return to mark it completed.\n\n"+
					"- CampusConnect Lost & Found",
				counterparty.Name, claimant.Name, kind, it.Title,
			),
		},
		&core.EmailMessage{
			To:      []mail.Address{{Name: claimant.Name, Address: claimant.Email}},
			Subject: subject,
			Body: fmt.Sprintf(
				"Hi %s,\n\nYour %s for %q has been approved.\n"+
					"Please meet the other party and upload proof of handover. "+
					"Once both parties upload proof, this will be marked as Returned.\n\n"+
					"- CampusConnect Lost & Found",
				claimant.Name, kind, it.Title,
			),
		},
	)
	svc.notif.Create(ctx, counterparty.ID, fmt.Sprintf("A %s was raised for %q.", kind, it.Title), "claim")
	svc.notif.Create(ctx, claimant.ID, fmt.Sprintf("Your %s for %q has been approved.", kind, it.Title), "claim")
}

// notifyReturned emails both parties once the handover resolved.
func (svc *Service) notifyReturned(ctx context.Context, cl Claim) {
	it, err := svc.items.GetItemByID(ctx, cl.ItemID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("return notification: resolving item %s: %v", cl.ItemID, err))
		return
	}
	subject := fmt.Sprintf("Return confirmed for %q", it.Title)
	body := fmt.Sprintf(
		"Hello,\n\nBoth parties uploaded return proof for %q. This item is now marked as Returned.\n\n"+
			"- CampusConnect Lost & Found",
		it.Title,
	)

	messages := make([]*core.EmailMessage, 0, 2)
	for _, id := range []string{cl.ClaimantID, cl.CounterpartyID} {
		usr, err := svc.users.GetUserByID(ctx, id)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("return notification: resolving user %s: %v", id, err))
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: subject,
			Body:    body,
		})
		svc.notif.Create(ctx, usr.ID, fmt.Sprintf("%q has been returned.", it.Title), "claim")
	}
	svc.mailSvc.SendMessages(messages...)
}

// normalizeAnswer trims and lowercases a verification answer for comparison.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

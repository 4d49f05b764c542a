package claim

import (
	"fmt"
	"time"
)

// Claim statuses. Normal progression:
// pending -> approved -> pending_handover -> returned.
// rejected and expired are alternate absorbing states (expired is reserved,
// no in-scope transition produces it yet).
const (
	StatusPending         = "pending"
	StatusApproved        = "approved"
	StatusPendingHandover = "pending_handover"
	StatusReturned        = "returned"
	StatusRejected        = "rejected"
	StatusExpired         = "expired"
)

// ActiveStatuses are the statuses in which a claim still holds the
// (item, claimant) slot and counts against the item.
var ActiveStatuses = []string{StatusPending, StatusApproved, StatusPendingHandover}

// Party identifies which side of a claim an actor is on.
type Party string

const (
	PartyClaimant     Party = "claimant"
	PartyCounterparty Party = "counterparty"
)

// HandoverProof holds the two independently-submitted proof references.
// The claim resolves only when both are present, regardless of order.
type HandoverProof struct {
	Claimant     string `json:"claimant,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
}

// Resolved reports whether both parties have submitted proof.
func (p HandoverProof) Resolved() bool {
	return p.Claimant != "" && p.Counterparty != ""
}

// Claim is an assertion of ownership (or a return initiation) against an
// item. At most one claim exists per (item, claimant) pair; claims are never
// deleted (audit trail).
type Claim struct {
	ID             string        `json:"id"`
	ItemID         string        `json:"item_id"`
	ClaimantID     string        `json:"claimant_id"`
	CounterpartyID string        `json:"counterparty_id"`
	Status         string        `json:"status"`
	Attempts       int           `json:"attempts"`
	LockedUntil    *time.Time    `json:"locked_until,omitempty"`
	Proof          HandoverProof `json:"image_proof"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"created_at"` // UTC
	UpdatedAt      time.Time     `json:"updated_at"` // UTC
}

// PartyOf returns the side userID is on, ok=false when the user is neither.
func (c *Claim) PartyOf(userID string) (Party, bool) {
	switch userID {
	case c.ClaimantID:
		return PartyClaimant, true
	case c.CounterpartyID:
		return PartyCounterparty, true
	}
	return "", false
}

// LockedAt reports whether the claimant is still locked out at time t.
// The lockout is a lazily-checked persisted deadline, there is no sweeper.
func (c *Claim) LockedAt(t time.Time) bool {
	return c.LockedUntil != nil && t.Before(*c.LockedUntil)
}

// LockoutError rejects a claim attempt made before the lockout deadline.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("you are locked from claiming this item until %s", e.Until.UTC().Format("2006-01-02 15:04"))
}

// WrongAnswerError rejects a claim attempt with a failed verification answer.
type WrongAnswerError struct {
	Attempts int
}

func (e *WrongAnswerError) Error() string {
	return fmt.Sprintf("incorrect verification answer, you are locked for %d days", lockoutDays)
}

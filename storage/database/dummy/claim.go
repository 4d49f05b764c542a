package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/backend/core/claim"
)

type claimRepository struct {
	db *claimTable
}

var _ claim.Repository = (*claimRepository)(nil) // interface compliance check

func NewClaimRepository(db *DB) claim.Repository {
	return &claimRepository{db: db.claim}
}

func (repo *claimRepository) query() []claim.Claim {
	claims := make([]claim.Claim, 0, len(repo.db.table))
	for _, cl := range repo.db.table {
		claims = append(claims, *cl)
	}
	// newest activity first
	sort.Slice(claims, func(i, j int) bool {
		if claims[i].UpdatedAt.Equal(claims[j].UpdatedAt) {
			return claims[i].ID < claims[j].ID
		}
		return claims[i].UpdatedAt.After(claims[j].UpdatedAt)
	})
	return claims
}

// get returns the single claim keyed by (item, claimant), or nil.
func (repo *claimRepository) get(itemID, claimantID string) *claim.Claim {
	for _, cl := range repo.db.table {
		if cl.ItemID == itemID && cl.ClaimantID == claimantID {
			return cl
		}
	}
	return nil
}

func (repo *claimRepository) GetClaimByID(ctx context.Context, id string) (claim.Claim, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cl, ok := repo.db.table[id]; ok {
		return *cl, nil
	}
	return claim.Claim{}, claim.ErrNotFound
}

func (repo *claimRepository) GetActiveClaim(ctx context.Context, itemID, claimantID string) (claim.Claim, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cl := repo.get(itemID, claimantID); cl != nil && isActive(cl.Status) {
		return *cl, nil
	}
	return claim.Claim{}, claim.ErrNotFound
}

func (repo *claimRepository) UpsertApproved(ctx context.Context, itemID, claimantID, counterpartyID, notes string) (claim.Claim, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	cl := repo.get(itemID, claimantID)
	if cl == nil {
		cl = &claim.Claim{
			ID:         uuid.New().String(),
			ItemID:     itemID,
			ClaimantID: claimantID,
			CreatedAt:  now,
		}
		repo.db.table[cl.ID] = cl
	}
	cl.CounterpartyID = counterpartyID
	cl.Status = claim.StatusApproved
	cl.LockedUntil = nil
	cl.Notes = notes
	cl.UpdatedAt = now
	return *cl, nil
}

func (repo *claimRepository) RecordFailedAttempt(ctx context.Context, itemID, claimantID, counterpartyID string, lockedUntil time.Time, notes string) (claim.Claim, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	cl := repo.get(itemID, claimantID)
	if cl == nil {
		cl = &claim.Claim{
			ID:         uuid.New().String(),
			ItemID:     itemID,
			ClaimantID: claimantID,
			CreatedAt:  now,
		}
		repo.db.table[cl.ID] = cl
	}
	cl.CounterpartyID = counterpartyID
	cl.Status = claim.StatusPending
	cl.Attempts++
	cl.LockedUntil = &lockedUntil
	cl.Notes = notes
	cl.UpdatedAt = now
	return *cl, nil
}

func (repo *claimRepository) SetProof(ctx context.Context, id string, party claim.Party, ref string) (claim.Claim, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cl, ok := repo.db.table[id]
	if !ok {
		return claim.Claim{}, claim.ErrNotFound
	}
	switch party {
	case claim.PartyClaimant:
		cl.Proof.Claimant = ref
	case claim.PartyCounterparty:
		cl.Proof.Counterparty = ref
	}
	if cl.Proof.Resolved() {
		cl.Status = claim.StatusReturned
	} else {
		cl.Status = claim.StatusPendingHandover
	}
	cl.UpdatedAt = time.Now().UTC()
	return *cl, nil
}

func (repo *claimRepository) QueryClaimsByUser(ctx context.Context, userID string) ([]claim.Claim, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var claims []claim.Claim
	for _, cl := range repo.query() {
		if cl.ClaimantID == userID || cl.CounterpartyID == userID {
			claims = append(claims, cl)
		}
	}
	return claims, nil
}

func (repo *claimRepository) QueryAllClaims(ctx context.Context) ([]claim.Claim, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *claimRepository) CountActiveClaimsByItem(ctx context.Context, itemID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, cl := range repo.db.table {
		if cl.ItemID == itemID && isActive(cl.Status) {
			n++
		}
	}
	return n, nil
}

func isActive(status string) bool {
	for _, s := range claim.ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

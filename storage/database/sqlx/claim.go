package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/campusconnect/backend/core/claim"
)

type claimRow struct {
	ID                string    `db:"id"`
	ItemID            string    `db:"item_id"`
	ClaimantID        string    `db:"claimant_id"`
	CounterpartyID    string    `db:"counterparty_id"`
	Status            string    `db:"status"`
	Attempts          int       `db:"attempts"`
	LockedUntil       null.Time `db:"locked_until"`
	ProofClaimant     string    `db:"proof_claimant"`
	ProofCounterparty string    `db:"proof_counterparty"`
	Notes             string    `db:"notes"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r claimRow) toClaim() claim.Claim {
	cl := claim.Claim{
		ID:             r.ID,
		ItemID:         r.ItemID,
		ClaimantID:     r.ClaimantID,
		CounterpartyID: r.CounterpartyID,
		Status:         r.Status,
		Attempts:       r.Attempts,
		Proof: claim.HandoverProof{
			Claimant:     r.ProofClaimant,
			Counterparty: r.ProofCounterparty,
		},
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.LockedUntil.Valid {
		t := r.LockedUntil.Time
		cl.LockedUntil = &t
	}
	return cl
}

func toClaims(rows []claimRow) []claim.Claim {
	claims := make([]claim.Claim, len(rows))
	for i, r := range rows {
		claims[i] = r.toClaim()
	}
	return claims
}

const claimColumns = `id, item_id, claimant_id, counterparty_id, status, attempts, locked_until, proof_claimant, proof_counterparty, notes, created_at, updated_at`

type claimRepository struct {
	db *sqlx.DB
}

var _ claim.Repository = (*claimRepository)(nil) // interface compliance check

func NewClaimRepository(db *sql.DB) claim.Repository {
	return &claimRepository{db: wrap(db)}
}

func (repo *claimRepository) GetClaimByID(ctx context.Context, id string) (claim.Claim, error) {
	var r claimRow
	err := repo.db.GetContext(ctx, &r, `SELECT `+claimColumns+` FROM claim WHERE id = $1`, id)
	if isNoRows(err) {
		return claim.Claim{}, claim.ErrNotFound
	} else if err != nil {
		return claim.Claim{}, err
	}
	return r.toClaim(), nil
}

func (repo *claimRepository) GetActiveClaim(ctx context.Context, itemID, claimantID string) (claim.Claim, error) {
	var r claimRow
	err := repo.db.GetContext(
		ctx, &r,
		`SELECT `+claimColumns+` FROM claim
		 WHERE item_id = $1 AND claimant_id = $2 AND status = ANY($3)`,
		itemID, claimantID, pq.Array(claim.ActiveStatuses),
	)
	if isNoRows(err) {
		return claim.Claim{}, claim.ErrNotFound
	} else if err != nil {
		return claim.Claim{}, err
	}
	return r.toClaim(), nil
}

// UpsertApproved relies on the (item_id, claimant_id) unique constraint so
// concurrent raises collapse into one row.
func (repo *claimRepository) UpsertApproved(ctx context.Context, itemID, claimantID, counterpartyID, notes string) (claim.Claim, error) {
	now := time.Now().UTC()
	var r claimRow
	err := repo.db.GetContext(
		ctx, &r,
		`INSERT INTO claim (id, item_id, claimant_id, counterparty_id, status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (item_id, claimant_id) DO UPDATE SET
			counterparty_id = EXCLUDED.counterparty_id,
			status = EXCLUDED.status,
			locked_until = NULL,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		 RETURNING `+claimColumns,
		uuid.New().String(), itemID, claimantID, counterpartyID, claim.StatusApproved, notes, now,
	)
	if err != nil {
		return claim.Claim{}, err
	}
	return r.toClaim(), nil
}

func (repo *claimRepository) RecordFailedAttempt(ctx context.Context, itemID, claimantID, counterpartyID string, lockedUntil time.Time, notes string) (claim.Claim, error) {
	now := time.Now().UTC()
	var r claimRow
	err := repo.db.GetContext(
		ctx, &r,
		`INSERT INTO claim (id, item_id, claimant_id, counterparty_id, status, attempts, locked_until, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 1, $6, $7, $8, $8)
		 ON CONFLICT (item_id, claimant_id) DO UPDATE SET
			counterparty_id = EXCLUDED.counterparty_id,
			status = EXCLUDED.status,
			attempts = claim.attempts + 1,
			locked_until = EXCLUDED.locked_until,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		 RETURNING `+claimColumns,
		uuid.New().String(), itemID, claimantID, counterpartyID, claim.StatusPending, lockedUntil, notes, now,
	)
	if err != nil {
		return claim.Claim{}, err
	}
	return r.toClaim(), nil
}

// SetProof updates only the acting party's slot; the status is recomputed in
// the same statement so two concurrent uploads still land on "returned".
func (repo *claimRepository) SetProof(ctx context.Context, id string, party claim.Party, ref string) (claim.Claim, error) {
	column := "proof_claimant"
	other := "proof_counterparty"
	if party == claim.PartyCounterparty {
		column, other = other, column
	}

	var r claimRow
	err := repo.db.GetContext(
		ctx, &r,
		`UPDATE claim SET
			`+column+` = $2,
			status = CASE WHEN `+other+` <> '' THEN $3 ELSE $4 END,
			updated_at = $5
		 WHERE id = $1
		 RETURNING `+claimColumns,
		id, ref, claim.StatusReturned, claim.StatusPendingHandover, time.Now().UTC(),
	)
	if isNoRows(err) {
		return claim.Claim{}, claim.ErrNotFound
	} else if err != nil {
		return claim.Claim{}, err
	}
	return r.toClaim(), nil
}

func (repo *claimRepository) QueryClaimsByUser(ctx context.Context, userID string) ([]claim.Claim, error) {
	var rows []claimRow
	err := repo.db.SelectContext(
		ctx, &rows,
		`SELECT `+claimColumns+` FROM claim
		 WHERE claimant_id = $1 OR counterparty_id = $1
		 ORDER BY updated_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return toClaims(rows), nil
}

func (repo *claimRepository) QueryAllClaims(ctx context.Context) ([]claim.Claim, error) {
	var rows []claimRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT `+claimColumns+` FROM claim ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	return toClaims(rows), nil
}

func (repo *claimRepository) CountActiveClaimsByItem(ctx context.Context, itemID string) (int, error) {
	var n int
	err := repo.db.GetContext(
		ctx, &n,
		`SELECT COUNT(*) FROM claim WHERE item_id = $1 AND status = ANY($2)`,
		itemID, pq.Array(claim.ActiveStatuses),
	)
	return n, err
}

package claim_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/claim"
	"github.com/campusconnect/backend/core/lostfound"
	"github.com/campusconnect/backend/core/notification"
	"github.com/campusconnect/backend/core/user"
	emailsvc "github.com/campusconnect/backend/services/email"
	logsvc "github.com/campusconnect/backend/services/logger"
	dummydb "github.com/campusconnect/backend/storage/database/dummy"
)

type testEnv struct {
	svc   *claim.Service
	repo  claim.Repository
	items lostfound.Repository
	users user.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	emailsvc.ClearSentMessages()
	claim.NowFunc = time.Now
	t.Cleanup(func() { claim.NowFunc = time.Now })

	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := &core.Config{AppName: "CampusConnect", DefaultFromName: "CampusConnect", DefaultFromAddr: "noreply@campusconnect.test"}
	logger := logsvc.NewTestLogger(t)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	userRepo := dummydb.NewUserRepository(db)
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), logger)
	itemRepo := dummydb.NewItemRepository(db)
	claimRepo := dummydb.NewClaimRepository(db)

	return &testEnv{
		svc:   claim.NewService(claimRepo, itemRepo, userRepo, mailSvc, notifSvc, logger),
		repo:  claimRepo,
		items: itemRepo,
		users: userRepo,
	}
}

func createUser(t *testing.T, repo user.Repository, name, email string) user.User {
	t.Helper()
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:     name,
		Username: name,
		Email:    email,
		IsActive: true,
		Roles:    []string{user.RoleStudent},
	})
	require.NoError(t, err)
	return usr
}

func createItem(t *testing.T, repo lostfound.Repository, posterID, typ string, verification bool) lostfound.Item {
	t.Helper()
	now := time.Now().UTC()
	it := lostfound.Item{
		Type:        typ,
		Title:       "black wallet",
		Description: "leather",
		Location:    "library",
		Status:      lostfound.StatusOpen,
		PostedBy:    posterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if verification {
		it.Question = "What is inside?"
		it.Options = []string{"two cards", "cash", "nothing"}
		it.CorrectAnswer = "two cards"
	}
	it, err := repo.CreateItem(context.Background(), it)
	require.NoError(t, err)
	return it
}

func TestServiceRaise(t *testing.T) {
	ctx := context.Background()

	t.Run("lost item needs no answer", func(t *testing.T) {
		env := setup(t)
		owner := createUser(t, env.users, "amina", "amina@campus.test")
		finder := createUser(t, env.users, "brian", "brian@campus.test")
		it := createItem(t, env.items, owner.ID, lostfound.TypeLost, false)

		cl, err := env.svc.Raise(ctx, finder, it.ID, "")
		require.NoError(t, err)
		assert.Equal(t, claim.StatusApproved, cl.Status)
		assert.Equal(t, finder.ID, cl.ClaimantID)
		assert.Equal(t, owner.ID, cl.CounterpartyID)

		stored, err := env.items.GetItemByID(ctx, it.ID)
		require.NoError(t, err)
		assert.Equal(t, lostfound.StatusMatched, stored.Status)
	})

	t.Run("correct answer approves", func(t *testing.T) {
		env := setup(t)
		finder := createUser(t, env.users, "brian", "brian@campus.test")
		claimant := createUser(t, env.users, "amina", "amina@campus.test")
		it := createItem(t, env.items, finder.ID, lostfound.TypeFound, true)

		// comparison ignores case and surrounding space
		cl, err := env.svc.Raise(ctx, claimant, it.ID, "  Two Cards ")
		require.NoError(t, err)
		assert.Equal(t, claim.StatusApproved, cl.Status)
		assert.Zero(t, cl.Attempts)
		assert.Nil(t, cl.LockedUntil)
	})

	t.Run("raising twice is idempotent", func(t *testing.T) {
		env := setup(t)
		finder := createUser(t, env.users, "brian", "brian@campus.test")
		claimant := createUser(t, env.users, "amina", "amina@campus.test")
		it := createItem(t, env.items, finder.ID, lostfound.TypeFound, true)

		first, err := env.svc.Raise(ctx, claimant, it.ID, "two cards")
		require.NoError(t, err)
		second, err := env.svc.Raise(ctx, claimant, it.ID, "two cards")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		n, err := env.repo.CountActiveClaimsByItem(ctx, it.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("wrong answer locks for 7 days", func(t *testing.T) {
		env := setup(t)
		finder := createUser(t, env.users, "brian", "brian@campus.test")
		claimant := createUser(t, env.users, "amina", "amina@campus.test")
		it := createItem(t, env.items, finder.ID, lostfound.TypeFound, true)

		start := time.Now().UTC()
		claim.NowFunc = func() time.Time { return start }

		_, err := env.svc.Raise(ctx, claimant, it.ID, "cash")
		var wrongErr *claim.WrongAnswerError
		require.True(t, errors.As(err, &wrongErr))
		assert.Equal(t, 1, wrongErr.Attempts)

		// still locked on day 6, even with the correct answer
		claim.NowFunc = func() time.Time { return start.Add(6 * 24 * time.Hour) }
		_, err = env.svc.Raise(ctx, claimant, it.ID, "two cards")
		var lockErr *claim.LockoutError
		require.True(t, errors.As(err, &lockErr))
		assert.Equal(t, start.Add(7*24*time.Hour), lockErr.Until)

		// lockout expires after 7 days
		claim.NowFunc = func() time.Time { return start.Add(7*24*time.Hour + time.Minute) }
		cl, err := env.svc.Raise(ctx, claimant, it.ID, "two cards")
		require.NoError(t, err)
		assert.Equal(t, claim.StatusApproved, cl.Status)
		assert.Equal(t, 1, cl.Attempts)
		assert.Nil(t, cl.LockedUntil)
	})

	t.Run("attempts accumulate across lockouts", func(t *testing.T) {
		env := setup(t)
		finder := createUser(t, env.users, "brian", "brian@campus.test")
		claimant := createUser(t, env.users, "amina", "amina@campus.test")
		it := createItem(t, env.items, finder.ID, lostfound.TypeFound, true)

		start := time.Now().UTC()
		claim.NowFunc = func() time.Time { return start }
		_, err := env.svc.Raise(ctx, claimant, it.ID, "cash")
		require.Error(t, err)

		claim.NowFunc = func() time.Time { return start.Add(8 * 24 * time.Hour) }
		_, err = env.svc.Raise(ctx, claimant, it.ID, "nothing")
		var wrongErr *claim.WrongAnswerError
		require.True(t, errors.As(err, &wrongErr))
		assert.Equal(t, 2, wrongErr.Attempts)
	})

	t.Run("lockout does not block other claimants", func(t *testing.T) {
		env := setup(t)
		finder := createUser(t, env.users, "brian", "brian@campus.test")
		locked := createUser(t, env.users, "amina", "amina@campus.test")
		other := createUser(t, env.users, "chiara", "chiara@campus.test")
		it := createItem(t, env.items, finder.ID, lostfound.TypeFound, true)

		_, err := env.svc.Raise(ctx, locked, it.ID, "cash")
		require.Error(t, err)

		cl, err := env.svc.Raise(ctx, other, it.ID, "two cards")
		require.NoError(t, err)
		assert.Equal(t, claim.StatusApproved, cl.Status)
	})

	t.Run("finalized item rejects claims", func(t *testing.T) {
		env := setup(t)
		finder := createUser(t, env.users, "brian", "brian@campus.test")
		claimant := createUser(t, env.users, "amina", "amina@campus.test")
		it := createItem(t, env.items, finder.ID, lostfound.TypeFound, false)
		require.NoError(t, env.items.SetItemStatus(ctx, it.ID, lostfound.StatusReturned))

		_, err := env.svc.Raise(ctx, claimant, it.ID, "")
		assert.Equal(t, lostfound.ErrItemFinalized, err)
	})

	t.Run("missing item", func(t *testing.T) {
		env := setup(t)
		claimant := createUser(t, env.users, "amina", "amina@campus.test")
		_, err := env.svc.Raise(ctx, claimant, "nope", "")
		assert.Equal(t, lostfound.ErrNotFound, err)
	})
}

func TestServiceUploadProof(t *testing.T) {
	ctx := context.Background()

	raise := func(t *testing.T, env *testEnv) (claimant, counterparty user.User, cl claim.Claim) {
		t.Helper()
		counterparty = createUser(t, env.users, "brian", "brian@campus.test")
		claimant = createUser(t, env.users, "amina", "amina@campus.test")
		it := createItem(t, env.items, counterparty.ID, lostfound.TypeFound, false)
		cl, err := env.svc.Raise(ctx, claimant, it.ID, "")
		require.NoError(t, err)
		return claimant, counterparty, cl
	}

	t.Run("first proof holds at pending_handover", func(t *testing.T) {
		env := setup(t)
		claimant, _, cl := raise(t, env)

		got, resolved, err := env.svc.UploadProof(ctx, claimant, cl.ID, "/uploads/a.jpg")
		require.NoError(t, err)
		assert.False(t, resolved)
		assert.Equal(t, claim.StatusPendingHandover, got.Status)
		assert.Equal(t, "/uploads/a.jpg", got.Proof.Claimant)
		assert.Empty(t, got.Proof.Counterparty)

		// item untouched until both proofs are in
		stored, err := env.items.GetItemByID(ctx, cl.ItemID)
		require.NoError(t, err)
		assert.Equal(t, lostfound.StatusMatched, stored.Status)
	})

	t.Run("second proof resolves regardless of order", func(t *testing.T) {
		for _, firstIsClaimant := range []bool{true, false} {
			env := setup(t)
			claimant, counterparty, cl := raise(t, env)
			first, second := claimant, counterparty
			if !firstIsClaimant {
				first, second = counterparty, claimant
			}

			_, resolved, err := env.svc.UploadProof(ctx, first, cl.ID, "/uploads/a.jpg")
			require.NoError(t, err)
			require.False(t, resolved)

			got, resolved, err := env.svc.UploadProof(ctx, second, cl.ID, "/uploads/b.jpg")
			require.NoError(t, err)
			assert.True(t, resolved)
			assert.Equal(t, claim.StatusReturned, got.Status)
			assert.NotEmpty(t, got.Proof.Claimant)
			assert.NotEmpty(t, got.Proof.Counterparty)

			stored, err := env.items.GetItemByID(ctx, cl.ItemID)
			require.NoError(t, err)
			assert.Equal(t, lostfound.StatusReturned, stored.Status)
			assert.ElementsMatch(t, []string{claimant.ID, counterparty.ID}, stored.HistoryOf)
		}
	})

	t.Run("re-upload keeps the other slot", func(t *testing.T) {
		env := setup(t)
		claimant, _, cl := raise(t, env)

		_, _, err := env.svc.UploadProof(ctx, claimant, cl.ID, "/uploads/a.jpg")
		require.NoError(t, err)
		got, resolved, err := env.svc.UploadProof(ctx, claimant, cl.ID, "/uploads/retake.jpg")
		require.NoError(t, err)
		assert.False(t, resolved)
		assert.Equal(t, "/uploads/retake.jpg", got.Proof.Claimant)
		assert.Empty(t, got.Proof.Counterparty)
	})

	t.Run("third party is rejected", func(t *testing.T) {
		env := setup(t)
		_, _, cl := raise(t, env)
		stranger := createUser(t, env.users, "chiara", "chiara@campus.test")

		_, _, err := env.svc.UploadProof(ctx, stranger, cl.ID, "/uploads/a.jpg")
		assert.Equal(t, claim.ErrNotParty, err)
	})

	t.Run("returned is terminal", func(t *testing.T) {
		env := setup(t)
		claimant, counterparty, cl := raise(t, env)

		_, _, err := env.svc.UploadProof(ctx, claimant, cl.ID, "/uploads/a.jpg")
		require.NoError(t, err)
		_, resolved, err := env.svc.UploadProof(ctx, counterparty, cl.ID, "/uploads/b.jpg")
		require.NoError(t, err)
		require.True(t, resolved)

		_, _, err = env.svc.UploadProof(ctx, claimant, cl.ID, "/uploads/late.jpg")
		assert.Equal(t, claim.ErrClaimClosed, err)
	})

	t.Run("empty proof reference", func(t *testing.T) {
		env := setup(t)
		claimant, _, cl := raise(t, env)
		_, _, err := env.svc.UploadProof(ctx, claimant, cl.ID, "")
		assert.Error(t, err)
	})
}

func TestServiceListMine(t *testing.T) {
	ctx := context.Background()

	env := setup(t)
	counterparty := createUser(t, env.users, "brian", "brian@campus.test")
	claimant := createUser(t, env.users, "amina", "amina@campus.test")
	stranger := createUser(t, env.users, "chiara", "chiara@campus.test")
	it := createItem(t, env.items, counterparty.ID, lostfound.TypeFound, false)

	_, err := env.svc.Raise(ctx, claimant, it.ID, "")
	require.NoError(t, err)

	for _, tc := range []struct {
		name string
		usr  user.User
		want int
	}{
		{"claimant", claimant, 1},
		{"counterparty", counterparty, 1},
		{"stranger", stranger, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := env.svc.ListMine(ctx, tc.usr)
			require.NoError(t, err)
			assert.Len(t, claims, tc.want)
		})
	}
}

func TestServiceListNewestActivityFirst(t *testing.T) {
	ctx := context.Background()

	env := setup(t)
	counterparty := createUser(t, env.users, "brian", "brian@campus.test")
	claimant := createUser(t, env.users, "amina", "amina@campus.test")
	first := createItem(t, env.items, counterparty.ID, lostfound.TypeLost, false)
	second := createItem(t, env.items, counterparty.ID, lostfound.TypeLost, false)

	older, err := env.svc.Raise(ctx, claimant, first.ID, "")
	require.NoError(t, err)
	newer, err := env.svc.Raise(ctx, claimant, second.ID, "")
	require.NoError(t, err)

	claims, err := env.svc.ListMine(ctx, claimant)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, newer.ID, claims[0].ID)

	// a proof upload bumps the older claim back to the top
	_, _, err = env.svc.UploadProof(ctx, claimant, older.ID, "/uploads/a.jpg")
	require.NoError(t, err)

	claims, err = env.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, older.ID, claims[0].ID)
}

package problem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/backend/core/problem"
	"github.com/campusconnect/backend/core/user"
	dummydb "github.com/campusconnect/backend/storage/database/dummy"
)

func setup(t *testing.T) *problem.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return problem.NewService(dummydb.NewProblemRepository(db))
}

func testUser(id, name, dept string, roles ...string) user.User {
	return user.User{ID: id, Name: name, Email: name + "@campus.test", Department: dept, IsActive: true, Roles: roles}
}

func TestServiceFilter(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	studentCS := testUser("s1", "amina", "CS", user.RoleStudent)
	studentEE := testUser("s2", "brian", "EE", user.RoleStudent)
	facultyCS := testUser("f1", "chiara", "CS", user.RoleFaculty)
	admin := testUser("a1", "dana", "", user.RoleAdminSuper)

	for _, tc := range []struct {
		actor user.User
		np    problem.NewProblem
	}{
		{studentCS, problem.NewProblem{Title: "projector broken", Description: "room 101", Department: "CS", Category: "Facilities"}},
		{studentEE, problem.NewProblem{Title: "lab access", Description: "card reader", Department: "EE", Category: "Facilities"}},
	} {
		_, err := svc.Create(ctx, tc.actor, tc.np)
		require.NoError(t, err)
	}

	t.Run("students see only their own", func(t *testing.T) {
		page, err := svc.Filter(ctx, studentCS, problem.QueryFilter{})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "s1", page.Problems[0].SubmittedBy.ID)
	})

	t.Run("students cannot widen via department", func(t *testing.T) {
		page, err := svc.Filter(ctx, studentCS, problem.QueryFilter{Department: "EE"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("faculty default to their department", func(t *testing.T) {
		page, err := svc.Filter(ctx, facultyCS, problem.QueryFilter{})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "CS", page.Problems[0].Department)
	})

	t.Run("admins see everything", func(t *testing.T) {
		page, err := svc.Filter(ctx, admin, problem.QueryFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})
}

func TestServiceUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	studentCS := testUser("s1", "amina", "CS", user.RoleStudent)
	facultyCS := testUser("f1", "chiara", "CS", user.RoleFaculty)
	facultyEE := testUser("f2", "elias", "EE", user.RoleFaculty)

	p, err := svc.Create(ctx, studentCS, problem.NewProblem{Title: "projector broken", Description: "room 101", Department: "CS"})
	require.NoError(t, err)
	assert.Equal(t, problem.StatusOpen, p.Status)

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, facultyCS, p.ID, "DONE")
		assert.Error(t, err)
	})

	t.Run("students cannot moderate", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, studentCS, p.ID, problem.StatusResolved)
		assert.Equal(t, problem.ErrNotAllowed, err)
	})

	t.Run("faculty bound to their department", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, facultyEE, p.ID, problem.StatusResolved)
		assert.Equal(t, problem.ErrNotAllowed, err)
	})

	t.Run("department faculty may transition", func(t *testing.T) {
		got, err := svc.UpdateStatus(ctx, facultyCS, p.ID, problem.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, problem.StatusInProgress, got.Status)
	})
}

func TestServiceAddComment(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	studentCS := testUser("s1", "amina", "CS", user.RoleStudent)
	otherStudent := testUser("s2", "brian", "CS", user.RoleStudent)
	facultyCS := testUser("f1", "chiara", "CS", user.RoleFaculty)

	p, err := svc.Create(ctx, studentCS, problem.NewProblem{Title: "projector broken", Description: "room 101", Department: "CS"})
	require.NoError(t, err)

	t.Run("submitter comments", func(t *testing.T) {
		got, err := svc.AddComment(ctx, studentCS, p.ID, "still broken")
		require.NoError(t, err)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "s1", got.Comments[0].By.ID)
	})

	t.Run("department faculty comments", func(t *testing.T) {
		got, err := svc.AddComment(ctx, facultyCS, p.ID, "scheduled for repair")
		require.NoError(t, err)
		assert.Len(t, got.Comments, 2)
	})

	t.Run("other students cannot see it", func(t *testing.T) {
		_, err := svc.AddComment(ctx, otherStudent, p.ID, "mine too")
		assert.Equal(t, problem.ErrNotAllowed, err)
	})

	t.Run("blank comment", func(t *testing.T) {
		_, err := svc.AddComment(ctx, studentCS, p.ID, "   ")
		assert.Error(t, err)
	})
}

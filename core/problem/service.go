package problem

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("problem not found")
	ErrNotAllowed = errors.New("not allowed")
)

type (
	Repository interface {
		CreateProblem(ctx context.Context, p Problem) (Problem, error)
		GetProblemByID(ctx context.Context, id string) (Problem, error)
		// FilterProblems lists problems matching the filter, newest first, and
		// returns the total count before pagination.
		FilterProblems(ctx context.Context, filter QueryFilter) ([]Problem, int, error)
		SetProblemStatus(ctx context.Context, id, status string) (Problem, error)
		AddComment(ctx context.Context, id string, c Comment) (Problem, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create reports a new problem. The submitter snapshot is frozen at write time.
func (svc *Service) Create(ctx context.Context, actor user.User, np NewProblem) (Problem, error) {
	now := time.Now().UTC()
	p := Problem{
		ID:          uuid.New().String(),
		Title:       np.Title,
		Description: np.Description,
		Category:    np.Category,
		Department:  np.Department,
		SubmittedBy: snapshot(actor),
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p, err := svc.repo.CreateProblem(ctx, p)
	if err != nil {
		return Problem{}, pkgerrors.Wrap(err, "creating problem")
	}
	return p, nil
}

// Filter lists problems, scoped by the actor's role: students see only their
// own reports, faculty see their department (unless they ask for another),
// admins see everything.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) (Page, error) {
	filter.Clean()

	filter.SubmitterID = ""
	switch {
	case actor.IsAdmin():
		// filter taken as-is
	case actor.IsFaculty():
		if filter.Department == "" {
			filter.Department = actor.Department
		}
	default:
		filter.Department = ""
		filter.SubmitterID = actor.ID
	}

	problems, total, err := svc.repo.FilterProblems(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	pages := (total + filter.Limit - 1) / filter.Limit
	return Page{Total: total, Page: filter.Page, Pages: pages, Problems: problems}, nil
}

// UpdateStatus transitions a problem. Admins may always; faculty only within
// their own department; students never.
func (svc *Service) UpdateStatus(ctx context.Context, actor user.User, id, status string) (Problem, error) {
	if !IsValidStatus(status) {
		return Problem{}, core.NewValidationError(
			errors.New("invalid status"),
			core.FieldError{Field: "status", Error: "must be one of OPEN, IN_PROGRESS, RESOLVED, REJECTED"},
		)
	}

	p, err := svc.repo.GetProblemByID(ctx, id)
	if err != nil {
		return Problem{}, err
	}
	if !svc.canModerate(actor, p) {
		return Problem{}, ErrNotAllowed
	}
	return svc.repo.SetProblemStatus(ctx, p.ID, status)
}

// AddComment appends a remark to a problem the actor can see.
func (svc *Service) AddComment(ctx context.Context, actor user.User, id, text string) (Problem, error) {
	if text = core.CleanString(text); text == "" {
		return Problem{}, core.NewValidationError(
			errors.New("comment text required"),
			core.FieldError{Field: "text", Error: "this field is required"},
		)
	}

	p, err := svc.repo.GetProblemByID(ctx, id)
	if err != nil {
		return Problem{}, err
	}
	if !svc.canSee(actor, p) {
		return Problem{}, ErrNotAllowed
	}
	return svc.repo.AddComment(ctx, p.ID, Comment{
		By:        snapshot(actor),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) canModerate(actor user.User, p Problem) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.IsFaculty() && actor.Department == p.Department
}

func (svc *Service) canSee(actor user.User, p Problem) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.IsFaculty() {
		return actor.Department == p.Department
	}
	return p.SubmittedBy.ID == actor.ID
}

func snapshot(actor user.User) Submitter {
	role := "student"
	switch {
	case actor.IsAdmin():
		role = "admin"
	case actor.IsFaculty():
		role = "faculty"
	}
	return Submitter{ID: actor.ID, Name: actor.Name, Email: actor.Email, Role: role}
}

package problem

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campusconnect/backend/core"
)

// Problem statuses
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusRejected   = "REJECTED"
)

func IsValidStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// DefaultCategory is used when a report comes without one.
const DefaultCategory = "Other"

// Submitter is a denormalized snapshot of the user attached to a problem or
// comment, frozen at write time so later profile edits don't rewrite history.
type Submitter struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Comment is a remark on a problem thread.
type Comment struct {
	By        Submitter `json:"by"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Problem is a reported campus issue routed to a department.
type Problem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Department  string    `json:"department"`
	SubmittedBy Submitter `json:"submitted_by"`
	Status      string    `json:"status"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewProblem contains the information needed to report a problem.
type NewProblem struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category"`
	Department  string `json:"department" validate:"required"`
}

func (np *NewProblem) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	np.Category = core.CleanString(np.Category)
	np.Department = core.CleanString(np.Department)
	if np.Category == "" {
		np.Category = DefaultCategory
	}
	return validate.Struct(np)
}

// QueryFilter filters problem listings. Role scoping is applied on top by the
// service, the filter only carries what the caller asked for.
type QueryFilter struct {
	Status     string `query:"status"`
	Category   string `query:"category"`
	Department string `query:"department"`
	Search     string `query:"search"`
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`

	// SubmitterID is set by the service for student actors, never bound from
	// the request.
	SubmitterID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status)
	qf.Category = core.CleanString(qf.Category)
	qf.Department = core.CleanString(qf.Department)
	qf.Search = core.CleanString(qf.Search)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 {
		qf.Limit = 10
	}
}

// Page is one page of a problem listing.
type Page struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Problems []Problem `json:"problems"`
}

package lostfound

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campusconnect/backend/core"
)

// Item types
const (
	TypeLost  = "lost"
	TypeFound = "found"
)

// Item statuses. Normal progression: open -> matched -> verified|returned.
const (
	StatusOpen     = "open"
	StatusMatched  = "matched"
	StatusVerified = "verified"
	StatusReturned = "returned"
	StatusRejected = "rejected"
)

// Item is a lost or found report posted by a user.
type Item struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url,omitempty"`

	// Ownership verification (found items only). The correct answer is never
	// serialized to API clients.
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"-"`

	Status    string    `json:"status"`
	PostedBy  string    `json:"posted_by"`
	HistoryOf []string  `json:"history_of,omitempty"` // everyone who took part in the item's resolution
	CreatedAt time.Time `json:"created_at"`           // UTC
	UpdatedAt time.Time `json:"updated_at"`           // UTC
}

// IsFinalized reports whether the item accepts no new claims.
func (it *Item) IsFinalized() bool {
	return it.Status == StatusVerified || it.Status == StatusReturned
}

// HasVerification reports whether claiming this item requires answering its
// verification question.
func (it *Item) HasVerification() bool {
	return it.Type == TypeFound && it.CorrectAnswer != ""
}

// NewItem contains the information needed to report a lost/found item.
type NewItem struct {
	Type          string   `json:"type" form:"type" validate:"required,oneof=lost found"`
	Title         string   `json:"title" form:"title" validate:"required"`
	Description   string   `json:"description" form:"description"`
	Location      string   `json:"location" form:"location"`
	ImageURL      string   `json:"image_url" form:"-"`
	Question      string   `json:"question" form:"question"`
	Options       []string `json:"options" form:"options"`
	CorrectAnswer string   `json:"correct_answer" form:"correct_answer"`
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.Type = core.CleanString(ni.Type, true /* lower */)
	ni.Title = core.CleanString(ni.Title)
	ni.Description = core.CleanString(ni.Description)
	ni.Location = core.CleanString(ni.Location)
	ni.Question = core.CleanString(ni.Question)
	ni.CorrectAnswer = core.CleanString(ni.CorrectAnswer)
	return validate.Struct(ni)
}

// QueryFilter filters item listings.
type QueryFilter struct {
	Type   string `query:"type"`
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

// Match is the outcome of running the matcher for a newly created item.
type Match struct {
	Item  Item    `json:"item"`
	Score float64 `json:"score"`
}

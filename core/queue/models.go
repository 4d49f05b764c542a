package queue

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campusconnect/backend/core"
)

// Ticket statuses. waiting/called/serving hold a position in the line,
// completed and cancelled release it.
const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusServing   = "serving"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ActiveStatuses are the statuses in which a ticket still occupies the queue.
var ActiveStatuses = []string{StatusWaiting, StatusCalled, StatusServing}

func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusWaiting, StatusCalled, StatusServing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Ticket is a place in a service line.
type Ticket struct {
	ID              string     `json:"id"`
	TicketNumber    string     `json:"ticket_number"`
	Service         string     `json:"service"`
	Department      string     `json:"department,omitempty"`
	Description     string     `json:"description,omitempty"`
	UserID          string     `json:"user_id"`
	HandledBy       string     `json:"handled_by,omitempty"`
	Status          string     `json:"status"`
	Position        int        `json:"position"`
	EstimatedTime   *time.Time `json:"estimated_time,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CancelledReason string     `json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"` // UTC
	UpdatedAt       time.Time  `json:"updated_at"` // UTC
}

type NewTicket struct {
	Service     string `json:"service" validate:"required"`
	Department  string `json:"department"`
	Description string `json:"description"`
}

func (nt *NewTicket) Validate(validate *validator.Validate) error {
	nt.Service = core.CleanString(nt.Service)
	nt.Department = core.CleanString(nt.Department)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

// StatusUpdate is an administrative transition applied to a ticket.
type StatusUpdate struct {
	Status          string `json:"status" validate:"required,oneof=waiting called serving completed cancelled"`
	HandledBy       string `json:"handled_by"`
	EstimateMinutes int    `json:"estimate_minutes" validate:"omitempty,min=0"`
	Reason          string `json:"reason"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	su.Reason = core.CleanString(su.Reason)
	return validate.Struct(su)
}

// ticketNumber derives a short human-readable reference from the service
// name initials (up to 4) and the creation instant in base36.
func ticketNumber(service string, t time.Time) string {
	var b strings.Builder
	for _, word := range strings.Fields(service) {
		b.WriteString(strings.ToUpper(word[:1]))
		if b.Len() == 4 {
			break
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "Q"
	}
	millis := t.UnixNano() / int64(time.Millisecond)
	return prefix + "-" + strings.ToUpper(strconv.FormatInt(millis, 36))
}

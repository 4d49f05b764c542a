package faculty

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/campusconnect/backend/core"
	"github.com/campusconnect/backend/core/user"
)

// Availability states a faculty member can advertise.
const (
	StatusAvailable   = "available"
	StatusBusy        = "busy"
	StatusInClass     = "in_class"
	StatusOnLeave     = "on_leave"
	StatusUnavailable = "unavailable"
)

// statusAliases maps the display labels clients send to canonical states.
// Anything unrecognized normalizes to unavailable.
var statusAliases = map[string]string{
	"Available":   StatusAvailable,
	"Busy":        StatusBusy,
	"In Class":    StatusInClass,
	"On Leave":    StatusOnLeave,
	"Offline":     StatusUnavailable,
	"available":   StatusAvailable,
	"busy":        StatusBusy,
	"in_class":    StatusInClass,
	"on_leave":    StatusOnLeave,
	"unavailable": StatusUnavailable,
}

func NormalizeStatus(s string) string {
	if canonical, ok := statusAliases[core.CleanString(s)]; ok {
		return canonical
	}
	return StatusUnavailable
}

// ErrNotFound indicates no status record exists for a faculty member.
var ErrNotFound = errors.New("faculty status not found")

// Status is one faculty member's advertised availability. At most one record
// exists per faculty member.
type Status struct {
	FacultyID string    `json:"faculty_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Location  string    `json:"location,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// StatusUpdate is the payload for setting one's availability.
type StatusUpdate struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

// Entry pairs a faculty member with their current status for merged listings.
type Entry struct {
	Faculty   user.User  `json:"faculty"`
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Location  string     `json:"location,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type (
	Repository interface {
		GetStatusByFaculty(ctx context.Context, facultyID string) (Status, error)
		// UpsertStatus creates or replaces the faculty member's status record.
		UpsertStatus(ctx context.Context, st Status) (Status, error)
		QueryAllStatuses(ctx context.Context) ([]Status, error)
	}

	// UserDirectory lists faculty accounts for merged listings.
	UserDirectory interface {
		FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error)
	}

	Service struct {
		repo  Repository
		users UserDirectory
	}
)

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// GetMine returns the actor's status. A faculty member with no record yet
// reads as unavailable rather than an error.
func (svc *Service) GetMine(ctx context.Context, actor user.User) (Status, error) {
	st, err := svc.repo.GetStatusByFaculty(ctx, actor.ID)
	if err == ErrNotFound {
		return Status{FacultyID: actor.ID, Status: StatusUnavailable}, nil
	}
	return st, err
}

// SetMine upserts the actor's status.
func (svc *Service) SetMine(ctx context.Context, actor user.User, su StatusUpdate) (Status, error) {
	st := Status{
		FacultyID: actor.ID,
		Status:    NormalizeStatus(su.Status),
		Message:   core.CleanString(su.Message),
		Location:  core.CleanString(su.Location),
		UpdatedBy: actor.ID,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpsertStatus(ctx, st)
}

// ListAll returns every faculty account merged with its status record, so
// members who never set a status still appear (as unavailable).
func (svc *Service) ListAll(ctx context.Context) ([]Entry, error) {
	members, err := svc.users.FilterUsers(ctx, user.QueryFilter{Roles: []string{user.RoleFaculty}})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing faculty users")
	}
	statuses, err := svc.repo.QueryAllStatuses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing statuses")
	}

	byFaculty := make(map[string]Status, len(statuses))
	for _, st := range statuses {
		byFaculty[st.FacultyID] = st
	}

	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		e := Entry{Faculty: m, Status: StatusUnavailable}
		if st, ok := byFaculty[m.ID]; ok {
			e.Status = st.Status
			e.Message = st.Message
			e.Location = st.Location
			updatedAt := st.UpdatedAt
			e.UpdatedAt = &updatedAt
		}
		entries = append(entries, e)
	}
	return entries, nil
}

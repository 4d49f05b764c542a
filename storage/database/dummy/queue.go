package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/campusconnect/backend/core/queue"
)

type queueRepository struct {
	db *queueTable
}

var _ queue.Repository = (*queueRepository)(nil) // interface compliance check

func NewQueueRepository(db *DB) queue.Repository {
	return &queueRepository{db: db.queue}
}

func (repo *queueRepository) CreateTicket(ctx context.Context, t queue.Ticket) (queue.Ticket, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *queueRepository) GetTicketByID(ctx context.Context, id string) (queue.Ticket, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return queue.Ticket{}, queue.ErrNotFound
}

func (repo *queueRepository) GetTicketByIDForUser(ctx context.Context, id, userID string) (queue.Ticket, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok && t.UserID == userID {
		return *t, nil
	}
	return queue.Ticket{}, queue.ErrNotFound
}

func (repo *queueRepository) MaxActivePosition(ctx context.Context, service string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var max int
	for _, t := range repo.db.table {
		if t.Service == service && queue.IsActiveStatus(t.Status) && t.Position > max {
			max = t.Position
		}
	}
	return max, nil
}

func (repo *queueRepository) QueryTicketsByUser(ctx context.Context, userID string) ([]queue.Ticket, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tickets []queue.Ticket
	for _, t := range repo.db.table {
		if t.UserID == userID {
			tickets = append(tickets, *t)
		}
	}
	// newest first
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.After(tickets[j].CreatedAt) })
	return tickets, nil
}

func (repo *queueRepository) QueryTicketsByService(ctx context.Context, service, status string) ([]queue.Ticket, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tickets []queue.Ticket
	for _, t := range repo.db.table {
		if t.Service != service {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		tickets = append(tickets, *t)
	}
	// line order
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].Position == tickets[j].Position {
			return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
		}
		return tickets[i].Position < tickets[j].Position
	})
	return tickets, nil
}

func (repo *queueRepository) QueryServices(ctx context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[string]struct{})
	var services []string
	for _, t := range repo.db.table {
		if _, ok := seen[t.Service]; !ok {
			seen[t.Service] = struct{}{}
			services = append(services, t.Service)
		}
	}
	sort.Strings(services)
	return services, nil
}

func (repo *queueRepository) UpdateTicket(ctx context.Context, t queue.Ticket) (queue.Ticket, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[t.ID]; !ok {
		return queue.Ticket{}, queue.ErrNotFound
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

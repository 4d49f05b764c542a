package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/backend/core/lostfound"
)

type itemRepository struct {
	db *itemTable
}

var _ lostfound.Repository = (*itemRepository)(nil) // interface compliance check

func NewItemRepository(db *DB) lostfound.Repository {
	return &itemRepository{db: db.item}
}

// query returns all items ordered by creation time (oldest first), so match
// candidates are always scanned in posting order.
func (repo *itemRepository) query() []lostfound.Item {
	items := make([]lostfound.Item, 0, len(repo.db.table))
	for _, it := range repo.db.table {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (repo *itemRepository) CreateItem(ctx context.Context, it lostfound.Item) (lostfound.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	repo.db.table[it.ID] = &it
	return it, nil
}

func (repo *itemRepository) GetItemByID(ctx context.Context, id string) (lostfound.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if it, ok := repo.db.table[id]; ok {
		return *it, nil
	}
	return lostfound.Item{}, lostfound.ErrNotFound
}

func (repo *itemRepository) QueryOpenItemsByType(ctx context.Context, typ string) ([]lostfound.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var items []lostfound.Item
	for _, it := range repo.query() {
		if it.Type == typ && it.Status == lostfound.StatusOpen {
			items = append(items, it)
		}
	}
	return items, nil
}

func (repo *itemRepository) SetItemStatus(ctx context.Context, id, status string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	it, ok := repo.db.table[id]
	if !ok {
		return lostfound.ErrNotFound
	}
	it.Status = status
	it.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *itemRepository) MarkItemReturned(ctx context.Context, id string, participants []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	it, ok := repo.db.table[id]
	if !ok {
		return lostfound.ErrNotFound
	}
	it.Status = lostfound.StatusReturned
	for _, p := range participants {
		if !contains(it.HistoryOf, p) {
			it.HistoryOf = append(it.HistoryOf, p)
		}
	}
	it.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *itemRepository) FilterItems(ctx context.Context, filter lostfound.QueryFilter) ([]lostfound.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var items []lostfound.Item
	for _, it := range repo.query() {
		if it.IsFinalized() {
			continue
		}
		if filter.Type != "" && it.Type != filter.Type {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(it.Title), needle) &&
				!strings.Contains(strings.ToLower(it.Description), needle) &&
				!strings.Contains(strings.ToLower(it.Location), needle) {
				continue
			}
		}
		items = append(items, it)
	}
	return items, nil
}

func (repo *itemRepository) QueryItemHistory(ctx context.Context, userID string) ([]lostfound.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var items []lostfound.Item
	for _, it := range repo.query() {
		if !it.IsFinalized() {
			continue
		}
		if it.PostedBy == userID || contains(it.HistoryOf, userID) {
			items = append(items, it)
		}
	}
	return items, nil
}

func (repo *itemRepository) DeleteItem(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return lostfound.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

package dummydb

import (
	"context"
	"sort"

	"github.com/campusconnect/backend/core/faculty"
)

type facultyStatusRepository struct {
	db *facultyStatusTable
}

var _ faculty.Repository = (*facultyStatusRepository)(nil) // interface compliance check

func NewFacultyStatusRepository(db *DB) faculty.Repository {
	return &facultyStatusRepository{db: db.facultyStatus}
}

func (repo *facultyStatusRepository) GetStatusByFaculty(ctx context.Context, facultyID string) (faculty.Status, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[facultyID]; ok {
		return *st, nil
	}
	return faculty.Status{}, faculty.ErrNotFound
}

func (repo *facultyStatusRepository) UpsertStatus(ctx context.Context, st faculty.Status) (faculty.Status, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[st.FacultyID] = &st
	return st, nil
}

func (repo *facultyStatusRepository) QueryAllStatuses(ctx context.Context) ([]faculty.Status, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	statuses := make([]faculty.Status, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		statuses = append(statuses, *st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].FacultyID < statuses[j].FacultyID })
	return statuses, nil
}

package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/backend/core/problem"
)

type problemRepository struct {
	db *problemTable
}

var _ problem.Repository = (*problemRepository)(nil) // interface compliance check

func NewProblemRepository(db *DB) problem.Repository {
	return &problemRepository{db: db.problem}
}

func (repo *problemRepository) CreateProblem(ctx context.Context, p problem.Problem) (problem.Problem, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *problemRepository) GetProblemByID(ctx context.Context, id string) (problem.Problem, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return problem.Problem{}, problem.ErrNotFound
}

func (repo *problemRepository) FilterProblems(ctx context.Context, filter problem.QueryFilter) ([]problem.Problem, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var problems []problem.Problem
	for _, p := range repo.db.table {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Department != "" && p.Department != filter.Department {
			continue
		}
		if filter.SubmitterID != "" && p.SubmittedBy.ID != filter.SubmitterID {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
		}
		problems = append(problems, *p)
	}
	// newest first
	sort.Slice(problems, func(i, j int) bool { return problems[i].CreatedAt.After(problems[j].CreatedAt) })

	total := len(problems)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return problems[start:end], total, nil
}

func (repo *problemRepository) SetProblemStatus(ctx context.Context, id, status string) (problem.Problem, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return problem.Problem{}, problem.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (repo *problemRepository) AddComment(ctx context.Context, id string, c problem.Comment) (problem.Problem, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return problem.Problem{}, problem.ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

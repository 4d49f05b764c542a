package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusconnect/backend/core/problem"
)

type problemRow struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	Category       string    `db:"category"`
	Department     string    `db:"department"`
	SubmitterID    string    `db:"submitter_id"`
	SubmitterName  string    `db:"submitter_name"`
	SubmitterEmail string    `db:"submitter_email"`
	SubmitterRole  string    `db:"submitter_role"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type commentRow struct {
	ProblemID  string    `db:"problem_id"`
	AuthorID   string    `db:"author_id"`
	AuthorName string    `db:"author_name"`
	AuthorRole string    `db:"author_role"`
	Body       string    `db:"body"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r problemRow) toProblem() problem.Problem {
	return problem.Problem{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Department:  r.Department,
		SubmittedBy: problem.Submitter{
			ID:    r.SubmitterID,
			Name:  r.SubmitterName,
			Email: r.SubmitterEmail,
			Role:  r.SubmitterRole,
		},
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const problemColumns = `id, title, description, category, department, submitter_id, submitter_name, submitter_email, submitter_role, status, created_at, updated_at`

type problemRepository struct {
	db *sqlx.DB
}

var _ problem.Repository = (*problemRepository)(nil) // interface compliance check

func NewProblemRepository(db *sql.DB) problem.Repository {
	return &problemRepository{db: wrap(db)}
}

func (repo *problemRepository) CreateProblem(ctx context.Context, p problem.Problem) (problem.Problem, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(
		ctx,
		`INSERT INTO problem (`+problemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Title, p.Description, p.Category, p.Department,
		p.SubmittedBy.ID, p.SubmittedBy.Name, p.SubmittedBy.Email, p.SubmittedBy.Role,
		p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return problem.Problem{}, err
	}
	return p, nil
}

func (repo *problemRepository) GetProblemByID(ctx context.Context, id string) (problem.Problem, error) {
	var r problemRow
	err := repo.db.GetContext(ctx, &r, `SELECT `+problemColumns+` FROM problem WHERE id = $1`, id)
	if isNoRows(err) {
		return problem.Problem{}, problem.ErrNotFound
	} else if err != nil {
		return problem.Problem{}, err
	}
	p := r.toProblem()
	if err = repo.loadComments(ctx, &p); err != nil {
		return problem.Problem{}, err
	}
	return p, nil
}

func (repo *problemRepository) loadComments(ctx context.Context, p *problem.Problem) error {
	var rows []commentRow
	err := repo.db.SelectContext(
		ctx, &rows,
		`SELECT problem_id, author_id, author_name, author_role, body, created_at
		 FROM problem_comment WHERE problem_id = $1 ORDER BY created_at, id`,
		p.ID,
	)
	if err != nil {
		return err
	}
	for _, r := range rows {
		p.Comments = append(p.Comments, problem.Comment{
			By:        problem.Submitter{ID: r.AuthorID, Name: r.AuthorName, Role: r.AuthorRole},
			Text:      r.Body,
			CreatedAt: r.CreatedAt,
		})
	}
	return nil
}

func (repo *problemRepository) FilterProblems(ctx context.Context, filter problem.QueryFilter) ([]problem.Problem, int, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 7)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.Category != "" {
		where = append(where, "category = "+arg(filter.Category))
	}
	if filter.Department != "" {
		where = append(where, "department = "+arg(filter.Department))
	}
	if filter.SubmitterID != "" {
		where = append(where, "submitter_id = "+arg(filter.SubmitterID))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", p, p))
	}

	var clause string
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM problem`+clause, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + problemColumns + ` FROM problem` + clause +
		` ORDER BY created_at DESC LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg((filter.Page-1)*filter.Limit)

	var rows []problemRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	problems := make([]problem.Problem, len(rows))
	for i, r := range rows {
		problems[i] = r.toProblem()
	}
	return problems, total, nil
}

func (repo *problemRepository) SetProblemStatus(ctx context.Context, id, status string) (problem.Problem, error) {
	var r problemRow
	err := repo.db.GetContext(
		ctx, &r,
		`UPDATE problem SET status = $2, updated_at = $3 WHERE id = $1 RETURNING `+problemColumns,
		id, status, time.Now().UTC(),
	)
	if isNoRows(err) {
		return problem.Problem{}, problem.ErrNotFound
	} else if err != nil {
		return problem.Problem{}, err
	}
	p := r.toProblem()
	if err = repo.loadComments(ctx, &p); err != nil {
		return problem.Problem{}, err
	}
	return p, nil
}

func (repo *problemRepository) AddComment(ctx context.Context, id string, c problem.Comment) (problem.Problem, error) {
	_, err := repo.db.ExecContext(
		ctx,
		`INSERT INTO problem_comment (problem_id, author_id, author_name, author_role, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, c.By.ID, c.By.Name, c.By.Role, c.Text, c.CreatedAt,
	)
	if err != nil {
		return problem.Problem{}, err
	}
	_, err = repo.db.ExecContext(ctx, `UPDATE problem SET updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return problem.Problem{}, err
	}
	return repo.GetProblemByID(ctx, id)
}

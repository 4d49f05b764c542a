package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/campusconnect/backend/core/faculty"
)

type facultyStatusRow struct {
	FacultyID string      `db:"faculty_id"`
	Status    string      `db:"status"`
	Message   string      `db:"message"`
	Location  string      `db:"location"`
	UpdatedBy null.String `db:"updated_by"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r facultyStatusRow) toStatus() faculty.Status {
	return faculty.Status{
		FacultyID: r.FacultyID,
		Status:    r.Status,
		Message:   r.Message,
		Location:  r.Location,
		UpdatedBy: r.UpdatedBy.String,
		UpdatedAt: r.UpdatedAt,
	}
}

const facultyStatusColumns = `faculty_id, status, message, location, updated_by, updated_at`

type facultyStatusRepository struct {
	db *sqlx.DB
}

var _ faculty.Repository = (*facultyStatusRepository)(nil) // interface compliance check

func NewFacultyStatusRepository(db *sql.DB) faculty.Repository {
	return &facultyStatusRepository{db: wrap(db)}
}

func (repo *facultyStatusRepository) GetStatusByFaculty(ctx context.Context, facultyID string) (faculty.Status, error) {
	var r facultyStatusRow
	err := repo.db.GetContext(
		ctx, &r,
		`SELECT `+facultyStatusColumns+` FROM faculty_status WHERE faculty_id = $1`, facultyID,
	)
	if isNoRows(err) {
		return faculty.Status{}, faculty.ErrNotFound
	} else if err != nil {
		return faculty.Status{}, err
	}
	return r.toStatus(), nil
}

func (repo *facultyStatusRepository) UpsertStatus(ctx context.Context, st faculty.Status) (faculty.Status, error) {
	var r facultyStatusRow
	err := repo.db.GetContext(
		ctx, &r,
		`INSERT INTO faculty_status (`+facultyStatusColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (faculty_id) DO UPDATE SET
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			location = EXCLUDED.location,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
		 RETURNING `+facultyStatusColumns,
		st.FacultyID, st.Status, st.Message, st.Location,
		null.NewString(st.UpdatedBy, st.UpdatedBy != ""), st.UpdatedAt,
	)
	if err != nil {
		return faculty.Status{}, err
	}
	return r.toStatus(), nil
}

func (repo *facultyStatusRepository) QueryAllStatuses(ctx context.Context) ([]faculty.Status, error) {
	var rows []facultyStatusRow
	err := repo.db.SelectContext(
		ctx, &rows,
		`SELECT `+facultyStatusColumns+` FROM faculty_status ORDER BY faculty_id`,
	)
	if err != nil {
		return nil, err
	}
	statuses := make([]faculty.Status, len(rows))
	for i, r := range rows {
		statuses[i] = r.toStatus()
	}
	return statuses, nil
}

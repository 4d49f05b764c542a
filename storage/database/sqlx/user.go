package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/campusconnect/backend/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	Department   string         `db:"department"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	LastLogin    null.Time      `db:"last_login"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		Department:   r.Department,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		LastLogin:    r.LastLogin.Time,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, len(rows))
	for i, r := range rows {
		users[i] = r.toUser()
	}
	return users
}

const userColumns = `id, name, username, email, department, is_active, roles, password_hash, last_login, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sql.DB) user.Repository {
	return &userRepository{db: wrap(db)}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	var matches []userRow
	err := repo.db.SelectContext(
		ctx, &matches,
		`SELECT `+userColumns+` FROM "user" WHERE (username = $1 OR email = $2) AND NOT (id::text = ANY($3))`,
		username, email, pq.Array(excludedIDs),
	)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if username != "" && m.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && m.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(
		ctx,
		`INSERT INTO "user" (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Department, usr.IsActive,
		pq.Array(usr.Roles), usr.PasswordHash, null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
		usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM "user"`); err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var r userRow
	err := repo.db.GetContext(ctx, &r, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
	if isNoRows(err) {
		return user.User{}, user.ErrNotFound
	} else if err != nil {
		return user.User{}, err
	}
	return r.toUser(), nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var r userRow
	err := repo.db.GetContext(
		ctx, &r,
		`SELECT `+userColumns+` FROM "user" WHERE username = $1 OR email = $1`, username,
	)
	if isNoRows(err) {
		return user.User{}, user.ErrNotFound
	} else if err != nil {
		return user.User{}, err
	}
	return r.toUser(), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
	}
	if len(filter.Roles) > 0 {
		patterns := make([]string, 0, len(filter.Roles))
		for _, r := range filter.Roles {
			patterns = append(patterns, r+"%")
		}
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(roles) AS role WHERE role LIKE ANY(%s))", arg(pq.Array(patterns)),
		))
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, "created_at <= "+arg(filter.CreatedTo.UTC()))
	}

	query := `SELECT ` + userColumns + ` FROM "user"`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	var r userRow
	err := repo.db.GetContext(
		ctx, &r,
		`UPDATE "user" SET
			name = $2,
			username = $3,
			email = $4,
			department = $5,
			roles = COALESCE($6, roles),
			password_hash = COALESCE($7, password_hash),
			is_active = COALESCE($8, is_active),
			last_login = COALESCE($9, last_login),
			updated_at = $10
		 WHERE id = $1
		 RETURNING `+userColumns,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Department,
		rolesOrNil(usr.Roles), usr.PasswordHash, null.BoolFromPtr(isActive),
		null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()), usr.UpdatedAt,
	)
	if isNoRows(err) {
		return user.User{}, user.ErrNotFound
	} else if err != nil {
		return user.User{}, err
	}
	return r.toUser(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id::text = ANY($1)`, pq.Array(ids))
	return err
}

// rolesOrNil maps an unset slice to SQL NULL so COALESCE keeps the stored roles.
func rolesOrNil(roles []string) interface{} {
	if roles == nil {
		return nil
	}
	return pq.Array(roles)
}

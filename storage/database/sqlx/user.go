package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/user"
)

const userColumns = "id, username, name, role, groep, password_hash, created_at, updated_at, last_login"

type userRow struct {
	ID           string      `db:"id"`
	Username     string      `db:"username"`
	Name         string      `db:"name"`
	Role         string      `db:"role"`
	Groep        null.String `db:"groep"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Name:         usr.Name,
		Role:         string(usr.Role()),
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
	}
	if usr.IsStudent() {
		row.Groep = null.StringFrom(string(usr.Group()))
	}
	return row
}

func (row userRow) toUser() (user.User, error) {
	profile, err := user.NewProfile(user.Role(row.Role), user.Group(row.Groep.String))
	if err != nil {
		return user.User{}, errors.Wrapf(err, "loading user %s", row.ID)
	}
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		Name:         row.Name,
		Profile:      profile,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}, nil
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedIDs ...string) error {
	q := "SELECT COUNT(*) FROM users WHERE username = $1"
	args := []interface{}{username}
	if len(excludedIDs) > 0 {
		q += " AND NOT (id::text = ANY($2))"
		args = append(args, pq.Array(excludedIDs))
	}

	var n int
	if err := repo.db.GetContext(ctx, &n, q, args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if n > 0 {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := newUserRow(usr)

	const q = `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :username, :name, :role, :groep, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

var userOrderColumns = map[string]string{
	"username":   "username",
	"name":       "lower(name)",
	"role":       "role",
	"created_at": "created_at",
	"last_login": "last_login",
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			where = append(where, "(name ILIKE "+p+" OR username ILIKE "+p+")")
		}
		if len(filter.Roles) > 0 {
			where = append(where, "role = ANY("+arg(pq.Array(rolesToStrings(filter.Roles)))+")")
		}
		if len(filter.Groups) > 0 {
			where = append(where, "groep = ANY("+arg(pq.Array(groupsToStrings(filter.Groups)))+")")
		}
	}

	q := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering)

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := row.toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

// orderBy only lets known columns through; it defaults to username.
func orderBy(ordering []core.DBOrdering) string {
	terms := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := userOrderColumns[ord.Field]
		if !ok {
			continue
		}
		terms = append(terms, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(terms) == 0 {
		terms = append(terms, "username ASC")
	}
	return strings.Join(append(terms, "id ASC"), ", ")
}

func rolesToStrings(roles []user.Role) []string {
	s := make([]string, len(roles))
	for i, r := range roles {
		s[i] = string(r)
	}
	return s
}

func groupsToStrings(groups []user.Group) []string {
	s := make([]string, len(groups))
	for i, g := range groups {
		s[i] = string(g)
	}
	return s
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		q   = "SELECT " + userColumns + " FROM users WHERE "
		arg string
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q += "id = $1"
		arg = filter.ID
	case filter.Username != "":
		q += "username = $1"
		arg = filter.Username
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser()
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := newUserRow(usr)
	const q = `UPDATE users SET
		username = :username, name = :name, role = :role, groep = :groep,
		password_hash = :password_hash,
		updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM users WHERE id::text = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted users")
}

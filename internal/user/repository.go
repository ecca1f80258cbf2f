package user

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/pkg/errors"

	"go-classified/internal/pagination"
)

// NumItems is the admin user listing page size.
const NumItems = 5

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByLogin is a lenient read: any failure, including absence, comes back
// as nil. Callers treat nil as "not found", never as an error.
func (r *Repository) GetUserByLogin(ctx context.Context, login string) *User {
	u := &User{}
	query := "SELECT id, login, password, role_id FROM si_users WHERE login = $1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&u.ID, &u.Login, &u.Password, &u.RoleID)
	if err != nil {
		return nil
	}
	return u
}

// GetUserRoles is lenient in the same way: failures yield an empty slice.
func (r *Repository) GetUserRoles(ctx context.Context, userID int) []string {
	query := `
		SELECT r.name FROM si_users u
		JOIN si_roles r ON u.role_id = r.id
		WHERE u.id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil
		}
		roles = append(roles, name)
	}
	return roles
}

// GetUserData returns the profile for a login, nil when absent or on failure.
func (r *Repository) GetUserData(ctx context.Context, login string) *Profile {
	p := &Profile{}
	query := `
		SELECT p.id, p.name, p.surname, p.email, p.user_id
		FROM si_profiles p
		JOIN si_users u ON u.id = p.user_id
		WHERE u.login = $1
	`
	err := r.db.QueryRowContext(ctx, query, login).Scan(&p.ID, &p.Name, &p.Surname, &p.Email, &p.UserID)
	if err != nil {
		return nil
	}
	return p
}

func (r *Repository) FindOneByID(ctx context.Context, id int) (*Account, error) {
	a := &Account{}
	query := `
		SELECT p.id, p.user_id, u.login, p.name, p.surname, p.email
		FROM si_users u
		JOIN si_profiles p ON u.id = p.user_id
		WHERE u.id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.UserID, &a.Login, &a.Name, &a.Surname, &a.Email)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find user by id")
	}
	return a, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]Summary, error) {
	return r.fetchSummaries(ctx, r.queryAll()+" ORDER BY u.id")
}

func (r *Repository) FindAllPaginated(ctx context.Context, page int) (*pagination.Page[Summary], error) {
	fetch := func(ctx context.Context, limit, offset int) ([]Summary, error) {
		query := r.queryAll() + " ORDER BY u.id LIMIT $1 OFFSET $2"
		return r.fetchSummaries(ctx, query, limit, offset)
	}
	count := func(ctx context.Context) (int, error) {
		var total int
		err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT u.id) FROM si_users u").Scan(&total)
		if err != nil {
			return 0, errors.Wrap(err, "count users")
		}
		return total, nil
	}

	paginator := pagination.New(fetch, count)
	paginator.SetCurrentPage(page)
	paginator.SetMaxPerPage(NumItems)
	return paginator.CurrentPageResults(ctx)
}

// UniqueLogin reports whether login is free, ignoring the user with excludeID
// (0 to exclude nobody).
func (r *Repository) UniqueLogin(ctx context.Context, login string, excludeID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(
		ctx,
		"SELECT COUNT(id) FROM si_users WHERE login = $1 AND id <> $2",
		login, excludeID,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "unique login")
	}
	return n == 0, nil
}

func (r *Repository) UniqueEmail(ctx context.Context, email string, excludeUserID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(
		ctx,
		"SELECT COUNT(id) FROM si_profiles WHERE email = $1 AND user_id <> $2",
		email, excludeUserID,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "unique email")
	}
	return n == 0, nil
}

// Create inserts the user row and its profile in one transaction. Password
// must already be hashed; new users get the regular role.
func (r *Repository) Create(ctx context.Context, req *RegisterRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin create user")
	}
	defer tx.Rollback()

	var userID int
	err = tx.QueryRowContext(
		ctx,
		"INSERT INTO si_users (login, password, role_id) VALUES ($1, $2, $3) RETURNING id",
		req.Login, req.Password, RoleUser,
	).Scan(&userID)
	if err != nil {
		return errors.Wrap(err, "insert user")
	}

	_, err = tx.ExecContext(
		ctx,
		"INSERT INTO si_profiles (name, surname, email, user_id) VALUES ($1, $2, $3, $4)",
		req.Name, req.Surname, req.Email, userID,
	)
	if err != nil {
		return errors.Wrap(err, "insert profile")
	}

	return errors.Wrap(tx.Commit(), "commit create user")
}

// Update writes both tables for an admin edit. An empty password keeps the
// stored hash.
func (r *Repository) Update(ctx context.Context, a *Account, hashedPassword string, roleID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin update user")
	}
	defer tx.Rollback()

	if hashedPassword != "" {
		_, err = tx.ExecContext(
			ctx,
			"UPDATE si_users SET login = $1, password = $2, role_id = $3 WHERE id = $4",
			a.Login, hashedPassword, roleID, a.UserID,
		)
	} else {
		_, err = tx.ExecContext(
			ctx,
			"UPDATE si_users SET login = $1, role_id = $2 WHERE id = $3",
			a.Login, roleID, a.UserID,
		)
	}
	if err != nil {
		return errors.Wrap(err, "update user")
	}

	_, err = tx.ExecContext(
		ctx,
		"UPDATE si_profiles SET name = $1, surname = $2, email = $3 WHERE id = $4",
		a.Name, a.Surname, a.Email, a.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update profile")
	}

	return errors.Wrap(tx.Commit(), "commit update user")
}

// SaveData updates the profile row only (self-service account data edit).
func (r *Repository) SaveData(ctx context.Context, p *Profile) error {
	_, err := r.db.ExecContext(
		ctx,
		"UPDATE si_profiles SET name = $1, surname = $2, email = $3 WHERE id = $4",
		p.Name, p.Surname, p.Email, p.ID,
	)
	return errors.Wrap(err, "save profile data")
}

func (r *Repository) SavePassword(ctx context.Context, hashedPassword, login string) error {
	_, err := r.db.ExecContext(
		ctx,
		"UPDATE si_users SET password = $1 WHERE login = $2",
		hashedPassword, login,
	)
	return errors.Wrap(err, "save password")
}

// Delete removes the profile row and then the user row. Both go in one
// transaction so a failed profile delete never strands a half-deleted user.
func (r *Repository) Delete(ctx context.Context, a *Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin delete user")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM si_profiles WHERE id = $1", a.ID); err != nil {
		return errors.Wrap(err, "delete profile")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM si_users WHERE id = $1", a.UserID); err != nil {
		return errors.Wrap(err, "delete user")
	}

	return errors.Wrap(tx.Commit(), "commit delete user")
}

func (r *Repository) queryAll() string {
	return `
		SELECT u.id, u.login, r.name
		FROM si_users u
		JOIN si_roles r ON r.id = u.role_id
	`
}

func (r *Repository) fetchSummaries(ctx context.Context, query string, args ...interface{}) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query users")
	}
	defer rows.Close()

	var users []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Login, &s.Role); err != nil {
			return nil, errors.Wrap(err, "scan user row")
		}
		users = append(users, s)
	}
	return users, rows.Err()
}

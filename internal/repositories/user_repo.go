package repositories

import (
	"context"
	"strings"

	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, password_hash, COALESCE(role, 'customer') AS role,
	COALESCE(name, '') AS name, COALESCE(phone, '') AS phone, created_at`

type UserRepo struct {
	DB *sqlx.DB
}

func (r UserRepo) db() *sqlx.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Create inserts a user. A taken email surfaces as ErrDuplicateKey.
func (r UserRepo) Create(ctx context.Context, u models.User) (int64, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	id, err := intdb.InsertID(ctx, ex,
		`INSERT INTO users (email, password_hash, created_at, role, name, phone) VALUES (?, ?, ?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.CreatedAt, u.Role,
		intdb.NullIfEmpty(u.Name), intdb.NullIfEmpty(u.Phone))
	if intdb.IsUniqueViolation(err) {
		return 0, intdb.ErrDuplicateKey
	}
	return id, err
}

func (r UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	var out models.User
	ex := intdb.ExecutorFrom(ctx, r.db())
	err := ex.GetContext(ctx, &out, ex.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return out, intdb.NotFound(err)
}

func (r UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var out models.User
	ex := intdb.ExecutorFrom(ctx, r.db())
	err := ex.GetContext(ctx, &out, ex.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email)))
	return out, intdb.NotFound(err)
}

func (r UserRepo) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE users SET name = ?, phone = ? WHERE id = ?`),
		intdb.NullIfEmpty(name), intdb.NullIfEmpty(phone), id)
	if err != nil {
		return err
	}
	return requireAffected(ctx, ex, res, "users", id)
}

func (r UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`), hash, id)
	if err != nil {
		return err
	}
	return requireAffected(ctx, ex, res, "users", id)
}

func (r UserRepo) SetRole(ctx context.Context, id int64, role string) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE users SET role = ? WHERE id = ?`), role, id)
	if err != nil {
		return err
	}
	return requireAffected(ctx, ex, res, "users", id)
}

func (r UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	ex := intdb.ExecutorFrom(ctx, r.db())
	err := ex.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

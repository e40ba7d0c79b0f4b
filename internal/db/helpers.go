package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrReferenced   = errors.New("row is still referenced")
)

// Executor is the subset shared by *sqlx.DB and *sqlx.Tx.
type Executor interface {
	DriverName() string
	Rebind(query string) string
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type txKey struct{}

// TxManager runs a function inside one transaction and carries the tx in ctx.
type TxManager struct {
	DB *sqlx.DB
}

func (m TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	if m.DB == nil {
		return fmt.Errorf("db not available")
	}

	tx, err := m.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ExecutorFrom returns the transaction stored in ctx, or db.
func ExecutorFrom(ctx context.Context, db *sqlx.DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

func IsPostgres(driverName string) bool {
	return driverName == "pgx" || driverName == "postgres"
}

// InsertID runs an INSERT and returns the generated id for either dialect.
func InsertID(ctx context.Context, ex Executor, query string, args ...any) (int64, error) {
	if IsPostgres(ex.DriverName()) {
		var id int64
		err := ex.QueryRowxContext(ctx, ex.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := ex.ExecContext(ctx, ex.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}

// IsDeadlock reports a transaction aborted by the server's deadlock detector.
func IsDeadlock(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "40P01"
	}
	return false
}

func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReferenced) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1451
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23503"
	}
	return false
}

// IsDuplicateColumn reports an ADD COLUMN on a column that already exists.
func IsDuplicateColumn(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1060
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "42701"
	}
	return false
}

// NotFound maps sql.ErrNoRows to ErrNotFound.
func NotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// NullIfEmpty helps store optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// LikeContains builds a lower-cased %s% pattern.
func LikeContains(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// Placeholders returns "?,?,?" for n args.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func HasTable(ctx context.Context, ex Executor, table string) bool {
	schema := "DATABASE()"
	if IsPostgres(ex.DriverName()) {
		schema = "current_schema()"
	}
	var name sql.NullString
	err := ex.QueryRowxContext(ctx, ex.Rebind(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = `+schema+`
		  AND table_name = ?
		LIMIT 1`), table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2025, 10, 20, 9, 0, 0, 0, time.Local)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("asha@example.com", "hash", now, "customer", "Asha", nil).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := UserRepo{DB: db}.Create(context.Background(), models.User{
		Email: " Asha@Example.com", PasswordHash: "hash", CreatedAt: now, Role: "customer", Name: "Asha",
	})
	if !errors.Is(err, intdb.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserGetByEmailNormalizes(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "name", "phone", "created_at"}).
		AddRow(3, "asha@example.com", "hash", "admin", "Asha", "9000", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs("asha@example.com").
		WillReturnRows(rows)

	u, err := UserRepo{DB: db}.GetByEmail(context.Background(), "  ASHA@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if u.ID != 3 || u.Role != "admin" || u.Phone != "9000" {
		t.Fatalf("unexpected user %+v", u)
	}

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := (UserRepo{DB: db}).GetByID(context.Background(), 99); !errors.Is(err, intdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserSetRoleMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE users SET role").
		WithArgs("admin", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE id = ?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	if err := (UserRepo{DB: db}).SetRole(context.Background(), 5, "admin"); !errors.Is(err, intdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPassengerInsertWritesEachRow(t *testing.T) {
	db, mock := newMockDB(t)
	seat := "A1"
	age := 30
	mock.ExpectExec("INSERT INTO bookings_passengers").
		WithArgs(int64(4), &seat, "Ravi", nil, nil, &age, "M").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO bookings_passengers").
		WithArgs(int64(4), nil, "Sita", "9000", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))

	err := PassengerRepository{DB: db}.Insert(context.Background(), []models.Passenger{
		{BookingID: 4, SeatNo: &seat, Name: "Ravi", Age: &age, Gender: "M"},
		{BookingID: 4, Name: "Sita", Phone: "9000"},
	})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

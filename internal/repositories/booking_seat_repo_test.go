package repositories

import (
	"context"
	"errors"
	"reflect"
	"testing"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "mysql"), mock
}

func TestBookedSortsLabels(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT seat_no FROM booked_seats WHERE bus_id = \\? AND journey_date = \\?").
		WithArgs(int64(1), "2025-10-30").
		WillReturnRows(sqlmock.NewRows([]string{"seat_no"}).AddRow("10").AddRow("2").AddRow("A1"))

	got, err := BookingSeatRepo{DB: db}.Booked(context.Background(), 1, "2025-10-30")
	if err != nil {
		t.Fatalf("Booked error: %v", err)
	}
	if want := []string{"2", "10", "A1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConflictsKeepsRequestOrder(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("seat_no IN \\(\\?,\\?,\\?\\)").
		WithArgs(int64(1), "2025-10-30", "A1", "A2", "A3").
		WillReturnRows(sqlmock.NewRows([]string{"seat_no"}).AddRow("A3").AddRow("A1"))

	got, err := BookingSeatRepo{DB: db}.Conflicts(context.Background(), 1, "2025-10-30", []string{"A1", "A2", "A3"})
	if err != nil {
		t.Fatalf("Conflicts error: %v", err)
	}
	if want := []string{"A1", "A3"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestConflictsEmptyRequestSkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	got, err := BookingSeatRepo{DB: db}.Conflicts(context.Background(), 1, "2025-10-30", nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected query: %v", err)
	}
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO booked_seats").
		WithArgs(int64(1), "2025-10-30", "A1", int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO booked_seats").
		WithArgs(int64(1), "2025-10-30", "A2", int64(9)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := BookingSeatRepo{DB: db}.Insert(context.Background(), []models.SeatHold{
		{TripID: 1, JourneyDate: "2025-10-30", SeatNo: "A1", BookingID: 9},
		{TripID: 1, JourneyDate: "2025-10-30", SeatNo: "A2", BookingID: 9},
	})
	if !errors.Is(err, intdb.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestDeleteByBooking(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM booked_seats WHERE booking_id = \\?").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := BookingSeatRepo{DB: db}.DeleteByBooking(context.Background(), 9)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByBooking = %d, %v; want 2, nil", n, err)
	}
}

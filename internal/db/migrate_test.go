package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestMigrateToleratesExistingColumns(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(true)

	for range mysqlSchema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for i := range additiveColumns {
		exp := mock.ExpectExec("ALTER TABLE " + additiveColumns[i].table + " ADD COLUMN " + additiveColumns[i].name)
		if i%2 == 0 {
			exp.WillReturnError(&mysql.MySQLError{Number: 1060, Message: "Duplicate column name"})
		} else {
			exp.WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrateFailsOnOtherErrors(t *testing.T) {
	db, mock := newMockDB(t)

	for range mysqlSchema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("ALTER TABLE bookings ADD COLUMN status").
		WillReturnError(&mysql.MySQLError{Number: 1142, Message: "ALTER command denied"})

	if err := Migrate(context.Background(), db); err == nil {
		t.Fatalf("expected error for denied ALTER")
	}
}

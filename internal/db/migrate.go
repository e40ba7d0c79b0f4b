package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type column struct {
	table, name   string
	mysql, pgtype string
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS buses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	from_city VARCHAR(120) NOT NULL,
	to_city VARCHAR(120) NOT NULL,
	depart_time DATETIME NOT NULL,
	arrive_time DATETIME NOT NULL,
	seats_total INT NULL,
	fare DECIMAL(10,2) NOT NULL DEFAULT 0
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	passenger_name VARCHAR(255) NOT NULL,
	passenger_phone VARCHAR(50) NOT NULL,
	seats_booked INT NOT NULL,
	booked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_bookings_bus (bus_id),
	CONSTRAINT fk_bookings_bus FOREIGN KEY (bus_id) REFERENCES buses(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booked_seats (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	journey_date VARCHAR(10) NOT NULL,
	seat_no VARCHAR(20) NOT NULL,
	booking_id BIGINT NOT NULL,
	UNIQUE KEY uniq_bus_date_seat (bus_id, journey_date, seat_no),
	KEY idx_booked_seats_booking (booking_id),
	CONSTRAINT fk_booked_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings_passengers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	seat_no VARCHAR(20) NULL,
	name VARCHAR(255) NULL,
	email VARCHAR(255) NULL,
	age INT NULL,
	gender VARCHAR(20) NULL,
	KEY idx_passengers_booking (booking_id),
	CONSTRAINT fk_passengers_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS buses (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	from_city VARCHAR(120) NOT NULL,
	to_city VARCHAR(120) NOT NULL,
	depart_time TIMESTAMP NOT NULL,
	arrive_time TIMESTAMP NOT NULL,
	seats_total INT NULL,
	fare NUMERIC(10,2) NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGSERIAL PRIMARY KEY,
	bus_id BIGINT NOT NULL REFERENCES buses(id),
	passenger_name VARCHAR(255) NOT NULL,
	passenger_phone VARCHAR(50) NOT NULL,
	seats_booked INT NOT NULL,
	booked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS booked_seats (
	id BIGSERIAL PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	journey_date VARCHAR(10) NOT NULL,
	seat_no VARCHAR(20) NOT NULL,
	booking_id BIGINT NOT NULL REFERENCES bookings(id),
	CONSTRAINT uniq_bus_date_seat UNIQUE (bus_id, journey_date, seat_no)
)`,
	`CREATE INDEX IF NOT EXISTS idx_booked_seats_booking ON booked_seats (booking_id)`,
	`CREATE TABLE IF NOT EXISTS bookings_passengers (
	id BIGSERIAL PRIMARY KEY,
	booking_id BIGINT NOT NULL REFERENCES bookings(id),
	seat_no VARCHAR(20) NULL,
	name VARCHAR(255) NULL,
	email VARCHAR(255) NULL,
	age INT NULL,
	gender VARCHAR(20) NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_passengers_booking ON bookings_passengers (booking_id)`,
}

// Columns added after the first release. Applied in order on every start.
var additiveColumns = []column{
	{"bookings", "status", "VARCHAR(20) NOT NULL DEFAULT 'confirmed'", "VARCHAR(20) NOT NULL DEFAULT 'confirmed'"},
	{"bookings", "payment_status", "VARCHAR(20) NOT NULL DEFAULT 'unpaid'", "VARCHAR(20) NOT NULL DEFAULT 'unpaid'"},
	{"bookings", "payment_ref", "VARCHAR(64) NULL", "VARCHAR(64) NULL"},
	{"bookings", "user_id", "BIGINT NULL", "BIGINT NULL"},
	{"bookings", "coupon_code", "VARCHAR(32) NULL", "VARCHAR(32) NULL"},
	{"bookings", "discount_amount", "DECIMAL(10,2) NOT NULL DEFAULT 0", "NUMERIC(10,2) NOT NULL DEFAULT 0"},
	{"bookings", "journey_date", "VARCHAR(10) NULL", "VARCHAR(10) NULL"},
	{"bookings", "fare_snapshot", "DECIMAL(10,2) NULL", "NUMERIC(10,2) NULL"},
	{"bookings_passengers", "phone", "VARCHAR(50) NULL", "VARCHAR(50) NULL"},
	{"users", "role", "VARCHAR(20) NOT NULL DEFAULT 'customer'", "VARCHAR(20) NOT NULL DEFAULT 'customer'"},
	{"users", "name", "VARCHAR(255) NULL", "VARCHAR(255) NULL"},
	{"users", "phone", "VARCHAR(50) NULL", "VARCHAR(50) NULL"},
	{"buses", "vehicle_tags", "VARCHAR(120) NOT NULL DEFAULT ''", "VARCHAR(120) NOT NULL DEFAULT ''"},
}

// Migrate creates the base tables and applies additive column changes.
// An ADD COLUMN for a column that already exists counts as applied.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("db not available")
	}
	postgres := IsPostgres(db.DriverName())

	schema := mysqlSchema
	if postgres {
		schema = postgresSchema
	}
	for _, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	for _, c := range additiveColumns {
		typ := c.mysql
		if postgres {
			typ = c.pgtype
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.name, typ)
		if _, err := db.ExecContext(ctx, stmt); err != nil && !IsDuplicateColumn(err) {
			return fmt.Errorf("add column %s.%s: %w", c.table, c.name, err)
		}
	}
	return nil
}

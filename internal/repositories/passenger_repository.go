package repositories

import (
	"context"
	"strings"

	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/jmoiron/sqlx"
)

type PassengerRepository struct {
	DB *sqlx.DB
}

func (r PassengerRepository) db() *sqlx.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PassengerRepository) Insert(ctx context.Context, passengers []models.Passenger) error {
	if len(passengers) == 0 {
		return nil
	}
	ex := intdb.ExecutorFrom(ctx, r.db())
	stmt := ex.Rebind(`INSERT INTO bookings_passengers (booking_id, seat_no, name, phone, email, age, gender)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, p := range passengers {
		_, err := ex.ExecContext(ctx, stmt,
			p.BookingID,
			p.SeatNo,
			intdb.NullIfEmpty(strings.TrimSpace(p.Name)),
			intdb.NullIfEmpty(strings.TrimSpace(p.Phone)),
			intdb.NullIfEmpty(strings.TrimSpace(p.Email)),
			p.Age,
			intdb.NullIfEmpty(strings.TrimSpace(p.Gender)),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r PassengerRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Passenger, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	out := []models.Passenger{}
	err := ex.SelectContext(ctx, &out, ex.Rebind(`SELECT id, booking_id, seat_no,
		COALESCE(name, '') AS name, COALESCE(phone, '') AS phone, COALESCE(email, '') AS email,
		age, COALESCE(gender, '') AS gender
		FROM bookings_passengers WHERE booking_id = ? ORDER BY id ASC`), bookingID)
	return out, err
}

package repositories

import (
	"context"
	"fmt"

	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
	"github.com/jmoiron/sqlx"
)

// BookingSeatRepo stores seat holds in booked_seats, which carries the
// UNIQUE (bus_id, journey_date, seat_no) key.
type BookingSeatRepo struct {
	DB *sqlx.DB
}

func (r BookingSeatRepo) db() *sqlx.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Booked lists held labels for a trip on a date, in seat order.
func (r BookingSeatRepo) Booked(ctx context.Context, tripID int64, date string) ([]string, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	out := []string{}
	err := ex.SelectContext(ctx, &out, ex.Rebind(
		`SELECT seat_no FROM booked_seats WHERE bus_id = ? AND journey_date = ?`), tripID, date)
	if err != nil {
		return nil, err
	}
	utils.SortSeatLabels(out)
	return out, nil
}

// Conflicts returns the requested labels that are already held, in request order.
func (r BookingSeatRepo) Conflicts(ctx context.Context, tripID int64, date string, labels []string) ([]string, error) {
	if len(labels) == 0 {
		return []string{}, nil
	}
	ex := intdb.ExecutorFrom(ctx, r.db())
	args := []any{tripID, date}
	for _, l := range labels {
		args = append(args, l)
	}
	taken := []string{}
	query := `SELECT seat_no FROM booked_seats WHERE bus_id = ? AND journey_date = ? AND seat_no IN (` + intdb.Placeholders(len(labels)) + `)`
	if err := ex.SelectContext(ctx, &taken, ex.Rebind(query), args...); err != nil {
		return nil, err
	}

	held := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		held[s] = struct{}{}
	}
	out := []string{}
	for _, l := range labels {
		if _, ok := held[l]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// Insert writes one row per hold. A uniqueness failure is returned wrapping
// ErrDuplicateKey so callers can treat it as a lost race.
func (r BookingSeatRepo) Insert(ctx context.Context, holds []models.SeatHold) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	stmt := ex.Rebind(`INSERT INTO booked_seats (bus_id, journey_date, seat_no, booking_id) VALUES (?, ?, ?, ?)`)
	for _, h := range holds {
		if _, err := ex.ExecContext(ctx, stmt, h.TripID, h.JourneyDate, h.SeatNo, h.BookingID); err != nil {
			if intdb.IsUniqueViolation(err) {
				return fmt.Errorf("seat %s: %w", h.SeatNo, intdb.ErrDuplicateKey)
			}
			return err
		}
	}
	return nil
}

func (r BookingSeatRepo) DeleteByBooking(ctx context.Context, bookingID int64) (int64, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM booked_seats WHERE booking_id = ?`), bookingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r BookingSeatRepo) ListByBooking(ctx context.Context, bookingID int64) ([]string, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	out := []string{}
	err := ex.SelectContext(ctx, &out, ex.Rebind(
		`SELECT seat_no FROM booked_seats WHERE booking_id = ? ORDER BY id ASC`), bookingID)
	return out, err
}

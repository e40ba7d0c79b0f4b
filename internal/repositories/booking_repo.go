package repositories

import (
	"context"
	"strings"

	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const bookingViewSelect = `SELECT b.id, b.bus_id, b.user_id, b.passenger_name, b.passenger_phone, b.seats_booked,
	COALESCE(b.journey_date, '') AS journey_date, b.booked_at, b.status, b.payment_status,
	COALESCE(b.payment_ref, '') AS payment_ref, COALESCE(b.coupon_code, '') AS coupon_code,
	COALESCE(b.discount_amount, 0) AS discount_amount, b.fare_snapshot,
	bu.name AS bus_name, bu.from_city, bu.to_city, bu.depart_time, bu.arrive_time, bu.fare,
	COALESCE(u.email, '') AS user_email
FROM bookings b
JOIN buses bu ON bu.id = b.bus_id
LEFT JOIN users u ON u.id = b.user_id`

type BookingRepo struct {
	DB *sqlx.DB
}

func (r BookingRepo) db() *sqlx.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Create inserts the booking row; status and payment default when empty.
func (r BookingRepo) Create(ctx context.Context, b models.Booking) (int64, error) {
	if b.Status == "" {
		b.Status = models.StatusConfirmed
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = models.PaymentUnpaid
	}
	var fare any
	if b.FareSnapshot.Valid {
		fare = b.FareSnapshot.Decimal.String()
	}
	ex := intdb.ExecutorFrom(ctx, r.db())
	return intdb.InsertID(ctx, ex,
		`INSERT INTO bookings (bus_id, user_id, passenger_name, passenger_phone, seats_booked, journey_date,
		 booked_at, status, payment_status, fare_snapshot) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.TripID, b.UserID, b.PassengerName, b.PassengerPhone, b.SeatsBooked, intdb.NullIfEmpty(b.JourneyDate),
		b.BookedAt, string(b.Status), string(b.PaymentStatus), fare)
}

func (r BookingRepo) AttachCoupon(ctx context.Context, id int64, code string, discount decimal.Decimal) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE bookings SET coupon_code = ?, discount_amount = ? WHERE id = ?`),
		intdb.NullIfEmpty(code), discount.String(), id)
	if err != nil {
		return err
	}
	return requireAffected(ctx, ex, res, "bookings", id)
}

func (r BookingRepo) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE bookings SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return err
	}
	return requireAffected(ctx, ex, res, "bookings", id)
}

// UpdatePayment sets the payment status; an empty ref is stored as NULL.
func (r BookingRepo) UpdatePayment(ctx context.Context, id int64, status models.PaymentStatus, ref string) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE bookings SET payment_status = ?, payment_ref = ? WHERE id = ?`),
		string(status), intdb.NullIfEmpty(ref), id)
	if err != nil {
		return err
	}
	return requireAffected(ctx, ex, res, "bookings", id)
}

func (r BookingRepo) Snapshot(ctx context.Context, id int64) (models.BookingView, error) {
	var out models.BookingView
	if id <= 0 {
		return out, intdb.ErrNotFound
	}
	ex := intdb.ExecutorFrom(ctx, r.db())
	err := ex.GetContext(ctx, &out, ex.Rebind(bookingViewSelect+` WHERE b.id = ?`), id)
	return out, intdb.NotFound(err)
}

// ClaimByPhone links anonymous bookings with a matching phone to userID.
func (r BookingRepo) ClaimByPhone(ctx context.Context, userID int64, phone string) (int64, error) {
	phone = strings.TrimSpace(phone)
	if userID <= 0 || phone == "" {
		return 0, nil
	}
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(
		`UPDATE bookings SET user_id = ? WHERE user_id IS NULL AND passenger_phone = ?`), userID, phone)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByOwner returns bookings owned by userID or made with phone, newest first.
func (r BookingRepo) ListByOwner(ctx context.Context, userID int64, phone string) ([]models.BookingView, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	where := []string{"b.user_id = ?"}
	args := []any{userID}
	if phone = strings.TrimSpace(phone); phone != "" {
		where = append(where, "b.passenger_phone = ?")
		args = append(args, phone)
	}
	out := []models.BookingView{}
	query := bookingViewSelect + ` WHERE ` + strings.Join(where, " OR ") + ` ORDER BY b.id DESC`
	if err := ex.SelectContext(ctx, &out, ex.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r BookingRepo) List(ctx context.Context, f models.BookingFilter) ([]models.BookingView, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	where, args := bookingWhere(f)
	query := bookingViewSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY b.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	out := []models.BookingView{}
	if err := ex.SelectContext(ctx, &out, ex.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats counts bookings by status inside the filter's booked_at range.
func (r BookingRepo) Stats(ctx context.Context, f models.BookingFilter) (models.BookingStats, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	where, args := bookingWhere(models.BookingFilter{From: f.From, To: f.To})
	var out models.BookingStats
	query := `SELECT COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN b.status = 'confirmed' THEN 1 ELSE 0 END), 0) AS confirmed,
		COALESCE(SUM(CASE WHEN b.status = 'cancelled' THEN 1 ELSE 0 END), 0) AS cancelled
	FROM bookings b WHERE ` + strings.Join(where, " AND ")
	err := ex.GetContext(ctx, &out, ex.Rebind(query), args...)
	return out, err
}

func bookingWhere(f models.BookingFilter) ([]string, []any) {
	where := []string{"1=1"}
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := intdb.LikeContains(q)
		where = append(where, `(LOWER(b.passenger_name) LIKE ? OR b.passenger_phone LIKE ?
			OR LOWER(bu.name) LIKE ? OR LOWER(bu.from_city) LIKE ? OR LOWER(bu.to_city) LIKE ?)`)
		args = append(args, like, like, like, like, like)
	}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Payment != "" {
		where = append(where, "b.payment_status = ?")
		args = append(args, string(f.Payment))
	}
	if s := strings.TrimSpace(f.From); s != "" {
		where = append(where, "CAST(b.booked_at AS DATE) >= ?")
		args = append(args, s)
	}
	if s := strings.TrimSpace(f.To); s != "" {
		where = append(where, "CAST(b.booked_at AS DATE) <= ?")
		args = append(args, s)
	}
	return where, args
}

package services

import (
	"context"
	"time"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Transactor runs fn as one unit of work. Stores called with the ctx passed
// to fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TripStore interface {
	Search(ctx context.Context, f models.TripFilter) ([]models.Trip, error)
	GetByID(ctx context.Context, id int64) (models.Trip, error)
	Create(ctx context.Context, t models.Trip) (int64, error)
	Update(ctx context.Context, t models.Trip) error
	Delete(ctx context.Context, id int64) error
	Locations(ctx context.Context, prefix string, limit int) ([]string, error)
	Count(ctx context.Context) (int, error)
	ListUntagged(ctx context.Context) ([]models.Trip, error)
}

// SeatHoldStore must reject a second hold on the same (trip, date, seat)
// with an error recognised by db.IsUniqueViolation.
type SeatHoldStore interface {
	Booked(ctx context.Context, tripID int64, date string) ([]string, error)
	Conflicts(ctx context.Context, tripID int64, date string, labels []string) ([]string, error)
	Insert(ctx context.Context, holds []models.SeatHold) error
	DeleteByBooking(ctx context.Context, bookingID int64) (int64, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]string, error)
}

type BookingStore interface {
	Create(ctx context.Context, b models.Booking) (int64, error)
	AttachCoupon(ctx context.Context, id int64, code string, discount decimal.Decimal) error
	UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error
	UpdatePayment(ctx context.Context, id int64, status models.PaymentStatus, ref string) error
	Snapshot(ctx context.Context, id int64) (models.BookingView, error)
	ClaimByPhone(ctx context.Context, userID int64, phone string) (int64, error)
	ListByOwner(ctx context.Context, userID int64, phone string) ([]models.BookingView, error)
	List(ctx context.Context, f models.BookingFilter) ([]models.BookingView, error)
	Stats(ctx context.Context, f models.BookingFilter) (models.BookingStats, error)
}

type PassengerStore interface {
	Insert(ctx context.Context, passengers []models.Passenger) error
	ListByBooking(ctx context.Context, bookingID int64) ([]models.Passenger, error)
}

type UserStore interface {
	Create(ctx context.Context, u models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetRole(ctx context.Context, id int64, role string) error
	Count(ctx context.Context) (int, error)
}

type ResetTokenStore interface {
	Save(ctx context.Context, token models.ResetToken, ttl time.Duration) error
	Get(ctx context.Context, id string) (models.ResetToken, error)
	Delete(ctx context.Context, id string) error
	// Fail records a wrong code and returns the failures so far.
	Fail(ctx context.Context, id string) (int, error)
}

// Notifier announces a booking state change. Implementations must not fail
// the caller.
type Notifier interface {
	Notify(ctx context.Context, event models.BookingEvent, bookingID int64)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentUnpaid || s == PaymentPaid || s == PaymentRefunded
}

// BookingEvent is a state change announced to the booking owner.
type BookingEvent string

const (
	EventCreated   BookingEvent = "created"
	EventConfirmed BookingEvent = "confirmed"
	EventCancelled BookingEvent = "cancelled"
	EventPaid      BookingEvent = "paid"
	EventRefunded  BookingEvent = "refunded"
	EventUnpaid    BookingEvent = "unpaid"
)

type Booking struct {
	ID             int64               `db:"id" json:"id"`
	TripID         int64               `db:"bus_id" json:"bus_id"`
	UserID         *int64              `db:"user_id" json:"user_id,omitempty"`
	PassengerName  string              `db:"passenger_name" json:"passenger_name"`
	PassengerPhone string              `db:"passenger_phone" json:"passenger_phone"`
	SeatsBooked    int                 `db:"seats_booked" json:"seats_booked"`
	JourneyDate    string              `db:"journey_date" json:"journey_date,omitempty"`
	BookedAt       time.Time           `db:"booked_at" json:"booked_at"`
	Status         BookingStatus       `db:"status" json:"status"`
	PaymentStatus  PaymentStatus       `db:"payment_status" json:"payment_status"`
	PaymentRef     string              `db:"payment_ref" json:"payment_ref,omitempty"`
	CouponCode     string              `db:"coupon_code" json:"coupon_code,omitempty"`
	DiscountAmount decimal.Decimal     `db:"discount_amount" json:"discount_amount"`
	FareSnapshot   decimal.NullDecimal `db:"fare_snapshot" json:"-"`
}

// Amounts are derived on every read and never stored.
type Amounts struct {
	FarePerSeat    decimal.Decimal `json:"fare_per_seat"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// BookingView is a booking joined with its trip and owner email.
type BookingView struct {
	Booking
	BusName    string          `db:"bus_name" json:"bus_name"`
	FromCity   string          `db:"from_city" json:"from_city"`
	ToCity     string          `db:"to_city" json:"to_city"`
	DepartAt   time.Time       `db:"depart_time" json:"depart_time"`
	ArriveAt   time.Time       `db:"arrive_time" json:"arrive_time"`
	LiveFare   decimal.Decimal `db:"fare" json:"-"`
	OwnerEmail string          `db:"user_email" json:"user_email,omitempty"`

	Seats      []string    `db:"-" json:"seats,omitempty"`
	Passengers []Passenger `db:"-" json:"passengers,omitempty"`
	Amounts    Amounts     `db:"-" json:"amounts"`
}

// Fare is the per-seat fare recorded at booking time, or the trip's current
// fare for bookings made before fares were recorded.
func (v BookingView) Fare() decimal.Decimal {
	if v.FareSnapshot.Valid {
		return v.FareSnapshot.Decimal
	}
	return v.LiveFare
}

type Passenger struct {
	ID        int64   `db:"id" json:"id,omitempty"`
	BookingID int64   `db:"booking_id" json:"booking_id,omitempty"`
	SeatNo    *string `db:"seat_no" json:"seat_no"`
	Name      string  `db:"name" json:"name"`
	Phone     string  `db:"phone" json:"phone,omitempty"`
	Email     string  `db:"email" json:"email,omitempty"`
	Age       *int    `db:"age" json:"age,omitempty"`
	Gender    string  `db:"gender" json:"gender,omitempty"`
}

// SeatHold reserves one seat label on one journey date for a booking.
type SeatHold struct {
	TripID      int64  `db:"bus_id"`
	JourneyDate string `db:"journey_date"`
	SeatNo      string `db:"seat_no"`
	BookingID   int64  `db:"booking_id"`
}

// BookingFilter drives the administrator booking list. Dates are YYYY-MM-DD
// bounds on booked_at. Limit 0 means no limit.
type BookingFilter struct {
	Query   string
	Status  BookingStatus
	Payment PaymentStatus
	From    string
	To      string
	Limit   int
}

type BookingStats struct {
	Total     int `db:"total" json:"total"`
	Confirmed int `db:"confirmed" json:"confirmed"`
	Cancelled int `db:"cancelled" json:"cancelled"`
}

type Dashboard struct {
	BookingStats
	Revenue decimal.Decimal `json:"revenue"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
}

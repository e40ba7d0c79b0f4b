package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/metrics"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
	"github.com/shopspring/decimal"
)

// adminListLimit caps the administrator booking list.
const adminListLimit = 200

type PassengerInput struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Age    *int   `json:"age"`
	Gender string `json:"gender"`
}

type NewBooking struct {
	TripID         int64
	JourneyDate    string
	PassengerName  string
	PassengerPhone string
	Seats          int
	Owner          *int64
}

// BookingService is the ledger: booking rows, their passengers and seat
// holds, lifecycle and payment state.
type BookingService struct {
	Trips      TripStore
	Bookings   BookingStore
	Seats      SeatHoldStore
	Passengers PassengerStore
	Users      UserStore
	Notifier   Notifier
	Now        func() time.Time
	RequestID  string
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) notify(ctx context.Context, event models.BookingEvent, id int64) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, event, id)
}

// Create writes the booking row with the trip fare recorded on it.
func (s BookingService) Create(ctx context.Context, in NewBooking) (int64, error) {
	if in.TripID <= 0 {
		return 0, domain.ValidationError{Field: "bus_id", Msg: "required"}
	}
	if in.Seats <= 0 {
		return 0, domain.ValidationError{Field: "seats", Msg: "must be greater than 0"}
	}
	trip, err := s.Trips.GetByID(ctx, in.TripID)
	if errors.Is(err, intdb.ErrNotFound) {
		return 0, domain.NotFoundError{Resource: "bus", Err: err}
	}
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}

	id, err := s.Bookings.Create(ctx, models.Booking{
		TripID:         in.TripID,
		UserID:         in.Owner,
		PassengerName:  in.PassengerName,
		PassengerPhone: in.PassengerPhone,
		SeatsBooked:    in.Seats,
		JourneyDate:    in.JourneyDate,
		BookedAt:       s.now(),
		Status:         models.StatusConfirmed,
		PaymentStatus:  models.PaymentUnpaid,
		FareSnapshot:   decimal.NewNullDecimal(trip.Fare),
	})
	if err != nil {
		return 0, domain.InternalError{Msg: "create booking failed", Err: err}
	}
	return id, nil
}

// AttachCoupon stores the normalized code and its discount. Unknown codes
// are kept with a zero discount.
func (s BookingService) AttachCoupon(ctx context.Context, id int64, code string) (string, decimal.Decimal, error) {
	code, discount := utils.ApplyCoupon(code)
	if code == "" {
		return code, discount, nil
	}
	if err := s.Bookings.AttachCoupon(ctx, id, code, discount); err != nil {
		return code, discount, s.storeErr(err)
	}
	return code, discount, nil
}

// AttachPassengers pairs the i-th passenger with the i-th seat label; extra
// passengers get no seat. Every entry is stored, blank names as NULL.
func (s BookingService) AttachPassengers(ctx context.Context, id int64, labels []string, in []PassengerInput) error {
	rows := make([]models.Passenger, 0, len(in))
	for i, p := range in {
		row := models.Passenger{
			BookingID: id,
			Name:      utils.NormalizeSpace(p.Name),
			Phone:     strings.TrimSpace(p.Phone),
			Email:     strings.ToLower(strings.TrimSpace(p.Email)),
			Age:       p.Age,
			Gender:    strings.TrimSpace(p.Gender),
		}
		if i < len(labels) {
			seat := labels[i]
			row.SeatNo = &seat
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.Passengers.Insert(ctx, rows); err != nil {
		return domain.InternalError{Msg: "save passengers failed", Err: err}
	}
	return nil
}

func (s BookingService) SetStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if !status.Valid() {
		return domain.ValidationError{Field: "status", Msg: "must be confirmed or cancelled"}
	}
	if err := s.Bookings.UpdateStatus(ctx, id, status); err != nil {
		return s.storeErr(err)
	}
	utils.LogEvent(s.RequestID, "booking", "set_status", fmt.Sprintf("booking_id=%d status=%s", id, status))
	s.notify(ctx, models.BookingEvent(status), id)
	return nil
}

// SetPayment applies any payment status. Moving to paid without a
// reference generates TXN<unix><id>.
func (s BookingService) SetPayment(ctx context.Context, id int64, status models.PaymentStatus, ref string) (string, error) {
	if !status.Valid() {
		return "", domain.ValidationError{Field: "payment_status", Msg: "must be paid, unpaid or refunded"}
	}
	ref = strings.TrimSpace(ref)
	if status == models.PaymentPaid && ref == "" {
		ref = fmt.Sprintf("TXN%d%d", s.now().Unix(), id)
	}
	if err := s.Bookings.UpdatePayment(ctx, id, status, ref); err != nil {
		return "", s.storeErr(err)
	}
	utils.LogEvent(s.RequestID, "booking", "set_payment", fmt.Sprintf("booking_id=%d payment=%s", id, status))
	s.notify(ctx, models.BookingEvent(status), id)
	return ref, nil
}

// ReleaseSeats frees every seat held by the booking. Status and payment
// are left as they are.
func (s BookingService) ReleaseSeats(ctx context.Context, id int64) (int64, error) {
	if _, err := s.Bookings.Snapshot(ctx, id); err != nil {
		return 0, s.storeErr(err)
	}
	n, err := s.Seats.DeleteByBooking(ctx, id)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	metrics.SeatHoldsReleased(n)
	utils.LogEvent(s.RequestID, "booking", "release_seats", fmt.Sprintf("booking_id=%d released=%d", id, n))
	return n, nil
}

// Pay marks the caller's booking paid.
func (s BookingService) Pay(ctx context.Context, rc domain.RequestContext, id int64) (string, error) {
	if _, err := s.authorize(ctx, rc, id, false); err != nil {
		return "", err
	}
	return s.SetPayment(ctx, id, models.PaymentPaid, "")
}

func (s BookingService) Cancel(ctx context.Context, rc domain.RequestContext, id int64) error {
	if _, err := s.authorize(ctx, rc, id, false); err != nil {
		return err
	}
	return s.SetStatus(ctx, id, models.StatusCancelled)
}

// Get returns the full snapshot with seats, passengers and amounts.
func (s BookingService) Get(ctx context.Context, id int64) (models.BookingView, error) {
	v, err := s.Bookings.Snapshot(ctx, id)
	if err != nil {
		return v, s.storeErr(err)
	}
	return s.complete(ctx, v)
}

// GetForCaller allows administrators, the owning user, and a user whose
// profile phone matches the booking phone.
func (s BookingService) GetForCaller(ctx context.Context, rc domain.RequestContext, id int64) (models.BookingView, error) {
	v, err := s.authorize(ctx, rc, id, true)
	if err != nil {
		return v, err
	}
	return s.complete(ctx, v)
}

func (s BookingService) authorize(ctx context.Context, rc domain.RequestContext, id int64, phoneMatch bool) (models.BookingView, error) {
	v, err := s.Bookings.Snapshot(ctx, id)
	if err != nil {
		return v, s.storeErr(err)
	}
	if rc.IsAdmin() {
		return v, nil
	}
	if !rc.Authenticated() {
		return v, domain.ForbiddenError{Msg: "login required"}
	}
	if v.UserID != nil && *v.UserID == rc.UserID {
		return v, nil
	}
	if phoneMatch && s.Users != nil {
		u, err := s.Users.GetByID(ctx, rc.UserID)
		if err == nil && u.Phone != "" && u.Phone == v.PassengerPhone {
			return v, nil
		}
	}
	return v, domain.ForbiddenError{Msg: "not your booking"}
}

func (s BookingService) complete(ctx context.Context, v models.BookingView) (models.BookingView, error) {
	seats, err := s.Seats.ListByBooking(ctx, v.ID)
	if err != nil {
		return v, domain.InternalError{Err: err}
	}
	passengers, err := s.Passengers.ListByBooking(ctx, v.ID)
	if err != nil {
		return v, domain.InternalError{Err: err}
	}
	v.Seats = seats
	v.Passengers = passengers
	v.Amounts = utils.ComputeAmounts(v.SeatsBooked, v.Fare(), v.DiscountAmount)
	return v, nil
}

func withAmounts(list []models.BookingView) []models.BookingView {
	for i := range list {
		list[i].Amounts = utils.ComputeAmounts(list[i].SeatsBooked, list[i].Fare(), list[i].DiscountAmount)
	}
	return list
}

// ListByOwner claims anonymous bookings made with the caller's profile
// phone, then lists bookings by user id or that phone.
func (s BookingService) ListByOwner(ctx context.Context, rc domain.RequestContext) ([]models.BookingView, error) {
	if !rc.Authenticated() {
		return nil, domain.ForbiddenError{Msg: "login required"}
	}
	phone := ""
	if s.Users != nil {
		if u, err := s.Users.GetByID(ctx, rc.UserID); err == nil {
			phone = u.Phone
		}
	}
	if phone != "" {
		n, err := s.Bookings.ClaimByPhone(ctx, rc.UserID, phone)
		if err != nil {
			utils.LogError(s.RequestID, "booking", "claim_by_phone", err)
		} else if n > 0 {
			utils.LogEvent(s.RequestID, "booking", "claim_by_phone", fmt.Sprintf("user_id=%d claimed=%d", rc.UserID, n))
		}
	}
	list, err := s.Bookings.ListByOwner(ctx, rc.UserID, phone)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return withAmounts(list), nil
}

func (s BookingService) ListAdmin(ctx context.Context, f models.BookingFilter) ([]models.BookingView, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.ValidationError{Field: "status", Msg: "unknown status"}
	}
	if f.Payment != "" && !f.Payment.Valid() {
		return nil, domain.ValidationError{Field: "payment", Msg: "unknown payment status"}
	}
	f.Limit = adminListLimit
	list, err := s.Bookings.List(ctx, f)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return withAmounts(list), nil
}

func (s BookingService) storeErr(err error) error {
	if errors.Is(err, intdb.ErrNotFound) {
		return domain.NotFoundError{Resource: "booking", Err: err}
	}
	return domain.InternalError{Err: err}
}

package services

import (
	"context"
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

type ReservationRequest struct {
	TripID         int64
	JourneyDate    string
	SeatLabels     []string
	Seats          int
	PassengerName  string
	PassengerPhone string
	Passengers     []PassengerInput
	CouponCode     string
}

type ReservationResult struct {
	BookingID      int64           `json:"booking_id"`
	Seats          []string        `json:"seats"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// ReservationService writes a booking, its passengers and its seat holds as
// one unit. Seat uniqueness is enforced by the hold store; the read-side
// conflict check only fails early.
type ReservationService struct {
	Tx       Transactor
	Ledger   BookingService
	SeatMap  SeatMapService
	Notifier Notifier
}

func (s ReservationService) Reserve(ctx context.Context, rc domain.RequestContext, req ReservationRequest) (ReservationResult, error) {
	started := time.Now()
	res, err := s.reserve(ctx, rc, req)
	metrics.ObserveReservation(reservationOutcome(err), started)
	return res, err
}

func reservationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case domain.IsSeatConflict(err):
		return metrics.OutcomeConflict
	case domain.IsValidation(err), domain.IsNotFound(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func (s ReservationService) reserve(ctx context.Context, rc domain.RequestContext, req ReservationRequest) (ReservationResult, error) {
	var out ReservationResult
	labels, dup := utils.NormalizeSeatLabels(req.SeatLabels)
	if dup != "" {
		return out, domain.ValidationError{Field: "seat_numbers", Msg: "seat " + dup + " requested twice"}
	}
	if req.Seats < 0 {
		return out, domain.ValidationError{Field: "seats", Msg: "must be greater than 0"}
	}
	seats := req.Seats
	if seats == 0 {
		seats = len(labels)
	}
	if req.TripID <= 0 {
		return out, domain.ValidationError{Field: "bus_id", Msg: "required"}
	}
	if seats == 0 {
		return out, domain.ValidationError{Field: "seats", Msg: "must be greater than 0"}
	}
	date := strings.TrimSpace(req.JourneyDate)
	if date != "" && !utils.IsDate(date) {
		return out, domain.ValidationError{Field: "journey_date", Msg: "expected YYYY-MM-DD"}
	}
	name := utils.NormalizeSpace(req.PassengerName)
	phone := strings.TrimSpace(req.PassengerPhone)
	if name == "" && len(req.Passengers) > 0 {
		name = utils.NormalizeSpace(req.Passengers[0].Name)
	}
	if phone == "" && len(req.Passengers) > 0 {
		phone = strings.TrimSpace(req.Passengers[0].Phone)
	}
	holdSeats := date != "" && len(labels) > 0

	if holdSeats {
		taken, err := s.SeatMap.FindConflicts(ctx, req.TripID, date, labels)
		if err != nil {
			return out, err
		}
		if len(taken) > 0 {
			return out, domain.SeatConflictError{Taken: taken}
		}
	}

	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		id, err := s.Ledger.Create(ctx, NewBooking{
			TripID:         req.TripID,
			JourneyDate:    date,
			PassengerName:  name,
			PassengerPhone: phone,
			Seats:          seats,
			Owner:          rc.Owner(),
		})
		if err != nil {
			return err
		}
		out.BookingID = id

		out.CouponCode, out.DiscountAmount, err = s.Ledger.AttachCoupon(ctx, id, req.CouponCode)
		if err != nil {
			return err
		}
		if err := s.Ledger.AttachPassengers(ctx, id, labels, req.Passengers); err != nil {
			return err
		}
		if !holdSeats {
			return nil
		}
		// lock order is the label order, so overlapping requests cannot deadlock
		ordered := append([]string(nil), labels...)
		utils.SortSeatLabels(ordered)
		holds := make([]models.SeatHold, 0, len(ordered))
		for _, l := range ordered {
			holds = append(holds, models.SeatHold{TripID: req.TripID, JourneyDate: date, SeatNo: l, BookingID: id})
		}
		return s.SeatMap.Seats.Insert(ctx, holds)
	})
	if err != nil {
		return ReservationResult{}, s.failure(ctx, rc, req.TripID, date, labels, err)
	}

	out.Seats = labels
	utils.LogEvent(rc.RequestID, "reservation", "reserve",
		fmt.Sprintf("booking_id=%d bus_id=%d date=%s seats=%d", out.BookingID, req.TripID, date, seats))
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, models.EventCreated, out.BookingID)
	}
	return out, nil
}

// failure classifies an error from the unit of work. A uniqueness failure
// or a deadlock on the hold insert means another reservation won the race
// for at least one seat.
func (s ReservationService) failure(ctx context.Context, rc domain.RequestContext, tripID int64, date string, labels []string, err error) error {
	if intdb.IsUniqueViolation(err) || intdb.IsDeadlock(err) {
		taken, qerr := s.SeatMap.FindConflicts(ctx, tripID, date, labels)
		if qerr != nil || len(taken) == 0 {
			taken = labels
		}
		utils.LogEvent(rc.RequestID, "reservation", "reserve", fmt.Sprintf("lost race bus_id=%d date=%s taken=%v", tripID, date, taken))
		return domain.SeatConflictError{Taken: taken, Err: err}
	}
	if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsConflict(err) || domain.IsInternal(err) {
		return err
	}
	utils.LogError(rc.RequestID, "reservation", "reserve", err)
	return domain.InternalError{Msg: "reservation failed", Err: err}
}

package services

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
)

var (
	tripCSVHeader    = []string{"id", "name", "from_city", "to_city", "depart_time", "arrive_time", "seats_total", "fare"}
	bookingCSVHeader = []string{
		"id", "bus_name", "from_city", "to_city", "passenger_name", "passenger_phone", "seats_booked",
		"booked_at", "status", "payment_status", "payment_ref", "fare", "discount", "coupon", "amount",
	}
)

// ExportTrips writes every trip as CSV, ordered by id.
func (s ReportsService) ExportTrips(ctx context.Context, w io.Writer) error {
	trips, err := s.Trips.Search(ctx, models.TripFilter{})
	if err != nil {
		return domain.InternalError{Err: err}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].ID < trips[j].ID })

	cw := csv.NewWriter(w)
	if err := cw.Write(tripCSVHeader); err != nil {
		return domain.InternalError{Err: err}
	}
	for _, t := range trips {
		err := cw.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Operator,
			t.FromCity,
			t.ToCity,
			utils.FormatDateTime(t.DepartAt),
			utils.FormatDateTime(t.ArriveAt),
			strconv.Itoa(t.Capacity()),
			t.Fare.StringFixed(2),
		})
		if err != nil {
			return domain.InternalError{Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// ExportBookings writes the bookings matching f as CSV, newest first, with
// the amount derived the same way as the dashboard.
func (s ReportsService) ExportBookings(ctx context.Context, w io.Writer, f models.BookingFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return domain.ValidationError{Field: "status", Msg: "unknown status"}
	}
	if f.Payment != "" && !f.Payment.Valid() {
		return domain.ValidationError{Field: "payment", Msg: "unknown payment status"}
	}
	list, err := s.Bookings.List(ctx, f)
	if err != nil {
		return domain.InternalError{Err: err}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(bookingCSVHeader); err != nil {
		return domain.InternalError{Err: err}
	}
	for _, v := range list {
		a := utils.ComputeAmounts(v.SeatsBooked, v.Fare(), v.DiscountAmount)
		err := cw.Write([]string{
			strconv.FormatInt(v.ID, 10),
			v.BusName,
			v.FromCity,
			v.ToCity,
			v.PassengerName,
			v.PassengerPhone,
			strconv.Itoa(v.SeatsBooked),
			utils.FormatDateTime(v.BookedAt),
			string(v.Status),
			string(v.PaymentStatus),
			v.PaymentRef,
			a.FarePerSeat.StringFixed(2),
			a.DiscountAmount.StringFixed(2),
			v.CouponCode,
			a.TotalAmount.StringFixed(2),
		})
		if err != nil {
			return domain.InternalError{Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

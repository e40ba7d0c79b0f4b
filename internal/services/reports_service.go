package services

import (
	"context"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
	"github.com/shopspring/decimal"
)

type ReportsService struct {
	Trips    TripStore
	Bookings BookingStore
}

// Dashboard counts bookings in the booked_at range and sums the payable
// total of paid bookings.
func (s ReportsService) Dashboard(ctx context.Context, from, to string) (models.Dashboard, error) {
	out := models.Dashboard{From: from, To: to, Revenue: decimal.Zero}
	for _, d := range []struct{ field, v string }{{"from", from}, {"to", to}} {
		if d.v != "" && !utils.IsDate(d.v) {
			return out, domain.ValidationError{Field: d.field, Msg: "expected YYYY-MM-DD"}
		}
	}

	stats, err := s.Bookings.Stats(ctx, models.BookingFilter{From: from, To: to})
	if err != nil {
		return out, domain.InternalError{Err: err}
	}
	out.BookingStats = stats

	paid, err := s.Bookings.List(ctx, models.BookingFilter{From: from, To: to, Payment: models.PaymentPaid})
	if err != nil {
		return out, domain.InternalError{Err: err}
	}
	for _, v := range paid {
		out.Revenue = out.Revenue.Add(utils.ComputeAmounts(v.SeatsBooked, v.Fare(), v.DiscountAmount).TotalAmount)
	}
	return out, nil
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/http/middleware"
	"github.com/Harsha992004/online-bus-booking-app/internal/services"

	"github.com/gin-gonic/gin"
)

type reservationPayload struct {
	BusID       Stringish                 `json:"bus_id"`
	Date        string                    `json:"date"`
	SeatNumbers SeatList                  `json:"seat_numbers"`
	Seats       Stringish                 `json:"seats"`
	Name        string                    `json:"name"`
	Phone       string                    `json:"phone"`
	Passengers  []services.PassengerInput `json:"passengers"`
	CouponCode  string                    `json:"coupon_code"`
}

func (p reservationPayload) request() services.ReservationRequest {
	return services.ReservationRequest{
		TripID:         p.BusID.Int(),
		JourneyDate:    strings.TrimSpace(p.Date),
		SeatLabels:     p.SeatNumbers,
		Seats:          int(p.Seats.Int()),
		PassengerName:  p.Name,
		PassengerPhone: p.Phone,
		Passengers:     p.Passengers,
		CouponCode:     p.CouponCode,
	}
}

// POST /api/bookings
// Anonymous callers may book; an authenticated caller becomes the owner.
func (h *Handler) CreateBooking(c *gin.Context) {
	var p reservationPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	res, err := h.reservation(c).Reserve(c.Request.Context(), middleware.Caller(c), p.request())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/bookings/mine
func (h *Handler) MyBookings(c *gin.Context) {
	list, err := h.ledger(c).ListByOwner(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if list == nil {
		list = []models.BookingView{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := h.ledger(c).GetForCaller(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// POST /api/bookings/:id/pay
func (h *Handler) PayBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ref, err := h.ledger(c).Pay(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "payment_status": models.PaymentPaid, "payment_ref": ref})
}

// POST /api/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ledger(c).Cancel(c.Request.Context(), middleware.Caller(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": models.StatusCancelled})
}

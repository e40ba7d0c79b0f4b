package handlers

import (
	"net/http"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func adminFilter(c *gin.Context) models.BookingFilter {
	return models.BookingFilter{
		Query:   strings.TrimSpace(c.Query("q")),
		Status:  models.BookingStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Payment: models.PaymentStatus(strings.ToLower(strings.TrimSpace(c.Query("payment")))),
		From:    strings.TrimSpace(c.Query("from")),
		To:      strings.TrimSpace(c.Query("to")),
	}
}

// GET /api/admin/bookings?q=&status=&payment=&from=&to=
func (h *Handler) AdminBookings(c *gin.Context) {
	list, err := h.ledger(c).ListAdmin(c.Request.Context(), adminFilter(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if list == nil {
		list = []models.BookingView{}
	}
	c.JSON(http.StatusOK, list)
}

type statusPayload struct {
	Status string `json:"status"`
}

// POST /api/admin/bookings/:id/status
func (h *Handler) AdminSetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p statusPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	status := models.BookingStatus(strings.ToLower(strings.TrimSpace(p.Status)))
	if err := h.ledger(c).SetStatus(c.Request.Context(), id, status); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

type paymentPayload struct {
	PaymentStatus string `json:"payment_status"`
	PaymentRef    string `json:"payment_ref"`
}

// POST /api/admin/bookings/:id/payment
// Any transition is allowed, including paid back to unpaid.
func (h *Handler) AdminSetPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p paymentPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	status := models.PaymentStatus(strings.ToLower(strings.TrimSpace(p.PaymentStatus)))
	ref, err := h.ledger(c).SetPayment(c.Request.Context(), id, status, p.PaymentRef)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "payment_status": status, "payment_ref": ref})
}

// POST /api/admin/bookings/:id/release-seats
func (h *Handler) AdminReleaseSeats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.ledger(c).ReleaseSeats(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "released": n})
}

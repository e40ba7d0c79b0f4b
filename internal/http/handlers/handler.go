package handlers

import (
	"context"

	"github.com/Harsha992004/online-bus-booking-app/internal/http/middleware"
	"github.com/Harsha992004/online-bus-booking-app/internal/services"

	"github.com/gin-gonic/gin"
)

// Handler holds the services behind the HTTP surface. Each request works on
// copies tagged with its request id.
type Handler struct {
	Catalog     services.CatalogService
	SeatMap     services.SeatMapService
	Ledger      services.BookingService
	Reservation services.ReservationService
	Reports     services.ReportsService
	Docs        services.DocsService
	Accounts    services.AuthService

	// Ping checks the backing store; nil means an in-process store.
	Ping func(ctx context.Context) error
}

func (h *Handler) catalog(c *gin.Context) services.CatalogService {
	s := h.Catalog
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handler) ledger(c *gin.Context) services.BookingService {
	s := h.Ledger
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handler) reservation(c *gin.Context) services.ReservationService {
	s := h.Reservation
	s.Ledger = h.ledger(c)
	return s
}

func (h *Handler) docs(c *gin.Context) services.DocsService {
	s := h.Docs
	s.Ledger = h.ledger(c)
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handler) accounts(c *gin.Context) services.AuthService {
	s := h.Accounts
	s.RequestID = middleware.GetRequestID(c)
	return s
}

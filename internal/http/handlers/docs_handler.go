package handlers

import (
	"net/http"

	"github.com/Harsha992004/online-bus-booking-app/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/:id/ticket.pdf returns the e-ticket inline.
func (h *Handler) TicketPDF(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pdfBytes, filename, err := h.docs(c).TicketPDF(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/dashboard?from=&to=
func (h *Handler) Dashboard(c *gin.Context) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))

	d, err := h.Reports.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/admin/export/buses.csv
func (h *Handler) ExportTripsCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Reports.ExportTrips(c.Request.Context(), &buf); err != nil {
		RespondDomainError(c, err)
		return
	}
	sendCSV(c, "buses.csv", buf.Bytes())
}

// GET /api/admin/export/bookings.csv accepts the admin bookings filters.
func (h *Handler) ExportBookingsCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Reports.ExportBookings(c.Request.Context(), &buf, adminFilter(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	sendCSV(c, "bookings.csv", buf.Bytes())
}

func sendCSV(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

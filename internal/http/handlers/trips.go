package handlers

import (
	"net/http"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/trips
func (h *Handler) SearchTrips(c *gin.Context) {
	in := services.SearchInput{
		From:     c.Query("from"),
		To:       c.Query("to"),
		Date:     c.Query("date"),
		Operator: c.Query("operator"),
		FareMin:  c.Query("fare_min"),
		FareMax:  c.Query("fare_max"),
		Type:     c.Query("type"),
	}
	trips, err := h.catalog(c).Search(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	c.JSON(http.StatusOK, trips)
}

// GET /api/trips/:id
func (h *Handler) GetTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	trip, err := h.catalog(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// GET /api/trips/:id/seats?date=YYYY-MM-DD
func (h *Handler) TripSeats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.SeatMap.Availability(c.Request.Context(), id, strings.TrimSpace(c.Query("date")))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/locations?q=
func (h *Handler) Locations(c *gin.Context) {
	cities, err := h.catalog(c).Locations(c.Request.Context(), c.Query("q"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	c.JSON(http.StatusOK, cities)
}

// tripPayload lets clients send fare and seats_total as numbers or strings.
type tripPayload struct {
	Name       string    `json:"name"`
	FromCity   string    `json:"from_city"`
	ToCity     string    `json:"to_city"`
	DepartTime string    `json:"depart_time"`
	ArriveTime string    `json:"arrive_time"`
	SeatsTotal Stringish `json:"seats_total"`
	Fare       Stringish `json:"fare"`
	Tags       []string  `json:"vehicle_tags"`
}

func (p tripPayload) input() services.TripInput {
	return services.TripInput{
		Operator:   p.Name,
		FromCity:   p.FromCity,
		ToCity:     p.ToCity,
		DepartTime: p.DepartTime,
		ArriveTime: p.ArriveTime,
		SeatsTotal: int(p.SeatsTotal.Int()),
		Fare:       p.Fare.String(),
		Tags:       p.Tags,
	}
}

// POST /api/admin/trips
func (h *Handler) CreateTrip(c *gin.Context) {
	var p tripPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	trip, err := h.catalog(c).Create(c.Request.Context(), p.input())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// PUT /api/admin/trips/:id
func (h *Handler) UpdateTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p tripPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	trip, err := h.catalog(c).Update(c.Request.Context(), id, p.input())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// DELETE /api/admin/trips/:id
func (h *Handler) DeleteTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog(c).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

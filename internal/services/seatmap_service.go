package services

import (
	"context"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
)

// seatLayout is descriptive only; labels are 1..capacity.
const seatLayout = "2x2"

type SeatMapService struct {
	Trips TripStore
	Seats SeatHoldStore
}

// Availability returns the seat map for a trip. An empty date resolves to
// the trip's scheduled departure date.
func (s SeatMapService) Availability(ctx context.Context, tripID int64, date string) (models.SeatMapView, error) {
	trip, err := CatalogService{Trips: s.Trips}.Get(ctx, tripID)
	if err != nil {
		return models.SeatMapView{}, err
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = trip.DepartDate()
	} else if !utils.IsDate(date) {
		return models.SeatMapView{}, domain.ValidationError{Field: "date", Msg: "expected YYYY-MM-DD"}
	}

	booked, err := s.Seats.Booked(ctx, tripID, date)
	if err != nil {
		return models.SeatMapView{}, domain.InternalError{Err: err}
	}
	return models.SeatMapView{
		TripID:     trip.ID,
		Date:       date,
		Layout:     seatLayout,
		Fare:       trip.Fare,
		SeatsTotal: trip.Capacity(),
		Booked:     booked,
		Seats:      utils.SeatLabels(trip.Capacity()),
	}, nil
}

// FindConflicts returns the requested labels already held for (trip, date).
func (s SeatMapService) FindConflicts(ctx context.Context, tripID int64, date string, labels []string) ([]string, error) {
	if len(labels) == 0 || date == "" {
		return []string{}, nil
	}
	taken, err := s.Seats.Conflicts(ctx, tripID, date, labels)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return taken, nil
}

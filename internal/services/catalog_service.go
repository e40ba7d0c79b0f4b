package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
)

// SearchInput is the raw query as received. Unparseable fare bounds and
// unknown type hints are ignored rather than rejected.
type SearchInput struct {
	From     string
	To       string
	Date     string
	Operator string
	FareMin  string
	FareMax  string
	Type     string
}

func (in SearchInput) Filter() models.TripFilter {
	f := models.TripFilter{
		From:     strings.TrimSpace(in.From),
		To:       strings.TrimSpace(in.To),
		Date:     strings.TrimSpace(in.Date),
		Operator: strings.TrimSpace(in.Operator),
	}
	if v, ok := utils.ParseAmount(in.FareMin); ok {
		f.FareMin = &v
	}
	if v, ok := utils.ParseAmount(in.FareMax); ok {
		f.FareMax = &v
	}
	if t, ok := models.ParseVehicleTag(in.Type); ok {
		f.Type = t
	}
	return f
}

// TripInput is an administrator create/update payload.
type TripInput struct {
	Operator   string   `json:"name"`
	FromCity   string   `json:"from_city"`
	ToCity     string   `json:"to_city"`
	DepartTime string   `json:"depart_time"`
	ArriveTime string   `json:"arrive_time"`
	SeatsTotal int      `json:"seats_total"`
	Fare       string   `json:"fare"`
	Tags       []string `json:"vehicle_tags"`
}

type CatalogService struct {
	Trips     TripStore
	RequestID string
}

func (s CatalogService) Search(ctx context.Context, in SearchInput) ([]models.Trip, error) {
	trips, err := s.Trips.Search(ctx, in.Filter())
	if err != nil {
		return nil, domain.InternalError{Msg: "search failed", Err: err}
	}
	return trips, nil
}

func (s CatalogService) Get(ctx context.Context, id int64) (models.Trip, error) {
	if id <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "bus_id", Msg: "invalid id"}
	}
	t, err := s.Trips.GetByID(ctx, id)
	if errors.Is(err, intdb.ErrNotFound) {
		return t, domain.NotFoundError{Resource: "bus", Err: err}
	}
	if err != nil {
		return t, domain.InternalError{Err: err}
	}
	return t, nil
}

func (s CatalogService) Locations(ctx context.Context, prefix string) ([]string, error) {
	out, err := s.Trips.Locations(ctx, prefix, 20)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	return out, nil
}

func (s CatalogService) Create(ctx context.Context, in TripInput) (models.Trip, error) {
	t, err := tripFromInput(in)
	if err != nil {
		return t, err
	}
	id, err := s.Trips.Create(ctx, t)
	if err != nil {
		return t, domain.InternalError{Err: err}
	}
	t.ID = id
	utils.LogEvent(s.RequestID, "catalog", "create_trip", fmt.Sprintf("bus_id=%d tags=%s", id, t.Tags.Encode()))
	return t, nil
}

func (s CatalogService) Update(ctx context.Context, id int64, in TripInput) (models.Trip, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return models.Trip{}, err
	}
	t, err := tripFromInput(in)
	if err != nil {
		return t, err
	}
	t.ID = id
	if err := s.Trips.Update(ctx, t); err != nil {
		if errors.Is(err, intdb.ErrNotFound) {
			return t, domain.NotFoundError{Resource: "bus", Err: err}
		}
		return t, domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "catalog", "update_trip", fmt.Sprintf("bus_id=%d", id))
	return t, nil
}

// Delete refuses trips that bookings still reference.
func (s CatalogService) Delete(ctx context.Context, id int64) error {
	err := s.Trips.Delete(ctx, id)
	switch {
	case err == nil:
		utils.LogEvent(s.RequestID, "catalog", "delete_trip", fmt.Sprintf("bus_id=%d", id))
		return nil
	case errors.Is(err, intdb.ErrNotFound):
		return domain.NotFoundError{Resource: "bus", Err: err}
	case intdb.IsForeignKeyViolation(err):
		return domain.ConflictError{Resource: "bus", Msg: "bus has bookings", Err: err}
	default:
		return domain.InternalError{Err: err}
	}
}

func tripFromInput(in TripInput) (models.Trip, error) {
	var t models.Trip
	t.Operator = utils.NormalizeSpace(in.Operator)
	t.FromCity = utils.NormalizeSpace(in.FromCity)
	t.ToCity = utils.NormalizeSpace(in.ToCity)
	if t.Operator == "" || t.FromCity == "" || t.ToCity == "" {
		return t, domain.ValidationError{Msg: "name, from_city and to_city are required"}
	}

	depart, err := utils.ParseDateTime(in.DepartTime)
	if err != nil {
		return t, domain.ValidationError{Field: "depart_time", Msg: "expected YYYY-MM-DD HH:MM", Err: err}
	}
	arrive, err := utils.ParseDateTime(in.ArriveTime)
	if err != nil {
		return t, domain.ValidationError{Field: "arrive_time", Msg: "expected YYYY-MM-DD HH:MM", Err: err}
	}
	if arrive.Before(depart) {
		return t, domain.ValidationError{Field: "arrive_time", Msg: "must not be before depart_time"}
	}
	t.DepartAt, t.ArriveAt = depart, arrive

	t.SeatsTotal = in.SeatsTotal
	if t.SeatsTotal <= 0 {
		t.SeatsTotal = models.DefaultSeatsTotal
	}
	fare, ok := utils.ParseAmount(in.Fare)
	if !ok || fare.IsNegative() {
		return t, domain.ValidationError{Field: "fare", Msg: "must be a number >= 0"}
	}
	t.Fare = fare

	for _, raw := range in.Tags {
		tag, ok := models.ParseVehicleTag(raw)
		if !ok {
			return t, domain.ValidationError{Field: "vehicle_tags", Msg: "unknown tag " + raw}
		}
		if !t.Tags.Has(tag) {
			t.Tags = append(t.Tags, tag)
		}
	}
	if len(t.Tags) == 0 {
		t.Tags = models.ClassifyOperator(t.Operator)
	}
	return t, nil
}

// SeedIfEmpty inserts the default timetable when no trips exist.
func (s CatalogService) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.Trips.Count(ctx)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	if n > 0 {
		return 0, nil
	}
	inserted := 0
	for _, in := range defaultTrips {
		if _, err := s.Create(ctx, in); err != nil {
			return inserted, err
		}
		inserted++
	}
	utils.LogEvent(s.RequestID, "catalog", "seed", fmt.Sprintf("inserted=%d", inserted))
	return inserted, nil
}

// BackfillVehicleTags classifies trips stored without tags.
func (s CatalogService) BackfillVehicleTags(ctx context.Context) (int, error) {
	trips, err := s.Trips.ListUntagged(ctx)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	for i, t := range trips {
		t.Tags = models.ClassifyOperator(t.Operator)
		if err := s.Trips.Update(ctx, t); err != nil {
			return i, domain.InternalError{Err: err}
		}
	}
	if len(trips) > 0 {
		utils.LogEvent(s.RequestID, "catalog", "backfill_tags", fmt.Sprintf("updated=%d", len(trips)))
	}
	return len(trips), nil
}

var defaultTrips = []TripInput{
	{Operator: "APSRTC Express", FromCity: "Hyderabad", ToCity: "Vijayawada", DepartTime: "2025-11-06 06:00", ArriveTime: "2025-11-06 11:00", SeatsTotal: 48, Fare: "650"},
	{Operator: "Kaveri Travels", FromCity: "Hyderabad", ToCity: "Vijayawada", DepartTime: "2025-11-06 18:00", ArriveTime: "2025-11-06 23:00", SeatsTotal: 40, Fare: "700"},
	{Operator: "Orange Travels", FromCity: "Hyderabad", ToCity: "Visakhapatnam", DepartTime: "2025-11-07 19:30", ArriveTime: "2025-11-08 06:30", SeatsTotal: 40, Fare: "1100"},
	{Operator: "Morning Star", FromCity: "Vijayawada", ToCity: "Visakhapatnam", DepartTime: "2025-11-05 07:00", ArriveTime: "2025-11-05 12:00", SeatsTotal: 40, Fare: "550"},
	{Operator: "V Kaveri", FromCity: "Tirupati", ToCity: "Hyderabad", DepartTime: "2025-11-04 20:30", ArriveTime: "2025-11-05 07:00", SeatsTotal: 36, Fare: "900"},
	{Operator: "TSRTC Super Luxury", FromCity: "Warangal", ToCity: "Hyderabad", DepartTime: "2025-11-03 06:30", ArriveTime: "2025-11-03 09:30", SeatsTotal: 50, Fare: "350"},
	{Operator: "TSRTC Rajadhani", FromCity: "Karimnagar", ToCity: "Hyderabad", DepartTime: "2025-11-03 07:00", ArriveTime: "2025-11-03 10:30", SeatsTotal: 44, Fare: "400"},
	{Operator: "Jabbar Travels", FromCity: "Kurnool", ToCity: "Hyderabad", DepartTime: "2025-11-02 05:30", ArriveTime: "2025-11-02 09:45", SeatsTotal: 40, Fare: "520"},
	{Operator: "Diwakar Travels", FromCity: "Guntur", ToCity: "Hyderabad", DepartTime: "2025-11-02 21:00", ArriveTime: "2025-11-03 03:30", SeatsTotal: 40, Fare: "600"},
	{Operator: "Komitla", FromCity: "Rajahmundry", ToCity: "Visakhapatnam", DepartTime: "2025-11-01 08:00", ArriveTime: "2025-11-01 11:30", SeatsTotal: 38, Fare: "420"},
	{Operator: "APSRTC Garuda", FromCity: "Nellore", ToCity: "Tirupati", DepartTime: "2025-11-05 06:30", ArriveTime: "2025-11-05 09:00", SeatsTotal: 45, Fare: "300"},
	{Operator: "SVKDT Travels", FromCity: "Vijayawada", ToCity: "Hyderabad", DepartTime: "2025-11-07 22:00", ArriveTime: "2025-11-08 04:30", SeatsTotal: 40, Fare: "700"},
}

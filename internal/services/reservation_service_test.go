package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestReserveThenRepeatConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := ReservationRequest{
		TripID:         f.tripID,
		JourneyDate:    "2025-10-30",
		SeatLabels:     []string{"A1", "A2"},
		PassengerName:  "Ravi",
		PassengerPhone: "9000000001",
	}

	res, err := f.reserve.Reserve(ctx, domain.RequestContext{}, req)
	require.NoError(t, err)
	assert.Positive(t, res.BookingID)
	assert.Equal(t, []string{"A1", "A2"}, res.Seats)

	view, err := f.seatMap.Availability(ctx, f.tripID, "2025-10-30")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2"}, view.Booked)

	_, err = f.reserve.Reserve(ctx, domain.RequestContext{}, req)
	require.Error(t, err)
	assert.True(t, domain.IsSeatConflict(err))
	assert.Equal(t, []string{"A1", "A2"}, domain.TakenSeats(err))

	assert.Equal(t, []sentEvent{{models.EventCreated, res.BookingID}}, f.notifier.Events())
}

func TestReserveConflictWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"3"}, PassengerName: "A", PassengerPhone: "1",
	})
	require.NoError(t, err)

	_, err = f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"4", "3"}, PassengerName: "B", PassengerPhone: "2",
	})
	require.True(t, domain.IsSeatConflict(err), "got %v", err)
	assert.Equal(t, []string{"3"}, domain.TakenSeats(err))

	list, err := f.store.Bookings.List(ctx, models.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	booked, err := f.store.Seats.Booked(ctx, f.tripID, "2025-10-30")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, booked)
}

// racingSeats hides existing holds from the read-side check so the insert
// hits the uniqueness constraint.
type racingSeats struct {
	SeatHoldStore
	blind bool
}

func (r *racingSeats) Conflicts(ctx context.Context, tripID int64, date string, labels []string) ([]string, error) {
	if r.blind {
		r.blind = false
		return []string{}, nil
	}
	return r.SeatHoldStore.Conflicts(ctx, tripID, date, labels)
}

func TestReserveLostRaceRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"7"}, PassengerName: "A", PassengerPhone: "1",
	})
	require.NoError(t, err)

	seats := &racingSeats{SeatHoldStore: f.store.Seats, blind: true}
	svc := f.reserve
	svc.SeatMap.Seats = seats
	svc.Ledger.Seats = seats

	_, err = svc.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"8", "7"}, PassengerName: "B", PassengerPhone: "2",
		Passengers: []PassengerInput{{Name: "B"}, {Name: "C"}},
	})
	require.True(t, domain.IsSeatConflict(err), "got %v", err)
	assert.Equal(t, []string{"7"}, domain.TakenSeats(err))

	list, err := f.store.Bookings.List(ctx, models.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "failed reservation must not leave a booking")
	booked, err := f.store.Seats.Booked(ctx, f.tripID, "2025-10-30")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, booked)
}

func TestReserveConcurrentSameSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 25
	var (
		mu      sync.Mutex
		won     []int64
		refused int
	)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			res, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
				TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"12"},
				PassengerName: fmt.Sprintf("P%d", i), PassengerPhone: strconv.Itoa(i),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won = append(won, res.BookingID)
			case domain.IsSeatConflict(err):
				refused++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, won, 1)
	assert.Equal(t, attempts-1, refused)
}

func TestReserveConcurrentOverlappingSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// request i asks for seats i and i+1
	type outcome struct {
		seats []string
		id    int64
	}
	var (
		mu   sync.Mutex
		wins []outcome
	)
	var g errgroup.Group
	for i := 1; i <= 20; i++ {
		seats := []string{strconv.Itoa(i), strconv.Itoa(i + 1)}
		g.Go(func() error {
			res, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
				TripID: f.tripID, JourneyDate: "2025-10-31", SeatLabels: seats, PassengerName: "X", PassengerPhone: "1",
			})
			if err != nil {
				if domain.IsSeatConflict(err) {
					return nil
				}
				return err
			}
			mu.Lock()
			wins = append(wins, outcome{seats, res.BookingID})
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NotEmpty(t, wins)

	owner := map[string]int64{}
	for _, w := range wins {
		held, err := f.store.Seats.ListByBooking(ctx, w.id)
		require.NoError(t, err)
		assert.ElementsMatch(t, w.seats, held)
		for _, s := range w.seats {
			prev, taken := owner[s]
			assert.False(t, taken, "seat %s held by %d and %d", s, prev, w.id)
			owner[s] = w.id
		}
	}
	booked, err := f.store.Seats.Booked(ctx, f.tripID, "2025-10-31")
	require.NoError(t, err)
	assert.Len(t, booked, len(owner))

	list, err := f.store.Bookings.List(ctx, models.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, list, len(wins))
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		req  ReservationRequest
	}{
		{"missing trip", ReservationRequest{Seats: 1}},
		{"no seats", ReservationRequest{TripID: f.tripID}},
		{"negative seats", ReservationRequest{TripID: f.tripID, Seats: -3, SeatLabels: []string{"9"}}},
		{"duplicate label", ReservationRequest{TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"1", " 1"}}},
		{"bad date", ReservationRequest{TripID: f.tripID, JourneyDate: "30/10/2025", SeatLabels: []string{"1"}}},
	}
	for _, tc := range cases {
		_, err := f.reserve.Reserve(ctx, domain.RequestContext{}, tc.req)
		assert.True(t, domain.IsValidation(err), "%s: got %v", tc.name, err)
	}

	_, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{TripID: 999, Seats: 2})
	assert.True(t, domain.IsNotFound(err), "got %v", err)

	list, err := f.store.Bookings.List(ctx, models.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// orderedSeats records insert order and can fail the insert.
type orderedSeats struct {
	SeatHoldStore
	inserted []string
	err      error
}

func (o *orderedSeats) Insert(ctx context.Context, holds []models.SeatHold) error {
	for _, h := range holds {
		o.inserted = append(o.inserted, h.SeatNo)
	}
	if o.err != nil {
		return o.err
	}
	return o.SeatHoldStore.Insert(ctx, holds)
}

func TestReserveInsertsHoldsInSeatOrder(t *testing.T) {
	f := newFixture(t)
	seats := &orderedSeats{SeatHoldStore: f.store.Seats}
	svc := f.reserve
	svc.SeatMap.Seats = seats
	svc.Ledger.Seats = seats

	res, err := svc.Reserve(context.Background(), domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"10", "B2", "2"}, PassengerName: "A", PassengerPhone: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "B2", "2"}, res.Seats)
	assert.Equal(t, []string{"2", "10", "B2"}, seats.inserted)
}

func TestReserveDeadlockIsSeatConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"7"}, PassengerName: "A", PassengerPhone: "1",
	})
	require.NoError(t, err)

	seats := &orderedSeats{SeatHoldStore: &racingSeats{SeatHoldStore: f.store.Seats, blind: true}, err: &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}}
	svc := f.reserve
	svc.SeatMap.Seats = seats
	svc.Ledger.Seats = seats

	_, err = svc.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"7", "8"}, PassengerName: "B", PassengerPhone: "2",
	})
	require.True(t, domain.IsSeatConflict(err), "got %v", err)
	assert.Equal(t, []string{"7"}, domain.TakenSeats(err))
}

func TestReserveBulkWithoutLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.reserve.Reserve(ctx, domain.RequestContext{UserID: 5}, ReservationRequest{
		TripID: f.tripID, Seats: 3, PassengerName: "Group", PassengerPhone: "9", CouponCode: "trip100",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRIP100", res.CouponCode)
	assert.Equal(t, "100", res.DiscountAmount.String())

	v, err := f.ledger.Get(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Empty(t, v.Seats)
	assert.Equal(t, 3, v.SeatsBooked)
	require.NotNil(t, v.UserID)
	assert.Equal(t, int64(5), *v.UserID)
	assert.Equal(t, "1400", v.Amounts.TotalAmount.String())
}

func TestReservePassengersZipWithSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"9", "10"},
		Passengers: []PassengerInput{{Name: "First", Phone: "111"}, {Name: "Second"}, {Name: "Third"}},
	})
	require.NoError(t, err)

	v, err := f.ledger.Get(ctx, res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "First", v.PassengerName)
	assert.Equal(t, "111", v.PassengerPhone)
	require.Len(t, v.Passengers, 3)
	require.NotNil(t, v.Passengers[0].SeatNo)
	assert.Equal(t, "9", *v.Passengers[0].SeatNo)
	require.NotNil(t, v.Passengers[1].SeatNo)
	assert.Equal(t, "10", *v.Passengers[1].SeatNo)
	assert.Nil(t, v.Passengers[2].SeatNo)
}

func TestReserveKeepsUnnamedPassengers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	age := 40
	res, err := f.reserve.Reserve(ctx, domain.RequestContext{}, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: []string{"14", "15"}, PassengerName: "Lead",
		Passengers: []PassengerInput{{Name: " ", Phone: "555", Age: &age, Gender: "F"}, {Name: "Named"}},
	})
	require.NoError(t, err)

	v, err := f.ledger.Get(ctx, res.BookingID)
	require.NoError(t, err)
	require.Len(t, v.Passengers, 2)
	assert.Empty(t, v.Passengers[0].Name)
	assert.Equal(t, "555", v.Passengers[0].Phone)
	require.NotNil(t, v.Passengers[0].Age)
	assert.Equal(t, 40, *v.Passengers[0].Age)
	assert.Equal(t, "14", *v.Passengers[0].SeatNo)
	assert.Equal(t, "Named", v.Passengers[1].Name)
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 20, 9, 30, 0, 0, time.UTC)

type sentEvent struct {
	event models.BookingEvent
	id    int64
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event models.BookingEvent, id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{event, id})
}

func (n *recordingNotifier) Events() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.events...)
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	ledger   BookingService
	seatMap  SeatMapService
	reserve  ReservationService
	tripID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	n := &recordingNotifier{}
	ledger := BookingService{
		Trips:      st.Trips,
		Bookings:   st.Bookings,
		Seats:      st.Seats,
		Passengers: st.Passengers,
		Users:      st.Users,
		Notifier:   n,
		Now:        func() time.Time { return fixedNow },
	}
	seatMap := SeatMapService{Trips: st.Trips, Seats: st.Seats}
	f := &fixture{
		store:    st,
		notifier: n,
		ledger:   ledger,
		seatMap:  seatMap,
		reserve:  ReservationService{Tx: st, Ledger: ledger, SeatMap: seatMap, Notifier: n},
	}
	f.tripID = f.addTrip(t, "Kaveri Travels", 500)
	return f
}

func (f *fixture) addTrip(t *testing.T, operator string, fare int64) int64 {
	t.Helper()
	depart := time.Date(2025, 10, 30, 18, 0, 0, 0, time.UTC)
	id, err := f.store.Trips.Create(context.Background(), models.Trip{
		Operator:   operator,
		FromCity:   "Hyderabad",
		ToCity:     "Vijayawada",
		DepartAt:   depart,
		ArriveAt:   depart.Add(5 * time.Hour),
		SeatsTotal: 40,
		Fare:       decimal.NewFromInt(fare),
		Tags:       models.ClassifyOperator(operator),
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) addUser(t *testing.T, email, phone, role string) int64 {
	t.Helper()
	id, err := f.store.Users.Create(context.Background(), models.User{Email: email, Phone: phone, Role: role, PasswordHash: "x"})
	require.NoError(t, err)
	return id
}

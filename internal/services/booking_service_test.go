package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reserveSeats(t *testing.T, f *fixture, rc domain.RequestContext, phone string, seats ...string) int64 {
	t.Helper()
	res, err := f.reserve.Reserve(context.Background(), rc, ReservationRequest{
		TripID: f.tripID, JourneyDate: "2025-10-30", SeatLabels: seats, PassengerName: "Ravi", PassengerPhone: phone,
	})
	require.NoError(t, err)
	return res.BookingID
}

func TestBookingAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := reserveSeats(t, f, domain.RequestContext{}, "1", "1", "2")

	_, _, err := f.ledger.AttachCoupon(ctx, id, "TRIP100")
	require.NoError(t, err)
	v, err := f.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1000", v.Amounts.BaseAmount.String())
	assert.Equal(t, "900", v.Amounts.TotalAmount.String())

	require.NoError(t, f.store.Bookings.AttachCoupon(ctx, id, "MANUAL", decimal.NewFromInt(1500)))
	v, err = f.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1500", v.Amounts.DiscountAmount.String())
	assert.True(t, v.Amounts.TotalAmount.IsZero(), "total must clamp at zero, got %s", v.Amounts.TotalAmount)
}

func TestBookingUsesFareAtBookingTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := reserveSeats(t, f, domain.RequestContext{}, "1", "5")

	trip, err := f.store.Trips.GetByID(ctx, f.tripID)
	require.NoError(t, err)
	trip.Fare = decimal.NewFromInt(800)
	require.NoError(t, f.store.Trips.Update(ctx, trip))

	v, err := f.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "500", v.Amounts.FarePerSeat.String())
	assert.Equal(t, "500", v.Amounts.TotalAmount.String())
}

func TestUnknownCouponKeptWithZeroDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := reserveSeats(t, f, domain.RequestContext{}, "1", "1")

	code, discount, err := f.ledger.AttachCoupon(ctx, id, " summer ")
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", code)
	assert.True(t, discount.IsZero())

	v, err := f.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", v.CouponCode)
}

func TestSetPaymentGeneratesReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := reserveSeats(t, f, domain.RequestContext{}, "1", "1")

	ref, err := f.ledger.SetPayment(ctx, id, models.PaymentPaid, "")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("TXN%d%d", fixedNow.Unix(), id), ref)

	v, err := f.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, v.PaymentStatus)
	assert.Equal(t, ref, v.PaymentRef)

	// overrides may move backwards
	_, err = f.ledger.SetPayment(ctx, id, models.PaymentUnpaid, "")
	require.NoError(t, err)

	_, err = f.ledger.SetPayment(ctx, id, models.PaymentStatus("lost"), "")
	assert.True(t, domain.IsValidation(err))

	events := f.notifier.Events()
	assert.Equal(t, models.EventPaid, events[len(events)-2].event)
	assert.Equal(t, models.EventUnpaid, events[len(events)-1].event)
}

func TestSetStatusUnknownBooking(t *testing.T) {
	f := newFixture(t)
	err := f.ledger.SetStatus(context.Background(), 404, models.StatusCancelled)
	assert.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestReleaseSeatsKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := reserveSeats(t, f, domain.RequestContext{}, "1", "3", "4")
	_, err := f.ledger.SetPayment(ctx, id, models.PaymentPaid, "REF1")
	require.NoError(t, err)

	n, err := f.ledger.ReleaseSeats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, err := f.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, v.Status)
	assert.Equal(t, models.PaymentPaid, v.PaymentStatus)
	assert.Equal(t, "REF1", v.PaymentRef)
	assert.Empty(t, v.Seats)

	seatMap, err := f.seatMap.Availability(ctx, f.tripID, "2025-10-30")
	require.NoError(t, err)
	assert.Empty(t, seatMap.Booked)

	// released seats can be sold again
	reserveSeats(t, f, domain.RequestContext{}, "2", "3")
}

func TestOwnershipByUserAndPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice@example.com", "9000000001", domain.RoleCustomer)
	bob := f.addUser(t, "bob@example.com", "9000000002", domain.RoleCustomer)

	mine := reserveSeats(t, f, domain.RequestContext{UserID: alice, Role: domain.RoleCustomer}, "555", "1")
	anon := reserveSeats(t, f, domain.RequestContext{}, "9000000001", "2")
	reserveSeats(t, f, domain.RequestContext{}, "9000000002", "3")

	list, err := f.ledger.ListByOwner(ctx, domain.RequestContext{UserID: alice, Role: domain.RoleCustomer})
	require.NoError(t, err)
	ids := []int64{}
	for _, v := range list {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []int64{anon, mine}, ids)

	claimed, err := f.store.Bookings.Snapshot(ctx, anon)
	require.NoError(t, err)
	require.NotNil(t, claimed.UserID)
	assert.Equal(t, alice, *claimed.UserID)

	_, err = f.ledger.GetForCaller(ctx, domain.RequestContext{UserID: bob, Role: domain.RoleCustomer}, mine)
	assert.True(t, domain.IsForbidden(err))
	_, err = f.ledger.GetForCaller(ctx, domain.RequestContext{}, mine)
	assert.True(t, domain.IsForbidden(err))
	_, err = f.ledger.GetForCaller(ctx, domain.RequestContext{UserID: 99, Role: domain.RoleAdmin}, mine)
	assert.NoError(t, err)
}

func TestPhoneMatchSeesUnclaimedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carol := f.addUser(t, "carol@example.com", "777", domain.RoleCustomer)
	id := reserveSeats(t, f, domain.RequestContext{}, "777", "6")

	v, err := f.ledger.GetForCaller(ctx, domain.RequestContext{UserID: carol, Role: domain.RoleCustomer}, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, v.Seats)
}

func TestPhoneMatchAgreesWithOwnerList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dan := f.addUser(t, "dan@example.com", "4242", domain.RoleCustomer)
	erin := f.addUser(t, "erin@example.com", "", domain.RoleCustomer)
	id := reserveSeats(t, f, domain.RequestContext{UserID: erin, Role: domain.RoleCustomer}, "4242", "11")

	list, err := f.ledger.ListByOwner(ctx, domain.RequestContext{UserID: dan, Role: domain.RoleCustomer})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	_, err = f.ledger.GetForCaller(ctx, domain.RequestContext{UserID: dan, Role: domain.RoleCustomer}, id)
	assert.NoError(t, err)
	_, err = f.ledger.Pay(ctx, domain.RequestContext{UserID: dan, Role: domain.RoleCustomer}, id)
	assert.True(t, domain.IsForbidden(err), "phone match does not grant payment")
}

func TestPayAndCancelRequireOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "o@example.com", "", domain.RoleCustomer)
	other := f.addUser(t, "x@example.com", "", domain.RoleCustomer)
	id := reserveSeats(t, f, domain.RequestContext{UserID: owner}, "1", "8")

	_, err := f.ledger.Pay(ctx, domain.RequestContext{UserID: other, Role: domain.RoleCustomer}, id)
	assert.True(t, domain.IsForbidden(err))

	ref, err := f.ledger.Pay(ctx, domain.RequestContext{UserID: owner, Role: domain.RoleCustomer}, id)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	require.NoError(t, f.ledger.Cancel(ctx, domain.RequestContext{UserID: owner, Role: domain.RoleCustomer}, id))
	v, err := f.ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, v.Status)
	assert.Equal(t, models.PaymentPaid, v.PaymentStatus)
}

func TestListAdminFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := reserveSeats(t, f, domain.RequestContext{}, "111", "1")
	b := reserveSeats(t, f, domain.RequestContext{}, "222", "2")
	require.NoError(t, f.ledger.SetStatus(ctx, b, models.StatusCancelled))

	list, err := f.ledger.ListAdmin(ctx, models.BookingFilter{Status: models.StatusCancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b, list[0].ID)

	list, err = f.ledger.ListAdmin(ctx, models.BookingFilter{Query: "111"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a, list[0].ID)
	assert.Equal(t, "500", list[0].Amounts.TotalAmount.String())

	_, err = f.ledger.ListAdmin(ctx, models.BookingFilter{Payment: "maybe"})
	assert.True(t, domain.IsValidation(err))
}

func TestAvailabilityDefaultsToDepartureDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reserveSeats(t, f, domain.RequestContext{}, "1", "40")

	first, err := f.seatMap.Availability(ctx, f.tripID, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-30", first.Date)
	assert.Equal(t, "2x2", first.Layout)
	assert.Len(t, first.Seats, 40)
	assert.Equal(t, []string{"40"}, first.Booked)

	second, err := f.seatMap.Availability(ctx, f.tripID, "")
	require.NoError(t, err)
	assert.Equal(t, first.Booked, second.Booked)

	_, err = f.seatMap.Availability(ctx, 12345, "")
	assert.True(t, domain.IsNotFound(err))
}

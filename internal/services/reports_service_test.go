package services

import (
	"context"
	"testing"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRevenueCountsPaidOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := reserveSeats(t, f, domain.RequestContext{}, "1", "1", "2")
	_, _, err := f.ledger.AttachCoupon(ctx, paid, "TRIP100")
	require.NoError(t, err)
	_, err = f.ledger.SetPayment(ctx, paid, models.PaymentPaid, "")
	require.NoError(t, err)

	cancelled := reserveSeats(t, f, domain.RequestContext{}, "2", "3")
	require.NoError(t, f.ledger.SetStatus(ctx, cancelled, models.StatusCancelled))

	svc := ReportsService{Bookings: f.store.Bookings}
	d, err := svc.Dashboard(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Total)
	assert.Equal(t, 1, d.Confirmed)
	assert.Equal(t, 1, d.Cancelled)
	assert.Equal(t, "900", d.Revenue.String())

	d, err = svc.Dashboard(ctx, "2025-10-21", "")
	require.NoError(t, err)
	assert.Zero(t, d.Total)
	assert.True(t, d.Revenue.IsZero())

	_, err = svc.Dashboard(ctx, "yesterday", "")
	assert.True(t, domain.IsValidation(err))
}

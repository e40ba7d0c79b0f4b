package utils

import (
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/shopspring/decimal"
)

// CouponTrip100 is the only recognised coupon.
const CouponTrip100 = "TRIP100"

var trip100Discount = decimal.NewFromInt(100)

// ApplyCoupon normalizes the code and returns its fixed discount. Unknown
// codes are kept (for audit) with a zero discount.
func ApplyCoupon(code string) (string, decimal.Decimal) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == CouponTrip100 {
		return code, trip100Discount
	}
	return code, decimal.Zero
}

// ComputeAmounts returns base = seats x fare and total = max(0, base - discount).
// The discount itself is reported as stored, uncapped.
func ComputeAmounts(seats int, fare, discount decimal.Decimal) models.Amounts {
	base := fare.Mul(decimal.NewFromInt(int64(seats)))
	total := base.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return models.Amounts{
		FarePerSeat:    fare,
		BaseAmount:     base,
		DiscountAmount: discount,
		TotalAmount:    total,
	}
}

package voucher

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-keranjang/internal/cart"
)

// Redeem is the pure redemption transition. It returns the post-redemption
// voucher and the sale snapshot without touching storage, so exhaustion
// behavior is testable in isolation. The sale freezes type and value at this
// moment; later voucher edits do not change an applied discount.
func Redeem(v Voucher, c *cart.Cart, now time.Time) (Voucher, cart.Sale, error) {
	if !v.IsAvailable() {
		return v, cart.Sale{}, ErrUnavailable
	}
	if v.MustBeUnique && len(c.Sales) > 0 {
		return v, cart.Sale{}, ErrConflict
	}

	v.UsedCount++
	if v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit {
		v.Active = false
	}
	v.UsedAt = &now

	sale := cart.Sale{
		ID:        uuid.New(),
		CartID:    c.ID,
		VoucherID: &v.ID,
		Type:      string(v.Type),
		Value:     v.SaleValue(),
	}
	return v, sale, nil
}

// Release is the inverse transition: the use is handed back and the voucher
// reactivated, so removing a sale is reversible for the shopper.
func Release(v Voucher) Voucher {
	if v.UsedCount > 0 {
		v.UsedCount--
	}
	v.Active = true
	return v
}

package voucher

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newVoucher(t *testing.T, typ Type, value string) Voucher {
	t.Helper()
	v, err := New("SUMMER-10", typ, decimal.RequireFromString(value), testNow)
	require.NoError(t, err)
	return v
}

func emptyCart() *cart.Cart {
	c := cart.NewCart("user_x", money.CurrencyFromCode("CZK"), testNow)
	c.ID = uuid.New()
	return c
}

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"summer-10", "SUMMER-10"},
		{"  Summer Sale!  ", "SUMMERSALE"},
		{"black_friday#2026", "BLACKFRIDAY2026"},
		{"ABC-123", "ABC-123"},
	}
	for _, tc := range cases {
		got, err := NormalizeCode(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got)
	}

	_, err := NormalizeCode("   !!!   ")
	require.ErrorIs(t, err, ErrInvalidCode)
	_, err = NormalizeCode("")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New("CODE", Type("mystery"), decimal.Zero, testNow)
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestValidateConfiguration(t *testing.T) {
	perc := newVoucher(t, TypePercentage, "0")
	require.ErrorIs(t, perc.ValidateConfiguration(), ErrPercentageRequired)
	ten := 10
	perc.Percentage = &ten
	require.NoError(t, perc.ValidateConfiguration())

	free := newVoucher(t, TypeFreeProduct, "0")
	require.ErrorIs(t, free.ValidateConfiguration(), ErrReferenceRequired)
	ref := uuid.New()
	free.ReferenceID = &ref
	require.NoError(t, free.ValidateConfiguration())

	fix := newVoucher(t, TypeFixValue, "100")
	require.NoError(t, fix.ValidateConfiguration())
}

func TestRedeemExhaustsAtUsageLimit(t *testing.T) {
	limit := 3
	v := newVoucher(t, TypeFixValue, "100")
	v.UsageLimit = &limit
	v.MustBeUnique = false

	for i := 1; i <= limit; i++ {
		var err error
		v, _, err = Redeem(v, emptyCart(), testNow)
		require.NoError(t, err, "redemption %d", i)
	}
	require.Equal(t, limit, v.UsedCount)
	require.False(t, v.Active)
	require.Equal(t, StateExhausted, v.State())

	_, _, err := Redeem(v, emptyCart(), testNow)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRedeemMustBeUniqueConflict(t *testing.T) {
	c := emptyCart()
	c.Sales = append(c.Sales, &cart.Sale{ID: uuid.New(), CartID: c.ID, Type: "fix", Value: decimal.NewFromInt(50)})

	unique := newVoucher(t, TypeFixValue, "100")
	_, _, err := Redeem(unique, c, testNow)
	require.ErrorIs(t, err, ErrConflict)

	stackable := newVoucher(t, TypeFixValue, "100")
	stackable.MustBeUnique = false
	_, sale, err := Redeem(stackable, c, testNow)
	require.NoError(t, err)
	require.Equal(t, c.ID, sale.CartID)
}

func TestRedeemSnapshotsValue(t *testing.T) {
	v := newVoucher(t, TypeFixValue, "250")
	redeemed, sale, err := Redeem(v, emptyCart(), testNow)
	require.NoError(t, err)
	require.Equal(t, "fix", sale.Type)
	require.Equal(t, "250", sale.Value.String())
	require.Equal(t, &redeemed.ID, sale.VoucherID)
	require.NotNil(t, redeemed.UsedAt)
	require.Equal(t, 1, redeemed.UsedCount)

	// Editing the definition afterwards leaves the snapshot alone.
	redeemed.Value = decimal.NewFromInt(999)
	require.Equal(t, "250", sale.Value.String())
}

func TestRedeemPercentageSnapshotsPercentage(t *testing.T) {
	fifteen := 15
	v := newVoucher(t, TypePercentage, "0")
	v.Percentage = &fifteen

	_, sale, err := Redeem(v, emptyCart(), testNow)
	require.NoError(t, err)
	require.Equal(t, "perc", sale.Type)
	require.Equal(t, "15", sale.Value.String())
}

func TestRedeemDeactivatedVoucher(t *testing.T) {
	v := newVoucher(t, TypeFixValue, "100")
	v.Active = false
	_, _, err := Redeem(v, emptyCart(), testNow)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, StateDeactivated, v.State())
}

func TestReleaseReturnsUse(t *testing.T) {
	limit := 1
	v := newVoucher(t, TypeFixValue, "100")
	v.UsageLimit = &limit

	redeemed, _, err := Redeem(v, emptyCart(), testNow)
	require.NoError(t, err)
	require.False(t, redeemed.Active)

	released := Release(redeemed)
	require.Zero(t, released.UsedCount)
	require.True(t, released.Active)
	require.Equal(t, StateActive, released.State())

	// Releasing a never-used voucher must not drive the counter negative.
	again := Release(released)
	require.Zero(t, again.UsedCount)
}

func TestWithinValidityWindow(t *testing.T) {
	v := newVoucher(t, TypeFixValue, "100")
	require.True(t, v.WithinValidityWindow(testNow))

	from := testNow.Add(time.Hour)
	v.ValidFrom = &from
	require.False(t, v.WithinValidityWindow(testNow))

	v.ValidFrom = nil
	to := testNow.Add(-time.Hour)
	v.ValidTo = &to
	require.False(t, v.WithinValidityWindow(testNow))

	// Redemption deliberately ignores the window.
	_, _, err := Redeem(v, emptyCart(), testNow)
	require.NoError(t, err)
}

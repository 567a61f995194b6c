package freedelivery

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

func cartWithTotal(t *testing.T, total string) *cart.Cart {
	t.Helper()
	price, err := decimal.NewFromString(total)
	require.NoError(t, err)
	currency := money.CurrencyFromCode("CZK")
	c := cart.NewCart("anonymous_test", currency, time.Now())
	item := cart.NewItem(c, catalog.Product{
		Name:       "Sample",
		Price:      price,
		VatPercent: decimal.NewFromInt(21),
		Active:     true,
	}, nil, 1)
	c.Items = append(c.Items, item)
	return c
}

func TestConstantResolverThreshold(t *testing.T) {
	r := NewConstantResolver(decimal.NewFromInt(1000), money.CurrencyFromCode("CZK"))
	ctx := context.Background()

	require.True(t, r.IsFreeDelivery(ctx, cartWithTotal(t, "999.99"), nil))
	require.False(t, r.IsFreeDelivery(ctx, cartWithTotal(t, "1000"), nil))
	require.False(t, r.IsFreeDelivery(ctx, cartWithTotal(t, "1500"), nil))
}

func TestConstantResolverDefaultsLimit(t *testing.T) {
	r := NewConstantResolver(decimal.Zero, money.CurrencyFromCode("CZK"))
	require.True(t, r.Limit.Equal(DefaultLimit))

	price := r.MinimalPrice(context.Background(), cartWithTotal(t, "10"), nil)
	require.Equal(t, "1000", price.Value().String())
}

func TestConstantResolverFeedsRuntimeContext(t *testing.T) {
	r := NewConstantResolver(decimal.NewFromInt(500), money.CurrencyFromCode("CZK"))
	limit := r.FreeDeliveryLimit(context.Background(), "user_abc")
	require.Equal(t, "500", limit.String())
}

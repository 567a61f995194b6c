package freedelivery

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

// DefaultLimit is the threshold applied when no limit is configured.
var DefaultLimit = decimal.NewFromInt(1000)

// Resolver decides the minimal order value tied to delivery pricing. The
// customer id is an extension point for per-customer thresholds.
type Resolver interface {
	// IsFreeDelivery reports whether the minimal price still exceeds the
	// cart's VAT-inclusive items price. The comparison direction is part of
	// the public contract; callers branching on it must not flip it.
	IsFreeDelivery(ctx context.Context, c *cart.Cart, customerID *string) bool
	// MinimalPrice returns the threshold in the shop's main currency.
	MinimalPrice(ctx context.Context, c *cart.Cart, customerID *string) money.Price
}

// ConstantResolver applies one configured threshold to every cart and every
// customer.
type ConstantResolver struct {
	Limit    decimal.Decimal
	Currency money.Currency
}

// NewConstantResolver falls back to DefaultLimit for a non-positive limit.
func NewConstantResolver(limit decimal.Decimal, currency money.Currency) ConstantResolver {
	if limit.LessThanOrEqual(decimal.Zero) {
		limit = DefaultLimit
	}
	return ConstantResolver{Limit: limit, Currency: currency}
}

// IsFreeDelivery implements Resolver.
func (r ConstantResolver) IsFreeDelivery(ctx context.Context, c *cart.Cart, customerID *string) bool {
	return r.MinimalPrice(ctx, c, customerID).IsBiggerThan(c.ItemsPrice(true))
}

// MinimalPrice implements Resolver. The cart and customer are accepted for
// interface compatibility and ignored.
func (r ConstantResolver) MinimalPrice(ctx context.Context, c *cart.Cart, customerID *string) money.Price {
	return money.NewPriceFromDecimal(r.Limit, r.Currency)
}

// FreeDeliveryLimit implements cart.LimitResolver so the constant threshold
// can feed the cart runtime context directly.
func (r ConstantResolver) FreeDeliveryLimit(ctx context.Context, identifier string) decimal.Decimal {
	return r.Limit
}

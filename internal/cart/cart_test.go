package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/delivery"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

var czk = money.CurrencyFromCode("CZK")

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testProduct(t *testing.T, price string, vat string) catalog.Product {
	t.Helper()
	return catalog.Product{
		ID:         uuid.New(),
		Name:       "Product",
		Price:      dec(t, price),
		VatPercent: dec(t, vat),
		Active:     true,
	}
}

func TestItemsPriceSkipsInactiveLines(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	c.ID = uuid.New()

	active := NewItem(c, testProduct(t, "100", "21"), nil, 2)
	soldOut := testProduct(t, "500", "21")
	soldOut.SoldOut = true
	inactive := NewItem(c, soldOut, nil, 1)
	c.Items = append(c.Items, active, inactive)

	require.Len(t, c.AllItems(), 2)
	require.Len(t, c.ActiveItems(), 1)
	require.Equal(t, "200", c.ItemsPrice(true).Value().String())
}

func TestItemPriceWithoutVat(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	item := NewItem(c, testProduct(t, "121", "21"), nil, 1)
	c.Items = append(c.Items, item)

	require.Equal(t, "100", item.PriceWithoutVat().Value().String())
	require.Equal(t, "100", c.ItemsPrice(false).Value().String())
}

func TestDeliveryPriceFreeDeliveryBoundary(t *testing.T) {
	d := &delivery.Delivery{ID: uuid.New(), Code: "cp", Name: "Post", Price: dec(t, "90")}

	build := func(itemsPrice string) *Cart {
		c := NewCart("user_x", czk, time.Now())
		c.Runtime = NewRuntimeContext(decimal.NewFromInt(1000))
		c.Delivery = d
		c.Items = append(c.Items, NewItem(c, testProduct(t, itemsPrice, "21"), nil, 1))
		return c
	}

	below := build("999.99")
	require.Equal(t, "90", below.DeliveryPrice(below.ItemsPrice(true)).Value().String())

	exact := build("1000")
	require.Equal(t, "0", exact.DeliveryPrice(exact.ItemsPrice(true)).Value().String())

	above := build("1500")
	require.Equal(t, "0", above.DeliveryPrice(above.ItemsPrice(true)).Value().String())
}

func TestPriceWithoutVatKeepsVatInclusiveThreshold(t *testing.T) {
	// 1210 with VAT crosses the 1000 limit even though the VAT-exclusive sum
	// (1000) does not exceed it; delivery stays free in both totals.
	c := NewCart("user_x", czk, time.Now())
	c.Runtime = NewRuntimeContext(decimal.NewFromInt(1000))
	c.Delivery = &delivery.Delivery{ID: uuid.New(), Code: "cp", Price: dec(t, "90")}
	c.Items = append(c.Items, NewItem(c, testProduct(t, "1210", "21"), nil, 1))

	require.Equal(t, "1210", c.Price().Value().String())
	require.Equal(t, "1000", c.PriceWithoutVat().Value().String())
}

func TestPaymentCostIgnoresFreeDeliveryLimit(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	c.Runtime = NewRuntimeContext(decimal.NewFromInt(1000))
	c.Delivery = &delivery.Delivery{ID: uuid.New(), Code: "cp", Price: dec(t, "90")}
	require.NoError(t, c.SetPayment(&delivery.Payment{ID: uuid.New(), Code: "card", Price: dec(t, "25")}))
	c.Items = append(c.Items, NewItem(c, testProduct(t, "2000", "21"), nil, 1))

	// Items over the limit: delivery free, payment still charged.
	require.Equal(t, "2025", c.Price().Value().String())
}

func TestSetPaymentRequiresDelivery(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	err := c.SetPayment(&delivery.Payment{ID: uuid.New(), Code: "card"})
	require.ErrorIs(t, err, ErrDeliveryRequired)

	c.Delivery = &delivery.Delivery{ID: uuid.New(), Code: "cp"}
	require.NoError(t, c.SetPayment(&delivery.Payment{ID: uuid.New(), Code: "card"}))
}

func TestFindItemMatchesProductAndVariant(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	product := testProduct(t, "100", "21")
	v := &catalog.Variant{ID: uuid.New(), ProductID: product.ID, RelationHash: "Size=M;", Price: dec(t, "120")}
	plain := NewItem(c, product, nil, 1)
	withVariant := NewItem(c, product, v, 1)
	c.Items = append(c.Items, plain, withVariant)

	require.Same(t, plain, c.FindItem(product.ID, nil))
	require.Same(t, withVariant, c.FindItem(product.ID, &v.ID))

	other := uuid.New()
	require.Nil(t, c.FindItem(product.ID, &other))
	require.Nil(t, c.FindItem(uuid.New(), nil))
}

func TestItemCountGuards(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	item := NewItem(c, testProduct(t, "100", "21"), nil, 3)

	require.ErrorIs(t, item.SetCount(0), ErrInvalidCount)
	require.ErrorIs(t, item.AddCount(0), ErrInvalidCount)
	require.NoError(t, item.AddCount(2))
	require.Equal(t, 5, item.Count)
	require.NoError(t, item.SetCount(1))
	require.Equal(t, 1, item.Count)
}

func TestItemDescriptionSortsVariantParameters(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	product := testProduct(t, "100", "21")
	v := &catalog.Variant{ID: uuid.New(), ProductID: product.ID, RelationHash: "Size=M;Color=Blue;"}
	item := NewItem(c, product, v, 1)

	require.Equal(t, "Color: Blue, Size: M", item.Description())
	require.Empty(t, NewItem(c, product, nil, 1).Description())
}

func TestVariantPriceOverridesProductPrice(t *testing.T) {
	c := NewCart("user_x", czk, time.Now())
	product := testProduct(t, "100", "21")
	v := &catalog.Variant{ID: uuid.New(), ProductID: product.ID, Price: dec(t, "150")}
	item := NewItem(c, product, v, 2)

	require.Equal(t, "150", item.BasicPrice().Value().String())
	require.Equal(t, "300", item.Price().Value().String())
}

func TestRuntimeContextClampsNegativeLimit(t *testing.T) {
	rc := NewRuntimeContext(decimal.NewFromInt(-5))
	require.True(t, rc.FreeDeliveryLimit.IsZero())
}

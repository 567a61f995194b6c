package cart

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/delivery"
	"github.com/noah-isme/backend-keranjang/internal/money"
	"github.com/noah-isme/backend-keranjang/internal/variant"
)

// RuntimeContext carries process-scoped pricing configuration injected on
// every cart access. It is never persisted.
type RuntimeContext struct {
	FreeDeliveryLimit decimal.Decimal
}

// NewRuntimeContext clamps a negative limit to zero.
func NewRuntimeContext(freeDeliveryLimit decimal.Decimal) RuntimeContext {
	if freeDeliveryLimit.IsNegative() {
		freeDeliveryLimit = decimal.Zero
	}
	return RuntimeContext{FreeDeliveryLimit: freeDeliveryLimit}
}

// Cart aggregates the items, sales and delivery/payment selection of one
// actor. The identifier is unique per actor and immutable after creation; the
// ID stays zero until the cart has been persisted.
type Cart struct {
	ID               uuid.UUID
	Identifier       string
	Currency         money.Currency
	Delivery         *delivery.Delivery
	Payment          *delivery.Payment
	DeliveryBranchID *int64
	Items            []*Item
	Sales            []*Sale
	InsertedAt       time.Time
	Runtime          RuntimeContext
}

// NewCart builds an unpersisted cart bound to the actor identifier and shop
// currency.
func NewCart(identifier string, currency money.Currency, now time.Time) *Cart {
	return &Cart{
		Identifier: identifier,
		Currency:   currency,
		InsertedAt: now,
	}
}

// Flushed reports whether the cart has been persisted.
func (c *Cart) Flushed() bool {
	return c.ID != uuid.Nil
}

// ActiveItems returns only the lines whose product and variant are currently
// purchasable. Inactive lines stay persisted but are excluded from pricing.
func (c *Cart) ActiveItems() []*Item {
	out := make([]*Item, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Active() {
			out = append(out, item)
		}
	}
	return out
}

// AllItems returns every persisted line, including inactive ones. Used for
// ownership checks and cascading deletes.
func (c *Cart) AllItems() []*Item {
	return c.Items
}

// IsEmpty reports whether the cart has no active items.
func (c *Cart) IsEmpty() bool {
	return len(c.ActiveItems()) == 0
}

// ItemsPrice sums every active line with exact decimal addition. With
// withVat=false each line is divided by its product's VAT rate first.
func (c *Cart) ItemsPrice(withVat bool) money.Price {
	sum := decimal.Zero
	for _, item := range c.ActiveItems() {
		if withVat {
			sum = sum.Add(item.Price().Value())
		} else {
			sum = sum.Add(item.PriceWithoutVat().Value())
		}
	}
	return money.NewPriceFromDecimal(sum, c.Currency)
}

// DeliveryPrice computes the delivery and payment cost component. The
// delivery cost applies only while itemsPrice stays below the free-delivery
// limit; the payment cost applies whenever a payment is selected.
func (c *Cart) DeliveryPrice(itemsPrice money.Price) money.Price {
	sum := decimal.Zero
	if c.Delivery != nil && itemsPrice.Value().LessThan(c.Runtime.FreeDeliveryLimit) {
		sum = sum.Add(c.Delivery.Price)
	}
	if c.Payment != nil {
		sum = sum.Add(c.Payment.Price)
	}
	return money.NewPriceFromDecimal(sum, c.Currency)
}

// Price returns the VAT-inclusive total.
func (c *Cart) Price() money.Price {
	items := c.ItemsPrice(true)
	total, _ := items.Plus(c.DeliveryPrice(items))
	return total
}

// PriceWithoutVat returns the VAT-exclusive total. The free-delivery
// threshold is still evaluated against the VAT-inclusive items price; this
// asymmetry is an observable pricing property and must not change.
func (c *Cart) PriceWithoutVat() money.Price {
	items := c.ItemsPrice(false)
	total, _ := items.Plus(c.DeliveryPrice(c.ItemsPrice(true)))
	return total
}

// SetPayment selects a payment method. A payment may be chosen only after a
// delivery is present.
func (c *Cart) SetPayment(payment *delivery.Payment) error {
	if payment != nil && c.Delivery == nil {
		return ErrDeliveryRequired
	}
	c.Payment = payment
	return nil
}

// FindItem locates a line by (product, variant). Repeated purchases
// increment the matching line instead of creating a second row.
func (c *Cart) FindItem(productID uuid.UUID, variantID *uuid.UUID) *Item {
	for _, item := range c.Items {
		if item.Product.ID != productID {
			continue
		}
		if (item.VariantID() == nil) != (variantID == nil) {
			continue
		}
		if variantID != nil && *item.VariantID() != *variantID {
			continue
		}
		return item
	}
	return nil
}

// Item is one product/variant line with its quantity. It carries the loaded
// catalog snapshot so pricing and activity can be derived without further
// lookups.
type Item struct {
	ID       uuid.UUID
	CartID   uuid.UUID
	Product  catalog.Product
	Variant  *catalog.Variant
	Count    int
	currency money.Currency
}

// NewItem builds a line owned by the cart.
func NewItem(c *Cart, product catalog.Product, v *catalog.Variant, count int) *Item {
	return &Item{
		ID:       uuid.New(),
		CartID:   c.ID,
		Product:  product,
		Variant:  v,
		Count:    count,
		currency: c.Currency,
	}
}

// BindCurrency attaches the owning cart's currency to a loaded item.
func (i *Item) BindCurrency(currency money.Currency) {
	i.currency = currency
}

// VariantID returns the variant id or nil for plain products.
func (i *Item) VariantID() *uuid.UUID {
	if i.Variant == nil {
		return nil
	}
	return &i.Variant.ID
}

// Active reports whether the line participates in pricing: the product must
// be active and neither product nor variant sold out.
func (i *Item) Active() bool {
	if !i.Product.Active || i.Product.SoldOut {
		return false
	}
	if i.Variant != nil && i.Variant.SoldOut {
		return false
	}
	return true
}

// UnitPrice returns the price of a single unit: the variant price when the
// line has one, the product's current price otherwise.
func (i *Item) UnitPrice() decimal.Decimal {
	if i.Variant != nil {
		return i.Variant.Price
	}
	return i.Product.CurrentPrice()
}

// BasicPrice returns the unit price as a Price in the cart currency.
func (i *Item) BasicPrice() money.Price {
	return money.NewPriceFromDecimal(i.UnitPrice(), i.currency)
}

// Price returns unit price times count.
func (i *Item) Price() money.Price {
	return i.BasicPrice().Times(i.Count)
}

// PriceWithoutVat divides the line price by the product VAT rate.
func (i *Item) PriceWithoutVat() money.Price {
	return i.Price().WithoutVat(i.Product.VatPercent)
}

// SetCount replaces the quantity. Deletion is a separate operation; the
// count can never drop below one here.
func (i *Item) SetCount(count int) error {
	if count < 1 {
		return ErrInvalidCount
	}
	i.Count = count
	return nil
}

// AddCount increments the quantity by at least one.
func (i *Item) AddCount(count int) error {
	if count < 1 {
		return ErrInvalidCount
	}
	i.Count += count
	return nil
}

// Name returns the display name of the line's product.
func (i *Item) Name() string {
	return i.Product.Name
}

// Description renders the variant parameters as "key: value" pairs, empty
// for plain products.
func (i *Item) Description() string {
	if i.Variant == nil {
		return ""
	}
	params := variant.UnserializeParameters(i.Variant.RelationHash)
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+params[key])
	}
	return strings.Join(parts, ", ")
}

// Sale is one applied discount line. Type and value are snapshots taken at
// redemption time so later voucher edits do not change an applied discount.
type Sale struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	VoucherID *uuid.UUID
	Type      string
	Value     decimal.Decimal
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/delivery"
	"github.com/noah-isme/backend-keranjang/internal/identity"
	"github.com/noah-isme/backend-keranjang/internal/money"
	"github.com/noah-isme/backend-keranjang/internal/obs"
)

// LimitResolver yields the free-delivery threshold applied to a cart. The
// identifier lets implementations vary the limit per actor; the default
// implementation ignores it.
type LimitResolver interface {
	FreeDeliveryLimit(ctx context.Context, identifier string) decimal.Decimal
}

// SaleReleaser removes a voucher-backed sale and returns the voucher to
// circulation in one transaction.
type SaleReleaser interface {
	Release(ctx context.Context, sale *Sale) error
}

// Manager is the single entry point for cart reads and mutations. Every
// operation resolves the actor through the identity resolver and goes through
// the request-scoped cache so one request never loads the same cart twice.
type Manager struct {
	Store      Store
	Catalog    catalog.Repository
	Deliveries delivery.Repository
	Identity   identity.Resolver
	Limits     LimitResolver
	Sales      SaleReleaser
	Currency   money.Currency
	Log        zerolog.Logger
	Now        func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// GetCart returns the actor's cart. With flush=false a missing cart comes
// back as an unpersisted in-memory aggregate; with flush=true it is created
// in the store first. A concurrent create for the same identifier is resolved
// by reloading the winner's row.
func (m *Manager) GetCart(ctx context.Context, cache *Cache, flush bool) (*Cart, error) {
	identifier, err := m.Identity.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	c, ok := cache.Get(identifier)
	if !ok {
		c, err = m.Store.ByIdentifier(ctx, identifier)
		if errors.Is(err, ErrNotFound) {
			c = NewCart(identifier, m.Currency, m.now())
		} else if err != nil {
			return nil, fmt.Errorf("cart: load %q: %w", identifier, err)
		}
	}

	if flush && !c.Flushed() {
		err = m.Store.Create(ctx, c)
		switch {
		case err == nil:
			if obs.CartsCreatedTotal != nil {
				obs.CartsCreatedTotal.Inc()
			}
		case errors.Is(err, ErrIdentifierConflict):
			m.Log.Debug().Str("identifier", identifier).Msg("cart create lost race, reloading")
			c, err = m.Store.ByIdentifier(ctx, identifier)
		}
		if err != nil {
			return nil, fmt.Errorf("cart: create %q: %w", identifier, err)
		}
	}

	if m.Limits != nil {
		c.Runtime = NewRuntimeContext(m.Limits.FreeDeliveryLimit(ctx, identifier))
	}
	cache.Save(c)
	return c, nil
}

// BuyProduct adds count units of a product (or one of its variants) to the
// actor's cart. A repeated purchase of the same product/variant pair
// increments the existing line instead of adding a second one.
func (m *Manager) BuyProduct(ctx context.Context, cache *Cache, productID uuid.UUID, variantID *uuid.UUID, count int) (*Cart, *Item, error) {
	if count < 1 {
		return nil, nil, ErrInvalidCount
	}
	product, err := m.Catalog.ProductByID(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil, ErrItemNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cart: load product: %w", err)
	}
	if !product.Active || product.SoldOut {
		return nil, nil, ErrSoldOut
	}

	var v *catalog.Variant
	if product.VariantProduct {
		if variantID == nil {
			return nil, nil, ErrVariantRequired
		}
		loaded, err := m.Catalog.VariantByID(ctx, *variantID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil, ErrVariantMismatch
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cart: load variant: %w", err)
		}
		if loaded.ProductID != product.ID {
			return nil, nil, ErrVariantMismatch
		}
		if loaded.SoldOut {
			return nil, nil, ErrSoldOut
		}
		v = &loaded
	} else if variantID != nil {
		return nil, nil, ErrVariantMismatch
	}

	c, err := m.GetCart(ctx, cache, true)
	if err != nil {
		return nil, nil, err
	}

	if item := c.FindItem(product.ID, variantID); item != nil {
		if err := item.AddCount(count); err != nil {
			return nil, nil, err
		}
		if err := m.Store.UpdateItemCount(ctx, item.ID, item.Count); err != nil {
			return nil, nil, fmt.Errorf("cart: update item count: %w", err)
		}
		return c, item, nil
	}

	item := NewItem(c, product, v, count)
	if err := m.Store.InsertItem(ctx, item); err != nil {
		return nil, nil, fmt.Errorf("cart: insert item: %w", err)
	}
	c.Items = append(c.Items, item)
	m.Log.Debug().
		Str("identifier", c.Identifier).
		Str("product", product.ID.String()).
		Int("count", count).
		Msg("item added to cart")
	return c, item, nil
}

// ChangeItemCount replaces the quantity of one of the actor's lines.
func (m *Manager) ChangeItemCount(ctx context.Context, cache *Cache, itemID uuid.UUID, count int) (*Cart, error) {
	c, item, err := m.ownedItem(ctx, cache, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.SetCount(count); err != nil {
		return nil, err
	}
	if err := m.Store.UpdateItemCount(ctx, item.ID, item.Count); err != nil {
		return nil, fmt.Errorf("cart: update item count: %w", err)
	}
	return c, nil
}

// RemoveItem deletes one of the actor's lines.
func (m *Manager) RemoveItem(ctx context.Context, cache *Cache, itemID uuid.UUID) (*Cart, error) {
	c, item, err := m.ownedItem(ctx, cache, itemID)
	if err != nil {
		return nil, err
	}
	if err := m.Store.DeleteItem(ctx, item.ID); err != nil {
		return nil, fmt.Errorf("cart: delete item: %w", err)
	}
	for i, candidate := range c.Items {
		if candidate.ID == item.ID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			break
		}
	}
	return c, nil
}

// RemoveSale removes an applied discount from the actor's cart. A
// voucher-backed sale returns its voucher to circulation.
func (m *Manager) RemoveSale(ctx context.Context, cache *Cache, saleID uuid.UUID) (*Cart, error) {
	c, err := m.GetCart(ctx, cache, false)
	if err != nil {
		return nil, err
	}
	sale, err := m.Store.SaleByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !c.Flushed() || sale.CartID != c.ID {
		return nil, ErrIntegrityViolation
	}
	if sale.VoucherID != nil && m.Sales != nil {
		if err := m.Sales.Release(ctx, sale); err != nil {
			return nil, fmt.Errorf("cart: release sale: %w", err)
		}
	} else if err := m.Store.DeleteSale(ctx, sale.ID); err != nil {
		return nil, fmt.Errorf("cart: delete sale: %w", err)
	}
	for i, candidate := range c.Sales {
		if candidate.ID == sale.ID {
			c.Sales = append(c.Sales[:i], c.Sales[i+1:]...)
			break
		}
	}
	return c, nil
}

// SetDelivery selects a delivery method by code. When the change makes the
// currently selected payment incompatible, the payment is cleared rather than
// left in an invalid combination.
func (m *Manager) SetDelivery(ctx context.Context, cache *Cache, code string, branchID *int64) (*Cart, error) {
	d, err := m.Deliveries.DeliveryByCode(ctx, code)
	if errors.Is(err, delivery.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load delivery %q: %w", code, err)
	}

	c, err := m.GetCart(ctx, cache, true)
	if err != nil {
		return nil, err
	}
	c.Delivery = &d
	c.DeliveryBranchID = branchID

	if c.Payment != nil {
		compatible, err := m.Deliveries.IsCompatible(ctx, d.ID, c.Payment.ID)
		if err != nil {
			return nil, fmt.Errorf("cart: check compatibility: %w", err)
		}
		if !compatible {
			c.Payment = nil
		}
	}
	if err := m.Store.UpdateSelection(ctx, c); err != nil {
		return nil, fmt.Errorf("cart: save selection: %w", err)
	}
	return c, nil
}

// SetPayment selects a payment method by code. A delivery must already be
// selected and the pair must be compatible.
func (m *Manager) SetPayment(ctx context.Context, cache *Cache, code string) (*Cart, error) {
	c, err := m.GetCart(ctx, cache, true)
	if err != nil {
		return nil, err
	}
	if c.Delivery == nil {
		return nil, ErrDeliveryRequired
	}
	p, err := m.Deliveries.PaymentByCode(ctx, code)
	if errors.Is(err, delivery.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load payment %q: %w", code, err)
	}
	compatible, err := m.Deliveries.IsCompatible(ctx, c.Delivery.ID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("cart: check compatibility: %w", err)
	}
	if !compatible {
		return nil, ErrIncompatiblePayment
	}
	if err := c.SetPayment(&p); err != nil {
		return nil, err
	}
	if err := m.Store.UpdateSelection(ctx, c); err != nil {
		return nil, fmt.Errorf("cart: save selection: %w", err)
	}
	return c, nil
}

// SetDeliveryBranch records the pickup branch for the selected delivery.
func (m *Manager) SetDeliveryBranch(ctx context.Context, cache *Cache, branchID *int64) (*Cart, error) {
	c, err := m.GetCart(ctx, cache, true)
	if err != nil {
		return nil, err
	}
	if c.Delivery == nil {
		return nil, ErrDeliveryRequired
	}
	c.DeliveryBranchID = branchID
	if err := m.Store.UpdateSelection(ctx, c); err != nil {
		return nil, fmt.Errorf("cart: save selection: %w", err)
	}
	return c, nil
}

// DeliveryOption pairs a delivery method with the payments it can be
// combined with.
type DeliveryOption struct {
	Delivery delivery.Delivery
	Payments []delivery.Payment
}

// DeliveryPaymentOptions lists every delivery method with its compatible
// payments, for the checkout step selector. A delivery with no relation
// rows comes back with an empty payment list.
func (m *Manager) DeliveryPaymentOptions(ctx context.Context) ([]DeliveryOption, error) {
	ds, err := m.Deliveries.Deliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("cart: list deliveries: %w", err)
	}
	options := make([]DeliveryOption, 0, len(ds))
	for _, d := range ds {
		payments, err := m.Deliveries.CompatiblePayments(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("cart: list payments for %q: %w", d.Code, err)
		}
		options = append(options, DeliveryOption{Delivery: d, Payments: payments})
	}
	return options, nil
}

// RemoveCart drops the actor's cart entirely. Voucher-backed sales release
// their vouchers first so an abandoned redemption does not burn a use.
func (m *Manager) RemoveCart(ctx context.Context, cache *Cache) error {
	c, err := m.GetCart(ctx, cache, false)
	if err != nil {
		return err
	}
	if !c.Flushed() {
		cache.Drop(c.Identifier)
		return nil
	}
	if m.Sales != nil {
		for _, sale := range c.Sales {
			if sale.VoucherID == nil {
				continue
			}
			if err := m.Sales.Release(ctx, sale); err != nil {
				return fmt.Errorf("cart: release sale: %w", err)
			}
		}
	}
	if err := m.Store.DeleteCart(ctx, c.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("cart: delete cart: %w", err)
	}
	cache.Drop(c.Identifier)
	return nil
}

// ItemsCount returns the number of lines in the actor's cart without loading
// the full aggregate. Actors without a cart get zero.
func (m *Manager) ItemsCount(ctx context.Context) (int, error) {
	identifier, err := m.Identity.Resolve(ctx)
	if errors.Is(err, identity.ErrNoActor) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return m.Store.ItemsCount(ctx, identifier)
}

func (m *Manager) ownedItem(ctx context.Context, cache *Cache, itemID uuid.UUID) (*Cart, *Item, error) {
	c, err := m.GetCart(ctx, cache, false)
	if err != nil {
		return nil, nil, err
	}
	item, err := m.Store.ItemByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !c.Flushed() || item.CartID != c.ID {
		return nil, nil, ErrIntegrityViolation
	}
	// Mutate the cached aggregate's own line so totals stay consistent.
	if cached := findByID(c.Items, itemID); cached != nil {
		return c, cached, nil
	}
	item.BindCurrency(c.Currency)
	c.Items = append(c.Items, item)
	return c, item, nil
}

func findByID(items []*Item, id uuid.UUID) *Item {
	for _, item := range items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

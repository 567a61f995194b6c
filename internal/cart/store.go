package cart

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence boundary of the cart aggregate. Lookups report
// missing rows through the package sentinel errors; mutations are atomic,
// either the full change lands or nothing is persisted.
type Store interface {
	// ByIdentifier loads the cart with its full item and sale graph.
	ByIdentifier(ctx context.Context, identifier string) (*Cart, error)
	// Create persists a new cart and assigns its ID. A concurrent insert for
	// the same identifier surfaces as ErrIdentifierConflict.
	Create(ctx context.Context, c *Cart) error
	// UpdateSelection persists the delivery/payment/branch selection.
	UpdateSelection(ctx context.Context, c *Cart) error
	// InsertItem persists a new line.
	InsertItem(ctx context.Context, item *Item) error
	// UpdateItemCount persists a quantity change.
	UpdateItemCount(ctx context.Context, itemID uuid.UUID, count int) error
	// DeleteItem removes a line.
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	// ItemByID loads one line including its owning cart id.
	ItemByID(ctx context.Context, itemID uuid.UUID) (*Item, error)
	// ItemsCount counts the persisted lines of the identifier's cart.
	ItemsCount(ctx context.Context, identifier string) (int, error)
	// SaleByID loads one sale line.
	SaleByID(ctx context.Context, saleID uuid.UUID) (*Sale, error)
	// DeleteSale removes a sale line that is not bound to a voucher.
	DeleteSale(ctx context.Context, saleID uuid.UUID) error
	// DeleteCart removes the cart together with all of its items and sales
	// in one transaction.
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}

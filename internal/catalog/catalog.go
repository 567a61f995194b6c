package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested product or variant does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Product is the read-only product view the cart core consumes. Prices are
// decimal strings in the shop's main currency; VAT is a flat percentage per
// product.
type Product struct {
	ID             uuid.UUID
	Name           string
	Slug           string
	Price          decimal.Decimal
	SalePrice      *decimal.Decimal
	VatPercent     decimal.Decimal
	Active         bool
	SoldOut        bool
	VariantProduct bool
}

// CurrentPrice returns the sale price when one is set, the base price
// otherwise.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// IsSale reports whether the product currently has a discounted price.
func (p Product) IsSale() bool {
	return p.SalePrice != nil && p.SalePrice.LessThan(p.Price)
}

// Variant is one parameterized configuration of a product. RelationHash is
// the canonical serialization of its option parameters.
type Variant struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	RelationHash string
	Price        decimal.Decimal
	RegularPrice decimal.Decimal
	SoldOut      bool
}

// Category is the read-only category view used for voucher descriptions.
type Category struct {
	ID   uuid.UUID
	Name string
}

// Repository provides read access to the product catalog.
type Repository interface {
	ProductByID(ctx context.Context, id uuid.UUID) (Product, error)
	VariantByID(ctx context.Context, id uuid.UUID) (Variant, error)
	VariantsByProduct(ctx context.Context, productID uuid.UUID) ([]Variant, error)
	CategoryByID(ctx context.Context, id uuid.UUID) (Category, error)
}

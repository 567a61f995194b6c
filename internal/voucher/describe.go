package voucher

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

// Describer renders the shopper-facing message for a voucher.
type Describer struct {
	Catalog  catalog.Repository
	Currency money.Currency
}

// Describe branches on the voucher type. Reference-family vouchers resolve
// their product or category; a dangling reference is ErrReferenceNotFound.
func (d Describer) Describe(ctx context.Context, v Voucher) (string, error) {
	switch v.Type {
	case TypeFixValue:
		amount := money.NewPriceFromDecimal(v.Value, d.Currency)
		return fmt.Sprintf("Discount %s off anything.", amount.Render(true)), nil
	case TypePercentage:
		return fmt.Sprintf("Discount %d %% off anything.", percentageOf(v)), nil
	case TypePercentageProduct:
		product, err := d.product(ctx, v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Discount %d %% off product %q.", percentageOf(v), product.Name), nil
	case TypePercentageCategory:
		category, err := d.category(ctx, v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Discount %d %% off any product in category %q.", percentageOf(v), category.Name), nil
	case TypeFreeProduct:
		product, err := d.product(ctx, v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Product %q for free.", product.Name), nil
	}
	return fmt.Sprintf("Voucher %q.", v.Code), nil
}

func (d Describer) product(ctx context.Context, v Voucher) (catalog.Product, error) {
	if v.ReferenceID == nil {
		return catalog.Product{}, ErrReferenceNotFound
	}
	product, err := d.Catalog.ProductByID(ctx, *v.ReferenceID)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Product{}, ErrReferenceNotFound
	}
	return product, err
}

func (d Describer) category(ctx context.Context, v Voucher) (catalog.Category, error) {
	if v.ReferenceID == nil {
		return catalog.Category{}, ErrReferenceNotFound
	}
	category, err := d.Catalog.CategoryByID(ctx, *v.ReferenceID)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Category{}, ErrReferenceNotFound
	}
	return category, err
}

func percentageOf(v Voucher) int {
	if v.Percentage != nil {
		return *v.Percentage
	}
	return int(v.Value.IntPart())
}

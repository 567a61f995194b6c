package variant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

// ErrProductNotFound indicates the product for a status check does not exist.
var ErrProductNotFound = errors.New("variant: product not found")

// Status describes the outcome of resolving a partial option selection
// against a product's variants.
type Status struct {
	Exists       bool         `json:"exists"`
	VariantID    *uuid.UUID   `json:"variantId,omitempty"`
	Available    bool         `json:"available"`
	Price        *string      `json:"price"`
	RegularPrice *string      `json:"regularPrice"`
	Sale         bool         `json:"sale"`
	VariantList  []ListEntry  `json:"variantList"`
	OptionsFeed  FeedByOption `json:"variantOptionsFeed"`
}

// ListEntry is one selectable variant in the full listing.
type ListEntry struct {
	VariantID    uuid.UUID `json:"variantId"`
	Hash         string    `json:"hash"`
	Available    bool      `json:"available"`
	Price        string    `json:"price"`
	RegularPrice string    `json:"regularPrice"`
}

// FeedEntry is one reachable value for a single option dimension.
type FeedEntry struct {
	Text      string    `json:"text"`
	Value     string    `json:"value"`
	VariantID uuid.UUID `json:"id"`
	Hash      string    `json:"hash"`
}

// FeedByOption maps an option key to the values reachable by changing only
// that key, powering progressive option narrowing in the storefront.
type FeedByOption map[string][]FeedEntry

// Service resolves variant selection state for the endpoint layer.
type Service struct {
	Catalog  catalog.Repository
	Currency money.Currency
}

// CheckStatus resolves the selection against the product's variants. Products
// without variants report their own price and an empty feed.
func (s *Service) CheckStatus(ctx context.Context, productID uuid.UUID, options map[string]string) (Status, error) {
	product, err := s.Catalog.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Status{}, ErrProductNotFound
		}
		return Status{}, fmt.Errorf("variant: load product: %w", err)
	}
	variants, err := s.Catalog.VariantsByProduct(ctx, productID)
	if err != nil {
		return Status{}, fmt.Errorf("variant: load variants: %w", err)
	}

	status := Status{OptionsFeed: FeedByOption{}, VariantList: []ListEntry{}}
	if len(variants) == 0 {
		price := s.render(product.CurrentPrice())
		regular := s.render(product.Price)
		status.Price = &price
		status.RegularPrice = &regular
		status.Sale = product.IsSale()
		return status, nil
	}

	hash := SerializeParameters(options)
	for _, v := range variants {
		status.VariantList = append(status.VariantList, ListEntry{
			VariantID:    v.ID,
			Hash:         v.RelationHash,
			Available:    !v.SoldOut,
			Price:        s.render(v.Price),
			RegularPrice: s.render(v.RegularPrice),
		})
		if v.RelationHash == hash {
			id := v.ID
			price := s.render(v.Price)
			regular := s.render(v.RegularPrice)
			status.Exists = true
			status.VariantID = &id
			status.Available = !v.SoldOut
			status.Price = &price
			status.RegularPrice = &regular
			status.Sale = product.IsSale()
		}
	}

	for _, v := range variants {
		params := UnserializeParameters(v.RelationHash)
		if len(params) == 0 {
			continue
		}
		if !CompatibleWithSelection(options, params) {
			continue
		}
		for key, value := range params {
			if !reachableByChanging(key, options, params) {
				continue
			}
			status.OptionsFeed[key] = append(status.OptionsFeed[key], FeedEntry{
				Text:      value,
				Value:     value,
				VariantID: v.ID,
				Hash:      v.RelationHash,
			})
		}
	}
	return status, nil
}

// reachableByChanging reports whether the candidate matches the selection in
// every dimension except possibly the given key.
func reachableByChanging(key string, selection, params map[string]string) bool {
	sel := cloneWithout(selection, key)
	par := cloneWithout(params, key)
	if len(sel) != len(par) {
		return false
	}
	for k, v := range sel {
		if par[k] != v {
			return false
		}
	}
	return true
}

func cloneWithout(m map[string]string, key string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if k == key {
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Service) render(value decimal.Decimal) string {
	return money.NewPriceFromDecimal(value, s.Currency).Render(true)
}

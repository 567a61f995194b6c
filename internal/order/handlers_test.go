package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/common"
	"github.com/noah-isme/backend-keranjang/internal/delivery"
	"github.com/noah-isme/backend-keranjang/internal/identity"
	"github.com/noah-isme/backend-keranjang/internal/money"
	"github.com/noah-isme/backend-keranjang/internal/order"
)

type fakeStore struct {
	carts   map[string]*cart.Cart
	deleted int
}

func (s *fakeStore) ByIdentifier(_ context.Context, identifier string) (*cart.Cart, error) {
	c, ok := s.carts[identifier]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) Create(_ context.Context, c *cart.Cart) error {
	c.ID = uuid.New()
	s.carts[c.Identifier] = c
	return nil
}

func (s *fakeStore) UpdateSelection(context.Context, *cart.Cart) error { return nil }

func (s *fakeStore) InsertItem(context.Context, *cart.Item) error { return nil }

func (s *fakeStore) UpdateItemCount(context.Context, uuid.UUID, int) error { return nil }

func (s *fakeStore) DeleteItem(context.Context, uuid.UUID) error { return nil }

func (s *fakeStore) ItemByID(context.Context, uuid.UUID) (*cart.Item, error) {
	return nil, cart.ErrItemNotFound
}

func (s *fakeStore) ItemsCount(context.Context, string) (int, error) { return 0, nil }

func (s *fakeStore) SaleByID(context.Context, uuid.UUID) (*cart.Sale, error) {
	return nil, cart.ErrSaleNotFound
}

func (s *fakeStore) DeleteSale(context.Context, uuid.UUID) error { return nil }

func (s *fakeStore) DeleteCart(_ context.Context, cartID uuid.UUID) error {
	s.deleted++
	for identifier, c := range s.carts {
		if c.ID == cartID {
			delete(s.carts, identifier)
		}
	}
	return nil
}

func newCheckoutFixture(t *testing.T, fill bool) (*order.Handler, *fakeStore, context.Context) {
	t.Helper()
	store := &fakeStore{carts: map[string]*cart.Cart{}}
	currency := money.CurrencyFromCode("CZK")
	ctx := common.WithUserID(context.Background(), "42")

	identifier := identity.UserIdentifier("42")
	c := cart.NewCart(identifier, currency, time.Now())
	c.ID = uuid.New()
	if fill {
		product := catalog.Product{
			ID:         uuid.New(),
			Name:       "Coffee beans",
			Slug:       "coffee-beans",
			Price:      decimal.RequireFromString("250"),
			VatPercent: decimal.RequireFromString("21"),
			Active:     true,
		}
		item := cart.NewItem(c, product, nil, 2)
		c.Items = append(c.Items, item)
		c.Delivery = &delivery.Delivery{ID: uuid.New(), Code: "courier", Name: "Courier"}
		c.Payment = &delivery.Payment{ID: uuid.New(), Code: "card", Name: "Card"}
	}
	store.carts[identifier] = c

	manager := &cart.Manager{
		Store:    store,
		Identity: identity.Resolver{},
		Currency: currency,
		Log:      zerolog.Nop(),
	}
	handler := &order.Handler{
		Manager:  order.StubManager{Log: zerolog.Nop()},
		Carts:    manager,
		Validate: validator.New(),
		Log:      zerolog.Nop(),
	}
	return handler, store, ctx
}

const checkoutBody = `{
	"gdpr": true,
	"firstName": "Jana",
	"lastName": "Nováková",
	"email": "jana@example.com",
	"phone": "+420777123456",
	"address": {"street": "Dlouhá 12", "city": "Praha", "zip": "11000"}
}`

func postCheckout(t *testing.T, handler *order.Handler, ctx context.Context, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(ctx)
	rr := httptest.NewRecorder()
	handler.Checkout(rr, req)
	return rr
}

func TestCheckoutCreatesOrderAndDropsCart(t *testing.T) {
	handler, store, ctx := newCheckoutFixture(t, true)

	rr := postCheckout(t, handler, ctx, checkoutBody)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp struct {
		Data struct {
			ID   string `json:"id"`
			Hash string `json:"hash"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	require.Len(t, resp.Data.Hash, 32)
	require.Equal(t, 1, store.deleted)
}

func TestCheckoutRequiresGdprConsent(t *testing.T) {
	handler, store, ctx := newCheckoutFixture(t, true)

	rr := postCheckout(t, handler, ctx, strings.Replace(checkoutBody, `"gdpr": true`, `"gdpr": false`, 1))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "GDPR_REQUIRED")
	require.Zero(t, store.deleted)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	handler, store, ctx := newCheckoutFixture(t, false)

	rr := postCheckout(t, handler, ctx, checkoutBody)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "EMPTY_CART")
	require.Zero(t, store.deleted)
}

func TestCheckoutRequiresDeliveryAndPayment(t *testing.T) {
	handler, store, ctx := newCheckoutFixture(t, true)
	for _, c := range store.carts {
		c.Payment = nil
	}

	rr := postCheckout(t, handler, ctx, checkoutBody)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "DELIVERY_REQUIRED")
}

func TestCheckoutRejectsIncompleteAddress(t *testing.T) {
	handler, _, ctx := newCheckoutFixture(t, true)

	rr := postCheckout(t, handler, ctx, strings.Replace(checkoutBody, `"city": "Praha", `, "", 1))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

package order

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-keranjang/internal/cart"
)

// ErrEmptyCart indicates a checkout attempt with no purchasable items.
var ErrEmptyCart = errors.New("order: cart is empty")

// Order is the handoff result of a successful checkout. The hash is the
// public token the storefront uses for the thank-you and payment pages.
type Order struct {
	ID   uuid.UUID
	Hash string
}

// Info carries the customer data collected by the checkout form.
type Info struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Notice    string
	Address   Address
	Invoice   Address
}

// Address is one postal address block of the checkout form.
type Address struct {
	Street      string
	City        string
	Zip         string
	CompanyName string
	CompanyID   string
	VatID       string
}

// Manager turns a priced cart into an order. Order persistence, numbering
// and payment live behind this boundary, outside the cart subsystem.
type Manager interface {
	CreateOrder(ctx context.Context, info Info, c *cart.Cart) (Order, error)
}

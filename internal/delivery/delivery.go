package delivery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the delivery or payment method does not exist.
var ErrNotFound = errors.New("delivery: not found")

// Delivery is one delivery method offered by the shop.
type Delivery struct {
	ID    uuid.UUID
	Code  string
	Name  string
	Price decimal.Decimal
}

// Payment is one payment method offered by the shop.
type Payment struct {
	ID    uuid.UUID
	Code  string
	Name  string
	Price decimal.Decimal
}

// Repository resolves delivery and payment methods and their compatibility.
// Compatibility is an existence check against a many-to-many relation; a
// missing row means the pair cannot be combined.
type Repository interface {
	Deliveries(ctx context.Context) ([]Delivery, error)
	DeliveryByCode(ctx context.Context, code string) (Delivery, error)
	PaymentByCode(ctx context.Context, code string) (Payment, error)
	DeliveryByID(ctx context.Context, id uuid.UUID) (Delivery, error)
	PaymentByID(ctx context.Context, id uuid.UUID) (Payment, error)
	IsCompatible(ctx context.Context, deliveryID, paymentID uuid.UUID) (bool, error)
	CompatiblePayments(ctx context.Context, deliveryID uuid.UUID) ([]Payment, error)
}

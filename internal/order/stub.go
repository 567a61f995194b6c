package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-keranjang/internal/cart"
)

// StubManager acknowledges checkouts without persisting orders. It keeps the
// boundary wired until a real order service sits behind it.
type StubManager struct {
	Log zerolog.Logger
}

// CreateOrder implements Manager.
func (m StubManager) CreateOrder(ctx context.Context, info Info, c *cart.Cart) (Order, error) {
	if c.IsEmpty() {
		return Order{}, ErrEmptyCart
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return Order{}, err
	}
	o := Order{ID: uuid.New(), Hash: hex.EncodeToString(buf)}
	m.Log.Info().
		Str("order", o.ID.String()).
		Str("cart", c.ID.String()).
		Str("total", c.Price().Render(false)).
		Msg("order accepted")
	return o, nil
}

package voucher

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-keranjang/internal/cart"
)

// Store is the persistence boundary of the voucher engine. Redeem and Release
// pair the voucher counter update with the sale row change in one
// transaction; a partial redemption must never land.
type Store interface {
	// ByCode loads a voucher by its normalized code.
	ByCode(ctx context.Context, code string) (Voucher, error)
	// ByID loads a voucher by id.
	ByID(ctx context.Context, id uuid.UUID) (Voucher, error)
	// Insert persists a new voucher. A duplicate code is ErrCodeExists.
	Insert(ctx context.Context, v Voucher) error
	// CodeExists reports whether the normalized code is taken.
	CodeExists(ctx context.Context, code string) (bool, error)
	// Feed lists every voucher, newest first.
	Feed(ctx context.Context) ([]Voucher, error)
	// Redeem writes the post-redemption voucher state and its sale atomically.
	Redeem(ctx context.Context, v Voucher, sale cart.Sale) error
	// Release deletes the sale and writes the released voucher state
	// atomically.
	Release(ctx context.Context, v Voucher, saleID uuid.UUID) error
}

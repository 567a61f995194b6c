package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/delivery"
	"github.com/noah-isme/backend-keranjang/internal/money"
)

const uniqueViolation = "23505"

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	Pool       *pgxpool.Pool
	Deliveries delivery.Repository
}

// NewPostgresStore builds a store bound to the pool.
func NewPostgresStore(pool *pgxpool.Pool, deliveries delivery.Repository) *PostgresStore {
	return &PostgresStore{Pool: pool, Deliveries: deliveries}
}

// ByIdentifier implements Store.
func (s *PostgresStore) ByIdentifier(ctx context.Context, identifier string) (*Cart, error) {
	const q = `
SELECT id, identifier, currency_code, delivery_id, payment_id, delivery_branch_id, inserted_at
FROM carts
WHERE identifier = $1
`
	var (
		c            Cart
		currencyCode string
		deliveryID   *uuid.UUID
		paymentID    *uuid.UUID
	)
	err := s.Pool.QueryRow(ctx, q, identifier).Scan(
		&c.ID,
		&c.Identifier,
		&currencyCode,
		&deliveryID,
		&paymentID,
		&c.DeliveryBranchID,
		&c.InsertedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Currency = money.CurrencyFromCode(currencyCode)

	if deliveryID != nil {
		d, err := s.Deliveries.DeliveryByID(ctx, *deliveryID)
		if err != nil {
			return nil, fmt.Errorf("cart: load delivery: %w", err)
		}
		c.Delivery = &d
	}
	if paymentID != nil {
		p, err := s.Deliveries.PaymentByID(ctx, *paymentID)
		if err != nil {
			return nil, fmt.Errorf("cart: load payment: %w", err)
		}
		c.Payment = &p
	}
	if err := s.loadItems(ctx, &c); err != nil {
		return nil, err
	}
	if err := s.loadSales(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, c *Cart) error {
	const q = `
INSERT INTO carts (identifier, currency_code, inserted_at)
VALUES ($1, $2, $3)
RETURNING id
`
	err := s.Pool.QueryRow(ctx, q, c.Identifier, c.Currency.Code, c.InsertedAt).Scan(&c.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrIdentifierConflict
	}
	return err
}

// UpdateSelection implements Store.
func (s *PostgresStore) UpdateSelection(ctx context.Context, c *Cart) error {
	const q = `
UPDATE carts
SET delivery_id = $2, payment_id = $3, delivery_branch_id = $4
WHERE id = $1
`
	var deliveryID, paymentID *uuid.UUID
	if c.Delivery != nil {
		deliveryID = &c.Delivery.ID
	}
	if c.Payment != nil {
		paymentID = &c.Payment.ID
	}
	tag, err := s.Pool.Exec(ctx, q, c.ID, deliveryID, paymentID, c.DeliveryBranchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertItem implements Store.
func (s *PostgresStore) InsertItem(ctx context.Context, item *Item) error {
	const q = `
INSERT INTO cart_items (id, cart_id, product_id, variant_id, count)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := s.Pool.Exec(ctx, q, item.ID, item.CartID, item.Product.ID, item.VariantID(), item.Count)
	return err
}

// UpdateItemCount implements Store.
func (s *PostgresStore) UpdateItemCount(ctx context.Context, itemID uuid.UUID, count int) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE cart_items SET count = $2 WHERE id = $1`, itemID, count)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem implements Store.
func (s *PostgresStore) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

const itemColumns = `
	ci.id, ci.cart_id, ci.count,
	p.id, p.name, p.slug, p.price, p.sale_price, p.vat_percent, p.active, p.sold_out, p.variant_product,
	v.id, v.product_id, v.relation_hash, v.price, v.regular_price, v.sold_out
`

// ItemByID implements Store.
func (s *PostgresStore) ItemByID(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	q := `
SELECT ` + itemColumns + `
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
LEFT JOIN product_variants v ON v.id = ci.variant_id
WHERE ci.id = $1
`
	item, err := scanItem(s.Pool.QueryRow(ctx, q, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ItemsCount implements Store.
func (s *PostgresStore) ItemsCount(ctx context.Context, identifier string) (int, error) {
	const q = `
SELECT COUNT(*)
FROM cart_items ci
JOIN carts c ON c.id = ci.cart_id
WHERE c.identifier = $1
`
	var count int
	if err := s.Pool.QueryRow(ctx, q, identifier).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SaleByID implements Store.
func (s *PostgresStore) SaleByID(ctx context.Context, saleID uuid.UUID) (*Sale, error) {
	const q = `SELECT id, cart_id, voucher_id, type, value FROM cart_sales WHERE id = $1`
	var sale Sale
	err := s.Pool.QueryRow(ctx, q, saleID).Scan(&sale.ID, &sale.CartID, &sale.VoucherID, &sale.Type, &sale.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// DeleteSale implements Store.
func (s *PostgresStore) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM cart_sales WHERE id = $1`, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

// DeleteCart implements Store. Items and sales are removed in the same
// transaction as the cart row so a partial cascade can never leave orphans.
func (s *PostgresStore) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cart_sales WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) loadItems(ctx context.Context, c *Cart) error {
	q := `
SELECT ` + itemColumns + `
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
LEFT JOIN product_variants v ON v.id = ci.variant_id
WHERE ci.cart_id = $1
ORDER BY ci.inserted_at ASC
`
	rows, err := s.Pool.Query(ctx, q, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return err
		}
		item.BindCurrency(c.Currency)
		c.Items = append(c.Items, item)
	}
	return rows.Err()
}

func (s *PostgresStore) loadSales(ctx context.Context, c *Cart) error {
	const q = `SELECT id, cart_id, voucher_id, type, value FROM cart_sales WHERE cart_id = $1`
	rows, err := s.Pool.Query(ctx, q, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.CartID, &sale.VoucherID, &sale.Type, &sale.Value); err != nil {
			return err
		}
		c.Sales = append(c.Sales, &sale)
	}
	return rows.Err()
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		item           Item
		product        catalog.Product
		variantID      *uuid.UUID
		variantProduct *uuid.UUID
		relationHash   *string
		variantPrice   decimal.NullDecimal
		variantRegular decimal.NullDecimal
		variantSoldOut *bool
	)
	err := row.Scan(
		&item.ID,
		&item.CartID,
		&item.Count,
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Price,
		&product.SalePrice,
		&product.VatPercent,
		&product.Active,
		&product.SoldOut,
		&product.VariantProduct,
		&variantID,
		&variantProduct,
		&relationHash,
		&variantPrice,
		&variantRegular,
		&variantSoldOut,
	)
	if err != nil {
		return nil, err
	}
	item.Product = product
	if variantID != nil {
		item.Variant = &catalog.Variant{
			ID:           *variantID,
			ProductID:    *variantProduct,
			RelationHash: *relationHash,
			Price:        variantPrice.Decimal,
			RegularPrice: variantRegular.Decimal,
			SoldOut:      *variantSoldOut,
		}
	}
	return &item, nil
}

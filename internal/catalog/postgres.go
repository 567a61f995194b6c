package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository on top of a pgx pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository builds a catalog repository bound to the pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

// ProductByID implements Repository.
func (r *PostgresRepository) ProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	const q = `
SELECT id, name, slug, price, sale_price, vat_percent, active, sold_out, variant_product
FROM products
WHERE id = $1
`
	var p Product
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Price,
		&p.SalePrice,
		&p.VatPercent,
		&p.Active,
		&p.SoldOut,
		&p.VariantProduct,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// VariantByID implements Repository.
func (r *PostgresRepository) VariantByID(ctx context.Context, id uuid.UUID) (Variant, error) {
	const q = `
SELECT id, product_id, relation_hash, price, regular_price, sold_out
FROM product_variants
WHERE id = $1
`
	var v Variant
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&v.ID,
		&v.ProductID,
		&v.RelationHash,
		&v.Price,
		&v.RegularPrice,
		&v.SoldOut,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Variant{}, ErrNotFound
	}
	if err != nil {
		return Variant{}, err
	}
	return v, nil
}

// VariantsByProduct implements Repository. Variants come back ordered by
// relation hash so option feeds render deterministically.
func (r *PostgresRepository) VariantsByProduct(ctx context.Context, productID uuid.UUID) ([]Variant, error) {
	const q = `
SELECT id, product_id, relation_hash, price, regular_price, sold_out
FROM product_variants
WHERE product_id = $1
ORDER BY relation_hash ASC
`
	rows, err := r.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.RelationHash, &v.Price, &v.RegularPrice, &v.SoldOut); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// CategoryByID implements Repository.
func (r *PostgresRepository) CategoryByID(ctx context.Context, id uuid.UUID) (Category, error) {
	const q = `SELECT id, name FROM product_categories WHERE id = $1`
	var c Category
	err := r.Pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

package voucher

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-keranjang/internal/cart"
)

const uniqueViolation = "23505"

const voucherColumns = `
	id, code, type, value, percentage, reference_id, usage_limit, used_count,
	active, must_be_unique, valid_from, valid_to, note, inserted_at, used_at
`

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// ByCode implements Store.
func (s *PostgresStore) ByCode(ctx context.Context, code string) (Voucher, error) {
	q := `SELECT ` + voucherColumns + ` FROM cart_vouchers WHERE code = $1`
	return scanVoucher(s.Pool.QueryRow(ctx, q, code))
}

// ByID implements Store.
func (s *PostgresStore) ByID(ctx context.Context, id uuid.UUID) (Voucher, error) {
	q := `SELECT ` + voucherColumns + ` FROM cart_vouchers WHERE id = $1`
	return scanVoucher(s.Pool.QueryRow(ctx, q, id))
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, v Voucher) error {
	const q = `
INSERT INTO cart_vouchers (
	id, code, type, value, percentage, reference_id, usage_limit, used_count,
	active, must_be_unique, valid_from, valid_to, note, inserted_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`
	_, err := s.Pool.Exec(ctx, q,
		v.ID, v.Code, string(v.Type), v.Value, v.Percentage, v.ReferenceID,
		v.UsageLimit, v.UsedCount, v.Active, v.MustBeUnique,
		v.ValidFrom, v.ValidTo, v.Note, v.InsertedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrCodeExists
	}
	return err
}

// CodeExists implements Store.
func (s *PostgresStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cart_vouchers WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

// Feed implements Store.
func (s *PostgresStore) Feed(ctx context.Context) ([]Voucher, error) {
	q := `SELECT ` + voucherColumns + ` FROM cart_vouchers ORDER BY inserted_at DESC`
	rows, err := s.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Redeem implements Store.
func (s *PostgresStore) Redeem(ctx context.Context, v Voucher, sale cart.Sale) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE cart_vouchers SET used_count = $2, active = $3, used_at = $4 WHERE id = $1
`, v.ID, v.UsedCount, v.Active, v.UsedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_, err = tx.Exec(ctx, `
INSERT INTO cart_sales (id, cart_id, voucher_id, type, value) VALUES ($1, $2, $3, $4, $5)
`, sale.ID, sale.CartID, sale.VoucherID, sale.Type, sale.Value)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Release implements Store.
func (s *PostgresStore) Release(ctx context.Context, v Voucher, saleID uuid.UUID) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cart_sales WHERE id = $1`, saleID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE cart_vouchers SET used_count = $2, active = $3 WHERE id = $1
`, v.ID, v.UsedCount, v.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanVoucher(row pgx.Row) (Voucher, error) {
	var (
		v       Voucher
		rawType string
	)
	err := row.Scan(
		&v.ID, &v.Code, &rawType, &v.Value, &v.Percentage, &v.ReferenceID,
		&v.UsageLimit, &v.UsedCount, &v.Active, &v.MustBeUnique,
		&v.ValidFrom, &v.ValidTo, &v.Note, &v.InsertedAt, &v.UsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Voucher{}, ErrNotFound
	}
	if err != nil {
		return Voucher{}, err
	}
	v.Type = Type(rawType)
	return v, nil
}

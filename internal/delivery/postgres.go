package delivery

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

// NewPostgresRepository builds a repository bound to the pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

// Deliveries implements Repository.
func (r *PostgresRepository) Deliveries(ctx context.Context) ([]Delivery, error) {
	const q = `SELECT id, code, name, price FROM deliveries ORDER BY code ASC`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.Price); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// DeliveryByCode implements Repository.
func (r *PostgresRepository) DeliveryByCode(ctx context.Context, code string) (Delivery, error) {
	const q = `SELECT id, code, name, price FROM deliveries WHERE code = $1`
	return r.scanDelivery(r.Pool.QueryRow(ctx, q, code))
}

// DeliveryByID implements Repository.
func (r *PostgresRepository) DeliveryByID(ctx context.Context, id uuid.UUID) (Delivery, error) {
	const q = `SELECT id, code, name, price FROM deliveries WHERE id = $1`
	return r.scanDelivery(r.Pool.QueryRow(ctx, q, id))
}

// PaymentByCode implements Repository.
func (r *PostgresRepository) PaymentByCode(ctx context.Context, code string) (Payment, error) {
	const q = `SELECT id, code, name, price FROM payments WHERE code = $1`
	return r.scanPayment(r.Pool.QueryRow(ctx, q, code))
}

// PaymentByID implements Repository.
func (r *PostgresRepository) PaymentByID(ctx context.Context, id uuid.UUID) (Payment, error) {
	const q = `SELECT id, code, name, price FROM payments WHERE id = $1`
	return r.scanPayment(r.Pool.QueryRow(ctx, q, id))
}

// IsCompatible implements Repository.
func (r *PostgresRepository) IsCompatible(ctx context.Context, deliveryID, paymentID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM delivery_payment_relations
	WHERE delivery_id = $1 AND payment_id = $2
)
`
	var ok bool
	if err := r.Pool.QueryRow(ctx, q, deliveryID, paymentID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CompatiblePayments implements Repository.
func (r *PostgresRepository) CompatiblePayments(ctx context.Context, deliveryID uuid.UUID) ([]Payment, error) {
	const q = `
SELECT p.id, p.code, p.name, p.price
FROM payments p
JOIN delivery_payment_relations rel ON rel.payment_id = p.id
WHERE rel.delivery_id = $1
ORDER BY p.code ASC
`
	rows, err := r.Pool.Query(ctx, q, deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Price); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PostgresRepository) scanDelivery(row pgx.Row) (Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.Code, &d.Name, &d.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return Delivery{}, ErrNotFound
	}
	if err != nil {
		return Delivery{}, err
	}
	return d, nil
}

func (r *PostgresRepository) scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

package order

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/felixven/ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) CreateDraft(ctx context.Context, in DraftInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var orderID int64
	err = tx.QueryRow(ctx, `
INSERT INTO orders (email, order_date, total_cents, status, address_id)
VALUES ($1, CURRENT_DATE, $2, $3, $4)
RETURNING id
`, in.Email, in.TotalCents, domain.OrderStatusPending, in.AddressID).Scan(&orderID)
	if err != nil {
		return nil, err
	}

	if err := insertLines(ctx, tx, orderID, in.Lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Printf("order repo: draft created id=%d email=%s total_cents=%d lines=%d", orderID, in.Email, in.TotalCents, len(in.Lines))
	return r.GetByIDAndEmail(ctx, orderID, in.Email)
}

func (r *postgresRepo) GetByIDAndEmail(ctx context.Context, id int64, email string) (*domain.Order, error) {
	const q = `
SELECT id, email, order_date, total_cents, status, COALESCE(address_id, 0), created_at
FROM orders
WHERE id = $1 AND email = $2
`
	var o domain.Order
	err := r.pool.QueryRow(ctx, q, id, email).Scan(&o.ID, &o.Email, &o.OrderDate, &o.TotalCents, &o.Status, &o.AddressID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if o.Lines, err = r.fetchLines(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Payment, err = r.fetchPayment(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	const q = `
SELECT id, email, order_date, total_cents, status, COALESCE(address_id, 0), created_at
FROM orders
WHERE email = $1
ORDER BY id DESC
`
	rows, err := r.pool.Query(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Email, &o.OrderDate, &o.TotalCents, &o.Status, &o.AddressID, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Lines, err = r.fetchLines(ctx, orders[i].ID); err != nil {
			return nil, err
		}
		if orders[i].Payment, err = r.fetchPayment(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Finalize commits the whole fulfillment as one transaction: address attach,
// payment upsert, status transition, guarded stock decrements and cart
// clearing either all land or none do.
func (r *postgresRepo) Finalize(ctx context.Context, in FinalizeInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var orderID int64
	if in.OrderID == nil {
		err = tx.QueryRow(ctx, `
INSERT INTO orders (email, order_date, total_cents, status, address_id)
VALUES ($1, CURRENT_DATE, $2, $3, $4)
RETURNING id
`, in.Email, in.TotalCents, domain.OrderStatusPending, in.AddressID).Scan(&orderID)
		if err != nil {
			return nil, err
		}
	} else {
		orderID = *in.OrderID
		// The status predicate is the idempotency guard: a concurrent
		// finalize of the same draft blocks on this row, re-evaluates the
		// predicate after the winner commits ACCEPTED, and matches nothing.
		cmd, err := tx.Exec(ctx, `
UPDATE orders
SET address_id = $1, total_cents = $2
WHERE id = $3 AND email = $4 AND status = $5
`, in.AddressID, in.TotalCents, orderID, in.Email, domain.OrderStatusPending)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			var status string
			err := tx.QueryRow(ctx, `
SELECT status FROM orders WHERE id = $1 AND email = $2
`, orderID, in.Email).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			if err != nil {
				return nil, err
			}
			if status == domain.OrderStatusAccepted {
				r.logger.Printf("order repo: finalize id=%d already accepted", orderID)
				return nil, domain.ErrOrderAlreadyAccepted
			}
			return nil, domain.ErrNotFound
		}
	}

	if in.InsertLines {
		if err := insertLines(ctx, tx, orderID, in.Lines); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO payments (order_id, method, pg_name, pg_payment_id, pg_status, pg_response_message)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (order_id) DO UPDATE SET
    method = EXCLUDED.method,
    pg_name = EXCLUDED.pg_name,
    pg_payment_id = EXCLUDED.pg_payment_id,
    pg_status = EXCLUDED.pg_status,
    pg_response_message = EXCLUDED.pg_response_message
`, orderID, in.Payment.Method, in.Payment.PGName, in.Payment.PGPaymentID, in.Payment.PGStatus, in.Payment.PGResponseMessage); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
UPDATE orders SET status = $1 WHERE id = $2
`, domain.OrderStatusAccepted, orderID); err != nil {
		return nil, err
	}

	// Conditional decrement: zero rows means the remaining stock cannot
	// cover the line, which rolls back the whole transaction and names the
	// product that ran out.
	purchased := make([]int64, 0, len(in.Lines))
	for _, line := range in.Lines {
		cmd, err := tx.Exec(ctx, `
UPDATE products
SET quantity = quantity - $1
WHERE id = $2 AND quantity >= $1
`, line.Quantity, line.ProductID)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			r.logger.Printf("order repo: finalize id=%d insufficient stock product=%d", orderID, line.ProductID)
			return nil, &domain.StockError{ProductID: line.ProductID}
		}
		purchased = append(purchased, line.ProductID)
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE cart_id = (SELECT id FROM carts WHERE user_email = $1)
  AND product_id = ANY($2)
`, in.Email, purchased); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
UPDATE carts
SET total_cents = COALESCE((
	SELECT SUM(quantity * unit_price_cents)
	FROM cart_lines
	WHERE cart_id = carts.id
), 0)
WHERE user_email = $1
`, in.Email); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Printf("order repo: finalized id=%d email=%s method=%s total_cents=%d", orderID, in.Email, in.Payment.Method, in.TotalCents)
	return r.GetByIDAndEmail(ctx, orderID, in.Email)
}

func (r *postgresRepo) fetchLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	const q = `
SELECT ol.id, ol.order_id, ol.product_id, ol.quantity, ol.ordered_price_cents, ol.discount_cents,
       p.name, COALESCE(p.description, ''), p.price_cents, p.special_price_cents, p.quantity
FROM order_lines ol
JOIN products p ON p.id = ol.product_id
WHERE ol.order_id = $1
ORDER BY ol.id ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.OrderedPriceCents,
			&line.DiscountCents,
			&line.Product.Name,
			&line.Product.Description,
			&line.Product.PriceCents,
			&line.Product.SpecialPriceCents,
			&line.Product.Quantity,
		); err != nil {
			return nil, err
		}
		line.Product.ID = line.ProductID
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *postgresRepo) fetchPayment(ctx context.Context, orderID int64) (*domain.Payment, error) {
	const q = `
SELECT id, order_id, method, COALESCE(pg_name, ''), COALESCE(pg_payment_id, ''), COALESCE(pg_status, ''), COALESCE(pg_response_message, '')
FROM payments
WHERE order_id = $1
`
	var p domain.Payment
	err := r.pool.QueryRow(ctx, q, orderID).Scan(&p.ID, &p.OrderID, &p.Method, &p.PGName, &p.PGPaymentID, &p.PGStatus, &p.PGResponseMessage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_lines (order_id, product_id, quantity, ordered_price_cents, discount_cents)
VALUES ($1, $2, $3, $4, $5)
`, orderID, line.ProductID, line.Quantity, line.PriceCents, line.DiscountCents); err != nil {
			return err
		}
	}
	return nil
}

package cart

import (
	"context"
	"errors"

	"github.com/felixven/ecommerce-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Cart, error) {
	const cartQuery = `
SELECT id, user_email, total_cents, created_at
FROM carts
WHERE user_email = $1
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, email).Scan(&cart.ID, &cart.UserEmail, &cart.TotalCents, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT cl.id, cl.cart_id, cl.product_id, p.name, cl.quantity, cl.unit_price_cents, p.price_cents, cl.created_at
FROM cart_lines cl
JOIN products p ON p.id = cl.product_id
WHERE cl.cart_id = $1
ORDER BY cl.created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.CatalogPriceCents,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

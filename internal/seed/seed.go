package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "Passw0rd!"
)

type productSeed struct {
	Name              string
	Description       string
	PriceCents        int64
	SpecialPriceCents int64
	Quantity          int
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureUser(ctx, pool, demoEmail, demoPassword); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if err := ensureAddress(ctx, pool, demoEmail); err != nil {
		return fmt.Errorf("ensure address: %w", err)
	}

	products := []productSeed{
		{
			Name:              "Ceramic Pour-Over Set",
			Description:       "Hand-glazed dripper with matching carafe",
			PriceCents:        10000,
			SpecialPriceCents: 8000,
			Quantity:          10,
		},
		{
			Name:              "Walnut Serving Board",
			Description:       "End-grain walnut board, food-safe oil finish",
			PriceCents:        6500,
			SpecialPriceCents: 6500,
			Quantity:          25,
		},
		{
			Name:              "Linen Apron",
			Description:       "Stonewashed linen, adjustable straps",
			PriceCents:        4200,
			SpecialPriceCents: 3600,
			Quantity:          40,
		},
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		id, err := upsertProduct(ctx, pool, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
		ids = append(ids, id)
	}

	if err := ensureCart(ctx, pool, demoEmail, ids[0], products[0]); err != nil {
		return fmt.Errorf("ensure cart: %w", err)
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
INSERT INTO users (email, password_hash)
VALUES ($1, $2)
ON CONFLICT (email) DO NOTHING
`, email, string(hash))
	return err
}

func ensureAddress(ctx context.Context, pool *pgxpool.Pool, email string) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_email = $1`, email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := pool.Exec(ctx, `
INSERT INTO addresses (user_email, full_name, phone_number, city, district, postal_code, street)
VALUES ($1, 'Demo User', '0912345678', 'Taipei', 'Daan', '106', '1 Demo Street')
`, email)
	return err
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
SELECT id FROM products WHERE name = $1
`, p.Name).Scan(&id)
	switch {
	case err == nil:
		_, err = pool.Exec(ctx, `
UPDATE products
SET description = $2, price_cents = $3, special_price_cents = $4, quantity = $5
WHERE id = $1
`, id, p.Description, p.PriceCents, p.SpecialPriceCents, p.Quantity)
		return id, err
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, err
	}

	err = pool.QueryRow(ctx, `
INSERT INTO products (name, description, price_cents, special_price_cents, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, p.Name, p.Description, p.PriceCents, p.SpecialPriceCents, p.Quantity).Scan(&id)
	return id, err
}

func ensureCart(ctx context.Context, pool *pgxpool.Pool, email string, productID int64, p productSeed) error {
	var cartID int64
	err := pool.QueryRow(ctx, `
INSERT INTO carts (user_email, total_cents)
VALUES ($1, 0)
ON CONFLICT (user_email) DO UPDATE SET user_email = EXCLUDED.user_email
RETURNING id
`, email).Scan(&cartID)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, quantity, unit_price_cents)
VALUES ($1, $2, 2, $3)
ON CONFLICT (cart_id, product_id) DO NOTHING
`, cartID, productID, p.SpecialPriceCents); err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
UPDATE carts
SET total_cents = COALESCE((
	SELECT SUM(quantity * unit_price_cents)
	FROM cart_lines
	WHERE cart_id = carts.id
), 0)
WHERE id = $1
`, cartID)
	return err
}

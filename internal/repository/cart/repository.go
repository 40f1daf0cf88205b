package cart

import (
	"context"

	"github.com/felixven/ecommerce-backend/internal/domain"
)

type Repository interface {
	// GetByEmail returns the user's cart with its lines, joined with the
	// current catalog price of each product.
	GetByEmail(ctx context.Context, email string) (*domain.Cart, error)
}

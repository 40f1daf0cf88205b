package product

import (
	"context"

	"github.com/felixven/ecommerce-backend/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

package order

import (
	"context"

	"github.com/felixven/ecommerce-backend/internal/domain"
)

// LineInput is one frozen purchase line: quantity at the price actually
// charged, with the discount already computed against the catalog price.
type LineInput struct {
	ProductID     int64
	Quantity      int
	PriceCents    int64
	DiscountCents int64
}

type DraftInput struct {
	Email      string
	AddressID  int64
	TotalCents int64
	Lines      []LineInput
}

type PaymentInput struct {
	Method            string
	PGName            string
	PGPaymentID       string
	PGStatus          string
	PGResponseMessage string
}

// FinalizeInput drives the single finalization transaction. OrderID nil
// means a fresh order is created from the lines; otherwise the existing
// order is accepted in place. InsertLines is set when the lines are not yet
// persisted on the order (fresh orders and lazily-snapshotted drafts).
type FinalizeInput struct {
	OrderID     *int64
	Email       string
	AddressID   int64
	TotalCents  int64
	Lines       []LineInput
	InsertLines bool
	Payment     PaymentInput
}

type Repository interface {
	CreateDraft(ctx context.Context, in DraftInput) (*domain.Order, error)
	GetByIDAndEmail(ctx context.Context, id int64, email string) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	Finalize(ctx context.Context, in FinalizeInput) (*domain.Order, error)
}

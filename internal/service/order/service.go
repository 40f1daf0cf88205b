package order

import (
	"context"

	"github.com/felixven/ecommerce-backend/internal/domain"
	addressrepo "github.com/felixven/ecommerce-backend/internal/repository/address"
	cartrepo "github.com/felixven/ecommerce-backend/internal/repository/cart"
	orderrepo "github.com/felixven/ecommerce-backend/internal/repository/order"
	productrepo "github.com/felixven/ecommerce-backend/internal/repository/product"
)

// Service builds price-frozen draft orders and finalizes paid ones. Both
// checkout protocols (card intents and wallet redirects) converge on
// Finalize, so there is exactly one code path that touches payment records,
// stock and the cart.
type Service struct {
	orders    ordersRepo
	carts     cartsRepo
	addresses addressesRepo
	products  productsRepo
}

type ordersRepo interface {
	CreateDraft(ctx context.Context, in orderrepo.DraftInput) (*domain.Order, error)
	GetByIDAndEmail(ctx context.Context, id int64, email string) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	Finalize(ctx context.Context, in orderrepo.FinalizeInput) (*domain.Order, error)
}

type cartsRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.Cart, error)
}

type addressesRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Address, error)
}

type productsRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

func New(orders orderrepo.Repository, carts cartrepo.Repository, addresses addressrepo.Repository, products productrepo.Repository) *Service {
	return &Service{orders: orders, carts: carts, addresses: addresses, products: products}
}

// DraftItemInput selects a cart subset for a draft order. Only the product
// reference and quantity are trusted; price and discount always come from
// the matching cart line.
type DraftItemInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type FinalizeInput struct {
	AddressID         int64
	PaymentMethod     string
	PGName            string
	PGPaymentID       string
	PGStatus          string
	PGResponseMessage string
	OrderID           *int64
}

// CreateDraft snapshots the cart (or a subset of it) into a PENDING order.
// Prices are frozen at cart values and the total is computed server-side;
// inventory and the cart itself stay untouched.
func (s *Service) CreateDraft(ctx context.Context, email string, addressID int64, items []DraftItemInput) (*domain.Order, error) {
	cart, err := s.carts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	addr, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return nil, err
	}

	var lines []orderrepo.LineInput
	if len(items) == 0 {
		lines, err = linesFromCart(cart)
		if err != nil {
			return nil, err
		}
	} else {
		lines, err = s.linesFromSubset(ctx, cart, items)
		if err != nil {
			return nil, err
		}
	}

	var total int64
	for _, line := range lines {
		total += line.PriceCents * int64(line.Quantity)
	}

	return s.orders.CreateDraft(ctx, orderrepo.DraftInput{
		Email:      email,
		AddressID:  addr.ID,
		TotalCents: total,
		Lines:      lines,
	})
}

// Finalize converts a gateway outcome into an ACCEPTED order. With no
// OrderID the order is built from the live cart; with one, the PENDING draft
// is accepted in place, populating its lines from the cart only if the draft
// was created without them.
func (s *Service) Finalize(ctx context.Context, email string, in FinalizeInput) (*domain.Order, error) {
	addr, err := s.addresses.GetByID(ctx, in.AddressID)
	if err != nil {
		return nil, err
	}

	repoIn := orderrepo.FinalizeInput{
		OrderID:   in.OrderID,
		Email:     email,
		AddressID: addr.ID,
		Payment: orderrepo.PaymentInput{
			Method:            in.PaymentMethod,
			PGName:            in.PGName,
			PGPaymentID:       in.PGPaymentID,
			PGStatus:          in.PGStatus,
			PGResponseMessage: in.PGResponseMessage,
		},
	}

	if in.OrderID == nil {
		cart, err := s.carts.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		repoIn.Lines, err = linesFromCart(cart)
		if err != nil {
			return nil, err
		}
		repoIn.TotalCents = cart.TotalCents
		repoIn.InsertLines = true
		return s.orders.Finalize(ctx, repoIn)
	}

	existing, err := s.orders.GetByIDAndEmail(ctx, *in.OrderID, email)
	if err != nil {
		return nil, err
	}
	if existing.Status == domain.OrderStatusAccepted {
		return nil, domain.ErrOrderAlreadyAccepted
	}

	if len(existing.Lines) == 0 {
		cart, err := s.carts.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		repoIn.Lines, err = linesFromCart(cart)
		if err != nil {
			return nil, err
		}
		repoIn.TotalCents = cart.TotalCents
		repoIn.InsertLines = true
	} else {
		for _, line := range existing.Lines {
			repoIn.Lines = append(repoIn.Lines, orderrepo.LineInput{
				ProductID:     line.ProductID,
				Quantity:      line.Quantity,
				PriceCents:    line.OrderedPriceCents,
				DiscountCents: line.DiscountCents,
			})
		}
		repoIn.TotalCents = existing.TotalCents
	}

	return s.orders.Finalize(ctx, repoIn)
}

func (s *Service) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	return s.orders.ListByEmail(ctx, email)
}

func linesFromCart(cart *domain.Cart) ([]orderrepo.LineInput, error) {
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	lines := make([]orderrepo.LineInput, 0, len(cart.Lines))
	for _, cl := range cart.Lines {
		lines = append(lines, orderrepo.LineInput{
			ProductID:     cl.ProductID,
			Quantity:      cl.Quantity,
			PriceCents:    cl.UnitPriceCents,
			DiscountCents: unitDiscount(cl.CatalogPriceCents, cl.UnitPriceCents),
		})
	}
	return lines, nil
}

func (s *Service) linesFromSubset(ctx context.Context, cart *domain.Cart, items []DraftItemInput) ([]orderrepo.LineInput, error) {
	lines := make([]orderrepo.LineInput, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, domain.ValidationError("quantity must be positive")
		}
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		cl, ok := cartLineFor(cart, item.ProductID)
		if !ok {
			return nil, domain.ErrNotFound
		}
		lines = append(lines, orderrepo.LineInput{
			ProductID:     product.ID,
			Quantity:      item.Quantity,
			PriceCents:    cl.UnitPriceCents,
			DiscountCents: unitDiscount(product.PriceCents, cl.UnitPriceCents),
		})
	}
	return lines, nil
}

func cartLineFor(cart *domain.Cart, productID int64) (domain.CartLine, bool) {
	for _, cl := range cart.Lines {
		if cl.ProductID == productID {
			return cl, true
		}
	}
	return domain.CartLine{}, false
}

func unitDiscount(catalogCents, paidCents int64) int64 {
	if d := catalogCents - paidCents; d > 0 {
		return d
	}
	return 0
}

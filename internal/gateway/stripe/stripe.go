package stripe

import (
	"context"

	"github.com/felixven/ecommerce-backend/internal/config"
	"github.com/felixven/ecommerce-backend/internal/domain"
	stripeapi "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// Service is a thin pass-through to the card processor: it creates a payment
// intent and hands the client secret back to the frontend. No local state is
// touched here; the order is finalized later with the intent's outcome.
type Service struct {
	api *client.API
}

func New(cfg config.StripeConfig) *Service {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Service{api: api}
}

func (s *Service) CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(amountCents),
		Currency: stripeapi.String(currency),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	params.Context = ctx

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", &domain.GatewayError{Gateway: "Stripe", Op: "payment intent", Message: "create failed", Err: err}
	}
	return intent.ClientSecret, nil
}

package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/felixven/ecommerce-backend/internal/domain"
	"github.com/felixven/ecommerce-backend/internal/gateway/linepay"
	ordersvc "github.com/felixven/ecommerce-backend/internal/service/order"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps carries the services the router needs.
type Deps struct {
	OrderSvc   orderService
	StripeSvc  stripeService
	LinePaySvc linePayService
}

type orderService interface {
	CreateDraft(ctx context.Context, email string, addressID int64, items []ordersvc.DraftItemInput) (*domain.Order, error)
	Finalize(ctx context.Context, email string, in ordersvc.FinalizeInput) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
}

type stripeService interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

type linePayService interface {
	Reserve(ctx context.Context, in linepay.ReserveInput) (string, error)
	Confirm(ctx context.Context, transactionID string, amountCents int64, currency string) (*linepay.Outcome, error)
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.OrderSvc == nil {
		return nil, errors.New("order service required")
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-User-Email"},
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api", identityMiddleware())
	api.GET("/users/orders", listOrdersHandler(deps, logger))
	api.POST("/order/users/payments/:paymentMethod", placeOrderHandler(deps, logger))
	api.POST("/order/stripe-client-secret", stripeSecretHandler(deps, logger))
	api.POST("/order/linepay-reserve", linePayReserveHandler(deps, logger))
	api.POST("/order/linepay-confirm/:transactionId", linePayConfirmHandler(deps, logger))
	api.POST("/order/create-for-linepay", createDraftHandler(deps, logger))

	return router, nil
}

const userEmailKey = "userEmail"

// identityMiddleware trusts the authenticated identity injected by the auth
// layer in front of this service. Requests without one are rejected.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-User-Email")
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing user identity"})
			return
		}
		c.Set(userEmailKey, email)
		c.Next()
	}
}

func userEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

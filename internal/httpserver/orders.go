package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/felixven/ecommerce-backend/internal/domain"
	"github.com/felixven/ecommerce-backend/internal/gateway/linepay"
	ordersvc "github.com/felixven/ecommerce-backend/internal/service/order"
	"github.com/gin-gonic/gin"
)

type placeOrderRequest struct {
	AddressID         int64  `json:"addressId"`
	PGName            string `json:"pgName"`
	PGPaymentID       string `json:"pgPaymentId"`
	PGStatus          string `json:"pgStatus"`
	PGResponseMessage string `json:"pgResponseMessage"`
	OrderID           *int64 `json:"orderId,omitempty"`
}

type createDraftRequest struct {
	AddressID  int64                     `json:"addressId"`
	OrderItems []ordersvc.DraftItemInput `json:"orderItems"`
}

type stripeSecretRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type linePayReserveRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"orderId"`
	ProductName string `json:"productName"`
	ConfirmURL  string `json:"confirmUrl"`
	CancelURL   string `json:"cancelUrl"`
}

type linePayConfirmRequest struct {
	OrderID   int64  `json:"orderId"`
	AddressID int64  `json:"addressId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func listOrdersHandler(deps Deps, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := deps.OrderSvc.ListByEmail(c.Request.Context(), userEmail(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		c.JSON(http.StatusOK, orders)
	}
}

func placeOrderHandler(deps Deps, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := strings.TrimSpace(c.Param("paymentMethod"))
		if method == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "payment method required"})
			return
		}
		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		if req.AddressID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "addressId required"})
			return
		}

		order, err := deps.OrderSvc.Finalize(c.Request.Context(), userEmail(c), ordersvc.FinalizeInput{
			AddressID:         req.AddressID,
			PaymentMethod:     method,
			PGName:            req.PGName,
			PGPaymentID:       req.PGPaymentID,
			PGStatus:          req.PGStatus,
			PGResponseMessage: req.PGResponseMessage,
			OrderID:           req.OrderID,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func createDraftHandler(deps Deps, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		if req.AddressID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "addressId required"})
			return
		}

		order, err := deps.OrderSvc.CreateDraft(c.Request.Context(), userEmail(c), req.AddressID, req.OrderItems)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func stripeSecretHandler(deps Deps, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.StripeSvc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "card payments not configured"})
			return
		}
		var req stripeSecretRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		if req.Amount <= 0 || strings.TrimSpace(req.Currency) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "amount and currency required"})
			return
		}

		secret, err := deps.StripeSvc.CreateIntent(c.Request.Context(), req.Amount, req.Currency)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"clientSecret": secret})
	}
}

func linePayReserveHandler(deps Deps, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.LinePaySvc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "wallet payments not configured"})
			return
		}
		var req linePayReserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		if req.Amount <= 0 || strings.TrimSpace(req.Currency) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "amount and currency required"})
			return
		}

		paymentURL, err := deps.LinePaySvc.Reserve(c.Request.Context(), linepay.ReserveInput{
			AmountCents: req.Amount,
			Currency:    req.Currency,
			OrderID:     req.OrderID,
			ProductName: req.ProductName,
			ConfirmURL:  req.ConfirmURL,
			CancelURL:   req.CancelURL,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"paymentUrl": paymentURL})
	}
}

// linePayConfirmHandler settles the reservation with the gateway first, then
// feeds the normalized outcome into the same finalizer the card path uses.
// The payment record fields come from the gateway response, never from the
// request body.
func linePayConfirmHandler(deps Deps, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.LinePaySvc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "wallet payments not configured"})
			return
		}
		transactionID := strings.TrimSpace(c.Param("transactionId"))
		if transactionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "transactionId required"})
			return
		}
		var req linePayConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		if req.OrderID <= 0 || req.AddressID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "orderId and addressId required"})
			return
		}

		outcome, err := deps.LinePaySvc.Confirm(c.Request.Context(), transactionID, req.Amount, req.Currency)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		order, err := deps.OrderSvc.Finalize(c.Request.Context(), userEmail(c), ordersvc.FinalizeInput{
			AddressID:         req.AddressID,
			PaymentMethod:     outcome.Method,
			PGName:            "LINE Pay",
			PGPaymentID:       outcome.TransactionID,
			PGStatus:          outcome.Status,
			PGResponseMessage: outcome.Message,
			OrderID:           &req.OrderID,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func respondError(c *gin.Context, logger *log.Logger, err error) {
	var stockErr *domain.StockError
	var gatewayErr *domain.GatewayError
	var validationErr domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": validationErr.Error()})
	case errors.Is(err, domain.ErrOrderAlreadyAccepted):
		c.JSON(http.StatusConflict, gin.H{"message": "order already accepted"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"message": stockErr.Error()})
	case errors.As(err, &gatewayErr):
		logger.Printf("gateway error: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "payment gateway error"})
	default:
		logger.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

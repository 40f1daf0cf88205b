package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixven/ecommerce-backend/internal/domain"
	"github.com/felixven/ecommerce-backend/internal/gateway/linepay"
	ordersvc "github.com/felixven/ecommerce-backend/internal/service/order"
	"github.com/gin-gonic/gin"
)

type stubOrderService struct {
	orders []domain.Order
	order  *domain.Order
	err    error

	lastEmail     string
	lastFinalize  ordersvc.FinalizeInput
	lastDraft     []ordersvc.DraftItemInput
	finalizeCalls int
}

func (s *stubOrderService) CreateDraft(_ context.Context, email string, _ int64, items []ordersvc.DraftItemInput) (*domain.Order, error) {
	s.lastEmail = email
	s.lastDraft = items
	return s.order, s.err
}

func (s *stubOrderService) Finalize(_ context.Context, email string, in ordersvc.FinalizeInput) (*domain.Order, error) {
	s.finalizeCalls++
	s.lastEmail = email
	s.lastFinalize = in
	return s.order, s.err
}

func (s *stubOrderService) ListByEmail(_ context.Context, email string) ([]domain.Order, error) {
	s.lastEmail = email
	return s.orders, s.err
}

type stubStripeService struct {
	secret string
	err    error
}

func (s *stubStripeService) CreateIntent(_ context.Context, _ int64, _ string) (string, error) {
	return s.secret, s.err
}

type stubLinePayService struct {
	paymentURL string
	outcome    *linepay.Outcome
	err        error
}

func (s *stubLinePayService) Reserve(_ context.Context, _ linepay.ReserveInput) (string, error) {
	return s.paymentURL, s.err
}

func (s *stubLinePayService) Confirm(_ context.Context, _ string, _ int64, _ string) (*linepay.Outcome, error) {
	return s.outcome, s.err
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(log.New(io.Discard, "", 0), nil, deps)
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	return router
}

func doRequest(router *gin.Engine, method, path, email, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if email != "" {
		req.Header.Set("X-User-Email", email)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouterRequiresOrderService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if _, err := buildRouter(log.New(io.Discard, "", 0), nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing order service")
	}
}

func TestIdentityRequired(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{}})

	rec := doRequest(router, http.MethodGet, "/api/users/orders", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestListOrders(t *testing.T) {
	svc := &stubOrderService{orders: []domain.Order{{ID: 2, Email: "user@example.com"}, {ID: 1, Email: "user@example.com"}}}
	router := newTestRouter(t, Deps{OrderSvc: svc})

	rec := doRequest(router, http.MethodGet, "/api/users/orders", "user@example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body)
	}
	if svc.lastEmail != "user@example.com" {
		t.Fatalf("expected email from header, got %q", svc.lastEmail)
	}

	var got []domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 {
		t.Fatalf("unexpected orders: %+v", got)
	}
}

func TestListOrdersEmpty(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{}})

	rec := doRequest(router, http.MethodGet, "/api/users/orders", "user@example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestPlaceOrder(t *testing.T) {
	svc := &stubOrderService{order: &domain.Order{ID: 7, Status: domain.OrderStatusAccepted}}
	router := newTestRouter(t, Deps{OrderSvc: svc})

	body := `{"addressId":3,"pgName":"Stripe","pgPaymentId":"pi_123","pgStatus":"succeeded","pgResponseMessage":"ok"}`
	rec := doRequest(router, http.MethodPost, "/api/order/users/payments/Card", "user@example.com", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body)
	}
	if svc.lastEmail != "user@example.com" {
		t.Fatalf("expected email from header, got %q", svc.lastEmail)
	}
	if svc.lastFinalize.PaymentMethod != "Card" {
		t.Fatalf("expected payment method from path, got %q", svc.lastFinalize.PaymentMethod)
	}
	if svc.lastFinalize.AddressID != 3 || svc.lastFinalize.PGPaymentID != "pi_123" {
		t.Fatalf("unexpected finalize input: %+v", svc.lastFinalize)
	}
	if svc.lastFinalize.OrderID != nil {
		t.Fatalf("expected cart-sourced finalize, got order id %v", *svc.lastFinalize.OrderID)
	}
}

func TestPlaceOrderMissingAddress(t *testing.T) {
	svc := &stubOrderService{}
	router := newTestRouter(t, Deps{OrderSvc: svc})

	rec := doRequest(router, http.MethodPost, "/api/order/users/payments/Card", "user@example.com", `{"pgName":"Stripe"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if svc.finalizeCalls != 0 {
		t.Fatalf("expected no finalize call")
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{err: domain.ErrEmptyCart}})

	rec := doRequest(router, http.MethodPost, "/api/order/users/payments/Card", "user@example.com", `{"addressId":3}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Cart is empty") {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{err: &domain.StockError{ProductID: 9}}})

	rec := doRequest(router, http.MethodPost, "/api/order/users/payments/Card", "user@example.com", `{"addressId":3}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestPlaceOrderAlreadyAccepted(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{err: domain.ErrOrderAlreadyAccepted}})

	rec := doRequest(router, http.MethodPost, "/api/order/users/payments/Card", "user@example.com", `{"addressId":3,"orderId":12}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestCreateDraft(t *testing.T) {
	svc := &stubOrderService{order: &domain.Order{ID: 12, Status: domain.OrderStatusPending}}
	router := newTestRouter(t, Deps{OrderSvc: svc})

	body := `{"addressId":3,"orderItems":[{"productId":1,"quantity":2}]}`
	rec := doRequest(router, http.MethodPost, "/api/order/create-for-linepay", "user@example.com", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body)
	}
	if len(svc.lastDraft) != 1 || svc.lastDraft[0].ProductID != 1 || svc.lastDraft[0].Quantity != 2 {
		t.Fatalf("unexpected draft items: %+v", svc.lastDraft)
	}
}

func TestStripeSecret(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{}, StripeSvc: &stubStripeService{secret: "pi_123_secret_abc"}})

	rec := doRequest(router, http.MethodPost, "/api/order/stripe-client-secret", "user@example.com", `{"amount":16000,"currency":"twd"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "pi_123_secret_abc") {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestStripeSecretNotConfigured(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{}})

	rec := doRequest(router, http.MethodPost, "/api/order/stripe-client-secret", "user@example.com", `{"amount":16000,"currency":"twd"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestStripeSecretGatewayError(t *testing.T) {
	stripeSvc := &stubStripeService{err: &domain.GatewayError{Gateway: "Stripe", Op: "create-intent", Message: "boom"}}
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{}, StripeSvc: stripeSvc})

	rec := doRequest(router, http.MethodPost, "/api/order/stripe-client-secret", "user@example.com", `{"amount":16000,"currency":"twd"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}

func TestLinePayReserve(t *testing.T) {
	router := newTestRouter(t, Deps{OrderSvc: &stubOrderService{}, LinePaySvc: &stubLinePayService{paymentURL: "https://pay.example/redirect"}})

	body := `{"amount":16000,"currency":"TWD","orderId":"12","productName":"Pour-Over Set","confirmUrl":"https://shop.example/confirm","cancelUrl":"https://shop.example/cancel"}`
	rec := doRequest(router, http.MethodPost, "/api/order/linepay-reserve", "user@example.com", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "https://pay.example/redirect") {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestLinePayConfirmSuccess(t *testing.T) {
	orderSvc := &stubOrderService{order: &domain.Order{ID: 12, Status: domain.OrderStatusAccepted}}
	lineSvc := &stubLinePayService{outcome: &linepay.Outcome{
		Method:        "LinePay",
		TransactionID: "txn-789",
		Status:        "0000",
		Message:       "Success.",
	}}
	router := newTestRouter(t, Deps{OrderSvc: orderSvc, LinePaySvc: lineSvc})

	body := `{"orderId":12,"addressId":3,"amount":16000,"currency":"TWD"}`
	rec := doRequest(router, http.MethodPost, "/api/order/linepay-confirm/txn-789", "user@example.com", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body)
	}
	if orderSvc.finalizeCalls != 1 {
		t.Fatalf("expected finalize once, got %d", orderSvc.finalizeCalls)
	}

	in := orderSvc.lastFinalize
	if in.PaymentMethod != "LinePay" || in.PGName != "LINE Pay" {
		t.Fatalf("unexpected payment fields: %+v", in)
	}
	if in.PGPaymentID != "txn-789" || in.PGStatus != "0000" || in.PGResponseMessage != "Success." {
		t.Fatalf("expected payment fields from gateway outcome, got %+v", in)
	}
	if in.OrderID == nil || *in.OrderID != 12 {
		t.Fatalf("expected draft order id 12, got %v", in.OrderID)
	}
}

func TestLinePayConfirmFailureSkipsFinalize(t *testing.T) {
	orderSvc := &stubOrderService{}
	lineSvc := &stubLinePayService{err: &domain.GatewayError{Gateway: "LinePay", Op: "confirm", Message: "return code \"1104\""}}
	router := newTestRouter(t, Deps{OrderSvc: orderSvc, LinePaySvc: lineSvc})

	body := `{"orderId":12,"addressId":3,"amount":16000,"currency":"TWD"}`
	rec := doRequest(router, http.MethodPost, "/api/order/linepay-confirm/txn-789", "user@example.com", body)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	if orderSvc.finalizeCalls != 0 {
		t.Fatalf("expected no finalize call after gateway failure, got %d", orderSvc.finalizeCalls)
	}
}

func TestLinePayConfirmMissingIDs(t *testing.T) {
	orderSvc := &stubOrderService{}
	router := newTestRouter(t, Deps{OrderSvc: orderSvc, LinePaySvc: &stubLinePayService{outcome: &linepay.Outcome{}}})

	rec := doRequest(router, http.MethodPost, "/api/order/linepay-confirm/txn-789", "user@example.com", `{"amount":16000,"currency":"TWD"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if orderSvc.finalizeCalls != 0 {
		t.Fatalf("expected no finalize call")
	}
}

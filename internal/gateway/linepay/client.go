package linepay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/felixven/ecommerce-backend/internal/config"
	"github.com/felixven/ecommerce-backend/internal/domain"
	"github.com/google/uuid"
)

const (
	reservePath       = "/v3/payments/request"
	confirmPathFormat = "/v3/payments/%s/confirm"

	// successReturnCode is the only gateway return code that counts as
	// success; every other code, and every unparsable body, is a failure.
	successReturnCode = "0000"
)

// Client talks to the LINE Pay v3 API. Requests are signed with
// HMAC-SHA256 over channelSecret||path||body||nonce, so the JSON body bytes
// that are signed must be exactly the bytes sent; bodies are therefore
// marshaled once from structs with a fixed field order.
type Client struct {
	cfg        config.LinePayConfig
	httpClient *http.Client
	logger     *log.Logger
}

func New(cfg config.LinePayConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type ReserveInput struct {
	AmountCents int64
	Currency    string
	OrderID     string
	ProductName string
	ConfirmURL  string
	CancelURL   string
}

// Outcome is the normalized result of a confirmed reservation, consumed by
// the order finalizer. Confirm never touches orders, payments, stock or the
// cart itself.
type Outcome struct {
	Method        string
	TransactionID string
	Status        string
	Message       string
}

type reserveBody struct {
	Amount       int64            `json:"amount"`
	Currency     string           `json:"currency"`
	OrderID      string           `json:"orderId"`
	Packages     []reservePackage `json:"packages"`
	RedirectURLs redirectURLs     `json:"redirectUrls"`
}

type reservePackage struct {
	ID       string           `json:"id"`
	Amount   int64            `json:"amount"`
	Name     string           `json:"name"`
	Products []packageProduct `json:"products"`
}

type packageProduct struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type redirectURLs struct {
	ConfirmURL string `json:"confirmUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type confirmBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type gatewayResponse struct {
	ReturnCode    string `json:"returnCode"`
	ReturnMessage string `json:"returnMessage"`
	Info          struct {
		PaymentURL struct {
			Web string `json:"web"`
		} `json:"paymentUrl"`
	} `json:"info"`
}

// Reserve registers the payment and returns the wallet redirect URL. It is
// never retried here: a reservation is not safe to repeat blindly.
func (c *Client) Reserve(ctx context.Context, in ReserveInput) (string, error) {
	body := reserveBody{
		Amount:   in.AmountCents,
		Currency: in.Currency,
		OrderID:  in.OrderID,
		Packages: []reservePackage{{
			ID:     "package-1",
			Amount: in.AmountCents,
			Name:   "Demo Package",
			Products: []packageProduct{{
				ID:       "product-1",
				Name:     in.ProductName,
				Quantity: 1,
				Price:    in.AmountCents,
			}},
		}},
		RedirectURLs: redirectURLs{ConfirmURL: in.ConfirmURL, CancelURL: in.CancelURL},
	}

	var parsed gatewayResponse
	if err := c.post(ctx, "reserve", reservePath, body, &parsed); err != nil {
		return "", err
	}
	if parsed.Info.PaymentURL.Web == "" {
		return "", &domain.GatewayError{Gateway: "LinePay", Op: "reserve", Message: "response missing payment url"}
	}
	return parsed.Info.PaymentURL.Web, nil
}

// Confirm settles a reservation. A 2xx status alone is not success: the
// gateway's own returnCode must be "0000", and a body that fails to parse is
// a failure as well.
func (c *Client) Confirm(ctx context.Context, transactionID string, amountCents int64, currency string) (*Outcome, error) {
	path := fmt.Sprintf(confirmPathFormat, transactionID)
	body := confirmBody{Amount: amountCents, Currency: currency}

	var parsed gatewayResponse
	if err := c.post(ctx, "confirm", path, body, &parsed); err != nil {
		return nil, err
	}
	if parsed.ReturnCode != successReturnCode {
		c.logger.Printf("linepay: confirm txn=%s rejected code=%s message=%s", transactionID, parsed.ReturnCode, parsed.ReturnMessage)
		return nil, &domain.GatewayError{
			Gateway: "LinePay",
			Op:      "confirm",
			Message: fmt.Sprintf("return code %q: %s", parsed.ReturnCode, parsed.ReturnMessage),
		}
	}

	return &Outcome{
		Method:        "LinePay",
		TransactionID: transactionID,
		Status:        parsed.ReturnCode,
		Message:       parsed.ReturnMessage,
	}, nil
}

func (c *Client) post(ctx context.Context, op, path string, body interface{}, out *gatewayResponse) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return &domain.GatewayError{Gateway: "LinePay", Op: op, Message: "encode body", Err: err}
	}

	nonce := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBase+path, bytes.NewReader(raw))
	if err != nil {
		return &domain.GatewayError{Gateway: "LinePay", Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-LINE-ChannelId", c.cfg.ChannelID)
	req.Header.Set("X-LINE-Authorization-Nonce", nonce)
	req.Header.Set("X-LINE-Authorization", c.sign(path, raw, nonce))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.GatewayError{Gateway: "LinePay", Op: op, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.GatewayError{Gateway: "LinePay", Op: op, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Printf("linepay: %s status=%d body=%s", op, resp.StatusCode, respBody)
		return &domain.GatewayError{Gateway: "LinePay", Op: op, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &domain.GatewayError{Gateway: "LinePay", Op: op, Message: "unparsable response", Err: err}
	}
	return nil
}

func (c *Client) sign(path string, body []byte, nonce string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.ChannelSecret))
	mac.Write([]byte(c.cfg.ChannelSecret))
	mac.Write([]byte(path))
	mac.Write(body)
	mac.Write([]byte(nonce))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

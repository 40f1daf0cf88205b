package domain

import "time"

const (
	OrderStatusPending  = "PENDING"
	OrderStatusAccepted = "ACCEPTED"
)

type Order struct {
	ID         int64       `json:"id"`
	Email      string      `json:"email"`
	OrderDate  time.Time   `json:"orderDate"`
	TotalCents int64       `json:"totalCents"`
	Status     string      `json:"orderStatus"`
	AddressID  int64       `json:"addressId"`
	Payment    *Payment    `json:"payment,omitempty"`
	Lines      []OrderLine `json:"orderItems"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// OrderLine freezes the unit price charged at checkout time. Product is a
// read-time snapshot for display and is not part of the frozen record.
type OrderLine struct {
	ID                int64   `json:"id"`
	OrderID           int64   `json:"orderId"`
	ProductID         int64   `json:"productId"`
	Quantity          int     `json:"quantity"`
	OrderedPriceCents int64   `json:"orderedProductPriceCents"`
	DiscountCents     int64   `json:"discountCents"`
	Product           Product `json:"product"`
}

type Payment struct {
	ID                int64  `json:"id"`
	OrderID           int64  `json:"-"`
	Method            string `json:"paymentMethod"`
	PGName            string `json:"pgName"`
	PGPaymentID       string `json:"pgPaymentId"`
	PGStatus          string `json:"pgStatus"`
	PGResponseMessage string `json:"pgResponseMessage"`
}

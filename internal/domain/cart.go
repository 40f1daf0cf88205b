package domain

import "time"

type Cart struct {
	ID         int64      `json:"id"`
	UserEmail  string     `json:"-"`
	TotalCents int64      `json:"totalCents"`
	CreatedAt  time.Time  `json:"createdAt"`
	Lines      []CartLine `json:"cartItems,omitempty"`
}

// CartLine carries the price actually charged for the product
// (UnitPriceCents) alongside the catalog price at read time, so order
// snapshots can compute the discount without a second product lookup.
type CartLine struct {
	ID                int64     `json:"id"`
	CartID            int64     `json:"cartId"`
	ProductID         int64     `json:"productId"`
	ProductName       string    `json:"productName"`
	Quantity          int       `json:"quantity"`
	UnitPriceCents    int64     `json:"productPriceCents"`
	CatalogPriceCents int64     `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

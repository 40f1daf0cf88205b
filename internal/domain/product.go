package domain

import "time"

type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	PriceCents        int64     `json:"priceCents"`
	SpecialPriceCents int64     `json:"specialPriceCents,omitempty"`
	Quantity          int       `json:"quantity"`
	CreatedAt         time.Time `json:"createdAt"`
}

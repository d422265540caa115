package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	OldPrice    *decimal.Decimal `json:"oldPrice,omitempty"`
	Image       string           `json:"image"`
	Category    string           `json:"category,omitempty"`
	Description string           `json:"description,omitempty"`
}

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

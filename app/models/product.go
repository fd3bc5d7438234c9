package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money travels as plain JSON numbers, as in existing backup files.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalogue.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Barcode     string          `json:"barcode"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Margin is the markup over cost as a percentage of cost. Zero when the
// product has no cost.
func (p Product) Margin() decimal.Decimal {
	if !p.Cost.IsPositive() {
		return decimal.Zero
	}
	return p.Price.Sub(p.Cost).Div(p.Cost).Mul(decimal.NewFromInt(100))
}

// StockValue is the stock valued at cost.
func (p Product) StockValue() decimal.Decimal {
	return p.Cost.Mul(decimal.NewFromInt(int64(p.Stock)))
}

// ProductInput carries the writable fields of a product. Nil pointers are
// left untouched by an update.
type ProductInput struct {
	Name        *string          `json:"name"`
	Barcode     *string          `json:"barcode"`
	Price       *decimal.Decimal `json:"price"`
	Cost        *decimal.Decimal `json:"cost"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
}

// Apply merges the set fields of in onto p.
func (in ProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Barcode != nil {
		p.Barcode = *in.Barcode
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Cost != nil {
		p.Cost = *in.Cost
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
}

// Validate checks the catalogue rules for a complete product.
func (p Product) Validate() error {
	switch {
	case p.Name == "":
		return &ValidationError{Field: "name", Message: "is required"}
	case p.Barcode == "":
		return &ValidationError{Field: "barcode", Message: "is required"}
	case p.Category == "":
		return &ValidationError{Field: "category", Message: "is required"}
	case !p.Price.IsPositive():
		return &ValidationError{Field: "price", Message: "must be greater than zero"}
	case p.Cost.IsNegative():
		return &ValidationError{Field: "cost", Message: "must not be negative"}
	case p.Stock < 0:
		return &ValidationError{Field: "stock", Message: "must not be negative"}
	}
	return nil
}

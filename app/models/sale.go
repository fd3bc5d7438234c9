package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was settled.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentPix  PaymentMethod = "pix"
)

// PaymentMethods lists every accepted method in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentPix}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentPix:
		return true
	}
	return false
}

// SaleItem is one line of a committed sale. Name and price are snapshots
// taken when the line entered the cart.
type SaleItem struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Sale is immutable once committed.
type Sale struct {
	ID            int64           `json:"id"`
	CustomerID    *int64          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Change        decimal.Decimal `json:"change"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Subtotal is the sum of the item totals before discount.
func (s Sale) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.Items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

// Quantities aggregates requested units per product.
func (s Sale) Quantities() map[int64]int {
	out := make(map[int64]int, len(s.Items))
	for _, it := range s.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

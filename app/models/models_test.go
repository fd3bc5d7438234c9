package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductJSONUsesPlainNumbers(t *testing.T) {
	p := Product{ID: 1, Name: "Arroz 5kg", Barcode: "789", Price: decimal.RequireFromString("25.90"), Cost: decimal.RequireFromString("18"), Stock: 3, Category: "Grãos"}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":25.9`)
	assert.Contains(t, string(data), `"created_at"`)

	var back Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"price":"8.99","cost":5}`), &back))
	assert.True(t, back.Price.Equal(decimal.RequireFromString("8.99")))
}

func TestProductValidate(t *testing.T) {
	ok := Product{Name: "Feijão", Barcode: "1", Category: "Grãos", Price: decimal.NewFromInt(8)}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Price = decimal.Zero
	var ve *ValidationError
	require.ErrorAs(t, bad.Validate(), &ve)
	assert.Equal(t, "price", ve.Field)

	bad = ok
	bad.Stock = -1
	assert.ErrorIs(t, bad.Validate(), ErrValidation)
}

func TestProductMargin(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(15), Cost: decimal.NewFromInt(10), Stock: 4}
	assert.Equal(t, "50", p.Margin().String())
	assert.Equal(t, "40", p.StockValue().String())
	assert.True(t, Product{Price: decimal.NewFromInt(1)}.Margin().IsZero())
}

func TestCustomerValidateEmail(t *testing.T) {
	assert.NoError(t, Customer{Name: "Ana"}.Validate())
	assert.NoError(t, Customer{Name: "Ana", Email: "ana@betel.com"}.Validate())
	assert.ErrorIs(t, Customer{Name: "Ana", Email: "nope"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Customer{}.Validate(), ErrValidation)
}

func TestErrorSentinels(t *testing.T) {
	cause := errors.New("disk full")
	assert.ErrorIs(t, &StorageError{Key: "pdv_sales", Err: cause}, ErrStorage)
	assert.ErrorIs(t, &StorageError{Key: "pdv_sales", Err: cause}, cause)
	assert.ErrorIs(t, &MalformedDataError{Source: "backup", Err: cause}, ErrMalformedData)
	assert.ErrorIs(t, &NotFoundError{Entity: "product", Key: "1"}, ErrNotFound)
	assert.ErrorIs(t, &StockError{}, ErrValidation)

	pay := &InsufficientPaymentError{
		Total:     decimal.RequireFromString("8.99"),
		Tendered:  decimal.NewFromInt(5),
		Shortfall: decimal.RequireFromString("3.99"),
	}
	assert.ErrorIs(t, pay, ErrValidation)
	assert.Contains(t, pay.Error(), "missing 3.99")
}

func TestSaleAggregates(t *testing.T) {
	s := Sale{Items: []SaleItem{
		{ProductID: 1, Quantity: 2, TotalPrice: decimal.NewFromInt(10)},
		{ProductID: 1, Quantity: 1, TotalPrice: decimal.NewFromInt(5)},
		{ProductID: 2, Quantity: 1, TotalPrice: decimal.RequireFromString("2.5")},
	}}
	assert.Equal(t, "17.5", s.Subtotal().String())
	assert.Equal(t, map[int64]int{1: 3, 2: 1}, s.Quantities())
}

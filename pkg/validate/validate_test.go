package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mercadobetel/pdv/pkg/validate"
)

type productInput struct {
	Name     *string          `json:"name"     validate:"required,max=20"`
	Price    *decimal.Decimal `json:"price"    validate:"required,gt=0"`
	Cost     *decimal.Decimal `json:"cost"     validate:"nullable,gte=0"`
	Stock    *int             `json:"stock"    validate:"nullable,gte=0"`
	Email    string           `json:"email"    validate:"nullable,email"`
	Method   string           `json:"method"   validate:"required,in=cash,card,pix"`
	Discount decimal.Decimal  `json:"discount" validate:"between=0,100"`
}

func ptr[T any](v T) *T { return &v }

func TestValidInput(t *testing.T) {
	errs := validate.Struct(productInput{
		Name:     ptr("Arroz"),
		Price:    ptr(decimal.RequireFromString("0.01")),
		Stock:    ptr(0),
		Method:   "pix",
		Discount: decimal.NewFromInt(100),
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredPointers(t *testing.T) {
	errs := validate.Struct(productInput{Method: "cash"})
	if _, ok := errs["name"]; !ok {
		t.Error("expected name to be required")
	}
	if _, ok := errs["price"]; !ok {
		t.Error("expected price to be required")
	}
	if _, ok := errs["cost"]; ok {
		t.Error("nil nullable field must be skipped")
	}
}

func TestDecimalRules(t *testing.T) {
	errs := validate.Struct(productInput{
		Name:     ptr("Arroz"),
		Price:    ptr(decimal.Zero),
		Cost:     ptr(decimal.RequireFromString("-0.01")),
		Stock:    ptr(-1),
		Method:   "card",
		Discount: decimal.RequireFromString("100.5"),
	})
	for _, f := range []string{"price", "cost", "stock", "discount"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected %s error, got %v", f, errs)
		}
	}
}

func TestInAndEmail(t *testing.T) {
	errs := validate.Struct(productInput{
		Name:   ptr("Arroz"),
		Price:  ptr(decimal.NewFromInt(1)),
		Method: "cheque",
		Email:  "nope",
	})
	if _, ok := errs["method"]; !ok {
		t.Error("expected method error")
	}
	if _, ok := errs["email"]; !ok {
		t.Error("expected email error")
	}
}

func TestMaxLength(t *testing.T) {
	errs := validate.Struct(productInput{
		Name:   ptr("Arroz parboilizado tipo 1 premium"),
		Price:  ptr(decimal.NewFromInt(1)),
		Method: "cash",
	})
	if _, ok := errs["name"]; !ok {
		t.Error("expected name length error")
	}
}

func TestParseDate(t *testing.T) {
	if _, err := validate.ParseDate("2024-03-10"); err != nil {
		t.Error(err)
	}
	if _, err := validate.ParseDate("2024-03-10T10:00:00Z"); err != nil {
		t.Error(err)
	}
	if _, err := validate.ParseDate("10/03/2024"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

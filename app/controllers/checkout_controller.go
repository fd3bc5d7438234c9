package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/services"
	"github.com/mercadobetel/pdv/pkg/response"
	"github.com/mercadobetel/pdv/pkg/router"
)

type addLineRequest struct {
	ProductID int64  `json:"product_id" validate:"nullable,gt=0"`
	Barcode   string `json:"barcode"    validate:"nullable,max=64"`
	Quantity  int    `json:"quantity"   validate:"nullable,gte=1"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type discountRequest struct {
	Kind      string          `json:"kind"      validate:"required,in=percentage,fixed"`
	Magnitude decimal.Decimal `json:"magnitude" validate:"gte=0"`
}

type customerRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
}

type paymentRequest struct {
	Method   string           `json:"payment_method" validate:"required,in=cash,card,pix"`
	Tendered *decimal.Decimal `json:"amount_paid"    validate:"nullable,gte=0"`
}

// CheckoutController drives the cart of each register.
type CheckoutController struct {
	registers *services.Registers
}

func NewCheckoutController(registers *services.Registers) *CheckoutController {
	return &CheckoutController{registers: registers}
}

func registerID(r *http.Request) string {
	if id := strings.TrimSpace(router.Param(r, "register")); id != "" {
		return id
	}
	return services.DefaultRegister
}

// mutate runs fn on the register's session and answers with the cart.
func (c *CheckoutController) mutate(w http.ResponseWriter, r *http.Request, fn func(*services.Session) error) {
	var sum services.Summary
	err := c.registers.Do(registerID(r), func(s *services.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		sum = s.Summary()
		return nil
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, sum)
}

// Registers lists the registers opened since start.
func (c *CheckoutController) Registers(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, c.registers.IDs())
}

// Open mints a register id for a new till.
func (c *CheckoutController) Open(w http.ResponseWriter, _ *http.Request) {
	id := services.NewRegisterID()
	sum, err := c.registers.Open(id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{"register": id, "cart": sum})
}

func (c *CheckoutController) Cart(w http.ResponseWriter, r *http.Request) {
	sum, err := c.registers.Summary(registerID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, sum)
}

// Clear abandons the sale in progress.
func (c *CheckoutController) Clear(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(s *services.Session) error {
		s.Clear()
		return nil
	})
}

// AddLine adds by product id or by scanned barcode. Quantity defaults to 1.
func (c *CheckoutController) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.ProductID == 0 && strings.TrimSpace(req.Barcode) == "" {
		response.ValidationError(w, map[string]string{"product_id": "product_id or barcode is required"})
		return
	}
	c.mutate(w, r, func(s *services.Session) error {
		if req.ProductID != 0 {
			return s.AddLine(req.ProductID, req.Quantity)
		}
		return s.AddBarcode(req.Barcode, req.Quantity)
	})
}

// UpdateLine sets a line's quantity; zero removes it.
func (c *CheckoutController) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "product")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req quantityRequest
	if !decode(w, r, &req) {
		return
	}
	c.mutate(w, r, func(s *services.Session) error { return s.SetQuantity(id, req.Quantity) })
}

func (c *CheckoutController) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "product")
	if err != nil {
		response.FromError(w, err)
		return
	}
	c.mutate(w, r, func(s *services.Session) error { return s.RemoveLine(id) })
}

func (c *CheckoutController) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decode(w, r, &req) {
		return
	}
	c.mutate(w, r, func(s *services.Session) error {
		return s.ApplyDiscount(services.DiscountKind(req.Kind), req.Magnitude)
	})
}

func (c *CheckoutController) ClearDiscount(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(s *services.Session) error { return s.ClearDiscount() })
}

func (c *CheckoutController) SelectCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decode(w, r, &req) {
		return
	}
	c.mutate(w, r, func(s *services.Session) error { return s.SelectCustomer(req.CustomerID) })
}

func (c *CheckoutController) ClearCustomer(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(s *services.Session) error { return s.ClearCustomer() })
}

// Begin moves the cart to payment.
func (c *CheckoutController) Begin(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(s *services.Session) error { return s.BeginCheckout() })
}

// Cancel returns from payment to editing the cart.
func (c *CheckoutController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, func(s *services.Session) error { return s.CancelCheckout() })
}

func (c *CheckoutController) Payment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}
	c.mutate(w, r, func(s *services.Session) error {
		return s.SetPayment(models.PaymentMethod(req.Method), req.Tendered)
	})
}

// Commit records the sale. A sale that was recorded but could not be
// persisted is still returned, with a warning.
func (c *CheckoutController) Commit(w http.ResponseWriter, r *http.Request) {
	var sale models.Sale
	err := c.registers.Do(registerID(r), func(s *services.Session) error {
		var err error
		sale, err = s.Commit()
		return err
	})
	if err != nil && sale.ID == 0 {
		response.FromError(w, err)
		return
	}
	response.Saved(w, http.StatusCreated, sale, err)
}

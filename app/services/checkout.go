package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/pkg/logger"
	"github.com/mercadobetel/pdv/pkg/metrics"
)

// State is the phase of a checkout session.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateAwaitingPayment
	StateCommitting
)

var stateNames = [...]string{"empty", "building", "awaiting_payment", "committing"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DiscountKind selects how a discount magnitude is read.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Discount is the descriptor the operator entered. Its value is recomputed
// from the current subtotal on every read.
type Discount struct {
	Kind      DiscountKind    `json:"kind"`
	Magnitude decimal.Decimal `json:"magnitude"`
}

var hundred = decimal.NewFromInt(100)

// Value is the amount taken off subtotal, never more than subtotal.
func (d Discount) Value(subtotal decimal.Decimal) decimal.Decimal {
	var v decimal.Decimal
	switch d.Kind {
	case DiscountPercentage:
		v = subtotal.Mul(d.Magnitude).Div(hundred)
	case DiscountFixed:
		v = d.Magnitude
	}
	return decimal.Min(v, subtotal)
}

// Catalog is what a session reads products and customers from.
type Catalog interface {
	Product(id int64) (models.Product, error)
	ProductByBarcode(code string) (models.Product, error)
	Customer(id int64) (models.Customer, error)
}

// Ledger records committed sales atomically against stock.
type Ledger interface {
	CommitSale(sale models.Sale) (models.Sale, error)
}

// Line is one product in the cart. Name and unit price are snapshots taken
// when the product was first added.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total_price"`
}

// CustomerRef is the customer snapshot held by a session.
type CustomerRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type payment struct {
	method   models.PaymentMethod
	tendered decimal.Decimal
}

// Summary is the read model of a session.
type Summary struct {
	State         State                `json:"state"`
	Lines         []Line               `json:"lines"`
	ItemCount     int                  `json:"item_count"`
	Customer      *CustomerRef         `json:"customer,omitempty"`
	Discount      *Discount            `json:"discount,omitempty"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
	Tendered      *decimal.Decimal     `json:"amount_paid,omitempty"`
	Change        *decimal.Decimal     `json:"change,omitempty"`
	StartedAt     *time.Time           `json:"started_at,omitempty"`
}

// Session is one register's sale in progress. It is not safe for
// concurrent use; Registers serialises access per register.
type Session struct {
	catalog Catalog
	ledger  Ledger
	now     func() time.Time

	state     State
	lines     []Line
	customer  *CustomerRef
	discount  *Discount
	payment   *payment
	startedAt time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession returns an empty session over catalog and ledger.
func NewSession(catalog Catalog, ledger Ledger, opts ...SessionOption) *Session {
	s := &Session{catalog: catalog, ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State { return s.state }

// AddLine adds qty units of a product. An existing line grows; a new line
// is appended. Quantities above current stock are rejected, never clamped.
func (s *Session) AddLine(productID int64, qty int) error {
	if err := s.editable(); err != nil {
		return err
	}
	if qty < 1 {
		return reject(&models.ValidationError{Field: "quantity", Message: "must be at least 1"})
	}
	p, err := s.catalog.Product(productID)
	if err != nil {
		return reject(err)
	}
	return s.addProduct(p, qty)
}

// AddBarcode resolves a scanned code and adds the product.
func (s *Session) AddBarcode(code string, qty int) error {
	if err := s.editable(); err != nil {
		return err
	}
	if qty < 1 {
		return reject(&models.ValidationError{Field: "quantity", Message: "must be at least 1"})
	}
	p, err := s.catalog.ProductByBarcode(code)
	if err != nil {
		return reject(err)
	}
	return s.addProduct(p, qty)
}

func (s *Session) addProduct(p models.Product, qty int) error {
	i := s.lineIndex(p.ID)

	want := qty
	if i >= 0 {
		want += s.lines[i].Quantity
	}
	if p.Stock <= 0 || want > p.Stock {
		return reject(&models.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: want, Available: p.Stock})
	}

	if i >= 0 {
		s.lines[i].Quantity = want
		s.lines[i].Total = s.lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(want)))
	} else {
		s.lines = append(s.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  want,
			UnitPrice: p.Price,
			Total:     p.Price.Mul(decimal.NewFromInt(int64(want))),
		})
	}
	if s.state == StateEmpty {
		s.state = StateBuilding
		s.startedAt = s.now()
	}
	return nil
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (s *Session) SetQuantity(productID int64, qty int) error {
	if err := s.editable(); err != nil {
		return err
	}
	i := s.lineIndex(productID)
	if i < 0 {
		return reject(lineNotFound(productID))
	}
	if qty <= 0 {
		s.removeAt(i)
		return nil
	}

	p, err := s.catalog.Product(productID)
	if err != nil {
		return reject(err)
	}
	if qty > p.Stock {
		return reject(&models.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Stock})
	}
	s.lines[i].Quantity = qty
	s.lines[i].Total = s.lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	return nil
}

// RemoveLine drops a line. Removing the last line empties the session.
func (s *Session) RemoveLine(productID int64) error {
	if err := s.editable(); err != nil {
		return err
	}
	i := s.lineIndex(productID)
	if i < 0 {
		return reject(lineNotFound(productID))
	}
	s.removeAt(i)
	return nil
}

func (s *Session) removeAt(i int) {
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	if len(s.lines) == 0 {
		s.reset()
	}
}

// ApplyDiscount sets the discount descriptor. Percentages must lie in
// [0, 100] and fixed amounts in [0, subtotal]; a rejected discount leaves
// the previous one in place.
func (s *Session) ApplyDiscount(kind DiscountKind, magnitude decimal.Decimal) error {
	if err := s.building(); err != nil {
		return err
	}
	if magnitude.IsNegative() {
		return reject(&models.ValidationError{Field: "discount", Message: "must not be negative"})
	}
	switch kind {
	case DiscountPercentage:
		if magnitude.GreaterThan(hundred) {
			return reject(&models.ValidationError{Field: "discount", Message: "percentage must be between 0 and 100"})
		}
	case DiscountFixed:
		if magnitude.GreaterThan(s.subtotal()) {
			return reject(&models.ValidationError{Field: "discount", Message: "must not exceed the subtotal"})
		}
	default:
		return reject(&models.ValidationError{Field: "discount_type", Message: "must be percentage or fixed"})
	}
	s.discount = &Discount{Kind: kind, Magnitude: magnitude}
	return nil
}

// ClearDiscount removes any discount.
func (s *Session) ClearDiscount() error {
	if err := s.building(); err != nil {
		return err
	}
	s.discount = nil
	return nil
}

// SelectCustomer attaches a registered customer to the sale.
func (s *Session) SelectCustomer(id int64) error {
	if err := s.building(); err != nil {
		return err
	}
	c, err := s.catalog.Customer(id)
	if err != nil {
		return reject(err)
	}
	s.customer = &CustomerRef{ID: c.ID, Name: c.Name}
	return nil
}

func (s *Session) ClearCustomer() error {
	if err := s.building(); err != nil {
		return err
	}
	s.customer = nil
	return nil
}

// BeginCheckout locks the cart for payment.
func (s *Session) BeginCheckout() error {
	if s.state != StateBuilding {
		return reject(models.Invalid("cannot begin checkout while %s", s.state))
	}
	s.state = StateAwaitingPayment
	return nil
}

// CancelCheckout unlocks the cart. Payment data is dropped.
func (s *Session) CancelCheckout() error {
	if s.state != StateAwaitingPayment {
		return reject(models.Invalid("cannot cancel checkout while %s", s.state))
	}
	s.payment = nil
	s.state = StateBuilding
	return nil
}

// SetPayment records the payment method. Cash needs the tendered amount;
// card and pix are settled for exactly the total.
func (s *Session) SetPayment(method models.PaymentMethod, tendered *decimal.Decimal) error {
	if s.state != StateAwaitingPayment {
		return reject(models.Invalid("payment can only be set during checkout"))
	}
	if !method.Valid() {
		return reject(&models.ValidationError{Field: "payment_method", Message: "must be cash, card or pix"})
	}

	p := &payment{method: method, tendered: s.total()}
	if method == models.PaymentCash {
		if tendered == nil {
			return reject(&models.ValidationError{Field: "amount_paid", Message: "is required for cash"})
		}
		if tendered.IsNegative() {
			return reject(&models.ValidationError{Field: "amount_paid", Message: "must not be negative"})
		}
		p.tendered = *tendered
	}
	s.payment = p
	return nil
}

// Commit records the sale. On success the session is empty again and the
// committed sale is returned. On failure the session stays in
// AwaitingPayment, except for a storage failure after the sale was
// recorded: then the sale and the error are both returned and the session
// resets.
func (s *Session) Commit() (models.Sale, error) {
	if s.state != StateAwaitingPayment {
		return models.Sale{}, reject(models.Invalid("cannot commit while %s", s.state))
	}
	if len(s.lines) == 0 {
		return models.Sale{}, reject(models.Invalid("cart is empty"))
	}
	if s.payment == nil {
		return models.Sale{}, reject(&models.ValidationError{Field: "payment_method", Message: "is required"})
	}

	subtotal := s.subtotal()
	discount := s.discountValue(subtotal)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return models.Sale{}, reject(models.Invalid("total must not be negative"))
	}

	tendered := s.payment.tendered
	change := decimal.Zero
	if s.payment.method == models.PaymentCash {
		if tendered.LessThan(total) {
			return models.Sale{}, reject(&models.InsufficientPaymentError{
				Total: total, Tendered: tendered, Shortfall: total.Sub(tendered),
			})
		}
		change = tendered.Sub(total)
	} else {
		tendered = total
	}

	sale := models.Sale{
		Items:         make([]models.SaleItem, len(s.lines)),
		TotalAmount:   total,
		Discount:      discount,
		PaymentMethod: s.payment.method,
		AmountPaid:    tendered,
		Change:        change,
	}
	for i, l := range s.lines {
		sale.Items[i] = models.SaleItem{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TotalPrice:  l.Total,
		}
	}
	// A customer deleted after selection is dropped; the sale still goes through.
	if s.customer != nil {
		c, err := s.catalog.Customer(s.customer.ID)
		switch {
		case err == nil:
			id := c.ID
			sale.CustomerID = &id
			sale.CustomerName = c.Name
		case errors.Is(err, models.ErrNotFound):
			logger.Warn("checkout: selected customer no longer exists", "customer_id", s.customer.ID)
		default:
			return models.Sale{}, reject(err)
		}
	}

	s.state = StateCommitting
	committed, err := s.ledger.CommitSale(sale)
	if err != nil && !(errors.Is(err, models.ErrStorage) && committed.ID != 0) {
		s.state = StateAwaitingPayment
		return models.Sale{}, reject(err)
	}

	metrics.SaleCommitted(string(committed.PaymentMethod), committed.TotalAmount.InexactFloat64())
	s.reset()
	return committed, err
}

// Clear abandons the sale in progress.
func (s *Session) Clear() { s.reset() }

func (s *Session) reset() {
	s.state = StateEmpty
	s.lines = nil
	s.customer = nil
	s.discount = nil
	s.payment = nil
	s.startedAt = time.Time{}
}

// Summary returns the current read model.
func (s *Session) Summary() Summary {
	subtotal := s.subtotal()
	discount := s.discountValue(subtotal)
	total := subtotal.Sub(discount)

	sum := Summary{
		State:         s.state,
		Lines:         append([]Line{}, s.lines...),
		DiscountValue: discount,
		Subtotal:      subtotal,
		Total:         total,
	}
	for _, l := range s.lines {
		sum.ItemCount += l.Quantity
	}
	if s.customer != nil {
		c := *s.customer
		sum.Customer = &c
	}
	if s.discount != nil {
		d := *s.discount
		sum.Discount = &d
	}
	if s.payment != nil {
		sum.PaymentMethod = s.payment.method
		tendered := s.payment.tendered
		change := decimal.Zero
		if s.payment.method == models.PaymentCash {
			change = tendered.Sub(total)
		}
		sum.Tendered = &tendered
		sum.Change = &change
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		sum.StartedAt = &t
	}
	return sum
}

func (s *Session) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

func (s *Session) discountValue(subtotal decimal.Decimal) decimal.Decimal {
	if s.discount == nil {
		return decimal.Zero
	}
	return s.discount.Value(subtotal)
}

func (s *Session) total() decimal.Decimal {
	sub := s.subtotal()
	return sub.Sub(s.discountValue(sub))
}

func (s *Session) lineIndex(productID int64) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// editable guards cart-line mutations.
func (s *Session) editable() error {
	switch s.state {
	case StateEmpty, StateBuilding:
		return nil
	case StateAwaitingPayment:
		return reject(models.Invalid("cart is locked for payment; cancel checkout to edit"))
	default:
		return reject(models.Invalid("cart cannot change while %s", s.state))
	}
}

// building guards customer and discount changes.
func (s *Session) building() error {
	if s.state != StateBuilding {
		return reject(models.Invalid("cart must have items and not be in checkout (currently %s)", s.state))
	}
	return nil
}

func lineNotFound(productID int64) error {
	return &models.NotFoundError{Entity: "cart line", Key: fmt.Sprint(productID)}
}

// reject counts a rejected operation by reason and returns err unchanged.
func reject(err error) error {
	var (
		stock *models.StockError
		line  *models.InsufficientStockError
		pay   *models.InsufficientPaymentError
	)
	reason := "invalid"
	switch {
	case errors.As(err, &stock), errors.As(err, &line):
		reason = "stock"
	case errors.As(err, &pay):
		reason = "payment"
	case errors.Is(err, models.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, models.ErrStorage):
		reason = "storage"
	}
	metrics.CheckoutRejected(reason)
	return err
}

package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/pkg/storage"
)

var testNow = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newDB(t *testing.T) *repositories.Database {
	t.Helper()
	db, err := repositories.Open(storage.NewMemoryStore(), repositories.WithClock(clock))
	require.NoError(t, err)
	return db
}

func addProduct(t *testing.T, db *repositories.Database, name, barcode, price string, stock int) models.Product {
	t.Helper()
	p, err := db.CreateProduct(models.ProductInput{
		Name:     ptr(name),
		Barcode:  ptr(barcode),
		Price:    ptr(dec(price)),
		Cost:     ptr(dec("1")),
		Stock:    ptr(stock),
		Category: ptr("Mercearia"),
	})
	require.NoError(t, err)
	return p
}

func newSession(db *repositories.Database) *Session {
	return NewSession(db, db, WithSessionClock(clock))
}

func TestAddLineRejectsAboveStockWithoutMutating(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Leite", "100", "4.5", 2)
	s := newSession(db)

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, s.AddLine(p.ID, 3), &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, StateEmpty, s.State())

	require.NoError(t, s.AddLine(p.ID, 2))
	before := s.Summary()

	assert.ErrorIs(t, s.AddLine(p.ID, 1), models.ErrValidation)
	assert.ErrorIs(t, s.SetQuantity(p.ID, 3), models.ErrValidation)
	assert.Equal(t, before, s.Summary())
	assert.Equal(t, 2, s.Summary().Lines[0].Quantity)
}

func TestAddLineRejectsOutOfStockAndUnknown(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Café", "200", "12", 0)
	s := newSession(db)

	assert.ErrorIs(t, s.AddLine(p.ID, 1), models.ErrValidation)
	assert.ErrorIs(t, s.AddLine(999, 1), models.ErrNotFound)
	assert.ErrorIs(t, s.AddBarcode("nope", 1), models.ErrNotFound)
	assert.ErrorIs(t, s.AddLine(p.ID, 0), models.ErrValidation)
}

func TestAddBarcodeMergesLines(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Pão", "300", "0.5", 10)
	s := newSession(db)

	require.NoError(t, s.AddBarcode("300", 1))
	require.NoError(t, s.AddLine(p.ID, 2))

	sum := s.Summary()
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, 3, sum.Lines[0].Quantity)
	assert.True(t, sum.Subtotal.Equal(dec("1.5")))
	assert.Equal(t, StateBuilding, sum.State)
}

func TestPercentageDiscount(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Cesta", "400", "100", 5)
	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 1))

	require.NoError(t, s.ApplyDiscount(DiscountPercentage, dec("10")))
	sum := s.Summary()
	assert.True(t, sum.DiscountValue.Equal(dec("10")), sum.DiscountValue.String())
	assert.True(t, sum.Total.Equal(dec("90")), sum.Total.String())

	require.NoError(t, s.AddLine(p.ID, 1))
	assert.True(t, s.Summary().Total.Equal(dec("180")), "discount follows the subtotal")
}

func TestDiscountRejectionKeepsPrevious(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Cesta", "400", "50", 5)
	s := newSession(db)

	assert.ErrorIs(t, s.ApplyDiscount(DiscountFixed, dec("5")), models.ErrValidation, "empty cart")

	require.NoError(t, s.AddLine(p.ID, 1))
	require.NoError(t, s.ApplyDiscount(DiscountFixed, dec("5")))

	assert.ErrorIs(t, s.ApplyDiscount(DiscountFixed, dec("50.01")), models.ErrValidation)
	assert.ErrorIs(t, s.ApplyDiscount(DiscountPercentage, dec("101")), models.ErrValidation)
	assert.ErrorIs(t, s.ApplyDiscount(DiscountPercentage, dec("-1")), models.ErrValidation)
	assert.ErrorIs(t, s.ApplyDiscount("bogus", dec("1")), models.ErrValidation)
	assert.True(t, s.Summary().DiscountValue.Equal(dec("5")))

	require.NoError(t, s.ClearDiscount())
	assert.True(t, s.Summary().DiscountValue.IsZero())
}

func TestFixedDiscountCappedWhenSubtotalShrinks(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Vinho", "500", "30", 5)
	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 2))
	require.NoError(t, s.ApplyDiscount(DiscountFixed, dec("50")))

	require.NoError(t, s.SetQuantity(p.ID, 1))
	sum := s.Summary()
	assert.True(t, sum.DiscountValue.Equal(dec("30")))
	assert.True(t, sum.Total.IsZero())
}

func TestRemovingLastLineResets(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Sabão", "600", "3", 5)
	c, err := db.CreateCustomer(models.CustomerInput{Name: ptr("Maria")})
	require.NoError(t, err)

	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 1))
	require.NoError(t, s.SelectCustomer(c.ID))
	require.NoError(t, s.ApplyDiscount(DiscountFixed, dec("1")))

	assert.ErrorIs(t, s.RemoveLine(12345), models.ErrNotFound)
	require.NoError(t, s.RemoveLine(p.ID))
	assert.Equal(t, newSession(db).Summary(), s.Summary())
}

func TestCheckoutLocksCart(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Arroz", "700", "20", 5)
	s := newSession(db)

	assert.ErrorIs(t, s.BeginCheckout(), models.ErrValidation)
	require.NoError(t, s.AddLine(p.ID, 1))
	assert.ErrorIs(t, s.SetPayment(models.PaymentCard, nil), models.ErrValidation)
	require.NoError(t, s.BeginCheckout())

	assert.ErrorIs(t, s.AddLine(p.ID, 1), models.ErrValidation)
	assert.ErrorIs(t, s.RemoveLine(p.ID), models.ErrValidation)
	assert.ErrorIs(t, s.ApplyDiscount(DiscountFixed, dec("1")), models.ErrValidation)

	require.NoError(t, s.CancelCheckout())
	require.NoError(t, s.AddLine(p.ID, 1))
	assert.Equal(t, 2, s.Summary().Lines[0].Quantity)
}

func TestCashShortfallRejected(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Biscoito", "800", "8.99", 5)
	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 1))
	require.NoError(t, s.BeginCheckout())

	assert.ErrorIs(t, s.SetPayment(models.PaymentCash, nil), models.ErrValidation)
	assert.ErrorIs(t, s.SetPayment("cheque", nil), models.ErrValidation)
	require.NoError(t, s.SetPayment(models.PaymentCash, ptr(dec("5.00"))))
	assert.True(t, s.Summary().Change.Equal(dec("-3.99")), "negative change is shown before commit")

	_, err := s.Commit()
	var payErr *models.InsufficientPaymentError
	require.ErrorAs(t, err, &payErr)
	assert.True(t, payErr.Shortfall.Equal(dec("3.99")))
	assert.Equal(t, StateAwaitingPayment, s.State())
	assert.Empty(t, db.Sales())

	require.NoError(t, s.SetPayment(models.PaymentCash, ptr(dec("10"))))
	sale, err := s.Commit()
	require.NoError(t, err)
	assert.True(t, sale.Change.Equal(dec("1.01")))
	assert.True(t, sale.AmountPaid.Equal(dec("10")))
}

func TestCardPaymentSettlesExactTotal(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Queijo", "900", "15", 5)
	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 2))
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.SetPayment(models.PaymentPix, ptr(dec("999"))))

	sale, err := s.Commit()
	require.NoError(t, err)
	assert.True(t, sale.AmountPaid.Equal(dec("30")))
	assert.True(t, sale.Change.IsZero())
	assert.Equal(t, models.PaymentPix, sale.PaymentMethod)
}

func TestCommitRequiresPayment(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Manteiga", "901", "9", 5)
	s := newSession(db)

	_, err := s.Commit()
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, s.AddLine(p.ID, 1))
	require.NoError(t, s.BeginCheckout())
	_, err = s.Commit()
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCommitAtomicWhenStockDropsExternally(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Azeite", "902", "30", 2)
	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 2))
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.SetPayment(models.PaymentCard, nil))

	_, err := db.UpdateProduct(p.ID, models.ProductInput{Stock: ptr(1)})
	require.NoError(t, err)

	_, err = s.Commit()
	var stockErr *models.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p.ID, stockErr.Shortages[0].ProductID)
	assert.Equal(t, StateAwaitingPayment, s.State())

	got, _ := db.Product(p.ID)
	assert.Equal(t, 1, got.Stock)
	assert.Empty(t, db.Sales())
}

func TestCommitResetsToFreshSession(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Farinha", "903", "6", 10)
	c, err := db.CreateCustomer(models.CustomerInput{Name: ptr("João")})
	require.NoError(t, err)

	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 3))
	require.NoError(t, s.SelectCustomer(c.ID))
	require.NoError(t, s.ApplyDiscount(DiscountPercentage, dec("50")))
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.SetPayment(models.PaymentCash, ptr(dec("10"))))

	sale, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, newSession(db).Summary(), s.Summary())

	assert.True(t, sale.TotalAmount.Equal(dec("9")))
	assert.True(t, sale.Discount.Equal(dec("9")))
	assert.True(t, sale.TotalAmount.Equal(sale.Subtotal().Sub(sale.Discount)))
	require.NotNil(t, sale.CustomerID)
	assert.Equal(t, c.ID, *sale.CustomerID)
	assert.Equal(t, "João", sale.CustomerName)

	got, _ := db.Product(p.ID)
	assert.Equal(t, 7, got.Stock)
}

func TestCommitKeepsPriceSnapshot(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Chocolate", "904", "8.99", 5)
	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 1))

	_, err := db.UpdateProduct(p.ID, models.ProductInput{Price: ptr(dec("9.99"))})
	require.NoError(t, err)

	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.SetPayment(models.PaymentCard, nil))
	sale, err := s.Commit()
	require.NoError(t, err)
	assert.True(t, sale.Items[0].UnitPrice.Equal(dec("8.99")))
	assert.True(t, sale.TotalAmount.Equal(dec("8.99")))
}

func TestCommitDropsDeletedCustomer(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Ovos", "905", "12", 5)
	c, err := db.CreateCustomer(models.CustomerInput{Name: ptr("Pedro")})
	require.NoError(t, err)

	s := newSession(db)
	require.NoError(t, s.AddLine(p.ID, 1))
	require.NoError(t, s.SelectCustomer(c.ID))
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.SetPayment(models.PaymentCard, nil))
	require.NoError(t, db.DeleteCustomer(c.ID))

	sale, err := s.Commit()
	require.NoError(t, err)
	assert.Nil(t, sale.CustomerID)
	assert.Empty(t, sale.CustomerName)
	assert.Equal(t, StateEmpty, s.State())
	assert.Len(t, db.Sales(), 1)
}

type brokenLedger struct{ db *repositories.Database }

func (l brokenLedger) CommitSale(sale models.Sale) (models.Sale, error) {
	committed, err := l.db.CommitSale(sale)
	if err != nil {
		return committed, err
	}
	return committed, &models.StorageError{Key: "pdv_sales", Err: assert.AnError}
}

func TestCommitStorageFailureStillReturnsSale(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Mel", "906", "20", 5)
	s := NewSession(db, brokenLedger{db}, WithSessionClock(clock))
	require.NoError(t, s.AddLine(p.ID, 1))
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.SetPayment(models.PaymentCard, nil))

	sale, err := s.Commit()
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.NotZero(t, sale.ID)
	assert.Equal(t, StateEmpty, s.State())
}

func TestRegistersAreIndependent(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Água", "907", "2", 10)
	regs := NewRegisters(db, db, clock)

	require.NoError(t, regs.Do("a", func(s *Session) error { return s.AddLine(p.ID, 1) }))
	sumB, err := regs.Open("b")
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, sumB.State)

	sumA, err := regs.Summary("a")
	require.NoError(t, err)
	assert.Equal(t, StateBuilding, sumA.State)

	require.NoError(t, regs.Clear("a"))
	sumA, _ = regs.Summary("a")
	assert.Equal(t, StateEmpty, sumA.State)
	assert.Equal(t, []string{"a", "b", DefaultRegister}, regs.IDs())

	assert.ErrorIs(t, regs.Do(" ", func(*Session) error { return nil }), models.ErrValidation)
	assert.NotEmpty(t, NewRegisterID())
}

func TestReadingUnknownRegisterDoesNotOpenIt(t *testing.T) {
	db := newDB(t)
	regs := NewRegisters(db, db, clock)

	_, err := regs.Summary(DefaultRegister)
	require.NoError(t, err)

	_, err = regs.Summary("caixa-fantasma")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, []string{DefaultRegister}, regs.IDs())
}

package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/pkg/storage"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func ptr[T any](v T) *T { return &v }

func productInput(name, barcode, price string, stock int) models.ProductInput {
	return models.ProductInput{
		Name:     ptr(name),
		Barcode:  ptr(barcode),
		Price:    ptr(decimal.RequireFromString(price)),
		Cost:     ptr(decimal.RequireFromString("1")),
		Stock:    ptr(stock),
		Category: ptr("Mercearia"),
	}
}

func openDB(t *testing.T, st storage.Store) *Database {
	t.Helper()
	db, err := Open(st, WithClock(fixedClock()))
	require.NoError(t, err)
	return db
}

// failingStore accepts reads but refuses writes.
type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Put(string, []byte) error { return errors.New("quota exceeded") }

func TestOpenEmptyStore(t *testing.T) {
	db := openDB(t, storage.NewMemoryStore())
	assert.Empty(t, db.Products())
	assert.Empty(t, db.Customers())
	assert.Empty(t, db.Sales())
}

func TestOpenRejectsMalformedBlob(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Put("pdv_products", []byte("{broken")))

	_, err := Open(st)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedData)

	data, _ := st.Get("pdv_products")
	assert.Equal(t, "{broken", string(data), "blob must not be overwritten")
}

func TestProductCRUDPersists(t *testing.T) {
	st := storage.NewMemoryStore()
	db := openDB(t, st)

	p, err := db.CreateProduct(productInput("Arroz 5kg", "7891000100103", "25.9", 10))
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	_, err = db.CreateProduct(productInput("Outro", "7891000100103", "1", 1))
	assert.ErrorIs(t, err, models.ErrValidation)

	byCode, err := db.ProductByBarcode("7891000100103")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)

	_, err = db.ProductByBarcode("000")
	assert.ErrorIs(t, err, models.ErrNotFound)

	updated, err := db.UpdateProduct(p.ID, models.ProductInput{Stock: ptr(40), Barcode: ptr("111")})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Stock)
	assert.Equal(t, "Arroz 5kg", updated.Name)

	_, err = db.ProductByBarcode("7891000100103")
	assert.ErrorIs(t, err, models.ErrNotFound)

	reopened := openDB(t, st)
	got, err := reopened.Product(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Stock)

	require.NoError(t, db.DeleteProduct(p.ID))
	assert.ErrorIs(t, db.DeleteProduct(p.ID), models.ErrNotFound)
}

func TestIDsStrictlyIncrease(t *testing.T) {
	db := openDB(t, storage.NewMemoryStore())
	a, err := db.CreateCustomer(models.CustomerInput{Name: ptr("Ana")})
	require.NoError(t, err)
	b, err := db.CreateCustomer(models.CustomerInput{Name: ptr("Bruno")})
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
}

func TestSearchProducts(t *testing.T) {
	db := openDB(t, storage.NewMemoryStore())
	for i, name := range []string{"Arroz Branco", "Feijão Preto", "arroz integral"} {
		_, err := db.CreateProduct(productInput(name, "78900"+string(rune('1'+i)), "5", 3))
		require.NoError(t, err)
	}

	assert.Len(t, db.SearchProducts("ARROZ", 0), 2)
	assert.Len(t, db.SearchProducts("789002", 0), 1)
	assert.Len(t, db.SearchProducts("7890", 2), 2)
	assert.Empty(t, db.SearchProducts("  ", 0))
}

func TestCommitSaleIsAtomic(t *testing.T) {
	db := openDB(t, storage.NewMemoryStore())
	a, _ := db.CreateProduct(productInput("Leite", "1", "4.5", 2))
	b, _ := db.CreateProduct(productInput("Café", "2", "12", 1))

	sale := models.Sale{Items: []models.SaleItem{
		{ProductID: a.ID, ProductName: a.Name, Quantity: 1, UnitPrice: a.Price, TotalPrice: a.Price},
		{ProductID: b.ID, ProductName: b.Name, Quantity: 2, UnitPrice: b.Price},
		{ProductID: a.ID, ProductName: a.Name, Quantity: 2, UnitPrice: a.Price},
	}}
	_, err := db.CommitSale(sale)

	var se *models.StockError
	require.ErrorAs(t, err, &se)
	require.Len(t, se.Shortages, 2)
	assert.Equal(t, models.StockShortage{ProductID: a.ID, Name: "Leite", Requested: 3, Available: 2}, se.Shortages[0])
	assert.Equal(t, b.ID, se.Shortages[1].ProductID)

	got, _ := db.Product(a.ID)
	assert.Equal(t, 2, got.Stock)
	assert.Empty(t, db.Sales())
}

func TestCommitSaleDecrementsAndRecords(t *testing.T) {
	st := storage.NewMemoryStore()
	var changed []string
	db, err := Open(st, WithClock(fixedClock()), WithOnChange(func(c string) { changed = append(changed, c) }))
	require.NoError(t, err)

	p, _ := db.CreateProduct(productInput("Pão", "3", "0.5", 10))
	changed = nil

	sale, err := db.CommitSale(models.Sale{
		Items:         []models.SaleItem{{ProductID: p.ID, ProductName: p.Name, Quantity: 4, UnitPrice: p.Price, TotalPrice: decimal.NewFromInt(2)}},
		TotalAmount:   decimal.NewFromInt(2),
		PaymentMethod: models.PaymentPix,
	})
	require.NoError(t, err)
	assert.NotZero(t, sale.ID)
	assert.NotZero(t, sale.Items[0].ID)
	assert.Equal(t, []string{Products, Sales}, changed)

	got, _ := db.Product(p.ID)
	assert.Equal(t, 6, got.Stock)

	reopened := openDB(t, st)
	assert.Len(t, reopened.Sales(), 1)
}

func TestStorageFailureKeepsMemoryState(t *testing.T) {
	db := openDB(t, failingStore{storage.NewMemoryStore()})

	p, err := db.CreateProduct(productInput("Açúcar", "4", "3.2", 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.NotZero(t, p.ID)

	got, lookupErr := db.Product(p.ID)
	require.NoError(t, lookupErr)
	assert.Equal(t, "Açúcar", got.Name)
}

func TestSalesBetweenIsInclusive(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	db, err := Open(storage.NewMemoryStore(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	p, _ := db.CreateProduct(productInput("Sal", "5", "2", 10))
	item := []models.SaleItem{{ProductID: p.ID, ProductName: p.Name, Quantity: 1, UnitPrice: p.Price, TotalPrice: p.Price}}

	_, err = db.CommitSale(models.Sale{Items: item, PaymentMethod: models.PaymentCard})
	require.NoError(t, err)
	now = now.Add(24 * time.Hour)
	_, err = db.CommitSale(models.Sale{Items: item, PaymentMethod: models.PaymentCard})
	require.NoError(t, err)

	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Len(t, db.SalesBetween(start, start), 1)
	assert.Len(t, db.SalesBetween(start, start.Add(24*time.Hour)), 2)
	assert.Len(t, db.SalesBetween(time.Time{}, time.Time{}), 2)
}

func TestReplaceKeepsIDsAndBumpsGenerator(t *testing.T) {
	db := openDB(t, storage.NewMemoryStore())
	far := int64(1_900_000_000_000)
	require.NoError(t, db.Replace(Replacement{Customers: &[]models.Customer{{ID: far, Name: "Imported"}}}))

	c, err := db.Customer(far)
	require.NoError(t, err)
	assert.Equal(t, "Imported", c.Name)

	next, err := db.CreateCustomer(models.CustomerInput{Name: ptr("New")})
	require.NoError(t, err)
	assert.Greater(t, next.ID, far)
}

func TestClearAndReload(t *testing.T) {
	st := storage.NewMemoryStore()
	db := openDB(t, st)
	_, err := db.CreateProduct(productInput("Óleo", "6", "7.5", 3))
	require.NoError(t, err)

	require.NoError(t, db.Clear())
	assert.Empty(t, db.Products())
	assert.False(t, st.Exists("pdv_products"))

	require.NoError(t, st.Put("pdv_customers", []byte(`[{"id":5,"name":"Carla"}]`)))
	require.NoError(t, db.Reload())
	assert.Len(t, db.Customers(), 1)
}

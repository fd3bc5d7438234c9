package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobetel/pdv/app/models"
)

func sale(method models.PaymentMethod, at time.Time, customer *int64, items ...models.SaleItem) models.Sale {
	s := models.Sale{PaymentMethod: method, CreatedAt: at, CustomerID: customer, Items: items, Discount: decimal.Zero}
	s.TotalAmount = s.Subtotal()
	return s
}

func item(id int64, name string, qty int, price string) models.SaleItem {
	p := dec(price)
	return models.SaleItem{ProductID: id, ProductName: name, Quantity: qty, UnitPrice: p, TotalPrice: p.Mul(decimal.NewFromInt(int64(qty)))}
}

func TestSummarizeSales(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	day2 := day1.AddDate(0, 0, 1)
	sales := []models.Sale{
		sale(models.PaymentCash, day1, nil, item(1, "Arroz", 2, "10")),
		sale(models.PaymentPix, day1, nil, item(2, "Café", 1, "15"), item(1, "Arroz", 1, "10")),
		sale(models.PaymentPix, day2, nil, item(3, "Sal", 5, "1")),
	}

	sum := SummarizeSales(sales)
	assert.Equal(t, 3, sum.Transactions)
	assert.Equal(t, 9, sum.ItemsSold)
	assert.True(t, sum.Revenue.Equal(dec("50")))
	assert.True(t, sum.AverageTicket.Equal(dec("16.67")), sum.AverageTicket.String())

	require.Len(t, sum.Payments, 3)
	assert.Equal(t, models.PaymentCash, sum.Payments[0].Method)
	assert.Equal(t, 2, sum.Payments[2].Count)
	assert.Equal(t, 0, sum.Payments[1].Count)

	require.Len(t, sum.Products, 3)
	assert.Equal(t, "Arroz", sum.Products[0].Name)
	assert.Equal(t, 3, sum.Products[0].Quantity)
	assert.Equal(t, "Sal", sum.Products[2].Name)

	require.Len(t, sum.Daily, 2)
	assert.Equal(t, day1.Format(time.DateOnly), sum.Daily[0].Date)
	assert.Equal(t, 2, sum.Daily[0].Transactions)
}

func TestSummarizeNoSales(t *testing.T) {
	sum := SummarizeSales(nil)
	assert.True(t, sum.AverageTicket.IsZero())
	assert.Empty(t, sum.Products)
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StockOut, StatusOf(0, 5))
	assert.Equal(t, StockLow, StatusOf(5, 5))
	assert.Equal(t, StockOK, StatusOf(6, 5))
}

func TestStockAndCategoryReports(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "Arroz", Category: "Grãos", Price: dec("15"), Cost: dec("10"), Stock: 0},
		{ID: 2, Name: "Feijão", Category: "Grãos", Price: dec("12"), Cost: dec("8"), Stock: 4},
		{ID: 3, Name: "Sabão", Category: "Limpeza", Price: dec("4"), Cost: dec("2"), Stock: 10},
	}

	rep := BuildStockReport(products, 5)
	assert.Equal(t, 1, rep.OutOfStock)
	assert.Equal(t, 1, rep.LowStock)
	assert.True(t, rep.CostValue.Equal(dec("52")))
	assert.True(t, rep.PotentialRevenue.Equal(dec("88")))
	assert.Equal(t, StockOK, rep.Lines[2].Status)

	cats := BuildCategoryReport(products)
	require.Len(t, cats, 2)
	assert.Equal(t, "Grãos", cats[0].Category)
	assert.Equal(t, 2, cats[0].Products)
	assert.True(t, cats[0].AverageMargin.Equal(dec("50")))
	assert.True(t, cats[1].AverageMargin.Equal(dec("100")))
}

func TestMarginReport(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "Arroz", Category: "Grãos", Price: dec("15"), Cost: dec("10")},
		{ID: 2, Name: "Sabão", Category: "Limpeza", Price: dec("4"), Cost: dec("2")},
		{ID: 3, Name: "Bala", Category: "Doces", Price: dec("0.5"), Cost: dec("0.2")},
		{ID: 4, Name: "Brinde", Category: "Doces", Price: dec("1"), Cost: dec("0")},
		{ID: 5, Name: "Detergente", Category: "Limpeza", Price: dec("3"), Cost: dec("1.5")},
	}

	got := BuildMarginReport(products, HighMarginThreshold)
	require.Len(t, got, 3)
	assert.Equal(t, "Bala", got[0].Name)
	assert.True(t, got[0].Margin.Equal(dec("150")))
	assert.Equal(t, "Detergente", got[1].Name)
	assert.Equal(t, "Sabão", got[2].Name)
	assert.True(t, got[2].Margin.Equal(dec("100")))

	assert.Empty(t, BuildMarginReport(products, dec("200")))
}

func TestCustomerReport(t *testing.T) {
	ana, bia := int64(1), int64(2)
	customers := []models.Customer{{ID: ana, Name: "Ana"}, {ID: bia, Name: "Bia"}}
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	sales := []models.Sale{
		sale(models.PaymentCard, first, &bia, item(1, "Arroz", 1, "10")),
		sale(models.PaymentCard, first.Add(time.Hour), &bia, item(1, "Arroz", 2, "10")),
		sale(models.PaymentCash, first, nil, item(1, "Arroz", 9, "10")),
	}

	stats := BuildCustomerReport(customers, sales)
	require.Len(t, stats, 2)
	assert.Equal(t, "Bia", stats[0].Name)
	assert.Equal(t, 2, stats[0].Purchases)
	assert.True(t, stats[0].AverageTicket.Equal(dec("15")))
	assert.Equal(t, first.Add(time.Hour), *stats[0].LastPurchase)
	assert.Nil(t, stats[1].LastPurchase)
}

func TestDashboard(t *testing.T) {
	db := newDB(t)
	p := addProduct(t, db, "Arroz", "1", "10", 3)
	addProduct(t, db, "Café", "2", "20", 50)
	sellOne(t, NewRegisters(db, db, clock), p.ID)

	dash := NewReportService(db, 5).Dashboard(testNow)
	assert.Equal(t, 1, dash.TodaySales)
	assert.True(t, dash.TodayRevenue.Equal(dec("10")))
	assert.Equal(t, 2, dash.Products)
	require.Len(t, dash.LowStock, 1)
	assert.Equal(t, "Arroz", dash.LowStock[0].Name)
	assert.Len(t, dash.RecentSales, 1)
}

func TestParsePeriod(t *testing.T) {
	from, to, err := ParsePeriod("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, 1, from.Day())
	assert.Equal(t, 0, from.Hour())
	assert.Equal(t, 31, to.Day())
	assert.Equal(t, 23, to.Hour())
	assert.Equal(t, 59, to.Second())

	from, to, err = ParsePeriod("", "2024-03-10T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.Equal(t, 12, to.UTC().Hour())

	_, _, err = ParsePeriod("01/03/2024", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, _, err = ParsePeriod("2024-03-10", "2024-03-01")
	assert.ErrorIs(t, err, models.ErrValidation)
}

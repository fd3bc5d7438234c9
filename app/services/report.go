package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
)

// PaymentStat is the share of one payment method in a period.
type PaymentStat struct {
	Method models.PaymentMethod `json:"method"`
	Count  int                  `json:"count"`
	Amount decimal.Decimal      `json:"amount"`
}

// ProductSales is how much of one product sold in a period.
type ProductSales struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// DaySales is the revenue of one calendar day.
type DaySales struct {
	Date         string          `json:"date"`
	Transactions int             `json:"transactions"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type SalesSummary struct {
	Start         *time.Time      `json:"start,omitempty"`
	End           *time.Time      `json:"end,omitempty"`
	Revenue       decimal.Decimal `json:"revenue"`
	Transactions  int             `json:"transactions"`
	ItemsSold     int             `json:"items_sold"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Payments      []PaymentStat   `json:"payments"`
	Products      []ProductSales  `json:"products"`
	Daily         []DaySales      `json:"daily"`
}

// SummarizeSales aggregates sales. Products are ranked by revenue, then by
// quantity; days are in calendar order.
func SummarizeSales(sales []models.Sale) SalesSummary {
	sum := SalesSummary{
		Revenue:       decimal.Zero,
		AverageTicket: decimal.Zero,
		TotalDiscount: decimal.Zero,
		Products:      []ProductSales{},
		Daily:         []DaySales{},
	}

	pay := map[models.PaymentMethod]*PaymentStat{}
	for _, m := range models.PaymentMethods {
		pay[m] = &PaymentStat{Method: m, Amount: decimal.Zero}
	}
	prod := map[int64]*ProductSales{}
	days := map[string]*DaySales{}

	for _, s := range sales {
		sum.Transactions++
		sum.Revenue = sum.Revenue.Add(s.TotalAmount)
		sum.TotalDiscount = sum.TotalDiscount.Add(s.Discount)

		ps, ok := pay[s.PaymentMethod]
		if !ok {
			ps = &PaymentStat{Method: s.PaymentMethod, Amount: decimal.Zero}
			pay[s.PaymentMethod] = ps
		}
		ps.Count++
		ps.Amount = ps.Amount.Add(s.TotalAmount)

		for _, it := range s.Items {
			sum.ItemsSold += it.Quantity
			p, ok := prod[it.ProductID]
			if !ok {
				p = &ProductSales{ProductID: it.ProductID, Name: it.ProductName, Revenue: decimal.Zero}
				prod[it.ProductID] = p
			}
			p.Quantity += it.Quantity
			p.Revenue = p.Revenue.Add(it.TotalPrice)
		}

		day := s.CreatedAt.Local().Format(time.DateOnly)
		d, ok := days[day]
		if !ok {
			d = &DaySales{Date: day, Revenue: decimal.Zero}
			days[day] = d
		}
		d.Transactions++
		d.Revenue = d.Revenue.Add(s.TotalAmount)
	}

	if sum.Transactions > 0 {
		sum.AverageTicket = sum.Revenue.Div(decimal.NewFromInt(int64(sum.Transactions))).Round(2)
	}

	for _, m := range models.PaymentMethods {
		sum.Payments = append(sum.Payments, *pay[m])
		delete(pay, m)
	}
	for _, ps := range pay {
		sum.Payments = append(sum.Payments, *ps)
	}

	for _, p := range prod {
		sum.Products = append(sum.Products, *p)
	}
	sort.Slice(sum.Products, func(i, j int) bool {
		a, b := sum.Products[i], sum.Products[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})

	for _, d := range days {
		sum.Daily = append(sum.Daily, *d)
	}
	sort.Slice(sum.Daily, func(i, j int) bool { return sum.Daily[i].Date < sum.Daily[j].Date })
	return sum
}

// StockStatus classifies a product's stock level.
type StockStatus string

const (
	StockOut StockStatus = "OUT"
	StockLow StockStatus = "LOW"
	StockOK  StockStatus = "OK"
)

// StatusOf classifies stock against the low-stock threshold.
func StatusOf(stock, lowThreshold int) StockStatus {
	switch {
	case stock <= 0:
		return StockOut
	case stock <= lowThreshold:
		return StockLow
	default:
		return StockOK
	}
}

type StockLine struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	Barcode    string          `json:"barcode"`
	Category   string          `json:"category"`
	Stock      int             `json:"stock"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	Margin     decimal.Decimal `json:"margin"`
	StockValue decimal.Decimal `json:"stock_value"`
	Status     StockStatus     `json:"status"`
}

type StockReport struct {
	Threshold        int             `json:"threshold"`
	Lines            []StockLine     `json:"lines"`
	TotalUnits       int             `json:"total_units"`
	CostValue        decimal.Decimal `json:"cost_value"`
	PotentialRevenue decimal.Decimal `json:"potential_revenue"`
	OutOfStock       int             `json:"out_of_stock"`
	LowStock         int             `json:"low_stock"`
}

// BuildStockReport lists every product with its stock status and totals the
// inventory at cost and at sale price.
func BuildStockReport(products []models.Product, lowThreshold int) StockReport {
	rep := StockReport{
		Threshold:        lowThreshold,
		Lines:            make([]StockLine, 0, len(products)),
		CostValue:        decimal.Zero,
		PotentialRevenue: decimal.Zero,
	}
	for _, p := range products {
		status := StatusOf(p.Stock, lowThreshold)
		switch status {
		case StockOut:
			rep.OutOfStock++
		case StockLow:
			rep.LowStock++
		}
		units := decimal.NewFromInt(int64(p.Stock))
		rep.TotalUnits += p.Stock
		rep.CostValue = rep.CostValue.Add(p.StockValue())
		rep.PotentialRevenue = rep.PotentialRevenue.Add(p.Price.Mul(units))
		rep.Lines = append(rep.Lines, StockLine{
			ProductID:  p.ID,
			Name:       p.Name,
			Barcode:    p.Barcode,
			Category:   p.Category,
			Stock:      p.Stock,
			Price:      p.Price,
			Cost:       p.Cost,
			Margin:     p.Margin().Round(2),
			StockValue: p.StockValue(),
			Status:     status,
		})
	}
	return rep
}

type CategoryStat struct {
	Category      string          `json:"category"`
	Products      int             `json:"products"`
	Units         int             `json:"units"`
	StockValue    decimal.Decimal `json:"stock_value"`
	AverageMargin decimal.Decimal `json:"average_margin"`
}

// BuildCategoryReport groups products by category, sorted by name.
func BuildCategoryReport(products []models.Product) []CategoryStat {
	by := map[string]*CategoryStat{}
	margins := map[string]decimal.Decimal{}
	for _, p := range products {
		c, ok := by[p.Category]
		if !ok {
			c = &CategoryStat{Category: p.Category, StockValue: decimal.Zero}
			by[p.Category] = c
			margins[p.Category] = decimal.Zero
		}
		c.Products++
		c.Units += p.Stock
		c.StockValue = c.StockValue.Add(p.StockValue())
		margins[p.Category] = margins[p.Category].Add(p.Margin())
	}

	out := make([]CategoryStat, 0, len(by))
	for name, c := range by {
		c.AverageMargin = margins[name].Div(decimal.NewFromInt(int64(c.Products))).Round(2)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// HighMarginThreshold is the margin, in percent over cost, above which a
// product counts as high-margin.
var HighMarginThreshold = decimal.NewFromInt(50)

type MarginStat struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Margin    decimal.Decimal `json:"margin"`
}

// BuildMarginReport lists products whose margin is strictly above floor,
// highest margin first. Products without a positive cost have no margin
// and are left out.
func BuildMarginReport(products []models.Product, floor decimal.Decimal) []MarginStat {
	out := []MarginStat{}
	for _, p := range products {
		if !p.Cost.IsPositive() {
			continue
		}
		m := p.Margin()
		if !m.GreaterThan(floor) {
			continue
		}
		out = append(out, MarginStat{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Cost:      p.Cost,
			Margin:    m.Round(2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Margin.Cmp(out[j].Margin); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type CustomerStat struct {
	CustomerID    int64           `json:"customer_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Purchases     int             `json:"purchases"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	LastPurchase  *time.Time      `json:"last_purchase,omitempty"`
}

// BuildCustomerReport computes purchase statistics per customer, best
// customers first.
func BuildCustomerReport(customers []models.Customer, sales []models.Sale) []CustomerStat {
	by := make(map[int64]*CustomerStat, len(customers))
	out := make([]*CustomerStat, 0, len(customers))
	for _, c := range customers {
		st := &CustomerStat{
			CustomerID:    c.ID,
			Name:          c.Name,
			Email:         c.Email,
			Phone:         c.Phone,
			TotalValue:    decimal.Zero,
			AverageTicket: decimal.Zero,
		}
		by[c.ID] = st
		out = append(out, st)
	}

	for _, s := range sales {
		if s.CustomerID == nil {
			continue
		}
		st, ok := by[*s.CustomerID]
		if !ok {
			continue
		}
		st.Purchases++
		st.TotalValue = st.TotalValue.Add(s.TotalAmount)
		if st.LastPurchase == nil || s.CreatedAt.After(*st.LastPurchase) {
			t := s.CreatedAt
			st.LastPurchase = &t
		}
	}

	res := make([]CustomerStat, 0, len(out))
	for _, st := range out {
		if st.Purchases > 0 {
			st.AverageTicket = st.TotalValue.Div(decimal.NewFromInt(int64(st.Purchases))).Round(2)
		}
		res = append(res, *st)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].TotalValue.GreaterThan(res[j].TotalValue) })
	return res
}

// Dashboard is the at-a-glance view of the store.
type Dashboard struct {
	TodaySales   int             `json:"today_sales"`
	TodayRevenue decimal.Decimal `json:"today_revenue"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Products     int             `json:"products"`
	Customers    int             `json:"customers"`
	UnitsInStock int             `json:"units_in_stock"`
	LowStock     []StockLine     `json:"low_stock"`
	RecentSales  []models.Sale   `json:"recent_sales"`
}

// ReportService runs the reports against the live database.
type ReportService struct {
	db           *repositories.Database
	lowThreshold int
}

func NewReportService(db *repositories.Database, lowThreshold int) *ReportService {
	return &ReportService{db: db, lowThreshold: lowThreshold}
}

// Sales summarises the sales in [start, end]. Zero bounds are open.
func (s *ReportService) Sales(start, end time.Time) SalesSummary {
	sum := SummarizeSales(s.db.SalesBetween(start, end))
	if !start.IsZero() {
		sum.Start = &start
	}
	if !end.IsZero() {
		sum.End = &end
	}
	return sum
}

func (s *ReportService) Stock() StockReport {
	return BuildStockReport(s.db.Products(), s.lowThreshold)
}

func (s *ReportService) Categories() []CategoryStat {
	return BuildCategoryReport(s.db.Products())
}

func (s *ReportService) Margins() []MarginStat {
	return BuildMarginReport(s.db.Products(), HighMarginThreshold)
}

func (s *ReportService) Customers() []CustomerStat {
	return BuildCustomerReport(s.db.Customers(), s.db.Sales())
}

// Dashboard reports today's activity relative to now.
func (s *ReportService) Dashboard(now time.Time) Dashboard {
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	today := SummarizeSales(s.db.SalesBetween(dayStart, dayStart.Add(24*time.Hour-time.Nanosecond)))
	all := s.db.Sales()
	stock := s.Stock()

	dash := Dashboard{
		TodaySales:   today.Transactions,
		TodayRevenue: today.Revenue,
		TotalRevenue: SummarizeSales(all).Revenue,
		Products:     len(stock.Lines),
		Customers:    len(s.db.Customers()),
		UnitsInStock: stock.TotalUnits,
		LowStock:     []StockLine{},
		RecentSales:  []models.Sale{},
	}
	for _, l := range stock.Lines {
		if l.Status != StockOK {
			dash.LowStock = append(dash.LowStock, l)
		}
	}
	for i := len(all) - 1; i >= 0 && len(dash.RecentSales) < 5; i-- {
		dash.RecentSales = append(dash.RecentSales, all[i])
	}
	return dash
}

// ParsePeriod reads report bounds given as RFC3339 timestamps or YYYY-MM-DD
// dates. A date-only end covers that whole day. Empty bounds stay zero.
func ParsePeriod(start, end string) (time.Time, time.Time, error) {
	from, err := parseBound("start", start, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseBound("end", end, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, &models.ValidationError{Field: "end", Message: "must not be before start"}
	}
	return from, to, nil
}

func parseBound(field, s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: field, Message: "must be RFC3339 or YYYY-MM-DD"}
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

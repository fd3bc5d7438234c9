package services

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
)

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetTimeLayout = "02/01/2006 15:04"
	sheetDateLayout = "02/01/2006"
)

// Workbook is a generated spreadsheet and the file name to offer it under.
type Workbook struct {
	Name string
	File *xlsx.File
}

// Bytes renders the workbook.
func (w Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.File.Write(&buf); err != nil {
		return nil, fmt.Errorf("spreadsheet: write %s: %w", w.Name, err)
	}
	return buf.Bytes(), nil
}

var paymentLabels = map[models.PaymentMethod]string{
	models.PaymentCash: "Dinheiro",
	models.PaymentCard: "Cartão",
	models.PaymentPix:  "PIX",
}

var stockLabels = map[StockStatus]string{
	StockOut: "SEM ESTOQUE",
	StockLow: "ESTOQUE BAIXO",
	StockOK:  "OK",
}

func addRow(sheet *xlsx.Sheet, values ...any) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		switch x := v.(type) {
		case decimal.Decimal:
			cell.SetFloat(x.Round(2).InexactFloat64())
		default:
			cell.SetValue(x)
		}
	}
}

func money(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) }

// SpreadsheetService builds the report workbooks from the live database.
type SpreadsheetService struct {
	db      *repositories.Database
	reports *ReportService
	now     func() time.Time
}

func NewSpreadsheetService(db *repositories.Database, reports *ReportService, now func() time.Time) *SpreadsheetService {
	if now == nil {
		now = time.Now
	}
	return &SpreadsheetService{db: db, reports: reports, now: now}
}

// SalesWorkbook covers the sales in [start, end]: summary, one row per sale
// and products sold.
func (s *SpreadsheetService) SalesWorkbook(start, end time.Time) (Workbook, error) {
	sales := s.db.SalesBetween(start, end)
	sum := SummarizeSales(sales)
	file := xlsx.NewFile()

	resumo, err := file.AddSheet("Resumo")
	if err != nil {
		return Workbook{}, err
	}
	addRow(resumo, "RELATÓRIO DE VENDAS - MERCADO BETEL")
	addRow(resumo)
	addRow(resumo, "Período:", fmt.Sprintf("%s até %s", dateLabel(start), dateLabel(end)))
	addRow(resumo, "Gerado em:", s.now().Format(sheetTimeLayout))
	addRow(resumo)
	addRow(resumo, "RESUMO GERAL")
	addRow(resumo, "Total de Vendas", sum.Transactions)
	addRow(resumo, "Receita Total", sum.Revenue)
	addRow(resumo, "Ticket Médio", sum.AverageTicket)
	addRow(resumo, "Descontos Concedidos", sum.TotalDiscount)
	addRow(resumo)
	addRow(resumo, "VENDAS POR FORMA DE PAGAMENTO")
	for _, p := range sum.Payments {
		addRow(resumo, paymentLabel(p.Method), p.Amount, p.Count)
	}

	detail, err := file.AddSheet("Vendas Detalhadas")
	if err != nil {
		return Workbook{}, err
	}
	addRow(detail, "Data", "Cliente", "Total", "Desconto", "Pagamento", "Valor Pago", "Troco", "Itens")
	for _, sale := range sales {
		items := make([]string, len(sale.Items))
		for i, it := range sale.Items {
			items[i] = fmt.Sprintf("%s (%dx)", it.ProductName, it.Quantity)
		}
		customer := sale.CustomerName
		if customer == "" {
			customer = "Cliente Avulso"
		}
		addRow(detail,
			sale.CreatedAt.Local().Format(sheetTimeLayout),
			customer,
			sale.TotalAmount,
			sale.Discount,
			paymentLabel(sale.PaymentMethod),
			sale.AmountPaid,
			sale.Change,
			strings.Join(items, ", "),
		)
	}

	sold, err := file.AddSheet("Produtos Vendidos")
	if err != nil {
		return Workbook{}, err
	}
	addRow(sold, "Produto", "Quantidade Vendida", "Receita Total")
	for _, p := range sum.Products {
		addRow(sold, p.Name, p.Quantity, p.Revenue)
	}

	name := fmt.Sprintf("relatorio-vendas-%s-%s.xlsx", fileDate(start, s.now()), fileDate(end, s.now()))
	return Workbook{Name: name, File: file}, nil
}

// ProductsWorkbook lists the catalogue, the stock analysis and a summary per
// category. The first sheet can be fed back through ImportProducts.
func (s *SpreadsheetService) ProductsWorkbook() (Workbook, error) {
	products := s.db.Products()
	stock := s.reports.Stock()
	file := xlsx.NewFile()

	catalog, err := file.AddSheet("Produtos")
	if err != nil {
		return Workbook{}, err
	}
	addRow(catalog, "Código", "Nome", "Código de Barras", "Preço", "Custo", "Estoque", "Categoria", "Margem %")
	for _, p := range products {
		addRow(catalog, p.ID, p.Name, p.Barcode, p.Price, p.Cost, p.Stock, p.Category, p.Margin())
	}

	analysis, err := file.AddSheet("Análise de Estoque")
	if err != nil {
		return Workbook{}, err
	}
	addRow(analysis, "Produto", "Estoque Atual", "Status", "Valor em Estoque")
	for _, l := range stock.Lines {
		addRow(analysis, l.Name, l.Stock, stockLabels[l.Status], l.StockValue)
	}
	addRow(analysis)
	addRow(analysis, "Valor Total Investido em Estoque", stock.CostValue)
	addRow(analysis, "Receita Potencial", stock.PotentialRevenue)

	byCategory, err := file.AddSheet("Por Categoria")
	if err != nil {
		return Workbook{}, err
	}
	addRow(byCategory, "Categoria", "Qtd Produtos", "Valor Total Estoque", "Margem Média %")
	for _, c := range BuildCategoryReport(products) {
		addRow(byCategory, c.Category, c.Products, c.StockValue, c.AverageMargin)
	}

	return Workbook{Name: fmt.Sprintf("relatorio-produtos-%s.xlsx", s.now().Format(time.DateOnly)), File: file}, nil
}

// CustomersWorkbook lists customers and their purchase history.
func (s *SpreadsheetService) CustomersWorkbook() (Workbook, error) {
	file := xlsx.NewFile()

	list, err := file.AddSheet("Clientes")
	if err != nil {
		return Workbook{}, err
	}
	addRow(list, "Código", "Nome", "Email", "Telefone", "Endereço", "Data Cadastro")
	for _, c := range s.db.Customers() {
		addRow(list, c.ID, c.Name, c.Email, c.Phone, c.Address, c.CreatedAt.Local().Format(sheetDateLayout))
	}

	history, err := file.AddSheet("Histórico de Compras")
	if err != nil {
		return Workbook{}, err
	}
	addRow(history, "Cliente", "Total de Compras", "Valor Total", "Última Compra", "Ticket Médio")
	for _, st := range s.reports.Customers() {
		last := "Nunca"
		if st.LastPurchase != nil {
			last = st.LastPurchase.Local().Format(sheetDateLayout)
		}
		addRow(history, st.Name, st.Purchases, st.TotalValue, last, st.AverageTicket)
	}

	return Workbook{Name: fmt.Sprintf("relatorio-clientes-%s.xlsx", s.now().Format(time.DateOnly)), File: file}, nil
}

// ImportResult tallies a bulk product import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportProducts reads the "Produtos" layout of ProductsWorkbook. Rows whose
// barcode is already registered update that product; the rest are created.
// Invalid rows are skipped and reported.
func (s *SpreadsheetService) ImportProducts(r io.ReaderAt, size int64) (ImportResult, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return ImportResult{}, &models.MalformedDataError{Source: "spreadsheet", Err: err}
	}
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) < 2 {
		return ImportResult{}, &models.MalformedDataError{Source: "spreadsheet", Err: fmt.Errorf("empty sheet or missing header row")}
	}

	var res ImportResult
	var storageErr error
	for i, row := range file.Sheets[0].Rows[1:] {
		line := i + 2
		get := func(index int) string {
			if index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}
		if get(1) == "" && get(2) == "" {
			continue
		}

		in, err := productRow(get)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("linha %d: %v", line, err))
			continue
		}

		if existing, lookupErr := s.db.ProductByBarcode(*in.Barcode); lookupErr == nil {
			_, err = s.db.UpdateProduct(existing.ID, in)
			if err == nil || models.IsStorage(err) {
				res.Updated++
			}
		} else {
			_, err = s.db.CreateProduct(in)
			if err == nil || models.IsStorage(err) {
				res.Created++
			}
		}
		switch {
		case err == nil:
		case models.IsStorage(err):
			storageErr = err
		default:
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("linha %d: %v", line, err))
		}
	}
	return res, storageErr
}

func productRow(get func(int) string) (models.ProductInput, error) {
	name, barcode, category := get(1), get(2), get(6)
	price, err := parseMoney(get(3))
	if err != nil {
		return models.ProductInput{}, fmt.Errorf("preço inválido %q", get(3))
	}
	cost, err := parseMoney(get(4))
	if err != nil {
		return models.ProductInput{}, fmt.Errorf("custo inválido %q", get(4))
	}
	stock, err := strconv.Atoi(get(5))
	if err != nil {
		f, ferr := strconv.ParseFloat(get(5), 64)
		if ferr != nil {
			return models.ProductInput{}, fmt.Errorf("estoque inválido %q", get(5))
		}
		stock = int(f)
	}
	return models.ProductInput{
		Name:     &name,
		Barcode:  &barcode,
		Price:    &price,
		Cost:     &cost,
		Stock:    &stock,
		Category: &category,
	}, nil
}

// parseMoney accepts "12.5", "12,50" and "R$ 12,50".
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func paymentLabel(m models.PaymentMethod) string {
	if l, ok := paymentLabels[m]; ok {
		return l
	}
	return string(m)
}

func dateLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(sheetDateLayout)
}

func fileDate(t, fallback time.Time) string {
	if t.IsZero() {
		t = fallback
	}
	return t.Local().Format(time.DateOnly)
}

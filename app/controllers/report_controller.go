package controllers

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mercadobetel/pdv/app/services"
	"github.com/mercadobetel/pdv/pkg/bind"
	"github.com/mercadobetel/pdv/pkg/logger"
	"github.com/mercadobetel/pdv/pkg/response"
)

// ReportController serves the reports, as JSON and as .xlsx workbooks.
type ReportController struct {
	reports *services.ReportService
	sheets  *services.SpreadsheetService
	now     func() time.Time
}

func NewReportController(reports *services.ReportService, sheets *services.SpreadsheetService, now func() time.Time) *ReportController {
	if now == nil {
		now = time.Now
	}
	return &ReportController{reports: reports, sheets: sheets, now: now}
}

func period(r *http.Request) (time.Time, time.Time, error) {
	return services.ParsePeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
}

func (c *ReportController) Sales(w http.ResponseWriter, r *http.Request) {
	start, end, err := period(r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, c.reports.Sales(start, end))
}

func (c *ReportController) Stock(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, c.reports.Stock())
}

func (c *ReportController) Categories(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, c.reports.Categories())
}

// Margins lists the high-margin products.
func (c *ReportController) Margins(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, c.reports.Margins())
}

func (c *ReportController) Customers(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, c.reports.Customers())
}

func (c *ReportController) Dashboard(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, c.reports.Dashboard(c.now()))
}

func (c *ReportController) SalesWorkbook(w http.ResponseWriter, r *http.Request) {
	start, end, err := period(r)
	if err != nil {
		response.FromError(w, err)
		return
	}
	c.send(w, r, func() (services.Workbook, error) { return c.sheets.SalesWorkbook(start, end) })
}

func (c *ReportController) ProductsWorkbook(w http.ResponseWriter, r *http.Request) {
	c.send(w, r, c.sheets.ProductsWorkbook)
}

func (c *ReportController) CustomersWorkbook(w http.ResponseWriter, r *http.Request) {
	c.send(w, r, c.sheets.CustomersWorkbook)
}

func (c *ReportController) send(w http.ResponseWriter, r *http.Request, build func() (services.Workbook, error)) {
	wb, err := build()
	if err != nil {
		logger.WithCtx(r.Context()).Error("report: build workbook", "error", err)
		response.FromError(w, err)
		return
	}
	data, err := wb.Bytes()
	if err != nil {
		logger.WithCtx(r.Context()).Error("report: render workbook", "name", wb.Name, "error", err)
		response.FromError(w, err)
		return
	}
	response.Attachment(w, wb.Name, services.XLSXContentType, data)
}

// ImportProducts accepts a workbook in the products layout, either as the
// raw body or as the "file" field of a multipart form.
func (c *ReportController) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			response.ValidationError(w, map[string]string{"file": "a workbook is required"})
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
	} else {
		data, err = bind.Body(r)
	}
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := c.sheets.ImportProducts(bytes.NewReader(data), int64(len(data)))
	saved(w, http.StatusOK, res, err)
}

package controllers

import (
	"net/http"

	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/app/services"
	"github.com/mercadobetel/pdv/pkg/response"
)

// SaleController reads the sales history. Sales are only created through a
// register's checkout.
type SaleController struct {
	db *repositories.Database
}

func NewSaleController(db *repositories.Database) *SaleController {
	return &SaleController{db: db}
}

// Index lists sales, optionally within ?start=&end=.
func (c *SaleController) Index(w http.ResponseWriter, r *http.Request) {
	start, end, err := services.ParsePeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, c.db.SalesBetween(start, end))
}

func (c *SaleController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	s, err := c.db.Sale(id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, s)
}

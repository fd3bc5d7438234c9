package controllers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/pkg/response"
	"github.com/mercadobetel/pdv/pkg/router"
)

type createProductRequest struct {
	Name        *string          `json:"name"        validate:"required,max=120"`
	Barcode     *string          `json:"barcode"     validate:"required,max=64"`
	Price       *decimal.Decimal `json:"price"       validate:"required,gt=0"`
	Cost        *decimal.Decimal `json:"cost"        validate:"nullable,gte=0"`
	Stock       *int             `json:"stock"       validate:"nullable,gte=0"`
	Category    *string          `json:"category"    validate:"required,max=60"`
	Description *string          `json:"description" validate:"nullable,max=500"`
}

type updateProductRequest struct {
	Name        *string          `json:"name"        validate:"nullable,max=120"`
	Barcode     *string          `json:"barcode"     validate:"nullable,max=64"`
	Price       *decimal.Decimal `json:"price"       validate:"nullable,gt=0"`
	Cost        *decimal.Decimal `json:"cost"        validate:"nullable,gte=0"`
	Stock       *int             `json:"stock"       validate:"nullable,gte=0"`
	Category    *string          `json:"category"    validate:"nullable,max=60"`
	Description *string          `json:"description" validate:"nullable,max=500"`
}

// ProductController serves the catalogue.
type ProductController struct {
	db *repositories.Database
}

func NewProductController(db *repositories.Database) *ProductController {
	return &ProductController{db: db}
}

// Index lists the catalogue, or searches it when ?q= is given.
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		response.Success(w, c.db.Products())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	response.Success(w, c.db.SearchProducts(q, limit))
}

func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	p, err := c.db.Product(id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, p)
}

// ShowByBarcode resolves a scanned code.
func (c *ProductController) ShowByBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := c.db.ProductByBarcode(router.Param(r, "barcode"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, p)
}

func (c *ProductController) Store(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := c.db.CreateProduct(models.ProductInput(req))
	saved(w, http.StatusCreated, p, err)
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req updateProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := c.db.UpdateProduct(id, models.ProductInput(req))
	saved(w, http.StatusOK, p, err)
}

func (c *ProductController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	done(w, c.db.DeleteProduct(id))
}

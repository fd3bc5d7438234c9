package controllers

import (
	"net/http"
	"strings"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/pkg/response"
)

type createCustomerRequest struct {
	Name    *string `json:"name"    validate:"required,max=120"`
	Email   *string `json:"email"   validate:"nullable,email"`
	Phone   *string `json:"phone"   validate:"nullable,max=30"`
	Address *string `json:"address" validate:"nullable,max=200"`
}

type updateCustomerRequest struct {
	Name    *string `json:"name"    validate:"nullable,max=120"`
	Email   *string `json:"email"   validate:"nullable,email"`
	Phone   *string `json:"phone"   validate:"nullable,max=30"`
	Address *string `json:"address" validate:"nullable,max=200"`
}

type CustomerController struct {
	db *repositories.Database
}

func NewCustomerController(db *repositories.Database) *CustomerController {
	return &CustomerController{db: db}
}

// Index lists customers; ?q= filters by name, email or phone.
func (c *CustomerController) Index(w http.ResponseWriter, r *http.Request) {
	all := c.db.Customers()
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if q == "" {
		response.Success(w, all)
		return
	}
	out := []models.Customer{}
	for _, cu := range all {
		if strings.Contains(strings.ToLower(cu.Name), q) ||
			strings.Contains(strings.ToLower(cu.Email), q) ||
			strings.Contains(cu.Phone, q) {
			out = append(out, cu)
		}
	}
	response.Success(w, out)
}

func (c *CustomerController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	cu, err := c.db.Customer(id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, cu)
}

func (c *CustomerController) Store(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decode(w, r, &req) {
		return
	}
	cu, err := c.db.CreateCustomer(models.CustomerInput(req))
	saved(w, http.StatusCreated, cu, err)
}

func (c *CustomerController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	var req updateCustomerRequest
	if !decode(w, r, &req) {
		return
	}
	cu, err := c.db.UpdateCustomer(id, models.CustomerInput(req))
	saved(w, http.StatusOK, cu, err)
}

func (c *CustomerController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.FromError(w, err)
		return
	}
	done(w, c.db.DeleteCustomer(id))
}

package seeders

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
)

func init() {
	Register("products", SeedProducts)
	Register("customers", SeedCustomers)
}

type demoProduct struct {
	name, barcode, price, cost string
	stock                      int
	category, description      string
}

var demoProducts = []demoProduct{
	{"Coca-Cola 2L", "7894900011517", "8.99", "6.50", 50, "Bebidas", "Refrigerante de cola 2 litros"},
	{"Pão de Açúcar", "7891000100103", "5.50", "3.80", 100, "Padaria", "Pão de açúcar 500g"},
	{"Arroz Tio João 5kg", "7896036098516", "22.90", "18.50", 30, "Grãos", "Arroz branco tipo 1"},
	{"Leite Integral 1L", "7891000100111", "4.50", "3.20", 75, "Lácteos", "Leite integral longa vida"},
	{"Açúcar Cristal 1kg", "7891000100222", "3.99", "2.80", 20, "Grãos", "Açúcar cristal refinado"},
	{"Óleo de Soja 900ml", "7891000100333", "6.80", "5.20", 0, "Óleos", "Óleo de soja refinado"},
}

var demoCustomers = []struct{ name, email, phone, address string }{
	{"João Silva", "joao@email.com", "(11) 99999-9999", "Rua das Flores, 123"},
	{"Maria Santos", "maria@email.com", "(11) 88888-8888", "Av. Principal, 456"},
	{"Pedro Oliveira", "pedro@email.com", "(11) 77777-7777", "Rua da Paz, 789"},
	{"Ana Costa", "ana@email.com", "(11) 66666-6666", "Av. Liberdade, 101"},
}

// SeedProducts adds the demo catalogue, skipping barcodes already present.
func SeedProducts(db *repositories.Database) (int, error) {
	created := 0
	for _, p := range demoProducts {
		if _, err := db.ProductByBarcode(p.barcode); err == nil {
			continue
		}
		price := decimal.RequireFromString(p.price)
		cost := decimal.RequireFromString(p.cost)
		_, err := db.CreateProduct(models.ProductInput{
			Name:        &p.name,
			Barcode:     &p.barcode,
			Price:       &price,
			Cost:        &cost,
			Stock:       &p.stock,
			Category:    &p.category,
			Description: &p.description,
		})
		if err != nil && !errors.Is(err, models.ErrStorage) {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedCustomers adds the demo customers when there are none yet.
func SeedCustomers(db *repositories.Database) (int, error) {
	if len(db.Customers()) > 0 {
		return 0, nil
	}
	created := 0
	for _, c := range demoCustomers {
		_, err := db.CreateCustomer(models.CustomerInput{
			Name:    &c.name,
			Email:   &c.email,
			Phone:   &c.phone,
			Address: &c.address,
		})
		if err != nil && !errors.Is(err, models.ErrStorage) {
			return created, err
		}
		created++
	}
	return created, nil
}

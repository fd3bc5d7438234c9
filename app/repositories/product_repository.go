package repositories

import (
	"strconv"
	"strings"

	"github.com/mercadobetel/pdv/app/models"
)

// DefaultSearchLimit caps SearchProducts when no limit is given.
const DefaultSearchLimit = 10

// Products returns a copy of the catalogue in insertion order.
func (db *Database) Products() []models.Product {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]models.Product{}, db.products...)
}

// Product looks a product up by id.
func (db *Database) Product(id int64) (models.Product, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	i, ok := db.productIdx[id]
	if !ok {
		return models.Product{}, &models.NotFoundError{Entity: "product", Key: strconv.FormatInt(id, 10)}
	}
	return db.products[i], nil
}

// ProductByBarcode is the scanner lookup.
func (db *Database) ProductByBarcode(code string) (models.Product, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	id, ok := db.barcodeIdx[strings.TrimSpace(code)]
	if !ok {
		return models.Product{}, &models.NotFoundError{Entity: "barcode", Key: code}
	}
	return db.products[db.productIdx[id]], nil
}

// SearchProducts matches query case-insensitively against the name, or as a
// substring of the barcode. An empty query returns nothing.
func (db *Database) SearchProducts(query string, limit int) []models.Product {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(query)

	db.mu.RLock()
	defer db.mu.RUnlock()

	out := []models.Product{}
	for _, p := range db.products {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(p.Barcode, query) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// CreateProduct validates in, assigns id and timestamps and appends it.
func (db *Database) CreateProduct(in models.ProductInput) (models.Product, error) {
	var p models.Product
	in.Apply(&p)
	p.Name = strings.TrimSpace(p.Name)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if err := p.Validate(); err != nil {
		return models.Product{}, err
	}

	db.mu.Lock()
	if _, taken := db.barcodeIdx[p.Barcode]; taken {
		db.mu.Unlock()
		return models.Product{}, &models.ValidationError{Field: "barcode", Message: "is already registered"}
	}

	p.ID = db.nextID()
	p.CreatedAt = db.now()
	p.UpdatedAt = p.CreatedAt
	db.products = append(db.products, p)
	db.productIdx[p.ID] = len(db.products) - 1
	db.barcodeIdx[p.Barcode] = p.ID

	err := db.persist(Products)
	db.mu.Unlock()

	db.notify(Products)
	return p, err
}

// UpdateProduct merges the set fields of patch onto product id. Setting the
// stock here is how restocking works.
func (db *Database) UpdateProduct(id int64, patch models.ProductInput) (models.Product, error) {
	db.mu.Lock()

	i, ok := db.productIdx[id]
	if !ok {
		db.mu.Unlock()
		return models.Product{}, &models.NotFoundError{Entity: "product", Key: strconv.FormatInt(id, 10)}
	}

	p := db.products[i]
	patch.Apply(&p)
	p.Name = strings.TrimSpace(p.Name)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if err := p.Validate(); err != nil {
		db.mu.Unlock()
		return models.Product{}, err
	}
	if owner, taken := db.barcodeIdx[p.Barcode]; taken && owner != id {
		db.mu.Unlock()
		return models.Product{}, &models.ValidationError{Field: "barcode", Message: "is already registered"}
	}

	old := db.products[i].Barcode
	p.UpdatedAt = db.now()
	db.products[i] = p
	if old != p.Barcode {
		delete(db.barcodeIdx, old)
		db.barcodeIdx[p.Barcode] = id
	}

	err := db.persist(Products)
	db.mu.Unlock()

	db.notify(Products)
	return p, err
}

// DeleteProduct removes a product. Past sales keep their snapshots.
func (db *Database) DeleteProduct(id int64) error {
	db.mu.Lock()

	i, ok := db.productIdx[id]
	if !ok {
		db.mu.Unlock()
		return &models.NotFoundError{Entity: "product", Key: strconv.FormatInt(id, 10)}
	}
	db.products = append(db.products[:i:i], db.products[i+1:]...)
	db.reindex()

	err := db.persist(Products)
	db.mu.Unlock()

	db.notify(Products)
	return err
}

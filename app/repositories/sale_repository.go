package repositories

import (
	"strconv"
	"time"

	"github.com/mercadobetel/pdv/app/models"
)

// CommitSale is the atomic unit of the ledger. Under the write lock every
// product's stock is checked against the aggregated quantity; if any fall
// short nothing changes and a StockError lists them all. Otherwise stock is
// decremented, the sale gets its id and timestamps, and products and sales
// are persisted.
//
// A StorageError is returned together with the recorded sale: the commit
// stands in memory even when the write failed.
func (db *Database) CommitSale(sale models.Sale) (models.Sale, error) {
	if len(sale.Items) == 0 {
		return models.Sale{}, models.Invalid("sale has no items")
	}
	for _, it := range sale.Items {
		if it.Quantity < 1 {
			return models.Sale{}, &models.ValidationError{Field: "quantity", Message: "must be at least 1"}
		}
	}

	db.mu.Lock()

	wanted := sale.Quantities()
	var shortages []models.StockShortage
	seen := map[int64]bool{}
	for _, it := range sale.Items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true

		i, ok := db.productIdx[it.ProductID]
		if !ok {
			shortages = append(shortages, models.StockShortage{
				ProductID: it.ProductID, Name: it.ProductName, Requested: wanted[it.ProductID],
			})
			continue
		}
		if p := db.products[i]; p.Stock < wanted[it.ProductID] {
			shortages = append(shortages, models.StockShortage{
				ProductID: p.ID, Name: p.Name, Requested: wanted[p.ID], Available: p.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		db.mu.Unlock()
		return models.Sale{}, &models.StockError{Shortages: shortages}
	}

	now := db.now()
	for id, qty := range wanted {
		i := db.productIdx[id]
		db.products[i].Stock -= qty
		db.products[i].UpdatedAt = now
	}

	sale.ID = db.nextID()
	sale.Items = append([]models.SaleItem{}, sale.Items...)
	for i := range sale.Items {
		sale.Items[i].ID = db.nextID()
	}
	sale.CreatedAt = now
	sale.UpdatedAt = now
	db.sales = append(db.sales, sale)
	db.saleIdx[sale.ID] = len(db.sales) - 1

	err := db.persistAll(Products, Sales)
	db.mu.Unlock()

	db.notify(Products, Sales)
	return cloneSale(sale), err
}

// Sales returns every committed sale in commit order.
func (db *Database) Sales() []models.Sale {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]models.Sale, len(db.sales))
	for i, s := range db.sales {
		out[i] = cloneSale(s)
	}
	return out
}

func (db *Database) Sale(id int64) (models.Sale, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	i, ok := db.saleIdx[id]
	if !ok {
		return models.Sale{}, &models.NotFoundError{Entity: "sale", Key: strconv.FormatInt(id, 10)}
	}
	return cloneSale(db.sales[i]), nil
}

// SalesBetween returns the sales created in [start, end], both inclusive.
// A zero bound is open.
func (db *Database) SalesBetween(start, end time.Time) []models.Sale {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := []models.Sale{}
	for _, s := range db.sales {
		if !start.IsZero() && s.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && s.CreatedAt.After(end) {
			continue
		}
		out = append(out, cloneSale(s))
	}
	return out
}

func cloneSale(s models.Sale) models.Sale {
	s.Items = append([]models.SaleItem{}, s.Items...)
	if s.CustomerID != nil {
		id := *s.CustomerID
		s.CustomerID = &id
	}
	return s
}

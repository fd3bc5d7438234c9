package repositories

import (
	"github.com/mercadobetel/pdv/app/models"
)

// Snapshot is a consistent copy of all three collections.
type Snapshot struct {
	Products  []models.Product  `json:"products"`
	Customers []models.Customer `json:"customers"`
	Sales     []models.Sale     `json:"sales"`
}

// Snapshot copies every collection under one read lock.
func (db *Database) Snapshot() Snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	snap := Snapshot{
		Products:  append([]models.Product{}, db.products...),
		Customers: append([]models.Customer{}, db.customers...),
		Sales:     make([]models.Sale, len(db.sales)),
	}
	for i, s := range db.sales {
		snap.Sales[i] = cloneSale(s)
	}
	return snap
}

// Replacement names the collections to swap in. Nil fields are left as they
// are.
type Replacement struct {
	Products  *[]models.Product
	Customers *[]models.Customer
	Sales     *[]models.Sale
}

// Replace swaps whole collections, keeping their ids, then persists them.
// Callers validate the data first.
func (db *Database) Replace(r Replacement) error {
	var changed []string

	db.mu.Lock()
	if r.Products != nil {
		db.products = append([]models.Product{}, (*r.Products)...)
		changed = append(changed, Products)
	}
	if r.Customers != nil {
		db.customers = append([]models.Customer{}, (*r.Customers)...)
		changed = append(changed, Customers)
	}
	if r.Sales != nil {
		db.sales = make([]models.Sale, len(*r.Sales))
		for i, s := range *r.Sales {
			db.sales[i] = cloneSale(s)
		}
		changed = append(changed, Sales)
	}
	db.reindex()
	db.bumpIDs()

	err := db.persistAll(changed...)
	db.mu.Unlock()

	db.notify(changed...)
	return err
}

// Clear empties every collection and deletes their blobs.
func (db *Database) Clear() error {
	db.mu.Lock()
	db.products = nil
	db.customers = nil
	db.sales = nil
	db.reindex()

	var err error
	for _, c := range Collections {
		if derr := db.store.Delete(db.Key(c)); derr != nil && err == nil {
			err = &models.StorageError{Key: db.Key(c), Err: derr}
		}
	}
	db.mu.Unlock()

	db.notify(Collections...)
	return err
}

// Counts returns the number of records per collection.
func (db *Database) Counts() map[string]int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return map[string]int{
		Products:  len(db.products),
		Customers: len(db.customers),
		Sales:     len(db.sales),
	}
}

// Sizes returns the serialized size in bytes of each collection blob.
func (db *Database) Sizes() (map[string]int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make(map[string]int, len(Collections))
	for c, v := range map[string]any{Products: db.products, Customers: db.customers, Sales: db.sales} {
		data, err := marshalCollection(v)
		if err != nil {
			return nil, err
		}
		out[c] = len(data)
	}
	return out, nil
}

// Reload discards the in-memory collections and reads them again from the
// store. On error the current state is kept.
func (db *Database) Reload() error {
	fresh := &Database{store: db.store, prefix: db.prefix}
	for _, c := range []struct {
		name string
		dest any
	}{
		{Products, &fresh.products},
		{Customers, &fresh.customers},
		{Sales, &fresh.sales},
	} {
		if err := fresh.load(c.name, c.dest); err != nil {
			return err
		}
	}

	db.mu.Lock()
	db.products, db.customers, db.sales = fresh.products, fresh.customers, fresh.sales
	db.reindex()
	db.bumpIDs()
	db.mu.Unlock()

	db.notify(Collections...)
	return nil
}

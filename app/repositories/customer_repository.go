package repositories

import (
	"strconv"
	"strings"

	"github.com/mercadobetel/pdv/app/models"
)

func (db *Database) Customers() []models.Customer {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]models.Customer{}, db.customers...)
}

func (db *Database) Customer(id int64) (models.Customer, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	i, ok := db.customerIdx[id]
	if !ok {
		return models.Customer{}, &models.NotFoundError{Entity: "customer", Key: strconv.FormatInt(id, 10)}
	}
	return db.customers[i], nil
}

func (db *Database) CreateCustomer(in models.CustomerInput) (models.Customer, error) {
	var c models.Customer
	in.Apply(&c)
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if err := c.Validate(); err != nil {
		return models.Customer{}, err
	}

	db.mu.Lock()
	c.ID = db.nextID()
	c.CreatedAt = db.now()
	c.UpdatedAt = c.CreatedAt
	db.customers = append(db.customers, c)
	db.customerIdx[c.ID] = len(db.customers) - 1

	err := db.persist(Customers)
	db.mu.Unlock()

	db.notify(Customers)
	return c, err
}

func (db *Database) UpdateCustomer(id int64, patch models.CustomerInput) (models.Customer, error) {
	db.mu.Lock()

	i, ok := db.customerIdx[id]
	if !ok {
		db.mu.Unlock()
		return models.Customer{}, &models.NotFoundError{Entity: "customer", Key: strconv.FormatInt(id, 10)}
	}

	c := db.customers[i]
	patch.Apply(&c)
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if err := c.Validate(); err != nil {
		db.mu.Unlock()
		return models.Customer{}, err
	}
	c.UpdatedAt = db.now()
	db.customers[i] = c

	err := db.persist(Customers)
	db.mu.Unlock()

	db.notify(Customers)
	return c, err
}

// DeleteCustomer removes a customer. Sales keep the name snapshot.
func (db *Database) DeleteCustomer(id int64) error {
	db.mu.Lock()

	i, ok := db.customerIdx[id]
	if !ok {
		db.mu.Unlock()
		return &models.NotFoundError{Entity: "customer", Key: strconv.FormatInt(id, 10)}
	}
	db.customers = append(db.customers[:i:i], db.customers[i+1:]...)
	db.reindex()

	err := db.persist(Customers)
	db.mu.Unlock()

	db.notify(Customers)
	return err
}

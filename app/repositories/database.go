// Package repositories owns the in-memory collections of the PDV and keeps
// them in sync with the configured blob store.
//
// A Database is the single application-state object: products, customers
// and sales, their lookup indexes and the store they persist to. Every
// mutation rewrites the affected collection blob in full.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/pkg/logger"
	"github.com/mercadobetel/pdv/pkg/metrics"
	"github.com/mercadobetel/pdv/pkg/storage"
)

// Collection names. The blob key is the store prefix plus the name.
const (
	Products  = "products"
	Customers = "customers"
	Sales     = "sales"
)

// Collections lists every persisted collection.
var Collections = []string{Products, Customers, Sales}

// Option configures a Database.
type Option func(*Database)

// WithPrefix sets the blob key prefix (default "pdv_").
func WithPrefix(prefix string) Option {
	return func(db *Database) { db.prefix = prefix }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(db *Database) { db.now = now }
}

// WithOnChange registers a hook fired after every mutation with the name of
// each collection that changed.
func WithOnChange(fn func(collection string)) Option {
	return func(db *Database) { db.hooks = append(db.hooks, fn) }
}

// Database is the explicit application state.
type Database struct {
	mu     sync.RWMutex
	store  storage.Store
	prefix string
	now    func() time.Time
	lastID int64

	hookMu sync.RWMutex
	hooks  []func(string)

	products   []models.Product
	productIdx map[int64]int
	barcodeIdx map[string]int64

	customers   []models.Customer
	customerIdx map[int64]int

	sales   []models.Sale
	saleIdx map[int64]int
}

// Open loads the three collections from store. A missing blob is an empty
// collection; a blob that does not decode fails with MalformedDataError and
// is left untouched.
func Open(store storage.Store, opts ...Option) (*Database, error) {
	db := &Database{
		store:  store,
		prefix: "pdv_",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.load(Products, &db.products); err != nil {
		return nil, err
	}
	if err := db.load(Customers, &db.customers); err != nil {
		return nil, err
	}
	if err := db.load(Sales, &db.sales); err != nil {
		return nil, err
	}

	db.reindex()
	db.bumpIDs()

	logger.Info("repositories: database opened",
		"products", len(db.products),
		"customers", len(db.customers),
		"sales", len(db.sales),
	)
	return db, nil
}

// OnChange registers another change hook after Open.
func (db *Database) OnChange(fn func(collection string)) {
	db.hookMu.Lock()
	db.hooks = append(db.hooks, fn)
	db.hookMu.Unlock()
}

// Key returns the blob key of a collection.
func (db *Database) Key(collection string) string {
	return db.prefix + collection
}

// Now returns the database clock.
func (db *Database) Now() time.Time { return db.now() }

func (db *Database) load(collection string, dest any) error {
	key := db.Key(collection)
	data, err := db.store.Get(key)
	if errors.Is(err, storage.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("repositories: read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &models.MalformedDataError{Source: key, Err: err}
	}
	return nil
}

func (db *Database) reindex() {
	db.productIdx = make(map[int64]int, len(db.products))
	db.barcodeIdx = make(map[string]int64, len(db.products))
	for i, p := range db.products {
		db.productIdx[p.ID] = i
		if p.Barcode != "" {
			db.barcodeIdx[p.Barcode] = p.ID
		}
	}

	db.customerIdx = make(map[int64]int, len(db.customers))
	for i, c := range db.customers {
		db.customerIdx[c.ID] = i
	}

	db.saleIdx = make(map[int64]int, len(db.sales))
	for i, s := range db.sales {
		db.saleIdx[s.ID] = i
	}
}

// bumpIDs makes sure new ids never collide with loaded or imported ones.
func (db *Database) bumpIDs() {
	for _, p := range db.products {
		db.lastID = max(db.lastID, p.ID)
	}
	for _, c := range db.customers {
		db.lastID = max(db.lastID, c.ID)
	}
	for _, s := range db.sales {
		db.lastID = max(db.lastID, s.ID)
		for _, it := range s.Items {
			db.lastID = max(db.lastID, it.ID)
		}
	}
}

// nextID returns a millisecond timestamp id, strictly greater than every id
// handed out or loaded before. Caller holds the write lock.
func (db *Database) nextID() int64 {
	id := db.now().UnixMilli()
	if id <= db.lastID {
		id = db.lastID + 1
	}
	db.lastID = id
	return id
}

// persist writes one collection. Caller holds the lock.
func (db *Database) persist(collection string) error {
	key := db.Key(collection)

	var v any
	switch collection {
	case Products:
		v = db.products
	case Customers:
		v = db.customers
	case Sales:
		v = db.sales
	default:
		return fmt.Errorf("repositories: unknown collection %q", collection)
	}

	data, err := marshalCollection(v)
	if err == nil {
		err = db.store.Put(key, data)
	}
	if err != nil {
		metrics.StorageWrite(key, false)
		logger.Error("repositories: persist failed; change kept in memory only", "key", key, "error", err)
		return &models.StorageError{Key: key, Err: err}
	}
	metrics.StorageWrite(key, true)
	return nil
}

// persistAll writes each collection and joins the failures.
func (db *Database) persistAll(collections ...string) error {
	var errs []error
	for _, c := range collections {
		if err := db.persist(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (db *Database) notify(collections ...string) {
	db.hookMu.RLock()
	hooks := append([]func(string){}, db.hooks...)
	db.hookMu.RUnlock()

	for _, c := range collections {
		for _, fn := range hooks {
			fn(c)
		}
	}
}

// marshalCollection encodes nil slices as [] so blobs are always lists.
func marshalCollection(v any) ([]byte, error) {
	switch c := v.(type) {
	case []models.Product:
		if c == nil {
			c = []models.Product{}
		}
		return json.Marshal(c)
	case []models.Customer:
		if c == nil {
			c = []models.Customer{}
		}
		return json.Marshal(c)
	case []models.Sale:
		if c == nil {
			c = []models.Sale{}
		}
		return json.Marshal(c)
	}
	return json.Marshal(v)
}

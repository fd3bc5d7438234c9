package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/pkg/logger"
	"github.com/mercadobetel/pdv/pkg/metrics"
	"github.com/mercadobetel/pdv/pkg/storage"
)

// BackupVersion is written into every export document.
const BackupVersion = "1.0.0"

// ConfirmPhrase must be typed to clear all data.
const ConfirmPhrase = "CONFIRMAR"

// BackupPrefix is where scheduled backups are written in the backup store.
const BackupPrefix = "backups/"

// Document is the export/import format.
type Document struct {
	Products   []models.Product  `json:"products"`
	Customers  []models.Customer `json:"customers"`
	Sales      []models.Sale     `json:"sales"`
	ExportDate time.Time         `json:"exportDate"`
	Version    string            `json:"version"`
}

// Confirmation guards ClearAll.
type Confirmation struct {
	FirstConfirm  bool   `json:"first_confirm"`
	SecondConfirm bool   `json:"second_confirm"`
	Phrase        string `json:"phrase"`
}

// StorageInfo describes what is persisted.
type StorageInfo struct {
	Driver     string         `json:"driver"`
	Keys       map[string]int `json:"keys"`
	Products   int            `json:"products"`
	Customers  int            `json:"customers"`
	Sales      int            `json:"sales"`
	TotalBytes int            `json:"total_bytes"`
	TotalSize  string         `json:"total_size"`
}

// BackupService exports, imports and clears the whole dataset.
type BackupService struct {
	db     *repositories.Database
	driver string
	now    func() time.Time
}

func NewBackupService(db *repositories.Database, driver string, now func() time.Time) *BackupService {
	if now == nil {
		now = time.Now
	}
	return &BackupService{db: db, driver: driver, now: now}
}

// Export renders every collection as an indented JSON document.
func (s *BackupService) Export() ([]byte, error) {
	snap := s.db.Snapshot()
	doc := Document{
		Products:   snap.Products,
		Customers:  snap.Customers,
		Sales:      snap.Sales,
		ExportDate: s.now(),
		Version:    BackupVersion,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("backup: encode: %w", err)
	}
	return data, nil
}

// Import replaces the collections present in data. Everything is decoded
// and checked before anything is applied; absent collections are left as
// they are.
func (s *BackupService) Import(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return &models.MalformedDataError{Source: "backup", Err: err}
	}
	if raw == nil {
		return &models.MalformedDataError{Source: "backup", Err: errors.New("document must be a JSON object")}
	}

	var rep repositories.Replacement
	if msg, ok := present(raw, "products"); ok {
		var products []models.Product
		if err := json.Unmarshal(msg, &products); err != nil {
			return &models.MalformedDataError{Source: "backup products", Err: err}
		}
		if err := checkProducts(products); err != nil {
			return &models.MalformedDataError{Source: "backup products", Err: err}
		}
		rep.Products = &products
	}
	if msg, ok := present(raw, "customers"); ok {
		var customers []models.Customer
		if err := json.Unmarshal(msg, &customers); err != nil {
			return &models.MalformedDataError{Source: "backup customers", Err: err}
		}
		if err := checkCustomers(customers); err != nil {
			return &models.MalformedDataError{Source: "backup customers", Err: err}
		}
		rep.Customers = &customers
	}
	if msg, ok := present(raw, "sales"); ok {
		var sales []models.Sale
		if err := json.Unmarshal(msg, &sales); err != nil {
			return &models.MalformedDataError{Source: "backup sales", Err: err}
		}
		if err := checkSales(sales); err != nil {
			return &models.MalformedDataError{Source: "backup sales", Err: err}
		}
		rep.Sales = &sales
	}

	if rep.Products == nil && rep.Customers == nil && rep.Sales == nil {
		return &models.MalformedDataError{Source: "backup", Err: errors.New("no products, customers or sales found")}
	}
	return s.db.Replace(rep)
}

func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	msg, ok := raw[key]
	if !ok || string(bytes.TrimSpace(msg)) == "null" {
		return nil, false
	}
	return msg, true
}

func checkProducts(products []models.Product) error {
	if err := checkIDs(len(products), func(i int) int64 { return products[i].ID }); err != nil {
		return err
	}
	barcodes := make(map[string]int64, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("product %d: %w", p.ID, err)
		}
		if other, dup := barcodes[p.Barcode]; dup {
			return fmt.Errorf("products %d and %d share barcode %s", other, p.ID, p.Barcode)
		}
		barcodes[p.Barcode] = p.ID
	}
	return nil
}

func checkCustomers(customers []models.Customer) error {
	if err := checkIDs(len(customers), func(i int) int64 { return customers[i].ID }); err != nil {
		return err
	}
	for _, c := range customers {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("customer %d: %w", c.ID, err)
		}
	}
	return nil
}

// checkSales holds every sale to total = Σ item totals − discount ≥ 0.
func checkSales(sales []models.Sale) error {
	if err := checkIDs(len(sales), func(i int) int64 { return sales[i].ID }); err != nil {
		return err
	}
	for _, sale := range sales {
		if len(sale.Items) == 0 {
			return fmt.Errorf("sale %d has no items", sale.ID)
		}
		for _, it := range sale.Items {
			if it.Quantity < 1 || it.UnitPrice.IsNegative() || it.TotalPrice.IsNegative() {
				return fmt.Errorf("sale %d has an invalid item for product %d", sale.ID, it.ProductID)
			}
		}
		if sale.Discount.IsNegative() {
			return fmt.Errorf("sale %d has a negative discount", sale.ID)
		}
		if sale.TotalAmount.IsNegative() {
			return fmt.Errorf("sale %d has a negative total", sale.ID)
		}
		if want := sale.Subtotal().Sub(sale.Discount); !sale.TotalAmount.Equal(want) {
			return fmt.Errorf("sale %d total %s does not match items minus discount %s",
				sale.ID, sale.TotalAmount.StringFixed(2), want.StringFixed(2))
		}
	}
	return nil
}

func checkIDs(n int, id func(int) int64) error {
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if v == 0 {
			return fmt.Errorf("record %d has no id", i)
		}
		if seen[v] {
			return fmt.Errorf("duplicate id %d", v)
		}
		seen[v] = true
	}
	return nil
}

// ClearAll erases every collection, in memory and in the store. It needs
// both confirmations and the typed phrase.
func (s *BackupService) ClearAll(c Confirmation) error {
	if !c.FirstConfirm || !c.SecondConfirm {
		return &models.ValidationError{Field: "confirmation", Message: "both confirmations are required"}
	}
	if strings.TrimSpace(c.Phrase) != ConfirmPhrase {
		return &models.ValidationError{Field: "phrase", Message: fmt.Sprintf("type %s to confirm", ConfirmPhrase)}
	}
	logger.Warn("backup: clearing all data")
	return s.db.Clear()
}

// Info reports record counts and the serialized size of the collections.
func (s *BackupService) Info() (StorageInfo, error) {
	sizes, err := s.db.Sizes()
	if err != nil {
		return StorageInfo{}, err
	}
	counts := s.db.Counts()

	info := StorageInfo{
		Driver:    s.driver,
		Keys:      make(map[string]int, len(sizes)),
		Products:  counts[repositories.Products],
		Customers: counts[repositories.Customers],
		Sales:     counts[repositories.Sales],
	}
	for c, n := range sizes {
		info.Keys[s.db.Key(c)] = n
		info.TotalBytes += n
	}
	info.TotalSize = fmt.Sprintf("%.2f KB", float64(info.TotalBytes)/1024)
	return info, nil
}

// BackupName is the key a backup taken at t is stored under.
func BackupName(t time.Time) string {
	return fmt.Sprintf("%spdv-backup-%s.json", BackupPrefix, t.Format(time.DateOnly))
}

// WriteBackup exports into dst under the dated backup key.
func (s *BackupService) WriteBackup(dst storage.Store) (string, error) {
	data, err := s.Export()
	if err != nil {
		return "", err
	}
	key := BackupName(s.now())
	if err := dst.Put(key, data); err != nil {
		metrics.BackupRun(false)
		return "", &models.StorageError{Key: key, Err: err}
	}
	metrics.BackupRun(true)
	logger.Info("backup: written", "key", key, "bytes", len(data))
	return key, nil
}

// Backups lists the backups held in dst.
func (s *BackupService) Backups(dst storage.Store) ([]string, error) {
	return dst.Keys(BackupPrefix)
}

// Reload re-reads every collection from the primary store.
func (s *BackupService) Reload() error {
	return s.db.Reload()
}

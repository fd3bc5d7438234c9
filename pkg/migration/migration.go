// Package migration runs the schema migrations for the SQL blob store.
//
// Usage (in database/migrations):
//
//	func init() {
//	    migration.Register("20260101000000_create_pdv_blobs_table", &CreateBlobsTable{})
//	}
//
// Run from CLI:
//
//	pdv migrate             // run all pending
//	pdv migrate --rollback  // rollback last batch
package migration

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mercadobetel/pdv/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// ErrNoMigrations is returned when Run is called but no migrations are registered.
var ErrNoMigrations = errors.New("no migrations registered")

// migrationRecord is the GORM model stored in the tracking table.
type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:191;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "pdv_migrations" }

type registeredMigration struct {
	name string
	m    Migration
}

var registry []registeredMigration

// Register adds a migration to the global registry. Names are
// timestamp-prefixed so they sort chronologically.
func Register(name string, m Migration) {
	registry = append(registry, registeredMigration{name: name, m: m})
}

// Status is one line of `pdv migrate --status`.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner executes and tracks migrations.
type Runner struct {
	db         *gorm.DB
	migrations []registeredMigration
}

// New creates a Runner over the globally registered migrations.
func New(db *gorm.DB) *Runner {
	return &Runner{db: db, migrations: registry}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&migrationRecord{})
}

func (r *Runner) pending() ([]registeredMigration, error) {
	var ran []migrationRecord
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, err
	}

	ranSet := make(map[string]bool, len(ran))
	for _, rec := range ran {
		ranSet[rec.Name] = true
	}

	var pending []registeredMigration
	for _, reg := range r.migrations {
		if !ranSet[reg.name] {
			pending = append(pending, reg)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].name < pending[j].name
	})
	return pending, nil
}

// Run executes all pending migrations in a single batch and returns the
// names that ran.
func (r *Runner) Run() ([]string, error) {
	if len(r.migrations) == 0 {
		return nil, ErrNoMigrations
	}
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	pending, err := r.pending()
	if err != nil {
		return nil, fmt.Errorf("migration: fetch pending: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("migration: nothing to migrate")
		return nil, nil
	}

	batch := r.nextBatch()
	var ran []string
	for _, reg := range pending {
		logger.Info("migration: running", "name", reg.name, "batch", batch)
		if err := reg.m.Up(r.db); err != nil {
			return ran, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.db.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error; err != nil {
			return ran, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		ran = append(ran, reg.name)
	}

	logger.Info("migration: done", "ran", len(ran), "batch", batch)
	return ran, nil
}

// Rollback reverses all migrations from the most recent batch and returns
// the names rolled back.
func (r *Runner) Rollback() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	last := r.nextBatch() - 1
	if last == 0 {
		return nil, nil
	}

	var records []migrationRecord
	if err := r.db.Where("batch = ?", last).Order("id desc").Find(&records).Error; err != nil {
		return nil, err
	}

	known := make(map[string]Migration, len(r.migrations))
	for _, reg := range r.migrations {
		known[reg.name] = reg.m
	}

	var rolled []string
	for _, rec := range records {
		m, ok := known[rec.Name]
		if !ok {
			return rolled, fmt.Errorf("migration: cannot rollback %s: not registered", rec.Name)
		}
		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(r.db); err != nil {
			return rolled, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return rolled, err
		}
		rolled = append(rolled, rec.Name)
	}
	return rolled, nil
}

// Status lists every registered migration and whether it has run.
func (r *Runner) Status() ([]Status, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}

	var ran []migrationRecord
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]migrationRecord, len(ran))
	for _, rec := range ran {
		byName[rec.Name] = rec
	}

	out := make([]Status, 0, len(r.migrations))
	for _, reg := range r.migrations {
		rec, ok := byName[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Runner) nextBatch() int {
	var maxBatch struct{ Max int }
	r.db.Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&maxBatch)
	return maxBatch.Max + 1
}

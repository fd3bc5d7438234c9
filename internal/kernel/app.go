// Package kernel wires the stores, repositories, services and controllers
// into one application and builds its HTTP handler.
package kernel

import (
	"fmt"
	"time"

	"github.com/mercadobetel/pdv/app/controllers"
	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/app/services"
	"github.com/mercadobetel/pdv/config"
	"github.com/mercadobetel/pdv/pkg/event"
	"github.com/mercadobetel/pdv/pkg/sse"
	"github.com/mercadobetel/pdv/pkg/storage"
	"github.com/mercadobetel/pdv/pkg/ws"
)

// App is one running PDV: the database and everything that serves it.
type App struct {
	Store       storage.Store
	BackupStore storage.Store
	DB          *repositories.Database
	Bus         *event.Bus
	Hub         *ws.Hub
	Events      *sse.Broker
	Registers   *services.Registers
	Reports     *services.ReportService
	Sheets      *services.SpreadsheetService
	Backups     *services.BackupService
	Now         func() time.Time
}

// Options selects the stores and tunables of an App.
type Options struct {
	Driver            string
	Store             storage.Store
	BackupStore       storage.Store
	Prefix            string
	LowStockThreshold int
	Now               func() time.Time
}

// OptionsFromConfig reads the store drivers and tunables from config.
func OptionsFromConfig() (Options, error) {
	driver := config.StoreDriver()
	st, err := storage.Open(driver)
	if err != nil {
		return Options{}, fmt.Errorf("kernel: open %s store: %w", driver, err)
	}

	backup := st
	if bd := config.BackupDriver(); bd != "" && bd != driver {
		if backup, err = storage.Open(bd); err != nil {
			return Options{}, fmt.Errorf("kernel: open %s backup store: %w", bd, err)
		}
	}

	return Options{
		Driver:            driver,
		Store:             st,
		BackupStore:       backup,
		Prefix:            config.StorePrefix(),
		LowStockThreshold: config.LowStockThreshold(),
	}, nil
}

// New opens the database and builds the services around it. Every data
// change is fired on the bus as a change event.
func New(opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("kernel: no store")
	}
	if opts.BackupStore == nil {
		opts.BackupStore = opts.Store
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Prefix == "" {
		opts.Prefix = "pdv_"
	}

	bus := event.NewBus()
	db, err := repositories.Open(opts.Store,
		repositories.WithPrefix(opts.Prefix),
		repositories.WithClock(opts.Now),
		repositories.WithOnChange(func(collection string) {
			bus.FireAsync(event.Event{Type: event.KindChange, Name: collection})
		}),
	)
	if err != nil {
		return nil, err
	}

	reports := services.NewReportService(db, opts.LowStockThreshold)
	hub := ws.NewHub()
	controllers.Broadcast(bus, hub)
	events := sse.NewBroker()
	bus.Listen("*", func(ev event.Event) { events.Publish(ev.Type, ev) })

	return &App{
		Store:       opts.Store,
		BackupStore: opts.BackupStore,
		DB:          db,
		Bus:         bus,
		Hub:         hub,
		Events:      events,
		Registers:   services.NewRegisters(db, db, opts.Now),
		Reports:     reports,
		Sheets:      services.NewSpreadsheetService(db, reports, opts.Now),
		Backups:     services.NewBackupService(db, opts.Driver, opts.Now),
		Now:         opts.Now,
	}, nil
}

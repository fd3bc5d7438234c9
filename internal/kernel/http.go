package kernel

import (
	"net/http"

	"github.com/mercadobetel/pdv/app/controllers"
	"github.com/mercadobetel/pdv/app/routes"
	"github.com/mercadobetel/pdv/config"
	"github.com/mercadobetel/pdv/pkg/metrics"
	"github.com/mercadobetel/pdv/pkg/middleware"
	"github.com/mercadobetel/pdv/pkg/reqid"
	"github.com/mercadobetel/pdv/pkg/response"
	"github.com/mercadobetel/pdv/pkg/router"
)

// Router builds the routes of a, with the global middleware stack.
func (a *App) Router() (*router.Router, error) {
	schema, err := controllers.NewGraphQLSchema(a.DB, a.Reports)
	if err != nil {
		return nil, err
	}
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics: outermost for accurate total latency
	//  2. Recovery: catches panics before they kill the goroutine
	//  3. Request ID: inject unique ID before anything logs
	//  4. Logger: logs request_id from context
	//  5. CORS: set CORS headers
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]interface{}{
			"status":     "ok",
			"name":       config.AppName(),
			"version":    config.AppVersion(),
			"ws_clients": a.Hub.ClientCount(),
		})
	})
	r.Handle("/ws", "ws", a.Hub)
	r.Get("/api/events", "events", a.Events.ServeHTTP)

	routes.RegisterAPI(r, routes.Controllers{
		Products:  controllers.NewProductController(a.DB),
		Customers: controllers.NewCustomerController(a.DB),
		Sales:     controllers.NewSaleController(a.DB),
		Checkout:  controllers.NewCheckoutController(a.Registers),
		Reports:   controllers.NewReportController(a.Reports, a.Sheets, a.Now),
		Backup:    controllers.NewBackupController(a.Backups, a.BackupStore, a.Now),
		Shell: controllers.NewShellController(a.Bus, a.Registers, controllers.About{
			Name:    config.AppName(),
			Version: config.AppVersion(),
		}),
		GraphQL: controllers.NewGraphQLController(schema),
	})

	return r, nil
}

// Handler builds the HTTP handler of a.
func (a *App) Handler() (http.Handler, error) {
	r, err := a.Router()
	if err != nil {
		return nil, err
	}
	return r.Handler(), nil
}

package routes

import (
	"github.com/mercadobetel/pdv/app/controllers"
	"github.com/mercadobetel/pdv/pkg/router"
)

// Controllers are the handlers mounted under /api.
type Controllers struct {
	Products  *controllers.ProductController
	Customers *controllers.CustomerController
	Sales     *controllers.SaleController
	Checkout  *controllers.CheckoutController
	Reports   *controllers.ReportController
	Backup    *controllers.BackupController
	Shell     *controllers.ShellController
	GraphQL   *controllers.GraphQLController
}

func RegisterAPI(r *router.Router, c Controllers) {
	api := r.Group("/api")

	products := api.Group("/products")
	products.Get("", "products.index", c.Products.Index)
	products.Post("", "products.store", c.Products.Store)
	products.Post("/import", "products.import", c.Reports.ImportProducts)
	products.Get("/barcode/{barcode}", "products.barcode", c.Products.ShowByBarcode)
	products.Get("/{id}", "products.show", c.Products.Show)
	products.Put("/{id}", "products.update", c.Products.Update)
	products.Delete("/{id}", "products.destroy", c.Products.Destroy)

	customers := api.Group("/customers")
	customers.Get("", "customers.index", c.Customers.Index)
	customers.Post("", "customers.store", c.Customers.Store)
	customers.Get("/{id}", "customers.show", c.Customers.Show)
	customers.Put("/{id}", "customers.update", c.Customers.Update)
	customers.Delete("/{id}", "customers.destroy", c.Customers.Destroy)

	api.Get("/sales", "sales.index", c.Sales.Index)
	api.Get("/sales/{id}", "sales.show", c.Sales.Show)

	api.Get("/registers", "registers.index", c.Checkout.Registers)
	api.Post("/registers", "registers.open", c.Checkout.Open)

	cart := api.Group("/registers/{register}/cart")
	cart.Get("", "cart.show", c.Checkout.Cart)
	cart.Delete("", "cart.clear", c.Checkout.Clear)
	cart.Post("/lines", "cart.lines.store", c.Checkout.AddLine)
	cart.Put("/lines/{product}", "cart.lines.update", c.Checkout.UpdateLine)
	cart.Delete("/lines/{product}", "cart.lines.destroy", c.Checkout.RemoveLine)
	cart.Put("/discount", "cart.discount.update", c.Checkout.ApplyDiscount)
	cart.Delete("/discount", "cart.discount.destroy", c.Checkout.ClearDiscount)
	cart.Put("/customer", "cart.customer.update", c.Checkout.SelectCustomer)
	cart.Delete("/customer", "cart.customer.destroy", c.Checkout.ClearCustomer)
	cart.Post("/checkout", "cart.checkout.begin", c.Checkout.Begin)
	cart.Delete("/checkout", "cart.checkout.cancel", c.Checkout.Cancel)
	cart.Put("/payment", "cart.payment", c.Checkout.Payment)
	cart.Post("/commit", "cart.commit", c.Checkout.Commit)

	reports := api.Group("/reports")
	reports.Get("/dashboard", "reports.dashboard", c.Reports.Dashboard)
	reports.Get("/sales", "reports.sales", c.Reports.Sales)
	reports.Get("/stock", "reports.stock", c.Reports.Stock)
	reports.Get("/categories", "reports.categories", c.Reports.Categories)
	reports.Get("/margins", "reports.margins", c.Reports.Margins)
	reports.Get("/customers", "reports.customers", c.Reports.Customers)
	reports.Get("/sales.xlsx", "reports.sales.xlsx", c.Reports.SalesWorkbook)
	reports.Get("/products.xlsx", "reports.products.xlsx", c.Reports.ProductsWorkbook)
	reports.Get("/customers.xlsx", "reports.customers.xlsx", c.Reports.CustomersWorkbook)

	backup := api.Group("/backup")
	backup.Get("", "backup.export", c.Backup.Export)
	backup.Post("", "backup.import", c.Backup.Import)
	backup.Post("/clear", "backup.clear", c.Backup.Clear)
	backup.Get("/info", "backup.info", c.Backup.Info)
	backup.Post("/reload", "backup.reload", c.Backup.Reload)
	backup.Get("/files", "backup.files", c.Backup.List)
	backup.Post("/files", "backup.snapshot", c.Backup.Snapshot)

	api.Post("/shell/intents/{intent}", "shell.intent", c.Shell.Intent)
	api.Post("/graphql", "graphql", c.GraphQL.Query)
}

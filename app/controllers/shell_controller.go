package controllers

import (
	"net/http"
	"strings"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/services"
	"github.com/mercadobetel/pdv/pkg/event"
	"github.com/mercadobetel/pdv/pkg/logger"
	"github.com/mercadobetel/pdv/pkg/response"
	"github.com/mercadobetel/pdv/pkg/router"
)

// Menu intents the desktop shell can send.
const (
	IntentNewSale     = "new-sale"
	IntentBackup      = "backup"
	IntentProducts    = "products"
	IntentCustomers   = "customers"
	IntentSalesReport = "sales-report"
	IntentStockReport = "stock-report"
	IntentAbout       = "about"
)

var intents = map[string]bool{
	IntentNewSale: true, IntentBackup: true, IntentProducts: true, IntentCustomers: true,
	IntentSalesReport: true, IntentStockReport: true, IntentAbout: true,
}

// Publisher pushes a message to connected UI clients.
type Publisher interface {
	Publish(v any)
}

// About identifies the application.
type About struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ShellController turns shell menu intents into bus events.
type ShellController struct {
	bus       *event.Bus
	registers *services.Registers
	about     About
}

// NewShellController registers the intent listeners on bus. new-sale clears
// the register's cart.
func NewShellController(bus *event.Bus, registers *services.Registers, about About) *ShellController {
	bus.Listen(event.Topic(event.KindIntent, IntentNewSale), func(ev event.Event) {
		if err := registers.Clear(ev.Register); err != nil {
			logger.Warn("shell: new-sale", "register", ev.Register, "error", err)
		}
	})
	return &ShellController{bus: bus, registers: registers, about: about}
}

// Broadcast forwards every bus event to the UI clients.
func Broadcast(bus *event.Bus, pub Publisher) {
	bus.Listen("*", func(ev event.Event) { pub.Publish(ev) })
}

// Intent fires POST /api/shell/intents/{intent}; ?register= names the till.
func (c *ShellController) Intent(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(router.Param(r, "intent"))
	if !intents[name] {
		response.FromError(w, &models.NotFoundError{Entity: "intent", Key: name})
		return
	}

	reg := strings.TrimSpace(r.URL.Query().Get("register"))
	if reg == "" {
		reg = services.DefaultRegister
	}
	c.bus.Fire(event.Event{Type: event.KindIntent, Name: name, Register: reg})

	switch name {
	case IntentAbout:
		response.Success(w, c.about)
	case IntentNewSale:
		sum, err := c.registers.Summary(reg)
		if err != nil {
			response.FromError(w, err)
			return
		}
		response.Success(w, sum)
	default:
		response.Success(w, map[string]string{"intent": name, "register": reg})
	}
}

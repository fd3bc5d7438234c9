package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mercadobetel/pdv/app/models"
)

// DefaultRegister is the register used when a client does not name one.
const DefaultRegister = "main"

type register struct {
	mu      sync.Mutex
	session *Session
}

// Registers holds one checkout session per register id, each guarded by its
// own mutex. A register exists once it is opened or written to; the default
// register always exists.
type Registers struct {
	catalog Catalog
	ledger  Ledger
	now     func() time.Time

	mu   sync.Mutex
	regs map[string]*register
}

// NewRegisters returns a register set holding only DefaultRegister.
func NewRegisters(catalog Catalog, ledger Ledger, now func() time.Time) *Registers {
	if now == nil {
		now = time.Now
	}
	r := &Registers{catalog: catalog, ledger: ledger, now: now, regs: map[string]*register{}}
	r.regs[DefaultRegister] = r.newRegister()
	return r
}

// NewRegisterID mints an id for a new register.
func NewRegisterID() string { return uuid.NewString() }

func (r *Registers) newRegister() *register {
	return &register{session: NewSession(r.catalog, r.ledger, WithSessionClock(r.now))}
}

// get looks up register id, creating it when create is set.
func (r *Registers) get(id string, create bool) (*register, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &models.ValidationError{Field: "register", Message: "is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		if !create {
			return nil, &models.NotFoundError{Entity: "register", Key: id}
		}
		reg = r.newRegister()
		r.regs[id] = reg
	}
	return reg, nil
}

// Open makes sure register id exists and returns its cart.
func (r *Registers) Open(id string) (Summary, error) {
	reg, err := r.get(id, true)
	if err != nil {
		return Summary{}, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.session.Summary(), nil
}

// Do runs fn with exclusive access to the session of register id, opening
// the register if needed.
func (r *Registers) Do(id string, fn func(*Session) error) error {
	reg, err := r.get(id, true)
	if err != nil {
		return err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return fn(reg.session)
}

// Summary reads one register. Unknown ids are NotFound.
func (r *Registers) Summary(id string) (Summary, error) {
	reg, err := r.get(id, false)
	if err != nil {
		return Summary{}, err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.session.Summary(), nil
}

// Clear resets one register.
func (r *Registers) Clear(id string) error {
	return r.Do(id, func(s *Session) error {
		s.Clear()
		return nil
	})
}

// IDs lists the registers opened so far.
func (r *Registers) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.regs))
	for id := range r.regs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

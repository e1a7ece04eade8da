package session

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voyager-commerce/storefront/internal/auth"
	"github.com/voyager-commerce/storefront/internal/cart"
	"github.com/voyager-commerce/storefront/internal/checkout"
	"github.com/voyager-commerce/storefront/internal/guest"
)

// HeaderName carries the session id between the UI and the service.
const HeaderName = "X-Session-ID"

var ErrNoSession = errors.New("no session")

// Session is one shopper's context: their cart engine and checkout wizard
// share a lifetime and are torn down together.
type Session struct {
	ID        string           `json:"id"`
	Cart      *cart.Engine     `json:"-"`
	Checkout  *checkout.Wizard `json:"-"`
	CreatedAt time.Time        `json:"created_at"`
}

// Manager owns the live sessions. It implements cart.Sessions and
// checkout.Sessions for the handlers.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	gw       cart.Gateway
	store    guest.Store
}

func NewManager(gw cart.Gateway, store guest.Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		gw:       gw,
		store:    store,
	}
}

// Start creates a fresh session. A token persisted from an earlier login is
// restored so a returning shopper stays signed in.
func (m *Manager) Start() *Session {
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		Cart:      cart.NewEngine(m.gw, m.store, id),
		Checkout:  checkout.NewWizard(),
		CreatedAt: time.Now().UTC(),
	}
	if token, ok := m.store.Get(id, guest.TokenKey); ok {
		s.Cart.SetToken(token)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

// Resume returns a known session or restores one for the given id. Ids are
// client-generated on reconnect, so an unknown id gets a session rebuilt
// around whatever the guest store still holds for it.
func (m *Manager) Resume(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	s = &Session{
		ID:        id,
		Cart:      cart.NewEngine(m.gw, m.store, id),
		Checkout:  checkout.NewWizard(),
		CreatedAt: time.Now().UTC(),
	}
	if token, ok := m.store.Get(id, guest.TokenKey); ok {
		s.Cart.SetToken(token)
	}

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		s = existing
	} else {
		m.sessions[id] = s
	}
	m.mu.Unlock()
	return s
}

// Login attaches a bearer token to the session and merges any guest cart
// into the user's server-side cart.
func (m *Manager) Login(c *fiber.Ctx, token string) (*Session, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}
	s := m.resolve(c)
	s.Cart.SetToken(token)
	m.store.Set(s.ID, guest.TokenKey, token)
	if err := s.Cart.MergeGuestIntoUser(c.Context()); err != nil {
		return nil, err
	}
	return s, nil
}

// End tears the session down: the token is forgotten and the checkout
// wizard discarded. Guest cart contents persist for the next visit.
func (m *Manager) End(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Cart.SetToken("")
	m.store.Remove(id, guest.TokenKey)
	s.Checkout.Reset()
}

// resolve finds the request's session, starting one when the header is
// missing. The id is echoed back so the UI can persist it.
func (m *Manager) resolve(c *fiber.Ctx) *Session {
	var s *Session
	if id := c.Get(HeaderName); id != "" {
		s = m.Resume(id)
	} else {
		s = m.Start()
	}
	c.Set(HeaderName, s.ID)

	// a verified JWT on the request supersedes any stored token
	if c.Locals("user") != nil {
		if token := auth.BearerToken(c); token != "" {
			s.Cart.SetToken(token)
		}
	}
	return s
}

// Engine implements cart.Sessions.
func (m *Manager) Engine(c *fiber.Ctx) (*cart.Engine, error) {
	return m.resolve(c).Cart, nil
}

// Wizard implements checkout.Sessions.
func (m *Manager) Wizard(c *fiber.Ctx) (*checkout.Wizard, error) {
	return m.resolve(c).Checkout, nil
}

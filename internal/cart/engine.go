package cart

import (
	"context"
	"sync"

	"github.com/voyager-commerce/storefront/internal/guest"
	"github.com/voyager-commerce/storefront/internal/pricing"
)

// Engine reconciles one shopper's cart. It holds exactly one of two
// representations: a server-backed Cart when a token is attached, or a
// locally persisted guest item list otherwise.
//
// Authenticated mutations treat the server response as the sole source of
// truth and replace local state wholesale. Guest mutations are the inverse:
// the engine is authoritative and persists after every change.
//
// A single mutex serializes all operations for the session, so a later
// mutation can never start before an earlier one's response is applied.
type Engine struct {
	mu        sync.Mutex
	gw        Gateway
	store     guest.Store
	sessionID string

	token     string
	cart      *Cart
	guestCart []guest.Item
	promo     *PromoCode
	quote     *ShippingTaxInfo

	// gen counts cart mutations; a quote fetched for an older generation
	// is never adopted
	gen uint64
}

// State is the engine's renderable snapshot.
type State struct {
	Cart        *Cart            `json:"cart"`
	GuestCart   []GuestCartItem  `json:"guest_cart"`
	PromoCode   *PromoCode       `json:"promo_code,omitempty"`
	ShippingTax *ShippingTaxInfo `json:"shipping_tax,omitempty"`
}

// NewEngine builds an engine for one session, recovering any guest cart the
// store has persisted for it.
func NewEngine(gw Gateway, store guest.Store, sessionID string) *Engine {
	return &Engine{
		gw:        gw,
		store:     store,
		sessionID: sessionID,
		guestCart: guest.LoadCart(store, sessionID),
	}
}

// SetToken attaches or replaces the bearer token. Clearing the token drops
// the server-backed cart and returns the engine to guest mode.
func (e *Engine) SetToken(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if token == e.token {
		return
	}
	e.token = token
	if token == "" {
		e.cart = nil
		e.guestCart = guest.LoadCart(e.store, e.sessionID)
	}
}

func (e *Engine) Authenticated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token != ""
}

// Refresh re-reads the authoritative cart: the server's for authenticated
// sessions, the guest store's otherwise.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token == "" {
		e.guestCart = guest.LoadCart(e.store, e.sessionID)
		return nil
	}
	c, err := e.gw.GetCart(ctx, e.token)
	if err != nil {
		return err
	}
	e.cart = &c
	return nil
}

// Sync fetches the server cart for an authenticated session that has not
// loaded it yet, as happens when a session is resumed with a restored
// token. Guest sessions and already-loaded carts are left alone.
func (e *Engine) Sync(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token == "" || e.cart != nil {
		return nil
	}
	c, err := e.gw.GetCart(ctx, e.token)
	if err != nil {
		return err
	}
	e.cart = &c
	return nil
}

// AddItem adds a product or increments its quantity. The guest path owns
// the increment; the authenticated path delegates it to the server.
func (e *Engine) AddItem(ctx context.Context, productID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token != "" {
		c, err := e.gw.AddToCart(ctx, e.token, productID, quantity)
		if err != nil {
			return err
		}
		e.adopt(&c)
		return nil
	}

	found := false
	for i := range e.guestCart {
		if e.guestCart[i].ProductID == productID {
			e.guestCart[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		e.guestCart = append(e.guestCart, guest.Item{ProductID: productID, Quantity: quantity})
	}
	e.persistGuest()
	return nil
}

// UpdateItem sets a line's quantity. For authenticated carts id is the
// server row id; for guest carts it is the product id.
func (e *Engine) UpdateItem(ctx context.Context, id, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token != "" {
		c, err := e.gw.UpdateCartItem(ctx, e.token, id, quantity)
		if err != nil {
			return err
		}
		e.adopt(&c)
		return nil
	}

	for i := range e.guestCart {
		if e.guestCart[i].ProductID == id {
			e.guestCart[i].Quantity = quantity
			e.persistGuest()
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem deletes a line, addressed like UpdateItem.
func (e *Engine) RemoveItem(ctx context.Context, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token != "" {
		c, err := e.gw.RemoveCartItem(ctx, e.token, id)
		if err != nil {
			return err
		}
		e.adopt(&c)
		return nil
	}

	filtered := e.guestCart[:0]
	for _, item := range e.guestCart {
		if item.ProductID != id {
			filtered = append(filtered, item)
		}
	}
	e.guestCart = filtered
	e.persistGuest()
	return nil
}

// Clear empties the cart.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.token != "" {
		if err := e.gw.ClearCart(ctx, e.token); err != nil {
			return err
		}
		c, err := e.gw.GetCart(ctx, e.token)
		if err != nil {
			return err
		}
		e.adopt(&c)
		return nil
	}

	e.guestCart = []guest.Item{}
	e.store.Remove(e.sessionID, guest.CartKey)
	e.quote = nil
	e.gen++
	return nil
}

// MergeGuestIntoUser sends the persisted guest items to the merge endpoint,
// adopts the returned cart and empties the guest store. Retrying after
// success is a no-op because the guest list is already empty.
func (e *Engine) MergeGuestIntoUser(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token == "" {
		return ErrAuthRequired
	}

	if len(e.guestCart) == 0 {
		if e.cart == nil {
			c, err := e.gw.GetCart(ctx, e.token)
			if err != nil {
				return err
			}
			e.cart = &c
		}
		return nil
	}

	c, err := e.gw.MergeGuestCart(ctx, e.token, e.guestCart)
	if err != nil {
		return err
	}
	e.adopt(&c)
	e.guestCart = []guest.Item{}
	e.store.Remove(e.sessionID, guest.CartKey)
	return nil
}

// SaveForLater moves an active line to the saved list. Authenticated only.
func (e *Engine) SaveForLater(ctx context.Context, itemID int) error {
	return e.savedOp(ctx, itemID, e.gw.SaveForLater)
}

// RestoreSavedItem moves a saved line back into the active cart.
func (e *Engine) RestoreSavedItem(ctx context.Context, savedID int) error {
	return e.savedOp(ctx, savedID, e.gw.RestoreSavedItem)
}

// RemoveSavedItem deletes a saved line.
func (e *Engine) RemoveSavedItem(ctx context.Context, savedID int) error {
	return e.savedOp(ctx, savedID, e.gw.RemoveSavedItem)
}

func (e *Engine) savedOp(ctx context.Context, id int, op func(context.Context, string, int) (Cart, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token == "" {
		return ErrAuthRequired
	}
	c, err := op(ctx, e.token, id)
	if err != nil {
		return err
	}
	e.adopt(&c)
	return nil
}

// ApplyPromoCode validates a code and records the backend's verdict, valid
// or not, so the message can be shown either way.
func (e *Engine) ApplyPromoCode(ctx context.Context, code string) (PromoCode, error) {
	promo, err := e.gw.ValidatePromoCode(ctx, code)
	if err != nil {
		return PromoCode{}, err
	}
	e.mu.Lock()
	e.promo = &promo
	e.mu.Unlock()
	return promo, nil
}

func (e *Engine) RemovePromoCode() {
	e.mu.Lock()
	e.promo = nil
	e.mu.Unlock()
}

// CalculateShippingTax fetches a quote for the current subtotal. The quote
// is a snapshot; any later cart mutation discards it. A mutation landing
// while the request is in flight wins: the quote it was computed for no
// longer exists, so it is returned but not kept.
func (e *Engine) CalculateShippingTax(ctx context.Context, zipCode string) (ShippingTaxInfo, error) {
	e.mu.Lock()
	subtotal := pricing.Subtotal(e.lines())
	gen := e.gen
	e.mu.Unlock()

	quote, err := e.gw.CalculateShippingTax(ctx, zipCode, subtotal)
	if err != nil {
		return ShippingTaxInfo{}, err
	}

	e.mu.Lock()
	if e.gen == gen {
		e.quote = &quote
	}
	e.mu.Unlock()
	return quote, nil
}

// State returns a copy of the renderable state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{Cart: e.cart, PromoCode: e.promo, ShippingTax: e.quote}
	if e.cart == nil {
		s.GuestCart = make([]GuestCartItem, 0, len(e.guestCart))
		for _, item := range e.guestCart {
			s.GuestCart = append(s.GuestCart, GuestCartItem{Item: item})
		}
	}
	return s
}

// Lines flattens the active representation into pricing lines.
func (e *Engine) Lines() []pricing.Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lines()
}

// Promo returns the pricing view of the applied promo code, if any.
func (e *Engine) Promo() *pricing.Promo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.promo == nil {
		return nil
	}
	return &pricing.Promo{DiscountPercentage: e.promo.DiscountPercentage, IsValid: e.promo.IsValid}
}

// Quote returns the pricing view of the shipping/tax quote, if any.
func (e *Engine) Quote() *pricing.Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quote == nil {
		return nil
	}
	return &pricing.Quote{
		ShippingAmount: e.quote.ShippingAmount,
		TaxAmount:      e.quote.TaxAmount,
		Total:          e.quote.Total,
	}
}

func (e *Engine) lines() []pricing.Line {
	if e.token != "" && e.cart != nil {
		lines := make([]pricing.Line, 0, len(e.cart.Items))
		for _, item := range e.cart.Items {
			l := pricing.Line{
				Kind:      pricing.KindAuthenticated,
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			}
			if item.Product != nil {
				l.UnitPrice = item.Product.Price
				l.Priced = true
			}
			lines = append(lines, l)
		}
		return lines
	}

	lines := make([]pricing.Line, 0, len(e.guestCart))
	for _, item := range e.guestCart {
		lines = append(lines, pricing.Line{
			Kind:      pricing.KindGuest,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return lines
}

// adopt replaces the server-backed cart and discards the now-stale quote.
func (e *Engine) adopt(c *Cart) {
	e.cart = c
	e.quote = nil
	e.gen++
}

func (e *Engine) persistGuest() {
	guest.SaveCart(e.store, e.sessionID, e.guestCart)
	e.quote = nil
	e.gen++
}

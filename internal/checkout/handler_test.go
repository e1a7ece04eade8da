package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/voyager-commerce/storefront/internal/cart"
	"github.com/voyager-commerce/storefront/internal/guest"
)

type stubGateway struct {
	cart cart.Cart
}

func (g *stubGateway) GetCart(ctx context.Context, token string) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) AddToCart(ctx context.Context, token string, productID, quantity int) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) UpdateCartItem(ctx context.Context, token string, itemID, quantity int) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) RemoveCartItem(ctx context.Context, token string, itemID int) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) MergeGuestCart(ctx context.Context, token string, items []guest.Item) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) ClearCart(ctx context.Context, token string) error { return nil }

func (g *stubGateway) SaveForLater(ctx context.Context, token string, itemID int) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) RestoreSavedItem(ctx context.Context, token string, savedID int) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) RemoveSavedItem(ctx context.Context, token string, savedID int) (cart.Cart, error) {
	return g.cart, nil
}

func (g *stubGateway) ValidatePromoCode(ctx context.Context, code string) (cart.PromoCode, error) {
	return cart.PromoCode{Code: code, DiscountPercentage: 10, IsValid: true}, nil
}

func (g *stubGateway) CalculateShippingTax(ctx context.Context, zipCode string, subtotal float64) (cart.ShippingTaxInfo, error) {
	return cart.ShippingTaxInfo{}, nil
}

type fakeProcessor struct {
	lastToken string
	lastReq   Request
	resp      Response
	err       error
}

func (p *fakeProcessor) ProcessCheckout(ctx context.Context, token string, req Request) (Response, error) {
	p.lastToken = token
	p.lastReq = req
	return p.resp, p.err
}

type fakeNotifier struct {
	events []OrderEvent
}

func (n *fakeNotifier) OrderConfirmed(ctx context.Context, event OrderEvent) error {
	n.events = append(n.events, event)
	return nil
}

type fakeSessions struct {
	wizard *Wizard
	engine *cart.Engine
}

func (s *fakeSessions) Wizard(c *fiber.Ctx) (*Wizard, error)      { return s.wizard, nil }
func (s *fakeSessions) Engine(c *fiber.Ctx) (*cart.Engine, error) { return s.engine, nil }

func fakeAuth(userID int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": float64(userID)})
		c.Locals("user", token)
		return c.Next()
	}
}

func serverCart() cart.Cart {
	return cart.Cart{
		ID:     1,
		UserID: 7,
		Items: []cart.CartItem{
			{ID: 11, CartID: 1, ProductID: 3, Quantity: 2, Product: &cart.Product{ID: 3, Name: "Trail Pack", Price: 40}},
		},
	}
}

func checkoutFixture(t *testing.T) (*fiber.App, *fakeSessions, *fakeProcessor, *fakeNotifier) {
	t.Helper()

	engine := cart.NewEngine(&stubGateway{cart: serverCart()}, guest.NewMemoryStore(), "sess-1")
	engine.SetToken("tok-abc")
	if err := engine.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	sessions := &fakeSessions{wizard: NewWizard(), engine: engine}
	processor := &fakeProcessor{resp: Response{
		OrderID:     42,
		OrderNumber: "VG-20260830-0042",
		Status:      "confirmed",
		TotalAmount: 80,
	}}
	notifier := &fakeNotifier{}

	app := fiber.New()
	h := NewHandler(sessions, processor, notifier)
	h.RegisterPublicRoutes(app)
	app.Use(fakeAuth(7))
	h.RegisterProtectedRoutes(app)
	return app, sessions, processor, notifier
}

func TestGetAndPatchState(t *testing.T) {
	app, _, _, _ := checkoutFixture(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/checkout/state", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.CurrentStep != StepCartReview || !state.BillingIsSameAsShipping {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	body := bytes.NewBufferString(`{"is_gift": true, "gift_message": "enjoy"}`)
	req := httptest.NewRequest("PATCH", "/api/checkout/state", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if !state.IsGift || state.GiftMessage != "enjoy" {
		t.Fatalf("patch not applied: %+v", state)
	}
}

func TestNextRejectsIncompleteStep(t *testing.T) {
	app, sessions, _, _ := checkoutFixture(t)
	sessions.wizard.Next() // cart review -> delivery

	resp, err := app.Test(httptest.NewRequest("POST", "/api/checkout/next", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without a shipping address, got %d", resp.StatusCode)
	}
}

func TestProcessCheckout(t *testing.T) {
	app, sessions, processor, notifier := checkoutFixture(t)

	addr := Address{
		FirstName:    "Ada",
		LastName:     "Voyager",
		AddressLine1: "1 Summit Way",
		City:         "Denver",
		State:        "CO",
		ZipCode:      "80202",
	}
	sessions.wizard.Apply(Update{ShippingAddress: &addr})
	if _, err := sessions.engine.ApplyPromoCode(context.Background(), "TRAIL10"); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/api/checkout/process", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.OrderID != 42 || out.OrderNumber != "VG-20260830-0042" {
		t.Fatalf("unexpected response: %+v", out)
	}

	if processor.lastToken != "tok-abc" {
		t.Fatalf("processor should receive the session token, got %q", processor.lastToken)
	}
	if len(processor.lastReq.Items) != 1 || processor.lastReq.Items[0].ProductID != 3 || processor.lastReq.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", processor.lastReq.Items)
	}
	if processor.lastReq.PromoCode != "TRAIL10" {
		t.Fatalf("promo code applied on the cart should ride along, got %q", processor.lastReq.PromoCode)
	}
	if processor.lastReq.BillingAddress.FirstName != "Ada" {
		t.Fatalf("billing should carry the shipping address, got %+v", processor.lastReq.BillingAddress)
	}

	if got := sessions.wizard.State().CurrentStep; got != StepConfirmation {
		t.Fatalf("wizard should land on confirmation, got %q", got)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected one confirmation event, got %d", len(notifier.events))
	}
	if ev := notifier.events[0]; ev.OrderID != 42 || ev.UserID != 7 || ev.TotalAmount != 80 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestProcessValidatesAddress(t *testing.T) {
	app, _, processor, _ := checkoutFixture(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/checkout/process", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without a shipping address, got %d", resp.StatusCode)
	}
	if processor.lastToken != "" {
		t.Fatalf("processor must not be called on validation failure")
	}
}

func TestProcessRequiresAuth(t *testing.T) {
	sessions := &fakeSessions{wizard: NewWizard()}
	app := fiber.New()
	NewHandler(sessions, &fakeProcessor{}, nil).RegisterProtectedRoutes(app)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/checkout/process", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProcessOnResumedSession(t *testing.T) {
	// a restored token without a loaded cart, as after a session resume
	engine := cart.NewEngine(&stubGateway{cart: serverCart()}, guest.NewMemoryStore(), "sess-2")
	engine.SetToken("tok-abc")

	sessions := &fakeSessions{wizard: NewWizard(), engine: engine}
	processor := &fakeProcessor{resp: Response{OrderID: 43, OrderNumber: "VG-0043", Status: "confirmed"}}

	app := fiber.New()
	app.Use(fakeAuth(7))
	NewHandler(sessions, processor, &fakeNotifier{}).RegisterProtectedRoutes(app)

	addr := Address{
		FirstName:    "Ada",
		LastName:     "Voyager",
		AddressLine1: "1 Summit Way",
		City:         "Denver",
		State:        "CO",
		ZipCode:      "80202",
	}
	sessions.wizard.Apply(Update{ShippingAddress: &addr})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/checkout/process", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(processor.lastReq.Items) != 1 || processor.lastReq.Items[0].ProductID != 3 {
		t.Fatalf("server cart not used for the order, got %+v", processor.lastReq.Items)
	}
}

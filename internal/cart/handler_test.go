package cart

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/voyager-commerce/storefront/internal/guest"
)

// mapSessions hands each request the engine registered for its
// X-Session-ID header.
type mapSessions struct {
	engines map[string]*Engine
}

func (s *mapSessions) Engine(c *fiber.Ctx) (*Engine, error) {
	return s.engines[c.Get("X-Session-ID")], nil
}

func handlerFixture(gw *fakeGateway) (*fiber.App, *Engine, *guest.MemoryStore) {
	store := guest.NewMemoryStore()
	engine := NewEngine(gw, store, "s1")
	sessions := &mapSessions{engines: map[string]*Engine{"s1": engine}}

	app := fiber.New()
	NewHandler(sessions, 50).RegisterPublicRoutes(app)
	return app, engine, store
}

func TestAddItemEndpoint(t *testing.T) {
	app, _, store := handlerFixture(&fakeGateway{})

	body := bytes.NewBufferString(`{"product_id": 5, "quantity": 2}`)
	req := httptest.NewRequest("POST", "/api/cart/items", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "s1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if len(state.GuestCart) != 1 || state.GuestCart[0].ProductID != 5 || state.GuestCart[0].Quantity != 2 {
		t.Fatalf("unexpected guest cart: %+v", state.GuestCart)
	}

	items := guest.LoadCart(store, "s1")
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("guest store not updated: %+v", items)
	}
}

func TestAddItemRejectsBadPayload(t *testing.T) {
	app, _, _ := handlerFixture(&fakeGateway{})

	body := bytes.NewBufferString(`{"product_id": 0, "quantity": 1}`)
	req := httptest.NewRequest("POST", "/api/cart/items", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "s1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body = bytes.NewBufferString(`{"product_id": 5, "quantity": 0}`)
	req = httptest.NewRequest("POST", "/api/cart/items", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "s1")

	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", resp.StatusCode)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	gw := &fakeGateway{cart: Cart{
		ID:     1,
		UserID: 7,
		Items: []CartItem{
			{ID: 1, CartID: 1, ProductID: 3, Quantity: 2, Product: &Product{ID: 3, Name: "Trail Pack", Price: 15}},
		},
	}}
	app, engine, _ := handlerFixture(gw)
	engine.SetToken("tok")

	// no prior GET /api/cart: the summary must load the server cart itself
	req := httptest.NewRequest("GET", "/api/cart/summary", nil)
	req.Header.Set("X-Session-ID", "s1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var summary struct {
		ItemCount            int     `json:"item_count"`
		Subtotal             float64 `json:"subtotal"`
		Total                float64 `json:"total"`
		SubtotalDisplay      string  `json:"subtotal_display"`
		FreeShippingProgress float64 `json:"free_shipping_progress"`
		AmountToFreeShipping float64 `json:"amount_to_free_shipping"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.ItemCount != 2 || summary.Subtotal != 30 || summary.Total != 30 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.SubtotalDisplay != "$30.00" {
		t.Fatalf("unexpected display: %q", summary.SubtotalDisplay)
	}
	if summary.FreeShippingProgress != 60 || summary.AmountToFreeShipping != 20 {
		t.Fatalf("unexpected free shipping math: %+v", summary)
	}
}

func TestSavedItemsNeedAuthOverHTTP(t *testing.T) {
	app, _, _ := handlerFixture(&fakeGateway{})

	req := httptest.NewRequest("POST", "/api/cart/items/4/save", nil)
	req.Header.Set("X-Session-ID", "s1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for guest save-for-later, got %d", resp.StatusCode)
	}
}

func TestPromoEndpoints(t *testing.T) {
	gw := &fakeGateway{promo: PromoCode{Code: "TRAIL10", DiscountPercentage: 10, IsValid: true}}
	app, engine, _ := handlerFixture(gw)

	body := bytes.NewBufferString(`{"code": "TRAIL10"}`)
	req := httptest.NewRequest("POST", "/api/promo-codes/validate", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "s1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var promo PromoCode
	if err := json.NewDecoder(resp.Body).Decode(&promo); err != nil {
		t.Fatal(err)
	}
	if !promo.IsValid || promo.DiscountPercentage != 10 {
		t.Fatalf("unexpected promo: %+v", promo)
	}
	if got := engine.State().PromoCode; got == nil || got.Code != "TRAIL10" {
		t.Fatalf("promo not retained on engine: %+v", got)
	}

	req = httptest.NewRequest("DELETE", "/api/promo-codes", nil)
	req.Header.Set("X-Session-ID", "s1")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if engine.State().PromoCode != nil {
		t.Fatalf("promo should be cleared")
	}
}

func TestShippingEndpointRequiresZip(t *testing.T) {
	app, _, _ := handlerFixture(&fakeGateway{})

	body := bytes.NewBufferString(`{"zip_code": ""}`)
	req := httptest.NewRequest("POST", "/api/shipping/calculate", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "s1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

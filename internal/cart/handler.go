package cart

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/voyager-commerce/storefront/internal/pricing"
)

// Sessions resolves the cart engine for the shopper behind a request.
type Sessions interface {
	Engine(c *fiber.Ctx) (*Engine, error)
}

// Handler exposes the cart flow to the UI. Routes are public: guests are
// served locally, authenticated shoppers are proxied to the commerce API.
type Handler struct {
	sessions          Sessions
	shippingThreshold float64
}

func NewHandler(sessions Sessions, shippingThreshold float64) *Handler {
	return &Handler{sessions: sessions, shippingThreshold: shippingThreshold}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/cart", h.getCart)
	app.Get("/api/cart/summary", h.getSummary)
	app.Post("/api/cart/items", h.addItem)
	app.Put("/api/cart/items/:id<int>", h.updateItem)
	app.Delete("/api/cart/items/:id<int>", h.removeItem)
	app.Post("/api/cart/clear", h.clearCart)
	app.Post("/api/cart/items/:id<int>/save", h.saveForLater)
	app.Post("/api/cart/saved/:id<int>/restore", h.restoreSavedItem)
	app.Delete("/api/cart/saved/:id<int>", h.removeSavedItem)
	app.Post("/api/promo-codes/validate", h.validatePromoCode)
	app.Delete("/api/promo-codes", h.removePromoCode)
	app.Post("/api/shipping/calculate", h.calculateShippingTax)
}

type addItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type promoCodeRequest struct {
	Code string `json:"code"`
}

type shippingRequest struct {
	ZipCode string `json:"zip_code"`
}

// summaryResponse is the derived pricing view the UI renders on every
// cart change.
type summaryResponse struct {
	pricing.Totals
	SubtotalDisplay      string  `json:"subtotal_display"`
	TotalDisplay         string  `json:"total_display"`
	FreeShippingProgress float64 `json:"free_shipping_progress"`
	AmountToFreeShipping float64 `json:"amount_to_free_shipping"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := engine.Refresh(c.Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(engine.State())
}

func (h *Handler) getSummary(c *fiber.Ctx) error {
	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := engine.Sync(c.Context()); err != nil {
		return h.fail(c, err)
	}

	totals := pricing.Calculate(engine.Lines(), engine.Promo(), engine.Quote())
	return c.JSON(summaryResponse{
		Totals:               totals,
		SubtotalDisplay:      pricing.FormatUSD(totals.Subtotal),
		TotalDisplay:         pricing.FormatUSD(totals.Total),
		FreeShippingProgress: pricing.FreeShippingProgress(totals.Subtotal, h.shippingThreshold),
		AmountToFreeShipping: pricing.AmountToFreeShipping(totals.Subtotal, h.shippingThreshold),
	})
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product_id"})
	}

	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := engine.AddItem(c.Context(), payload.ProductID, payload.Quantity); err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(engine.State())
}

func (h *Handler) updateItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}
	payload := new(updateItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := engine.UpdateItem(c.Context(), id, payload.Quantity); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(engine.State())
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}

	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := engine.RemoveItem(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(engine.State())
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := engine.Clear(c.Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(engine.State())
}

func (h *Handler) saveForLater(c *fiber.Ctx) error {
	return h.savedOp(c, (*Engine).SaveForLater)
}

func (h *Handler) restoreSavedItem(c *fiber.Ctx) error {
	return h.savedOp(c, (*Engine).RestoreSavedItem)
}

func (h *Handler) removeSavedItem(c *fiber.Ctx) error {
	return h.savedOp(c, (*Engine).RemoveSavedItem)
}

func (h *Handler) savedOp(c *fiber.Ctx, op func(*Engine, context.Context, int) error) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}

	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := op(engine, c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(engine.State())
}

func (h *Handler) validatePromoCode(c *fiber.Ctx) error {
	payload := new(promoCodeRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "code is required"})
	}

	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	promo, err := engine.ApplyPromoCode(c.Context(), payload.Code)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(promo)
}

func (h *Handler) removePromoCode(c *fiber.Ctx) error {
	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	engine.RemovePromoCode()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) calculateShippingTax(c *fiber.Ctx) error {
	payload := new(shippingRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ZipCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "zip_code is required"})
	}

	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	quote, err := engine.CalculateShippingTax(c.Context(), payload.ZipCode)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(quote)
}

// fail maps engine errors onto HTTP statuses. Network/API failures surface
// to the UI with the engine's state left unchanged.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrAuthRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "authentication required"})
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrItemNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": err.Error()})
	}
}

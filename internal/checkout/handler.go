package checkout

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/voyager-commerce/storefront/internal/auth"
	"github.com/voyager-commerce/storefront/internal/cart"
)

// Sessions resolves the wizard and cart engine for the shopper behind a
// request.
type Sessions interface {
	Wizard(c *fiber.Ctx) (*Wizard, error)
	Engine(c *fiber.Ctx) (*cart.Engine, error)
}

// Handler exposes the checkout wizard to the UI and submits completed
// checkouts to the checkout service.
type Handler struct {
	sessions  Sessions
	processor Processor
	notifier  Notifier
}

func NewHandler(sessions Sessions, processor Processor, notifier Notifier) *Handler {
	return &Handler{sessions: sessions, processor: processor, notifier: notifier}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/checkout/state", h.getState)
	app.Patch("/api/checkout/state", h.updateState)
	app.Post("/api/checkout/next", h.next)
	app.Post("/api/checkout/back", h.back)
	app.Post("/api/checkout/reset", h.reset)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/checkout/process", auth.Require, h.process)
}

func (h *Handler) getState(c *fiber.Ctx) error {
	wizard, err := h.sessions.Wizard(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(wizard.State())
}

func (h *Handler) updateState(c *fiber.Ctx) error {
	payload := new(Update)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	wizard, err := h.sessions.Wizard(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(wizard.Apply(*payload))
}

func (h *Handler) next(c *fiber.Ctx) error {
	wizard, err := h.sessions.Wizard(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	state, err := wizard.Next()
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(state)
}

func (h *Handler) back(c *fiber.Ctx) error {
	wizard, err := h.sessions.Wizard(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(wizard.Back())
}

func (h *Handler) reset(c *fiber.Ctx) error {
	wizard, err := h.sessions.Wizard(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(wizard.Reset())
}

// process submits the order. Items come from the reconciled cart, the
// promo code from the wizard (falling back to the one applied on the
// cart), and the server's confirmation moves the wizard to Confirmation.
func (h *Handler) process(c *fiber.Ctx) error {
	userID, err := auth.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	wizard, err := h.sessions.Wizard(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	engine, err := h.sessions.Engine(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	// a resumed session may not have loaded the server cart yet
	if err := engine.Sync(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": err.Error()})
	}

	items := make([]RequestItem, 0)
	for _, line := range engine.Lines() {
		items = append(items, RequestItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	req, err := wizard.BuildRequest(items)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if req.PromoCode == "" {
		if state := engine.State(); state.PromoCode != nil && state.PromoCode.IsValid {
			req.PromoCode = state.PromoCode.Code
		}
	}

	resp, err := h.processor.ProcessCheckout(c.Context(), auth.BearerToken(c), req)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": err.Error()})
	}

	wizard.Complete()
	// the backend emptied the cart; pick up its state
	if err := engine.Refresh(c.Context()); err != nil {
		log.Printf("checkout: cart refresh after order %d failed: %v", resp.OrderID, err)
	}

	if h.notifier != nil {
		event := OrderEvent{
			OrderID:     resp.OrderID,
			OrderNumber: resp.OrderNumber,
			UserID:      userID,
			TotalAmount: resp.TotalAmount,
		}
		if err := h.notifier.OrderConfirmed(c.Context(), event); err != nil {
			log.Printf("checkout: could not publish confirmation for order %d: %v", resp.OrderID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

package order

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/voyager-commerce/storefront/internal/auth"
)

// Handler serves the shopper's order history.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/orders", auth.Require, h.getOrders)
	app.Get("/api/orders/:id<int>", auth.Require, h.getOrder)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	orders, err := h.service.History(c.Context(), auth.BearerToken(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid id"})
	}

	ord, err := h.service.Get(c.Context(), auth.BearerToken(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ord)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	}
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": err.Error()})
}

package session

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voyager-commerce/storefront/internal/auth"
)

// Handler manages session lifecycle endpoints.
type Handler struct {
	manager *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/session", h.start)
	app.Delete("/api/session", h.end)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/session/login", auth.Require, h.login)
}

type sessionResponse struct {
	ID            string `json:"id"`
	Authenticated bool   `json:"authenticated"`
}

func (h *Handler) start(c *fiber.Ctx) error {
	s := h.manager.resolve(c)
	return c.Status(fiber.StatusCreated).JSON(sessionResponse{
		ID:            s.ID,
		Authenticated: s.Cart.Authenticated(),
	})
}

// login runs after the JWT middleware has verified the bearer token, so
// the raw token can be trusted and handed to the commerce API.
func (h *Handler) login(c *fiber.Ctx) error {
	s, err := h.manager.Login(c, auth.BearerToken(c))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(sessionResponse{ID: s.ID, Authenticated: true})
}

func (h *Handler) end(c *fiber.Ctx) error {
	if id := c.Get(HeaderName); id != "" {
		h.manager.End(id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

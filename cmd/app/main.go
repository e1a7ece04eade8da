package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/voyager-commerce/storefront/internal/auth"
	"github.com/voyager-commerce/storefront/internal/cart"
	"github.com/voyager-commerce/storefront/internal/checkout"
	"github.com/voyager-commerce/storefront/internal/config"
	"github.com/voyager-commerce/storefront/internal/gateway"
	"github.com/voyager-commerce/storefront/internal/guest"
	"github.com/voyager-commerce/storefront/internal/notify"
	"github.com/voyager-commerce/storefront/internal/order"
	"github.com/voyager-commerce/storefront/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	app := fiber.New()
	setupCORS(app)
	app.Use(logger.New())

	store := openGuestStore(cfg.GuestStorePath)
	client := gateway.NewClient(cfg.CommerceAPIURL, cfg.CheckoutAPIURL)

	notifier, cleanup := openNotifier(cfg)
	defer cleanup()

	sessions := session.NewManager(client, store)

	sessionHandler := session.NewHandler(sessions)
	cartHandler := cart.NewHandler(sessions, cfg.FreeShippingThreshold)
	checkoutHandler := checkout.NewHandler(sessions, client, notifier)
	orderHandler := order.NewHandler(order.NewService(client))

	// token validation runs first so public routes can see Locals("user")
	// when a shopper is signed in
	app.Use(auth.Middleware(cfg.JWTSecret))

	sessionHandler.RegisterPublicRoutes(app)
	cartHandler.RegisterPublicRoutes(app)
	checkoutHandler.RegisterPublicRoutes(app)

	sessionHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	log.Fatal(app.Listen(cfg.Addr))
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID",
	}))
}

// openGuestStore opens the SQLite-backed guest store, falling back to the
// in-memory store when the file cannot be opened. Guest carts then survive
// only as long as the process, which beats refusing to start.
func openGuestStore(path string) guest.Store {
	store, err := guest.OpenSQLite(path)
	if err != nil {
		log.Printf("guest store: could not open %s: %v; using in-memory store", path, err)
		return guest.NewMemoryStore()
	}
	return store
}

func openNotifier(cfg *config.Config) (checkout.Notifier, func()) {
	if cfg.AMQPURL == "" {
		return notify.Nop{}, func() {}
	}
	pub, cleanup, err := notify.Connect(cfg.AMQPURL, cfg.OrderQueue)
	if err != nil {
		log.Printf("notify: could not connect to %s: %v; confirmations disabled", cfg.AMQPURL, err)
		return notify.Nop{}, func() {}
	}
	return pub, cleanup
}

package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Addr                  string
	CommerceAPIURL        string
	CheckoutAPIURL        string
	JWTSecret             string
	GuestStorePath        string
	FreeShippingThreshold float64
	AMQPURL               string
	OrderQueue            string
}

// Load reads configuration from the environment. The JWT secret has no safe
// default and is required; everything else falls back to local-dev values.
func Load() *Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	addr := os.Getenv("STOREFRONT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	apiURL := os.Getenv("COMMERCE_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5001"
	}

	checkoutURL := os.Getenv("CHECKOUT_API_URL")
	if checkoutURL == "" {
		checkoutURL = "http://localhost:5002"
	}

	storePath := os.Getenv("GUEST_STORE_PATH")
	if storePath == "" {
		storePath = "./storefront.db"
	}

	threshold := 50.0
	if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			threshold = parsed
		}
	}

	queue := os.Getenv("ORDER_QUEUE")
	if queue == "" {
		queue = "order_confirmations"
	}

	return &Config{
		Addr:                  addr,
		CommerceAPIURL:        apiURL,
		CheckoutAPIURL:        checkoutURL,
		JWTSecret:             secret,
		GuestStorePath:        storePath,
		FreeShippingThreshold: threshold,
		AMQPURL:               os.Getenv("AMQP_URL"),
		OrderQueue:            queue,
	}
}

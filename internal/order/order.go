package order

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an order does not exist or does not belong
// to the requesting user.
var ErrNotFound = errors.New("order not found")

// Item is one purchased line, priced as it was at checkout time.
type Item struct {
	ID          int     `json:"id"`
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is a confirmed purchase as the commerce API reports it. The
// shipping address is a flattened snapshot taken at checkout, immune to
// later address-book edits.
type Order struct {
	ID          int       `json:"id"`
	OrderNumber string    `json:"order_number"`
	UserID      int       `json:"user_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	ShippingFirstName    string `json:"shipping_first_name"`
	ShippingLastName     string `json:"shipping_last_name"`
	ShippingAddressLine1 string `json:"shipping_address_line1"`
	ShippingAddressLine2 string `json:"shipping_address_line2,omitempty"`
	ShippingCity         string `json:"shipping_city"`
	ShippingState        string `json:"shipping_state"`
	ShippingZipCode      string `json:"shipping_zip_code"`
	ShippingCountry      string `json:"shipping_country"`

	IsGift      bool   `json:"is_gift"`
	GiftWrap    bool   `json:"gift_wrap"`
	GiftMessage string `json:"gift_message,omitempty"`

	Items []Item `json:"items"`

	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	PromoCode      string  `json:"promo_code,omitempty"`
	ShippingAmount float64 `json:"shipping_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalAmount    float64 `json:"total_amount"`
}

// Gateway reads order history from the commerce API on the shopper's
// behalf.
type Gateway interface {
	GetUserOrders(ctx context.Context, token string) ([]Order, error)
	GetOrder(ctx context.Context, token string, id int) (Order, error)
}

package cart

import (
	"errors"

	"github.com/voyager-commerce/storefront/internal/guest"
)

var (
	// ErrAuthRequired is returned by operations that only exist for
	// authenticated carts (row-id addressing, saved items).
	ErrAuthRequired = errors.New("authentication required")
	// ErrItemNotFound is returned when a guest-cart update names a product
	// that is not in the cart.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity rejects zero or negative quantities before any
	// network or storage call.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Product is the catalog data attached to cart lines by the commerce API.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
	Stock    int     `json:"stock,omitempty"`
}

// CartItem is an authenticated cart line. Identity is the server-assigned
// row id, distinct from the product id.
type CartItem struct {
	ID        int      `json:"id"`
	CartID    int      `json:"cart_id"`
	ProductID int      `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// SavedItem is a line moved out of the active cart. An item is either
// active or saved, never both.
type SavedItem struct {
	ID        int      `json:"id"`
	CartID    int      `json:"cart_id"`
	ProductID int      `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product"`
	CreatedAt string   `json:"created_at"`
}

// Cart is the authenticated aggregate. The server keeps product ids unique
// across Items by coalescing duplicate adds.
type Cart struct {
	ID         int         `json:"id"`
	UserID     int         `json:"user_id"`
	Items      []CartItem  `json:"items"`
	SavedItems []SavedItem `json:"saved_items"`
	CreatedAt  string      `json:"created_at,omitempty"`
	UpdatedAt  string      `json:"updated_at,omitempty"`
}

// GuestCartItem is a guest line for display: the persisted item plus an
// optional product reference when one has been hydrated.
type GuestCartItem struct {
	guest.Item
	Product *Product `json:"product,omitempty"`
}

// PromoCode is the backend's verdict on a discount code. Absent or
// is_valid=false codes contribute zero discount.
type PromoCode struct {
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discount_percentage"`
	IsValid            bool    `json:"is_valid"`
	Message            string  `json:"message,omitempty"`
}

// ShippingTaxInfo is a quote snapshot tied to the ZIP code and subtotal it
// was calculated for.
type ShippingTaxInfo struct {
	ZipCode        string  `json:"zip_code"`
	State          string  `json:"state"`
	TaxRate        float64 `json:"tax_rate"`
	ShippingCost   float64 `json:"shipping_cost"`
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingAmount float64 `json:"shipping_amount"`
	Total          float64 `json:"total"`
}

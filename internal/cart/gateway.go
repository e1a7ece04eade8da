package cart

import (
	"context"

	"github.com/voyager-commerce/storefront/internal/guest"
)

// Gateway is the remote commerce API surface the engine depends on.
// Every authenticated mutation returns the server's authoritative cart,
// which the engine adopts wholesale.
type Gateway interface {
	GetCart(ctx context.Context, token string) (Cart, error)
	AddToCart(ctx context.Context, token string, productID, quantity int) (Cart, error)
	UpdateCartItem(ctx context.Context, token string, itemID, quantity int) (Cart, error)
	RemoveCartItem(ctx context.Context, token string, itemID int) (Cart, error)
	MergeGuestCart(ctx context.Context, token string, items []guest.Item) (Cart, error)
	ClearCart(ctx context.Context, token string) error
	SaveForLater(ctx context.Context, token string, itemID int) (Cart, error)
	RestoreSavedItem(ctx context.Context, token string, savedID int) (Cart, error)
	RemoveSavedItem(ctx context.Context, token string, savedID int) (Cart, error)
	ValidatePromoCode(ctx context.Context, code string) (PromoCode, error)
	CalculateShippingTax(ctx context.Context, zipCode string, subtotal float64) (ShippingTaxInfo, error)
}

package checkout

import (
	"context"
	"errors"
	"fmt"
)

// ErrValidation wraps the per-step required-field failures that block a
// transition before any network call.
var ErrValidation = errors.New("validation failed")

// Step is one stage of the checkout wizard. Navigation is strictly linear:
// Next and Back move exactly one step, never skipping.
type Step string

const (
	StepCartReview   Step = "cart_review"
	StepDelivery     Step = "delivery"
	StepBilling      Step = "billing"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

var stepOrder = []Step{StepCartReview, StepDelivery, StepBilling, StepPayment, StepConfirmation}

func stepIndex(s Step) int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return 0
}

// Address is a shipping or billing address as collected by the wizard.
type Address struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

func (a Address) validate(label string) error {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address_line1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"zip_code", a.ZipCode},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%w: %s.%s is required", ErrValidation, label, field.name)
		}
	}
	return nil
}

// State is the accumulating partial-state object threaded through all
// steps. It lives for one checkout session only.
type State struct {
	BillingAddress          Address `json:"billing_address"`
	ShippingAddress         Address `json:"shipping_address"`
	BillingIsSameAsShipping bool    `json:"billing_is_same_as_shipping"`
	IsGift                  bool    `json:"is_gift"`
	GiftMessage             string  `json:"gift_message"`
	GiftWrap                bool    `json:"gift_wrap"`
	PromoCode               string  `json:"promo_code"`
	CurrentStep             Step    `json:"current_step"`
}

func initialState() State {
	return State{BillingIsSameAsShipping: true, CurrentStep: StepCartReview}
}

// Update carries only the fields a step owns; nil fields leave sibling-step
// data untouched (shallow merge).
type Update struct {
	BillingAddress          *Address `json:"billing_address,omitempty"`
	ShippingAddress         *Address `json:"shipping_address,omitempty"`
	BillingIsSameAsShipping *bool    `json:"billing_is_same_as_shipping,omitempty"`
	IsGift                  *bool    `json:"is_gift,omitempty"`
	GiftMessage             *string  `json:"gift_message,omitempty"`
	GiftWrap                *bool    `json:"gift_wrap,omitempty"`
	PromoCode               *string  `json:"promo_code,omitempty"`
}

// RequestItem is one line of the submitted order.
type RequestItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// Request is the payload sent to checkout processing. When the shopper
// chose billing-same-as-shipping, BillingAddress carries the shipping
// address, never the hidden billing stub.
type Request struct {
	Items           []RequestItem `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	BillingAddress  Address       `json:"billing_address"`
	IsGift          bool          `json:"is_gift"`
	GiftWrap        bool          `json:"gift_wrap"`
	GiftMessage     string        `json:"gift_message,omitempty"`
	PromoCode       string        `json:"promo_code,omitempty"`
}

// Response is the checkout service's confirmation.
type Response struct {
	OrderID     int     `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
	Message     string  `json:"message,omitempty"`
}

// Processor submits a completed checkout to the checkout service.
type Processor interface {
	ProcessCheckout(ctx context.Context, token string, req Request) (Response, error)
}

// OrderEvent is published after a confirmed checkout for downstream
// consumers (confirmation email, fulfilment).
type OrderEvent struct {
	OrderID     int     `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	UserID      int     `json:"user_id"`
	TotalAmount float64 `json:"total_amount"`
}

// Notifier publishes order events. Publishing failures never fail the
// checkout itself.
type Notifier interface {
	OrderConfirmed(ctx context.Context, event OrderEvent) error
}

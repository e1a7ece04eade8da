package checkout

import (
	"fmt"
	"sync"
)

// Wizard holds one shopper's checkout state and walks it through the
// linear step sequence. Confirmation is absorbing: only Reset leaves it.
type Wizard struct {
	mu    sync.Mutex
	state State
}

func NewWizard() *Wizard {
	return &Wizard{state: initialState()}
}

// State returns a copy of the current checkout state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Apply merges a partial update into the state. Only the fields present in
// the update change; everything a sibling step owns is preserved.
func (w *Wizard) Apply(u Update) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if u.BillingAddress != nil {
		w.state.BillingAddress = *u.BillingAddress
	}
	if u.ShippingAddress != nil {
		w.state.ShippingAddress = *u.ShippingAddress
	}
	if u.BillingIsSameAsShipping != nil {
		w.state.BillingIsSameAsShipping = *u.BillingIsSameAsShipping
	}
	if u.IsGift != nil {
		w.state.IsGift = *u.IsGift
	}
	if u.GiftMessage != nil {
		w.state.GiftMessage = *u.GiftMessage
	}
	if u.GiftWrap != nil {
		w.state.GiftWrap = *u.GiftWrap
	}
	if u.PromoCode != nil {
		w.state.PromoCode = *u.PromoCode
	}
	return w.state
}

// Next validates the active step and advances exactly one step. At
// Confirmation it stays put.
func (w *Wizard) Next() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.validateStep(w.state.CurrentStep); err != nil {
		return w.state, err
	}
	idx := stepIndex(w.state.CurrentStep)
	if idx < len(stepOrder)-1 {
		w.state.CurrentStep = stepOrder[idx+1]
	}
	return w.state, nil
}

// Back retreats exactly one step. At CartReview it is a no-op.
func (w *Wizard) Back() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := stepIndex(w.state.CurrentStep)
	if idx > 0 {
		w.state.CurrentStep = stepOrder[idx-1]
	}
	return w.state
}

// Complete jumps to the terminal step after a successful submission.
func (w *Wizard) Complete() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.CurrentStep = StepConfirmation
	return w.state
}

// Reset restores the initial state when the shopper resumes browsing or
// abandons the checkout.
func (w *Wizard) Reset() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = initialState()
	return w.state
}

// validateStep runs the required-field checks local to one step. There is
// no cross-step validation pass; the backend enforces the rest.
func (w *Wizard) validateStep(step Step) error {
	switch step {
	case StepDelivery:
		return w.state.ShippingAddress.validate("shipping_address")
	case StepBilling:
		if w.state.BillingIsSameAsShipping {
			return nil
		}
		return w.state.BillingAddress.validate("billing_address")
	default:
		return nil
	}
}

// BuildRequest assembles the processing payload. The shipping address is
// substituted for billing when the shopper kept them the same.
func (w *Wizard) BuildRequest(items []RequestItem) (Request, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(items) == 0 {
		return Request{}, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	if err := w.state.ShippingAddress.validate("shipping_address"); err != nil {
		return Request{}, err
	}

	billing := w.state.BillingAddress
	if w.state.BillingIsSameAsShipping {
		billing = w.state.ShippingAddress
	} else if err := billing.validate("billing_address"); err != nil {
		return Request{}, err
	}

	shipping := w.state.ShippingAddress
	if shipping.Country == "" {
		shipping.Country = "US"
	}
	if billing.Country == "" {
		billing.Country = "US"
	}

	return Request{
		Items:           items,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		IsGift:          w.state.IsGift,
		GiftWrap:        w.state.GiftWrap,
		GiftMessage:     w.state.GiftMessage,
		PromoCode:       w.state.PromoCode,
	}, nil
}

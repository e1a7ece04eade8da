package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voyager-commerce/storefront/internal/cart"
	"github.com/voyager-commerce/storefront/internal/checkout"
	"github.com/voyager-commerce/storefront/internal/guest"
	"github.com/voyager-commerce/storefront/internal/order"
)

// APIError carries a backend error through to the handler layer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce api: %d %s", e.StatusCode, e.Message)
}

// Client is the JSON client for the commerce and checkout services. It
// implements cart.Gateway, checkout.Processor and order.Gateway.
type Client struct {
	baseURL     string
	checkoutURL string
	httpClient  *http.Client
}

func NewClient(baseURL, checkoutURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		checkoutURL: checkoutURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// do executes one JSON round trip. A nil out discards the body; non-2xx
// responses become an *APIError with the backend's message.
func (c *Client) do(ctx context.Context, method, url, token string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readMessage extracts the error text the backends use, which is either
// {"detail": ...} or {"error": ...} depending on the service.
func readMessage(r io.Reader) string {
	var body struct {
		Detail  string `json:"detail"`
		Err     string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return "request failed"
	}
	switch {
	case body.Detail != "":
		return body.Detail
	case body.Err != "":
		return body.Err
	case body.Message != "":
		return body.Message
	}
	return "request failed"
}

func (c *Client) GetCart(ctx context.Context, token string) (cart.Cart, error) {
	var out cart.Cart
	err := c.do(ctx, http.MethodGet, c.baseURL+"/api/cart", token, nil, &out)
	return out, err
}

func (c *Client) AddToCart(ctx context.Context, token string, productID, quantity int) (cart.Cart, error) {
	var out cart.Cart
	body := map[string]int{"product_id": productID, "quantity": quantity}
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/cart/items", token, body, &out)
	return out, err
}

func (c *Client) UpdateCartItem(ctx context.Context, token string, itemID, quantity int) (cart.Cart, error) {
	var out cart.Cart
	body := map[string]int{"quantity": quantity}
	url := fmt.Sprintf("%s/api/cart/items/%d", c.baseURL, itemID)
	err := c.do(ctx, http.MethodPut, url, token, body, &out)
	return out, err
}

func (c *Client) RemoveCartItem(ctx context.Context, token string, itemID int) (cart.Cart, error) {
	var out cart.Cart
	url := fmt.Sprintf("%s/api/cart/items/%d", c.baseURL, itemID)
	err := c.do(ctx, http.MethodDelete, url, token, nil, &out)
	return out, err
}

func (c *Client) MergeGuestCart(ctx context.Context, token string, items []guest.Item) (cart.Cart, error) {
	var out cart.Cart
	body := map[string]any{"items": items}
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/cart/merge", token, body, &out)
	return out, err
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, c.baseURL+"/api/cart/clear", token, nil, nil)
}

func (c *Client) SaveForLater(ctx context.Context, token string, itemID int) (cart.Cart, error) {
	var out cart.Cart
	url := fmt.Sprintf("%s/api/cart/items/%d/save", c.baseURL, itemID)
	err := c.do(ctx, http.MethodPost, url, token, nil, &out)
	return out, err
}

func (c *Client) RestoreSavedItem(ctx context.Context, token string, savedID int) (cart.Cart, error) {
	var out cart.Cart
	url := fmt.Sprintf("%s/api/cart/saved/%d/restore", c.baseURL, savedID)
	err := c.do(ctx, http.MethodPost, url, token, nil, &out)
	return out, err
}

func (c *Client) RemoveSavedItem(ctx context.Context, token string, savedID int) (cart.Cart, error) {
	var out cart.Cart
	url := fmt.Sprintf("%s/api/cart/saved/%d", c.baseURL, savedID)
	err := c.do(ctx, http.MethodDelete, url, token, nil, &out)
	return out, err
}

func (c *Client) ValidatePromoCode(ctx context.Context, code string) (cart.PromoCode, error) {
	var out cart.PromoCode
	body := map[string]string{"code": code}
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/promo-codes/validate", "", body, &out)
	return out, err
}

func (c *Client) CalculateShippingTax(ctx context.Context, zipCode string, subtotal float64) (cart.ShippingTaxInfo, error) {
	var out cart.ShippingTaxInfo
	body := map[string]any{"zip_code": zipCode, "subtotal": subtotal}
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/shipping/calculate", "", body, &out)
	return out, err
}

func (c *Client) ProcessCheckout(ctx context.Context, token string, req checkout.Request) (checkout.Response, error) {
	var out checkout.Response
	err := c.do(ctx, http.MethodPost, c.checkoutURL+"/api/checkout/process", token, req, &out)
	return out, err
}

func (c *Client) GetUserOrders(ctx context.Context, token string) ([]order.Order, error) {
	var out []order.Order
	err := c.do(ctx, http.MethodGet, c.baseURL+"/api/orders", token, nil, &out)
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, token string, id int) (order.Order, error) {
	var out order.Order
	url := fmt.Sprintf("%s/api/orders/%d", c.baseURL, id)
	err := c.do(ctx, http.MethodGet, url, token, nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return out, nil
}

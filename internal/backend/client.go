// Package backend is the JSON-over-HTTP client for the retail backend. Every
// call carries the device identity and the API credential as headers; failures
// are mapped onto the domain error taxonomy at this boundary.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"storefront-checkout/internal/domain"
)

const (
	headerDeviceID = "X-Device-ID"
	headerAPIKey   = "X-API-Key"
)

// Client talks to the retail backend.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *log.Logger
}

// New builds a Client for the given backend base URL.
func New(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// PriceBreakdown carries the server-resolved price fields as decimal strings.
// Values are parsed defensively by the cart service; a missing or malformed
// field degrades to zero instead of failing the cart.
type PriceBreakdown struct {
	BasePrice       string `json:"basePrice"`
	UnitPrice       string `json:"unitPrice"`
	LineTotal       string `json:"lineTotal"`
	AttributesDelta string `json:"attributesDelta"`
}

// HumanAttribute is one display-ready option choice as the backend sends it.
type HumanAttribute struct {
	Name       string `json:"attributeName"`
	Label      string `json:"optionLabel"`
	PriceDelta string `json:"priceDelta"`
}

// CartItem is one raw cart entry from /cart/show.
type CartItem struct {
	CartItemID       string            `json:"cartItemId"`
	ProductID        string            `json:"productId"`
	Quantity         int               `json:"quantity"`
	Price            PriceBreakdown    `json:"priceBreakdown"`
	SelectedSize     string            `json:"selectedSize"`
	SelectedAttrs    map[string]string `json:"selectedAttributes"`
	HumanAttrs       []HumanAttribute  `json:"selectedAttributesHuman"`
	VariantSignature string            `json:"variantSignature"`
	ProductName      string            `json:"productName"`
	ProductImage     string            `json:"productImage"`
}

// AddItemInput is the payload for /cart/add.
type AddItemInput struct {
	ProductID     string            `json:"productId"`
	Quantity      int               `json:"quantity"`
	SelectedSize  string            `json:"selectedSize,omitempty"`
	SelectedAttrs map[string]string `json:"selectedAttributes,omitempty"`
}

type cartShowRequest struct {
	DeviceID string `json:"deviceId"`
}

type cartShowResponse struct {
	CartItems []CartItem `json:"cartItems"`
}

type addItemRequest struct {
	DeviceID string `json:"deviceId"`
	AddItemInput
}

type deleteItemRequest struct {
	DeviceID         string `json:"deviceId"`
	ProductID        string `json:"productId"`
	VariantSignature string `json:"variantSignature"`
}

type statusResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

func (r statusResponse) failed() bool {
	return (r.Success != nil && !*r.Success) || r.Error != ""
}

func (r statusResponse) message() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// ShowCart fetches the raw cart entries held for a device.
func (c *Client) ShowCart(ctx context.Context, deviceID string) ([]CartItem, error) {
	var resp cartShowResponse
	if err := c.post(ctx, "/cart/show", deviceID, cartShowRequest{DeviceID: deviceID}, &resp); err != nil {
		return nil, err
	}
	return resp.CartItems, nil
}

// AddItem adds a product selection to the device's server-held cart.
func (c *Client) AddItem(ctx context.Context, deviceID string, in AddItemInput) error {
	var resp statusResponse
	if err := c.post(ctx, "/cart/add", deviceID, addItemRequest{DeviceID: deviceID, AddItemInput: in}, &resp); err != nil {
		return err
	}
	if resp.failed() {
		return &domain.ServerError{Status: http.StatusOK, Message: resp.message()}
	}
	return nil
}

// DeleteItem removes one cart row server-side, keyed by device, product and
// variant signature.
func (c *Client) DeleteItem(ctx context.Context, deviceID, productID, variantSignature string) error {
	req := deleteItemRequest{
		DeviceID:         deviceID,
		ProductID:        productID,
		VariantSignature: variantSignature,
	}
	var resp statusResponse
	if err := c.post(ctx, "/cart/delete-item", deviceID, req, &resp); err != nil {
		return err
	}
	if resp.failed() {
		return &domain.ServerError{Status: http.StatusOK, Message: resp.message()}
	}
	return nil
}

// SaveOrder submits an assembled order draft. The returned order id may be
// empty when the backend acknowledges without issuing one.
func (c *Client) SaveOrder(ctx context.Context, draft domain.OrderDraft) (string, error) {
	var resp statusResponse
	if err := c.post(ctx, "/order/save", draft.DeviceUUID, draft, &resp); err != nil {
		return "", err
	}
	if resp.failed() {
		return "", &domain.ServerError{Status: http.StatusOK, Message: resp.message()}
	}
	return resp.OrderID, nil
}

func (c *Client) post(ctx context.Context, path, deviceID string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
	if deviceID != "" {
		req.Header.Set(headerDeviceID, deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("POST %s: %v", path, err)
		return &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s returned status %d: %w", path, resp.StatusCode, domain.ErrAuth)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ServerError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ParseError{Err: err}
	}
	return nil
}

// readErrorMessage pulls a server-supplied message out of an error body.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body statusResponse
	if err := json.Unmarshal(data, &body); err == nil && body.message() != "" {
		return body.message()
	}
	return strings.TrimSpace(string(data))
}

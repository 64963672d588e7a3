// Package storefront is a thin client for the commerce platform's GraphQL
// Storefront API. Each call is a single request/response exchange: no retry,
// no caching, no batching.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultAPIVersion = "2024-10"
	tokenHeader       = "X-Shopify-Storefront-Access-Token"
)

// ErrNotConfigured is returned when the client was built without the store
// domain or access token.
var ErrNotConfigured = errors.New("storefront: missing store domain or access token")

// ErrProductNotFound is returned when the requested handle resolves to no product.
var ErrProductNotFound = errors.New("storefront: product not found")

// GraphQLError is one entry of the API's errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// APIError carries the errors array of a GraphQL response. Handlers log it
// and show a generic retry message; raw detail never reaches the user.
type APIError struct {
	Errors []GraphQLError `json:"errors"`
}

func (e *APIError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, g := range e.Errors {
		msgs = append(msgs, g.Message)
	}
	return "storefront: api errors: " + strings.Join(msgs, "; ")
}

// Client issues GraphQL documents against one store's Storefront API endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the computed endpoint URL, primarily for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSpace(endpoint) }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a client for the given store domain and access token. Version
// falls back to the pinned API version when empty. A client with missing
// credentials is still returned; calls fail with ErrNotConfigured so the
// page handler can render the configuration-error page.
func New(domain, token, version string, opts ...Option) *Client {
	domain = strings.TrimSpace(domain)
	if version = strings.TrimSpace(version); version == "" {
		version = defaultAPIVersion
	}
	c := &Client{
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: defaultTimeout},
	}
	if domain != "" {
		c.endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", domain, version)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has everything it needs to talk to
// the API.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != "" && c.token != ""
}

// do posts one GraphQL document and decodes the data payload into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("storefront: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("storefront: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storefront: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storefront: status %d: %s", resp.StatusCode, drainError(resp.Body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []GraphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("storefront: decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return &APIError{Errors: envelope.Errors}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("storefront: decode data: %w", err)
		}
	}
	return nil
}

// Product fetches the product by handle along with the shop configuration
// (payment settings plus the gate metafields).
func (c *Client) Product(ctx context.Context, handle string) (Product, Shop, error) {
	var data struct {
		Product *productPayload `json:"product"`
		Shop    shopPayload     `json:"shop"`
	}
	if err := c.do(ctx, productQuery, map[string]any{"handle": handle}, &data); err != nil {
		return Product{}, Shop{}, err
	}
	if data.Product == nil {
		return Product{}, Shop{}, ErrProductNotFound
	}
	return data.Product.toProduct(), data.Shop.toShop(), nil
}

// CreateCart creates a new cart holding a single line.
func (c *Client) CreateCart(ctx context.Context, merchandiseID string, quantity int) (Cart, error) {
	var data struct {
		CartCreate struct {
			Cart cartPayload `json:"cart"`
		} `json:"cartCreate"`
	}
	vars := map[string]any{
		"input": map[string]any{
			"lines": []map[string]any{
				{"merchandiseId": merchandiseID, "quantity": quantity},
			},
		},
	}
	if err := c.do(ctx, cartCreateMutation, vars, &data); err != nil {
		return Cart{}, err
	}
	return data.CartCreate.Cart.toCart(), nil
}

// AddLine adds one line to an existing cart and returns the full cart.
func (c *Client) AddLine(ctx context.Context, cartID, merchandiseID string, quantity int) (Cart, error) {
	var data struct {
		CartLinesAdd struct {
			Cart cartPayload `json:"cart"`
		} `json:"cartLinesAdd"`
	}
	vars := map[string]any{
		"cartId": cartID,
		"lines": []map[string]any{
			{"merchandiseId": merchandiseID, "quantity": quantity},
		},
	}
	if err := c.do(ctx, cartLinesAddMutation, vars, &data); err != nil {
		return Cart{}, err
	}
	return data.CartLinesAdd.Cart.toCart(), nil
}

// UpdateLine sets the quantity of one line. Callers must route quantities of
// zero or less through RemoveLines instead.
func (c *Client) UpdateLine(ctx context.Context, cartID, lineID string, quantity int) (Cart, error) {
	var data struct {
		CartLinesUpdate struct {
			Cart cartPayload `json:"cart"`
		} `json:"cartLinesUpdate"`
	}
	vars := map[string]any{
		"cartId": cartID,
		"lines": []map[string]any{
			{"id": lineID, "quantity": quantity},
		},
	}
	if err := c.do(ctx, cartLinesUpdateMutation, vars, &data); err != nil {
		return Cart{}, err
	}
	return data.CartLinesUpdate.Cart.toCart(), nil
}

// RemoveLines deletes the given lines from the cart.
func (c *Client) RemoveLines(ctx context.Context, cartID string, lineIDs ...string) (Cart, error) {
	var data struct {
		CartLinesRemove struct {
			Cart cartPayload `json:"cart"`
		} `json:"cartLinesRemove"`
	}
	vars := map[string]any{
		"cartId":  cartID,
		"lineIds": lineIDs,
	}
	if err := c.do(ctx, cartLinesRemoveMutation, vars, &data); err != nil {
		return Cart{}, err
	}
	return data.CartLinesRemove.Cart.toCart(), nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

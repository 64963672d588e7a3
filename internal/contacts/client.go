// Package contacts talks to the marketing-automation contacts API. The
// subscription relay treats every failure here as non-fatal; the client just
// reports them.
package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://api.omnisend.com/v3/contacts"
	defaultTimeout  = 8 * time.Second
	apiKeyHeader    = "X-API-KEY"
)

// Tags attached to every subscriber pushed through the gate signup.
var subscriberTags = []string{"early-access", "gate-signup"}

// NormalizePhone reduces a free-form phone number to an E.164-like string:
// non-digits are stripped, a bare 10-digit national number gets the default
// country code "1", and the result is prefixed with "+".
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	formatted := digits.String()
	if len(formatted) == 10 && !strings.HasPrefix(formatted, "1") {
		formatted = "1" + formatted
	}
	return "+" + formatted
}

// Client upserts subscriber records against the contacts API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	now      func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the contacts endpoint, primarily for tests.
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

// WithClock fixes the statusDate clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a contacts client. An empty API key yields an unconfigured
// client; callers check Configured before attempting an upsert.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: defaultEndpoint,
		apiKey:   strings.TrimSpace(apiKey),
		http:     &http.Client{Timeout: defaultTimeout},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type channel struct {
	Status     string `json:"status"`
	StatusDate string `json:"statusDate"`
}

type identifier struct {
	Type     string             `json:"type"`
	ID       string             `json:"id"`
	Channels map[string]channel `json:"channels"`
}

type upsertRequest struct {
	Identifiers []identifier `json:"identifiers"`
	Tags        []string     `json:"tags"`
}

// Upsert subscribes the email and (normalized) phone on their respective
// channels with the fixed gate-signup tags.
func (c *Client) Upsert(ctx context.Context, email, phone string) error {
	if !c.Configured() {
		return fmt.Errorf("contacts: api key not configured")
	}
	statusDate := c.now().UTC().Format(time.RFC3339)
	subscribed := channel{Status: "subscribed", StatusDate: statusDate}
	payload := upsertRequest{
		Identifiers: []identifier{
			{
				Type:     "email",
				ID:       email,
				Channels: map[string]channel{"email": subscribed},
			},
			{
				Type:     "phone",
				ID:       NormalizePhone(phone),
				Channels: map[string]channel{"sms": subscribed},
			},
		},
		Tags: subscriberTags,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("contacts: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("contacts: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacts: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("contacts: status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/miltonisblurrd/noLuckyDays/internal/config"
	"github.com/miltonisblurrd/noLuckyDays/internal/contacts"
	"github.com/miltonisblurrd/noLuckyDays/internal/content"
	mw "github.com/miltonisblurrd/noLuckyDays/internal/middleware"
	"github.com/miltonisblurrd/noLuckyDays/internal/storefront"
)

const testVariantID = "gid://shopify/ProductVariant/11"

// fakeLine is one cart line held by the fake Storefront API.
type fakeLine struct {
	id        string
	variantID string
	qty       int
}

// fakeStorefront emulates the commerce API: one product, one stateful cart,
// canned gate metafields. Mutations mutate the cart and answer with the full
// projection the way the real API does.
type fakeStorefront struct {
	mu             sync.Mutex
	gateEnabled    bool
	gatePassword   string
	productMissing bool

	lines        []fakeLine
	seq          int
	lastMutation string
}

func (f *fakeStorefront) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var body string
	switch {
	case strings.Contains(req.Query, "cartCreate"):
		f.lastMutation = "cartCreate"
		f.lines = nil
		input := req.Variables["input"].(map[string]any)
		for _, l := range input["lines"].([]any) {
			f.addLine(l.(map[string]any))
		}
		body = fmt.Sprintf(`{"data":{"cartCreate":{"cart":%s}}}`, f.cartJSON())
	case strings.Contains(req.Query, "cartLinesAdd"):
		f.lastMutation = "cartLinesAdd"
		for _, l := range req.Variables["lines"].([]any) {
			f.addLine(l.(map[string]any))
		}
		body = fmt.Sprintf(`{"data":{"cartLinesAdd":{"cart":%s}}}`, f.cartJSON())
	case strings.Contains(req.Query, "cartLinesUpdate"):
		f.lastMutation = "cartLinesUpdate"
		for _, raw := range req.Variables["lines"].([]any) {
			l := raw.(map[string]any)
			id := l["id"].(string)
			qty := int(l["quantity"].(float64))
			for i := range f.lines {
				if f.lines[i].id == id {
					f.lines[i].qty = qty
				}
			}
		}
		body = fmt.Sprintf(`{"data":{"cartLinesUpdate":{"cart":%s}}}`, f.cartJSON())
	case strings.Contains(req.Query, "cartLinesRemove"):
		f.lastMutation = "cartLinesRemove"
		for _, raw := range req.Variables["lineIds"].([]any) {
			id := raw.(string)
			kept := f.lines[:0]
			for _, l := range f.lines {
				if l.id != id {
					kept = append(kept, l)
				}
			}
			f.lines = kept
		}
		body = fmt.Sprintf(`{"data":{"cartLinesRemove":{"cart":%s}}}`, f.cartJSON())
	default:
		body = f.productJSON()
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeStorefront) addLine(l map[string]any) {
	variantID := l["merchandiseId"].(string)
	qty := int(l["quantity"].(float64))
	for i := range f.lines {
		if f.lines[i].variantID == variantID {
			f.lines[i].qty += qty
			return
		}
	}
	f.seq++
	f.lines = append(f.lines, fakeLine{
		id:        fmt.Sprintf("gid://shopify/CartLine/l%d", f.seq),
		variantID: variantID,
		qty:       qty,
	})
}

func (f *fakeStorefront) cartJSON() string {
	nodes := make([]string, 0, len(f.lines))
	total := 0
	for _, l := range f.lines {
		total += l.qty
		nodes = append(nodes, fmt.Sprintf(`{
			"id": %q, "quantity": %d,
			"merchandise": {
				"id": %q, "title": "One Size",
				"price": {"amount": "40.0", "currencyCode": "USD"},
				"product": {"title": "Black Beanie", "images": {"nodes": [{"url": "https://cdn.example.com/beanie.jpg"}]}}
			}}`, l.id, l.qty, l.variantID))
	}
	return fmt.Sprintf(`{
		"id": "gid://shopify/Cart/test-cart",
		"checkoutUrl": "https://checkout.example.com/c/test-cart",
		"lines": {"nodes": [%s]},
		"cost": {"subtotalAmount": {"amount": "%d.0", "currencyCode": "USD"}}
	}`, strings.Join(nodes, ","), total*40)
}

func (f *fakeStorefront) productJSON() string {
	if f.productMissing {
		return `{"data":{"product":null,"shop":{"paymentSettings":{"currencyCode":"USD"}}}}`
	}
	gateEnabled := "null"
	if f.gateEnabled {
		gateEnabled = `{"value":"true"}`
	}
	gatePassword := "null"
	if f.gatePassword != "" {
		gatePassword = fmt.Sprintf(`{"value":%q}`, f.gatePassword)
	}
	return fmt.Sprintf(`{"data":{
		"product": {
			"id": "gid://shopify/Product/1",
			"title": "Black Beanie",
			"description": "Warm. Black. Limited.",
			"variants": {"nodes": [
				{"id": %q, "title": "One Size",
				 "price": {"amount": "40.0", "currencyCode": "USD"},
				 "availableForSale": true,
				 "selectedOptions": [{"name": "Size", "value": "One Size"}]}
			]},
			"images": {"nodes": [{"url": "https://cdn.example.com/beanie.jpg", "altText": "beanie", "width": 800, "height": 800}]}
		},
		"shop": {
			"paymentSettings": {"currencyCode": "USD", "acceptedCardBrands": ["VISA"], "enabledPresentmentCurrencies": ["USD"]},
			"gateEnabled": %s,
			"gatePassword": %s
		}
	}}`, testVariantID, gateEnabled, gatePassword)
}

// fakeContacts records upsert payloads pushed by the signup paths.
type fakeContacts struct {
	mu       sync.Mutex
	requests []map[string]any
}

func (f *fakeContacts) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	f.mu.Lock()
	f.requests = append(f.requests, payload)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeContacts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// newTestEnv wires the package globals to fakes and builds the router the way
// main() does.
func newTestEnv(t *testing.T, store *fakeStorefront) (http.Handler, *fakeContacts) {
	t.Helper()

	storeSrv := httptest.NewServer(store)
	t.Cleanup(storeSrv.Close)
	contactsFake := &fakeContacts{}
	contactsSrv := httptest.NewServer(contactsFake)
	t.Cleanup(contactsSrv.Close)

	mw.ConfigureSessions("test-signing-key", false)
	cfg = config.Config{
		DevMode:         true,
		StoreDomain:     "shop.example.com",
		StorefrontToken: "tok",
		ProductHandle:   "no-lucky-days-black-beanie",
		TemplatesDir:    "../../templates",
		PublicDir:       "../../public",
		ContentDir:      "../../content",
	}
	if _, err := parseTemplates(); err != nil {
		t.Fatalf("parseTemplates failed: %v", err)
	}
	storeClient = storefront.New(cfg.StoreDomain, cfg.StorefrontToken, "", storefront.WithEndpoint(storeSrv.URL))
	contactsClient = contacts.New("test-key", contacts.WithEndpoint(contactsSrv.URL))
	contentStore = content.NewStore(cfg.ContentDir)

	return newRouter(), contactsFake
}

// browser drives the router while carrying cookies between requests.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]string
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	return &browser{t: t, h: h, cookies: map[string]string{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if len(b.cookies) > 0 {
		pairs := make([]string, 0, len(b.cookies))
		for k, v := range b.cookies {
			pairs = append(pairs, k+"="+v)
		}
		req.Header.Set("Cookie", strings.Join(pairs, "; "))
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c.Value
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if tok := b.cookies["csrf_token"]; tok != "" {
		form.Set("csrf_token", tok)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func parseDoc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("parse response HTML: %v", err)
	}
	return doc
}

func TestHealthzOK(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "ok" {
		t.Fatalf("expected body 'ok', got %q", got)
	}
}

func TestGateDisabledShowsProductPage(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{gateEnabled: false})
	b := newBrowser(t, srv)

	rec := b.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	doc := parseDoc(t, rec)
	if got := doc.Find(".product-title").Text(); !strings.Contains(got, "Black Beanie") {
		t.Fatalf("expected product title, got %q", got)
	}
	if price := doc.Find(`[data-testid="price"]`).Text(); !strings.Contains(price, "$40.00") {
		t.Fatalf("expected formatted price, got %q", price)
	}
	if !strings.Contains(rec.Body.String(), "$10.00") {
		t.Fatalf("expected installment amount in body")
	}
}

func TestGateLockedShowsSignupForm(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{gateEnabled: true})
	b := newBrowser(t, srv)

	rec := b.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	doc := parseDoc(t, rec)
	if doc.Find(`form[hx-post="/gate/signup"]`).Length() != 1 {
		t.Fatalf("expected signup form on locked page; body=%s", rec.Body.String())
	}
	// no password configured: the toggle must be hidden
	if doc.Find(".gate-toggle-btn").Length() != 0 {
		t.Fatalf("expected no password toggle without a configured password")
	}
	if doc.Find(".product-title").Length() != 0 {
		t.Fatalf("product markup must not leak onto the lock screen")
	}
}

func TestGatePasswordModeToggle(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{gateEnabled: true, gatePassword: "vip2024"})
	b := newBrowser(t, srv)

	doc := parseDoc(t, b.get("/"))
	if doc.Find(`a[href="/?mode=password"]`).Length() != 1 {
		t.Fatalf("expected password toggle when a password is configured")
	}

	doc = parseDoc(t, b.get("/?mode=password"))
	if doc.Find(`form[hx-post="/gate/password"]`).Length() != 1 {
		t.Fatalf("expected password form in password mode")
	}
	if doc.Find(`input[type="password"]`).Length() != 1 {
		t.Fatalf("expected password input in password mode")
	}
}

func TestGatePasswordWrongThenRight(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{gateEnabled: true, gatePassword: "vip2024"})
	b := newBrowser(t, srv)
	b.get("/") // prime session + csrf

	rec := b.postForm("/gate/password", url.Values{"password": {"wrong"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fragment, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), msgWrongPassword) {
		t.Fatalf("expected wrong-password message; body=%s", rec.Body.String())
	}

	rec = b.postForm("/gate/password", url.Values{"password": {""}}, true)
	if !strings.Contains(rec.Body.String(), msgEmptyPassword) {
		t.Fatalf("expected empty-password message; body=%s", rec.Body.String())
	}

	rec = b.postForm("/gate/password", url.Values{"password": {"vip2024"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/" {
		t.Fatalf("expected HX-Redirect to /, got %q", got)
	}

	// the unlock persists: the next page load is the product page
	doc := parseDoc(t, b.get("/"))
	if doc.Find(".product-title").Length() != 1 {
		t.Fatalf("expected product page after unlock")
	}
}

func TestGateSignupNeverUnlocks(t *testing.T) {
	srv, contactsFake := newTestEnv(t, &fakeStorefront{gateEnabled: true, gatePassword: "vip2024"})
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.postForm("/gate/signup", url.Values{
		"email": {"shopper@example.com"},
		"phone": {"(555) 123-4567"},
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), msgSignupThanks) {
		t.Fatalf("expected signup confirmation; body=%s", rec.Body.String())
	}
	// the form is cleared after success
	doc := parseDoc(t, rec)
	if v, _ := doc.Find(`input[name="email"]`).Attr("value"); v != "" {
		t.Fatalf("expected cleared email field, got %q", v)
	}

	if contactsFake.count() != 1 {
		t.Fatalf("expected one contacts upsert, got %d", contactsFake.count())
	}
	payload := contactsFake.requests[0]
	raw, _ := json.Marshal(payload)
	if !strings.Contains(string(raw), "+15551234567") {
		t.Fatalf("expected normalized phone in upsert payload; got %s", raw)
	}
	if !strings.Contains(string(raw), "early-access") {
		t.Fatalf("expected subscriber tags in upsert payload; got %s", raw)
	}

	// signup does not open the gate
	doc = parseDoc(t, b.get("/"))
	if doc.Find(`form[hx-post="/gate/signup"]`).Length() != 1 {
		t.Fatalf("expected lock screen to remain after signup")
	}
}

func TestGateSignupValidation(t *testing.T) {
	srv, contactsFake := newTestEnv(t, &fakeStorefront{gateEnabled: true})
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.postForm("/gate/signup", url.Values{"email": {"shopper@example.com"}}, true)
	if !strings.Contains(rec.Body.String(), msgMissingSignup) {
		t.Fatalf("expected missing-fields message; body=%s", rec.Body.String())
	}

	rec = b.postForm("/gate/signup", url.Values{
		"email": {"not-an-email"},
		"phone": {"5551234567"},
	}, true)
	if !strings.Contains(rec.Body.String(), msgInvalidEmail) {
		t.Fatalf("expected invalid-email message; body=%s", rec.Body.String())
	}
	// the rejected email is kept so the visitor can fix it
	doc := parseDoc(t, rec)
	if v, _ := doc.Find(`input[name="email"]`).Attr("value"); v != "not-an-email" {
		t.Fatalf("expected repopulated email field, got %q", v)
	}

	if contactsFake.count() != 0 {
		t.Fatalf("invalid submissions must not reach the contacts API, got %d calls", contactsFake.count())
	}
}

func TestCartAddRendersDrawerFromAPIResponse(t *testing.T) {
	store := &fakeStorefront{}
	srv, _ := newTestEnv(t, store)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.postForm("/cart/lines", url.Values{
		"variant_id": {testVariantID},
		"quantity":   {"2"},
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if store.lastMutation != "cartCreate" {
		t.Fatalf("first add must create the cart, got %q", store.lastMutation)
	}

	trigger := rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "cart:updated") || !strings.Contains(trigger, `"count":2`) {
		t.Fatalf("expected cart:updated trigger with count, got %q", trigger)
	}

	doc := parseDoc(t, rec)
	if got := doc.Find(`[data-testid="subtotal"]`).Text(); !strings.Contains(got, "$80.00") {
		t.Fatalf("expected API subtotal in drawer, got %q", got)
	}
	if got := doc.Find("#cart-count").Text(); got != "2" {
		t.Fatalf("expected badge count 2, got %q", got)
	}
	if href, _ := doc.Find(".checkout-btn").Attr("href"); href != "https://checkout.example.com/c/test-cart" {
		t.Fatalf("expected checkout link from API, got %q", href)
	}

	// second add reuses the stored cart id
	rec = b.postForm("/cart/lines", url.Values{
		"variant_id": {testVariantID},
		"quantity":   {"1"},
	}, true)
	if store.lastMutation != "cartLinesAdd" {
		t.Fatalf("second add must extend the cart, got %q", store.lastMutation)
	}
	doc = parseDoc(t, rec)
	if got := doc.Find(`[data-testid="subtotal"]`).Text(); !strings.Contains(got, "$120.00") {
		t.Fatalf("expected updated subtotal, got %q", got)
	}
}

func TestCartDrawerReflectsLatestMutation(t *testing.T) {
	store := &fakeStorefront{}
	srv, _ := newTestEnv(t, store)
	b := newBrowser(t, srv)
	b.get("/")

	b.postForm("/cart/lines", url.Values{"variant_id": {testVariantID}, "quantity": {"1"}}, true)
	lineID := store.lines[0].id

	// overlapping quantity edits: each response replaces the drawer wholesale,
	// so the last mutation's projection is what the visitor ends up seeing
	b.postForm("/cart/lines/update", url.Values{"line_id": {lineID}, "quantity": {"5"}}, true)
	rec := b.postForm("/cart/lines/update", url.Values{"line_id": {lineID}, "quantity": {"2"}}, true)

	doc := parseDoc(t, rec)
	if got := doc.Find(`[data-testid="subtotal"]`).Text(); !strings.Contains(got, "$80.00") {
		t.Fatalf("expected last write to win, got %q", got)
	}
	if got := doc.Find("#cart-count").Text(); got != "2" {
		t.Fatalf("expected badge count 2, got %q", got)
	}
}

func TestCartQuantityZeroRemovesLine(t *testing.T) {
	store := &fakeStorefront{}
	srv, _ := newTestEnv(t, store)
	b := newBrowser(t, srv)
	b.get("/")

	b.postForm("/cart/lines", url.Values{"variant_id": {testVariantID}, "quantity": {"1"}}, true)
	lineID := store.lines[0].id

	rec := b.postForm("/cart/lines/update", url.Values{"line_id": {lineID}, "quantity": {"0"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if store.lastMutation != "cartLinesRemove" {
		t.Fatalf("zero quantity must remove, got %q", store.lastMutation)
	}
	if !strings.Contains(rec.Body.String(), "Your cart is empty") {
		t.Fatalf("expected empty drawer; body=%s", rec.Body.String())
	}
}

func TestCartDrawerStartsEmpty(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{})
	b := newBrowser(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("HX-Request", "true")
	rec := b.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Your cart is empty") {
		t.Fatalf("expected empty drawer on first open; body=%s", rec.Body.String())
	}
}

func TestBuyNowRedirectsToCheckout(t *testing.T) {
	store := &fakeStorefront{}
	srv, _ := newTestEnv(t, store)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.postForm("/cart/buy-now", url.Values{
		"variant_id": {testVariantID},
		"quantity":   {"1"},
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("HX-Redirect"); got != "https://checkout.example.com/c/test-cart" {
		t.Fatalf("expected checkout redirect, got %q", got)
	}

	// non-htmx falls back to a 303
	rec = b.postForm("/cart/buy-now", url.Values{
		"variant_id": {testVariantID},
		"quantity":   {"1"},
	}, false)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://checkout.example.com/c/test-cart" {
		t.Fatalf("expected Location header, got %q", got)
	}
}

func TestCartMutationWithoutCSRFIsRejected(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{})
	b := newBrowser(t, srv)
	b.get("/")

	form := url.Values{"variant_id": {testVariantID}, "quantity": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/cart/lines", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := b.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", rec.Code)
	}
}

func TestSubscribeRelay(t *testing.T) {
	srv, contactsFake := newTestEnv(t, &fakeStorefront{})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"email":"shopper@example.com","phone":"5551234567"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	var resp subscribeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Message != "Subscribed successfully" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if contactsFake.count() != 1 {
		t.Fatalf("expected one forwarded upsert, got %d", contactsFake.count())
	}

	// missing fields are the only client-visible failure
	rec = post(`{"email":"shopper@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing phone, got %d", rec.Code)
	}

	// an undecodable body counts as missing fields
	rec = post(`{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	// non-POST is rejected
	req := httptest.NewRequest(http.MethodGet, "/api/subscribe", nil)
	getRec := httptest.NewRecorder()
	srv.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", getRec.Code)
	}
}

func TestSubscribeRelaySwallowsDownstreamFailure(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{})

	// point the contacts client at a dead endpoint
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)
	contactsClient = contacts.New("test-key", contacts.WithEndpoint(broken.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe",
		strings.NewReader(`{"email":"shopper@example.com","phone":"5551234567"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("downstream failure must not surface, got %d", rec.Code)
	}

	// unconfigured key: same contract, no outbound call
	contactsClient = contacts.New("")
	req = httptest.NewRequest(http.MethodPost, "/api/subscribe",
		strings.NewReader(`{"email":"shopper@example.com","phone":"5551234567"}`))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unconfigured relay must still acknowledge, got %d", rec.Code)
	}
}

func TestProductNotFound(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{productMissing: true})
	b := newBrowser(t, srv)

	rec := b.get("/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Product not found") {
		t.Fatalf("expected not-found copy; body=%s", rec.Body.String())
	}
}

func TestStorefrontUnconfigured(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{})
	storeClient = storefront.New("", "", "")
	b := newBrowser(t, srv)

	rec := b.get("/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgNotConfigured) {
		t.Fatalf("expected configuration copy; body=%s", rec.Body.String())
	}
}

func TestPolicyPages(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{})
	b := newBrowser(t, srv)

	rec := b.get("/policies/privacy")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	doc := parseDoc(t, rec)
	if got := doc.Find(".policy-body h1").Text(); got != "Privacy Policy" {
		t.Fatalf("expected policy title, got %q", got)
	}
	if cache := rec.Header().Get("Cache-Control"); cache != "public, max-age=600" {
		t.Fatalf("expected cache header, got %q", cache)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/policies/privacy", nil)
	req.Header.Set("If-None-Match", etag)
	rec2 := b.do(req)
	if rec2.Code != http.StatusNotModified {
		t.Fatalf("expected 304 for matching ETag, got %d", rec2.Code)
	}

	rec3 := b.get("/policies/does-not-exist")
	if rec3.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown policy, got %d", rec3.Code)
	}
}

func TestProductSelectionURLs(t *testing.T) {
	srv, _ := newTestEnv(t, &fakeStorefront{})
	b := newBrowser(t, srv)

	doc := parseDoc(t, b.get("/?qty=3"))
	if got := doc.Find(".quantity-value").Text(); got != "3" {
		t.Fatalf("expected quantity 3 from query, got %q", got)
	}
	if v, _ := doc.Find(`input[name="quantity"]`).First().Attr("value"); v != "3" {
		t.Fatalf("expected hidden quantity 3, got %q", v)
	}

	// quantity never drops below one
	doc = parseDoc(t, b.get("/?qty=0"))
	if got := doc.Find(".quantity-value").Text(); got != "1" {
		t.Fatalf("expected clamped quantity 1, got %q", got)
	}
}

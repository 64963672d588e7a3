package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	mw "github.com/miltonisblurrd/noLuckyDays/internal/middleware"
	"github.com/miltonisblurrd/noLuckyDays/internal/storefront"
)

// CartDrawerHandler renders the drawer in its initial state. The stored cart
// id is deliberately not used to rehydrate a previous visit's cart; the
// drawer only ever reflects this page view's mutation responses.
func CartDrawerHandler(w http.ResponseWriter, r *http.Request) {
	renderDrawer(w, r, cartView{Open: true})
}

// CartAddHandler adds the selected variant to the cart, creating the cart on
// first use and persisting its id to the session.
func CartAddHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	variantID := strings.TrimSpace(r.PostFormValue("variant_id"))
	if variantID == "" {
		http.Error(w, "missing variant", http.StatusBadRequest)
		return
	}
	quantity := parseQuantity(r.PostFormValue("quantity"), 1)

	sess := mw.GetSession(r)
	var (
		cart storefront.Cart
		err  error
	)
	if sess.CartID == "" {
		cart, err = storeClient.CreateCart(r.Context(), variantID, quantity)
		if err == nil {
			sess.SetCartID(cart.ID)
		}
	} else {
		cart, err = storeClient.AddLine(r.Context(), sess.CartID, variantID, quantity)
	}
	if err != nil {
		logger.Error("add to cart", zap.Error(err))
		renderDrawer(w, r, cartView{Open: true, Error: msgRetry})
		return
	}
	renderDrawer(w, r, cartView{Cart: &cart, Open: true})
}

// CartLineUpdateHandler changes one line's quantity. A quantity of zero or
// less removes the line instead of updating it.
func CartLineUpdateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	lineID := strings.TrimSpace(r.PostFormValue("line_id"))
	if lineID == "" {
		http.Error(w, "missing line", http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}

	sess := mw.GetSession(r)
	if sess.CartID == "" {
		renderDrawer(w, r, cartView{Open: true})
		return
	}

	var cart storefront.Cart
	if quantity <= 0 {
		cart, err = storeClient.RemoveLines(r.Context(), sess.CartID, lineID)
	} else {
		cart, err = storeClient.UpdateLine(r.Context(), sess.CartID, lineID, quantity)
	}
	if err != nil {
		logger.Error("update cart line", zap.Error(err))
		renderDrawer(w, r, cartView{Open: true, Error: msgRetry})
		return
	}
	renderDrawer(w, r, cartView{Cart: &cart, Open: true})
}

// BuyNowHandler creates a fresh one-line cart, ignoring any existing cart,
// and sends the visitor straight to checkout.
func BuyNowHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	variantID := strings.TrimSpace(r.PostFormValue("variant_id"))
	if variantID == "" {
		http.Error(w, "missing variant", http.StatusBadRequest)
		return
	}
	quantity := parseQuantity(r.PostFormValue("quantity"), 1)

	cart, err := storeClient.CreateCart(r.Context(), variantID, quantity)
	if err != nil {
		logger.Error("buy now", zap.Error(err))
		renderErrorPage(w, r, http.StatusBadGateway, msgRetry)
		return
	}
	// the session cart id is untouched: every buy-now is an independent
	// one-line checkout
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Redirect", cart.CheckoutURL)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, cart.CheckoutURL, http.StatusSeeOther)
}

func renderDrawer(w http.ResponseWriter, r *http.Request, view cartView) {
	view.CSRFToken = mw.GetSession(r).CSRFToken
	if payload, err := json.Marshal(map[string]any{
		"cart:updated": map[string]any{"count": view.ItemCount(), "open": view.Open},
	}); err == nil {
		w.Header().Set("HX-Trigger", string(payload))
	}
	renderFrag(w, r, "frag_cart_drawer", view)
}

func parseQuantity(raw string, fallback int) int {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty < 1 {
		return fallback
	}
	return qty
}

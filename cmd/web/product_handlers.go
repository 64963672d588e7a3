package main

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/miltonisblurrd/noLuckyDays/internal/gate"
	mw "github.com/miltonisblurrd/noLuckyDays/internal/middleware"
	"github.com/miltonisblurrd/noLuckyDays/internal/storefront"
)

const (
	msgRetry         = "Something went wrong. Please try again."
	msgNotConfigured = "The store is not configured yet. Please check back soon."
)

// ProductPageHandler fetches product + shop configuration and renders either
// the lock screen or the product page.
func ProductPageHandler(w http.ResponseWriter, r *http.Request) {
	product, shop, ok := fetchProduct(w, r)
	if !ok {
		return
	}

	sess := mw.GetSession(r)
	keeper := gate.New(shop.GateEnabled, shop.GatePassword)
	if keeper.Locked(sess.GateStore()) {
		view := gateView{
			Mode:               keeper.ResolveMode(r.URL.Query().Get("mode")),
			PasswordConfigured: keeper.PasswordConfigured(),
			CSRFToken:          sess.CSRFToken,
		}
		renderPage(w, r, "gate", pageData{
			Title:     "Early Access",
			CSRFToken: sess.CSRFToken,
			Gate:      &view,
		})
		return
	}

	view := buildProductView(product, shop, r.URL.Query())
	renderPage(w, r, "product", pageData{
		Title:       product.Title,
		Description: product.Description,
		CSRFToken:   sess.CSRFToken,
		Product:     &view,
	})
}

// fetchProduct loads the page's product and shop configuration, writing the
// appropriate error page itself when the fetch cannot succeed.
func fetchProduct(w http.ResponseWriter, r *http.Request) (storefront.Product, storefront.Shop, bool) {
	if !storeClient.Configured() {
		logger.Error("storefront not configured")
		renderErrorPage(w, r, http.StatusInternalServerError, msgNotConfigured)
		return storefront.Product{}, storefront.Shop{}, false
	}
	product, shop, err := storeClient.Product(r.Context(), cfg.ProductHandle)
	if err != nil {
		if errors.Is(err, storefront.ErrProductNotFound) {
			logger.Warn("product not found", zap.String("handle", cfg.ProductHandle))
			renderErrorPage(w, r, http.StatusNotFound, "Product not found")
			return storefront.Product{}, storefront.Shop{}, false
		}
		logger.Error("fetch product", zap.Error(err))
		renderErrorPage(w, r, http.StatusBadGateway, msgRetry)
		return storefront.Product{}, storefront.Shop{}, false
	}
	return product, shop, true
}

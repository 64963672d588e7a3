package main

import (
	"net/url"
	"strconv"

	"github.com/miltonisblurrd/noLuckyDays/internal/gate"
	"github.com/miltonisblurrd/noLuckyDays/internal/storefront"
)

// pageData is the shared view model for full pages.
type pageData struct {
	Title       string
	Description string
	CSRFToken   string
	CartCount   int

	Product *productView
	Gate    *gateView
	Error   string
}

// productView drives the product page: selection state plus derived display
// strings. Selection is pure UI state carried in the query string.
type productView struct {
	Product       storefront.Product
	Shop          storefront.Shop
	Selected      storefront.Variant
	SelectedImage int
	Quantity      int
	OptionName    string
}

// buildProductView resolves variant, image, and quantity selection from the
// query string. Variant defaults to the first; quantity is clamped at 1.
func buildProductView(p storefront.Product, shop storefront.Shop, q url.Values) productView {
	view := productView{
		Product:  p,
		Shop:     shop,
		Quantity: 1,
	}
	if len(p.Variants) > 0 {
		view.Selected = p.Variants[0]
		if want := q.Get("variant"); want != "" {
			for _, v := range p.Variants {
				if v.ID == want {
					view.Selected = v
					break
				}
			}
		}
		if opts := p.Variants[0].SelectedOptions; len(opts) > 0 {
			view.OptionName = opts[0].Name
		}
	}
	if idx, err := strconv.Atoi(q.Get("image")); err == nil && idx >= 0 && idx < len(p.Images) {
		view.SelectedImage = idx
	}
	if qty, err := strconv.Atoi(q.Get("qty")); err == nil && qty > 1 {
		view.Quantity = qty
	}
	return view
}

// OptionLabel returns the display label for a variant button.
func (v productView) OptionLabel(variant storefront.Variant) string {
	if len(variant.SelectedOptions) > 0 && variant.SelectedOptions[0].Value != "" {
		return variant.SelectedOptions[0].Value
	}
	return variant.Title
}

// MainImage returns the currently selected gallery image, if any.
func (v productView) MainImage() *storefront.Image {
	if v.SelectedImage < 0 || v.SelectedImage >= len(v.Product.Images) {
		return nil
	}
	return &v.Product.Images[v.SelectedImage]
}

// selectionURL rebuilds the page URL for a changed selection so gallery,
// variant, and quantity controls survive full-page navigation.
func (v productView) selectionURL(variantID string, image, qty int) string {
	q := url.Values{}
	if variantID != "" && len(v.Product.Variants) > 0 && variantID != v.Product.Variants[0].ID {
		q.Set("variant", variantID)
	}
	if image > 0 {
		q.Set("image", strconv.Itoa(image))
	}
	if qty > 1 {
		q.Set("qty", strconv.Itoa(qty))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// VariantURL selects a variant, keeping image and quantity.
func (v productView) VariantURL(variantID string) string {
	return v.selectionURL(variantID, v.SelectedImage, v.Quantity)
}

// ImageURL selects a gallery image, keeping variant and quantity.
func (v productView) ImageURL(image int) string {
	return v.selectionURL(v.Selected.ID, image, v.Quantity)
}

// QtyDecURL decrements quantity, clamped at 1.
func (v productView) QtyDecURL() string {
	qty := v.Quantity - 1
	if qty < 1 {
		qty = 1
	}
	return v.selectionURL(v.Selected.ID, v.SelectedImage, qty)
}

// QtyIncURL increments quantity; there is no upper bound.
func (v productView) QtyIncURL() string {
	return v.selectionURL(v.Selected.ID, v.SelectedImage, v.Quantity+1)
}

// gateView drives the lock screen in either mode.
type gateView struct {
	Mode               gate.Mode
	PasswordConfigured bool
	Error              string
	Success            string
	Email              string
	Phone              string
	CSRFToken          string
}

// cartView renders the drawer fragment from one mutation's returned cart.
// A nil cart means no mutation has happened yet this page view.
type cartView struct {
	Cart      *storefront.Cart
	Open      bool
	Error     string
	CSRFToken string
}

// ItemCount recomputes the badge from the mirror on every render.
func (c cartView) ItemCount() int {
	if c.Cart == nil {
		return 0
	}
	return c.Cart.ItemCount()
}

// HasLines reports whether there is anything to show in the drawer.
func (c cartView) HasLines() bool {
	return c.Cart != nil && len(c.Cart.Lines) > 0
}

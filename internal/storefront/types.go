package storefront

import "strings"

// Money carries a decimal amount string exactly as the Storefront API returns
// it. Amounts are never parsed back into floats for arithmetic; totals always
// come from the API.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// SelectedOption is one name/value pair describing a variant choice.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is a purchasable configuration of the product.
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            Money            `json:"price"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
}

// Image is a product image; slice order defines gallery order.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Product is the page's product, immutable once loaded for a view.
type Product struct {
	ID          string
	Title       string
	Description string
	Variants    []Variant
	Images      []Image
}

// Merchandise is the variant snapshot attached to a cart line at query time.
type Merchandise struct {
	VariantID    string
	VariantTitle string
	Price        Money
	ProductTitle string
	ImageURL     string
}

// DefaultVariantTitle is the placeholder title Shopify assigns to the single
// variant of a product with no options; views hide it.
const DefaultVariantTitle = "Default Title"

// HasRealTitle reports whether the variant title is worth displaying.
func (m Merchandise) HasRealTitle() bool {
	return m.VariantTitle != "" && m.VariantTitle != DefaultVariantTitle
}

// CartLine is one quantity-bearing entry in a cart.
type CartLine struct {
	ID          string
	Quantity    int
	Merchandise Merchandise
}

// Cart mirrors the API's full cart projection. Every mutation returns one so
// callers can replace their local copy atomically.
type Cart struct {
	ID          string
	CheckoutURL string
	Lines       []CartLine
	Subtotal    Money
}

// ItemCount sums line quantities. Recomputed on every call, never cached.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Shop carries the shop-level configuration returned alongside the product.
type Shop struct {
	PaymentSettings PaymentSettings
	GateEnabled     bool
	GatePassword    string
}

// PaymentSettings is the read-only payment configuration block.
type PaymentSettings struct {
	CurrencyCode                 string   `json:"currencyCode"`
	AcceptedCardBrands           []string `json:"acceptedCardBrands"`
	EnabledPresentmentCurrencies []string `json:"enabledPresentmentCurrencies"`
}

// wire shapes: the Storefront API nests lists inside connection objects with
// a "nodes" array; these decode the raw JSON before flattening.

type nodes[T any] struct {
	Nodes []T `json:"nodes"`
}

type metafieldPayload struct {
	Value string `json:"value"`
}

type productPayload struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Variants    nodes[Variant] `json:"variants"`
	Images      nodes[Image]   `json:"images"`
}

func (p productPayload) toProduct() Product {
	return Product{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Variants:    p.Variants.Nodes,
		Images:      p.Images.Nodes,
	}
}

type shopPayload struct {
	PaymentSettings PaymentSettings   `json:"paymentSettings"`
	GateEnabled     *metafieldPayload `json:"gateEnabled"`
	GatePassword    *metafieldPayload `json:"gatePassword"`
}

func (s shopPayload) toShop() Shop {
	shop := Shop{PaymentSettings: s.PaymentSettings}
	if s.GateEnabled != nil {
		shop.GateEnabled = strings.TrimSpace(s.GateEnabled.Value) == "true"
	}
	if s.GatePassword != nil {
		shop.GatePassword = s.GatePassword.Value
	}
	return shop
}

type merchandisePayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Price   Money  `json:"price"`
	Product struct {
		Title  string       `json:"title"`
		Images nodes[Image] `json:"images"`
	} `json:"product"`
}

type linePayload struct {
	ID          string             `json:"id"`
	Quantity    int                `json:"quantity"`
	Merchandise merchandisePayload `json:"merchandise"`
}

type cartPayload struct {
	ID          string             `json:"id"`
	CheckoutURL string             `json:"checkoutUrl"`
	Lines       nodes[linePayload] `json:"lines"`
	Cost        struct {
		SubtotalAmount Money `json:"subtotalAmount"`
	} `json:"cost"`
}

func (c cartPayload) toCart() Cart {
	cart := Cart{
		ID:          c.ID,
		CheckoutURL: c.CheckoutURL,
		Subtotal:    c.Cost.SubtotalAmount,
	}
	for _, l := range c.Lines.Nodes {
		line := CartLine{
			ID:       l.ID,
			Quantity: l.Quantity,
			Merchandise: Merchandise{
				VariantID:    l.Merchandise.ID,
				VariantTitle: l.Merchandise.Title,
				Price:        l.Merchandise.Price,
				ProductTitle: l.Merchandise.Product.Title,
			},
		}
		if imgs := l.Merchandise.Product.Images.Nodes; len(imgs) > 0 {
			line.Merchandise.ImageURL = imgs[0].URL
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart
}

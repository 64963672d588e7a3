package storefront

// cartProjection is the cart selection shared by all four mutations so every
// response carries the full cart and the caller can swap its copy wholesale.
const cartProjection = `
      cart {
        id
        checkoutUrl
        lines(first: 10) {
          nodes {
            id
            quantity
            merchandise {
              ... on ProductVariant {
                id
                title
                price {
                  amount
                  currencyCode
                }
                product {
                  title
                  images(first: 1) {
                    nodes {
                      url
                    }
                  }
                }
              }
            }
          }
        }
        cost {
          subtotalAmount {
            amount
            currencyCode
          }
        }
      }`

const productQuery = `
  query Product($handle: String!) {
    product(handle: $handle) {
      id
      title
      description
      variants(first: 10) {
        nodes {
          id
          title
          price {
            amount
            currencyCode
          }
          availableForSale
          selectedOptions {
            name
            value
          }
        }
      }
      images(first: 10) {
        nodes {
          url
          altText
          width
          height
        }
      }
    }
    shop {
      paymentSettings {
        currencyCode
        acceptedCardBrands
        enabledPresentmentCurrencies
      }
      gateEnabled: metafield(namespace: "drops", key: "gate_enabled") {
        value
      }
      gatePassword: metafield(namespace: "custom", key: "gate_password") {
        value
      }
    }
  }`

const cartCreateMutation = `
  mutation cartCreate($input: CartInput!) {
    cartCreate(input: $input) {` + cartProjection + `
    }
  }`

const cartLinesAddMutation = `
  mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
    cartLinesAdd(cartId: $cartId, lines: $lines) {` + cartProjection + `
    }
  }`

const cartLinesUpdateMutation = `
  mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
    cartLinesUpdate(cartId: $cartId, lines: $lines) {` + cartProjection + `
    }
  }`

const cartLinesRemoveMutation = `
  mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
    cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {` + cartProjection + `
    }
  }`

// Package config resolves the service configuration from the environment.
package config

import (
	"os"
	"strings"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAPIVersion    = "2024-10"
	DefaultProductHandle = "no-lucky-days-black-beanie"
	defaultPort          = "8080"
)

// Config is the resolved runtime configuration.
type Config struct {
	// Addr is the HTTP listen address, derived from PORT.
	Addr string
	// Env marks the deployment environment; "prod" turns on Secure cookies.
	Env string
	// DevMode reparses templates per request.
	DevMode bool

	// StoreDomain and StorefrontToken identify the commerce API. Both are
	// required for any storefront call; missing values surface as a 500 on
	// page load rather than a startup crash.
	StoreDomain     string
	StorefrontToken string
	APIVersion      string
	ProductHandle   string

	// OmnisendAPIKey may be empty; the subscription relay then skips the
	// outbound call and still reports success.
	OmnisendAPIKey string

	// SessionSigningKey signs the session cookie. Empty means the server
	// generates an ephemeral key at startup (dev only).
	SessionSigningKey string

	TemplatesDir string
	PublicDir    string
	ContentDir   string
}

// FromEnv reads the configuration from environment variables.
func FromEnv() Config {
	port := getenv("PORT", defaultPort)
	return Config{
		Addr:              ":" + port,
		Env:               strings.ToLower(strings.TrimSpace(os.Getenv("ENV"))),
		DevMode:           os.Getenv("DEV") != "",
		StoreDomain:       strings.TrimSpace(os.Getenv("PUBLIC_STORE_DOMAIN")),
		StorefrontToken:   strings.TrimSpace(os.Getenv("PRIVATE_STOREFRONT_API_TOKEN")),
		APIVersion:        getenv("STOREFRONT_API_VERSION", DefaultAPIVersion),
		ProductHandle:     getenv("PRODUCT_HANDLE", DefaultProductHandle),
		OmnisendAPIKey:    strings.TrimSpace(os.Getenv("OMNISEND_API_KEY")),
		SessionSigningKey: os.Getenv("SESSION_SIGNING_KEY"),
		TemplatesDir:      getenv("TEMPLATES_DIR", "templates"),
		PublicDir:         getenv("PUBLIC_DIR", "public"),
		ContentDir:        getenv("CONTENT_DIR", "content"),
	}
}

// StorefrontConfigured reports whether the commerce API credentials are
// present. Without them the product page renders the configuration-error page.
func (c Config) StorefrontConfigured() bool {
	return c.StoreDomain != "" && c.StorefrontToken != ""
}

// Prod reports whether cookies should be marked Secure.
func (c Config) Prod() bool { return c.Env == "prod" }

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

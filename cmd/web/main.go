package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/miltonisblurrd/noLuckyDays/internal/config"
	"github.com/miltonisblurrd/noLuckyDays/internal/contacts"
	"github.com/miltonisblurrd/noLuckyDays/internal/content"
	mw "github.com/miltonisblurrd/noLuckyDays/internal/middleware"
	"github.com/miltonisblurrd/noLuckyDays/internal/observability"
	"github.com/miltonisblurrd/noLuckyDays/internal/storefront"
)

// package-level wiring, set in main() and overridden by tests
var (
	cfg            config.Config
	logger         = zap.NewNop()
	storeClient    *storefront.Client
	contactsClient *contacts.Client
	contentStore   *content.Store
)

func main() {
	cfg = config.FromEnv()

	var addr string
	flag.StringVar(&addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.TemplatesDir, "templates", cfg.TemplatesDir, "templates directory")
	flag.StringVar(&cfg.PublicDir, "public", cfg.PublicDir, "public assets directory")
	flag.StringVar(&cfg.ContentDir, "content", cfg.ContentDir, "policy content directory")
	flag.Parse()

	var err error
	logger, err = observability.NewLogger()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("web")

	mw.ConfigureSessions(cfg.SessionSigningKey, cfg.Prod())

	storeClient = storefront.New(cfg.StoreDomain, cfg.StorefrontToken, cfg.APIVersion)
	if !storeClient.Configured() {
		// page loads will render the configuration-error page
		logger.Warn("storefront credentials missing; product page will fail",
			zap.Bool("domain_set", cfg.StoreDomain != ""))
	}
	contactsClient = contacts.New(cfg.OmnisendAPIKey)
	if !contactsClient.Configured() {
		logger.Warn("marketing api key missing; signups will be acknowledged without forwarding")
	}
	contentStore = content.NewStore(cfg.ContentDir)

	if !cfg.DevMode {
		tc, err := parseTemplates()
		if err != nil {
			logger.Fatal("parse templates", zap.Error(err))
		}
		tmplCache = tc
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.Bool("dev", cfg.DevMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.HTMX)
	r.Use(mw.Session)
	r.Use(mw.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(cfg.PublicDir, "assets")))
	r.Handle("/assets/*", assets)

	// JSON relay endpoint; lives outside the CSRF group, its contract only
	// rejects malformed bodies and non-POST methods.
	r.HandleFunc("/api/subscribe", SubscribeHandler)

	r.Group(func(r chi.Router) {
		r.Use(mw.CSRF)
		r.Get("/", ProductPageHandler)
		r.Post("/gate/signup", GateSignupHandler)
		r.Post("/gate/password", GatePasswordHandler)
		r.Get("/cart", CartDrawerHandler)
		r.Post("/cart/lines", CartAddHandler)
		// line ids are opaque gid:// URLs, so they travel in the form body
		r.Post("/cart/lines/update", CartLineUpdateHandler)
		r.Post("/cart/buy-now", BuyNowHandler)
		r.Get("/policies/{slug}", PolicyPageHandler)
	})

	return r
}

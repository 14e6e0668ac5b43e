package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fasilahammed/snapmob-client/internal/cart"
	"github.com/fasilahammed/snapmob-client/internal/catalog"
	"github.com/fasilahammed/snapmob-client/internal/localstore"
	"github.com/fasilahammed/snapmob-client/internal/orders"
	"github.com/fasilahammed/snapmob-client/internal/rest"
	"github.com/fasilahammed/snapmob-client/internal/session"
	"github.com/fasilahammed/snapmob-client/internal/wishlist"
	"github.com/fasilahammed/snapmob-client/pkg/config"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/fasilahammed/snapmob-client/pkg/metrics"
)

// Boots the full client stack against the configured backend, restores any
// persisted session, and reports what the signed-in state looks like. Useful
// as a connectivity smoke check for a deployed backend.
func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := localstore.Open(context.Background(), cfg.State, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local state", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing local state", err)
		}
	}()

	// The session manager both feeds the client's bearer token and reacts
	// to its 401s, so the client is built first around a late-bound manager.
	var sessions *session.Manager
	api, err := rest.NewClient(cfg.API.BaseURL,
		rest.WithTimeout(cfg.API.Timeout),
		rest.WithMetrics(metrics.NewRequestMetrics(prometheus.DefaultRegisterer)),
		rest.WithTokenProvider(func() string {
			if sessions == nil {
				return ""
			}
			return sessions.Token()
		}),
		rest.WithUnauthorizedHook(func() {
			if sessions != nil {
				sessions.ForceTeardown()
			}
		}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create api client", err)
		os.Exit(1)
	}

	sessions, err = session.NewManager(session.ManagerParams{
		API:    api,
		Store:  store,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	cartSync, err := cart.NewSynchronizer(cart.SynchronizerParams{
		API:      api,
		Sessions: sessions,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart synchronizer", err)
		os.Exit(1)
	}

	wishlistSync, err := wishlist.NewSynchronizer(wishlist.SynchronizerParams{
		API:      api,
		Sessions: sessions,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist synchronizer", err)
		os.Exit(1)
	}

	if _, err := orders.NewSynchronizer(orders.SynchronizerParams{
		API:      api,
		Sessions: sessions,
		Cart:     cartSync,
		Logger:   logg,
	}); err != nil {
		logg.Error(context.Background(), "failed to create order synchronizer", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{API: api, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"base_url": cfg.API.BaseURL,
	})
	logg.Info(ctx, "starting storefront client")

	sessions.Restore(ctx)

	page, err := catalogSvc.GetProducts(ctx, catalog.Query{})
	if err != nil {
		logg.Error(ctx, "catalog is unreachable", err)
		os.Exit(1)
	}

	fields := map[string]any{
		"products_total": page.TotalCount,
		"signed_in":      sessions.Current() != nil,
	}
	if current := sessions.Current(); current != nil {
		fields["user_id"] = current.UserID
		fields["cart_items"] = cartSync.Count()
		fields["wishlist_items"] = wishlistSync.Count()
	}
	logg.Info(logg.WithFields(ctx, fields), "storefront client ready")
}

package testutil

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fasilahammed/snapmob-client/internal/cart"
	"github.com/fasilahammed/snapmob-client/internal/catalog"
	"github.com/fasilahammed/snapmob-client/internal/localstore"
	"github.com/fasilahammed/snapmob-client/internal/orders"
	"github.com/fasilahammed/snapmob-client/internal/payments"
	"github.com/fasilahammed/snapmob-client/internal/rest"
	"github.com/fasilahammed/snapmob-client/internal/session"
	"github.com/fasilahammed/snapmob-client/internal/users"
	"github.com/fasilahammed/snapmob-client/internal/wishlist"
	"github.com/fasilahammed/snapmob-client/pkg/config"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
)

// Harness wires a complete client stack against an in-memory backend.
type Harness struct {
	Backend  *Backend
	API      *rest.Client
	Store    *localstore.Store
	Session  *session.Manager
	Cart     *cart.Synchronizer
	Wishlist *wishlist.Synchronizer
	Orders   *orders.Synchronizer
	Catalog  *catalog.Service
	Users    *users.Service
	Payments *payments.Service

	server *httptest.Server
}

// SilentLogger returns a logger that discards everything.
func SilentLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "snapmob-test", Level: zerolog.Disabled})
}

// NewHarness builds the stack the way cmd/storefront does, backed by a
// fresh Backend and a sqlite state file under t.TempDir.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	backend := NewBackend()
	server := backend.Server()
	t.Cleanup(server.Close)

	log := SilentLogger()

	var manager *session.Manager
	api, err := rest.NewClient(server.URL,
		rest.WithTimeout(5*time.Second),
		rest.WithTokenProvider(func() string {
			if manager == nil {
				return ""
			}
			return manager.Token()
		}),
		rest.WithUnauthorizedHook(func() {
			if manager != nil {
				manager.ForceTeardown()
			}
		}),
	)
	require.NoError(t, err)

	store, err := localstore.Open(context.Background(), config.StateConfig{
		DBPath: filepath.Join(t.TempDir(), "state.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	manager, err = session.NewManager(session.ManagerParams{
		API:    api,
		Store:  store,
		Logger: log,
	})
	require.NoError(t, err)

	cartSync, err := cart.NewSynchronizer(cart.SynchronizerParams{
		API:      api,
		Sessions: manager,
		Logger:   log,
	})
	require.NoError(t, err)

	wishlistSync, err := wishlist.NewSynchronizer(wishlist.SynchronizerParams{
		API:      api,
		Sessions: manager,
		Logger:   log,
	})
	require.NoError(t, err)

	orderSync, err := orders.NewSynchronizer(orders.SynchronizerParams{
		API:      api,
		Sessions: manager,
		Cart:     cartSync,
		Logger:   log,
	})
	require.NoError(t, err)

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{API: api, Logger: log})
	require.NoError(t, err)

	usersSvc, err := users.NewService(users.ServiceParams{API: api, Logger: log})
	require.NoError(t, err)

	paymentsSvc, err := payments.NewService(payments.ServiceParams{API: api, Logger: log})
	require.NoError(t, err)

	return &Harness{
		Backend:  backend,
		API:      api,
		Store:    store,
		Session:  manager,
		Cart:     cartSync,
		Wishlist: wishlistSync,
		Orders:   orderSync,
		Catalog:  catalogSvc,
		Users:    usersSvc,
		Payments: paymentsSvc,
		server:   server,
	}
}

// SignIn seeds an account when needed and logs the stack in as it.
func (h *Harness) SignIn(t *testing.T, account Account) *Account {
	t.Helper()

	seeded := h.Backend.findAccountByID(account.ID)
	if seeded == nil {
		seeded = h.Backend.SeedAccount(account)
	}

	h.Session.Restore(context.Background())
	result := h.Session.Login(context.Background(), seeded.Email, seeded.Password)
	require.True(t, result.Success)
	return seeded
}

package orders

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/fasilahammed/snapmob-client/internal/cart"
	"github.com/fasilahammed/snapmob-client/internal/rest"
	"github.com/fasilahammed/snapmob-client/internal/session"
	"github.com/fasilahammed/snapmob-client/pkg/auth"
	"github.com/fasilahammed/snapmob-client/pkg/enums"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/fasilahammed/snapmob-client/pkg/validate"
)

// SynchronizerParams groups dependencies for the order synchronizer.
type SynchronizerParams struct {
	API      *rest.Client
	Sessions *session.Manager
	Cart     *cart.Synchronizer
	Logger   *logger.Logger
}

// Synchronizer mirrors the authenticated user's order history. The client
// holds no order state machine: cancel is a request, and the authoritative
// status only appears after the unconditional reload.
type Synchronizer struct {
	api      *rest.Client
	sessions *session.Manager
	cart     *cart.Synchronizer
	log      *logger.Logger

	mu     sync.Mutex
	orders []Order
}

// NewSynchronizer builds the order synchronizer and subscribes it to session
// transitions, mirroring the cart gating.
func NewSynchronizer(params SynchronizerParams) (*Synchronizer, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session manager is required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart synchronizer is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}

	s := &Synchronizer{
		api:      params.API,
		sessions: params.Sessions,
		cart:     params.Cart,
		log:      params.Logger,
	}
	params.Sessions.Subscribe(s.onSessionChange)
	return s, nil
}

func (s *Synchronizer) onSessionChange(sess *auth.Session) {
	ctx := context.Background()
	if sess == nil {
		s.reset()
		return
	}
	if err := s.Load(ctx); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "orders.load"), "load orders after session change", err)
	}
}

// Load replaces the mirror with the backend's order list.
func (s *Synchronizer) Load(ctx context.Context) error {
	var orders []Order
	if err := s.api.Get(ctx, "/orders", nil, &orders); err != nil {
		return err
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return nil
}

// Get fetches a single order by ID.
func (s *Synchronizer) Get(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Route:  "/orders/{id}",
		Path:   "/orders/" + orderID,
		Out:    &order,
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Checkout places a cash-on-delivery order from the current cart, then
// reloads the order list and the cart (the backend empties the cart as part
// of checkout). Unlike the swallowing mutations, checkout surfaces its error
// so the form can show the backend message.
func (s *Synchronizer) Checkout(ctx context.Context, input CheckoutInput) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/orders/checkout", input, nil); err != nil {
		return err
	}

	if err := s.Load(ctx); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "orders.checkout"), "reload orders after checkout", err)
	}
	if err := s.cart.Load(ctx); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "orders.checkout"), "reload cart after checkout", err)
	}
	return nil
}

// Cancel requests cancellation and reloads. No optimistic status flip: the
// backend alone knows whether cancellation was still permitted.
func (s *Synchronizer) Cancel(ctx context.Context, orderID string) {
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Route:  "/orders/cancel/{id}",
		Path:   "/orders/cancel/" + orderID,
	})
	if err != nil {
		s.log.Error(s.log.WithOperation(ctx, "orders.cancel"), "cancel order", err)
		return
	}
	s.reload(ctx, "orders.cancel")
}

// Delete permanently removes a cancelled order from history, then reloads.
func (s *Synchronizer) Delete(ctx context.Context, orderID string) {
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodDelete,
		Route:  "/orders/{id}",
		Path:   "/orders/" + orderID,
	})
	if err != nil {
		s.log.Error(s.log.WithOperation(ctx, "orders.delete"), "delete order", err)
		return
	}
	s.reload(ctx, "orders.delete")
}

// Orders returns a copy of the current mirror.
func (s *Synchronizer) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// AdminFilter queries the admin order view by status and free-text search.
// Status "all" (or empty) returns everything.
func (s *Synchronizer) AdminFilter(ctx context.Context, status, search string) ([]Order, error) {
	query := url.Values{}
	if status == "" {
		status = "all"
	}
	query.Set("status", status)
	query.Set("search", search)

	var orders []Order
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Route:  "/orders/admin/filter",
		Path:   "/orders/admin/filter",
		Query:  query,
		Out:    &orders,
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// AdminUpdateStatus asks the backend to transition an order's status.
func (s *Synchronizer) AdminUpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	return s.api.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Route:  "/orders/admin/update-status/{id}",
		Path:   "/orders/admin/update-status/" + orderID,
		Body:   map[string]any{"status": status},
	})
}

func (s *Synchronizer) reload(ctx context.Context, operation string) {
	if err := s.Load(ctx); err != nil {
		s.log.Error(s.log.WithOperation(ctx, operation), "reload orders", err)
	}
}

func (s *Synchronizer) reset() {
	s.mu.Lock()
	s.orders = nil
	s.mu.Unlock()
}

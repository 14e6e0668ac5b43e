package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/fasilahammed/snapmob-client/internal/rest"
	"github.com/fasilahammed/snapmob-client/internal/session"
	"github.com/fasilahammed/snapmob-client/pkg/auth"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/shopspring/decimal"
)

// CartLine is one cart row as the backend reports it. The whole collection
// is replaced wholesale on every reload; nothing is patched in place.
type CartLine struct {
	LineID         string          `json:"id"`
	ProductID      string          `json:"productId"`
	Name           string          `json:"productName"`
	Brand          string          `json:"brandName"`
	UnitPrice      decimal.Decimal `json:"price"`
	ImageURL       string          `json:"imageUrl"`
	Quantity       int             `json:"quantity"`
	AvailableStock int             `json:"currentStock"`
}

type cartPayload struct {
	Items []CartLine `json:"items"`
}

// SynchronizerParams groups dependencies for the cart synchronizer.
type SynchronizerParams struct {
	API      *rest.Client
	Sessions *session.Manager
	Logger   *logger.Logger
}

// Synchronizer mirrors the remote per-user cart. Every mutation fires the
// backend call and then reloads the full cart; the backend stays the single
// source of truth, so a failed mutation simply leaves the mirror unchanged.
//
// The mutex only guards the mirror itself. Overlapping logical operations
// are not serialized against each other: two racing mutate-then-reload
// cycles finish in network completion order, last response wins.
type Synchronizer struct {
	api      *rest.Client
	sessions *session.Manager
	log      *logger.Logger

	mu    sync.Mutex
	lines []CartLine
}

// NewSynchronizer builds the cart synchronizer and subscribes it to session
// transitions: once the session resolves it loads the cart, and a sign-out
// forces the mirror empty.
func NewSynchronizer(params SynchronizerParams) (*Synchronizer, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session manager is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}

	s := &Synchronizer{
		api:      params.API,
		sessions: params.Sessions,
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
		s.log.Error(s.log.WithOperation(ctx, "cart.load"), "load cart after session change", err)
	}
}

// Load replaces the mirror with the backend's cart.
func (s *Synchronizer) Load(ctx context.Context) error {
	var payload cartPayload
	if err := s.api.Get(ctx, "/cart", nil, &payload); err != nil {
		return err
	}

	s.mu.Lock()
	s.lines = payload.Items
	s.mu.Unlock()
	return nil
}

// Add puts one unit of the product into the cart and reloads. Backend
// failures are logged, not returned; the mirror then simply stays as it was.
func (s *Synchronizer) Add(ctx context.Context, productID string) {
	body := map[string]any{"productId": productID, "quantity": 1}
	if err := s.api.Post(ctx, "/cart", body, nil); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "cart.add"), "add to cart", err)
		return
	}
	s.reload(ctx, "cart.add")
}

// UpdateQuantity sets the line's quantity and reloads. Quantities below one
// are rejected without any network call; checking against available stock is
// the caller's responsibility.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, lineID string, qty int) {
	if qty < 1 {
		return
	}
	body := map[string]any{"quantity": qty}
	if err := s.api.Put(ctx, "/cart/"+lineID, body, nil); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "cart.update"), "update cart quantity", err)
		return
	}
	s.reload(ctx, "cart.update")
}

// Remove deletes the line and reloads.
func (s *Synchronizer) Remove(ctx context.Context, lineID string) {
	if err := s.api.Delete(ctx, "/cart/"+lineID); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "cart.remove"), "remove cart line", err)
		return
	}
	s.reload(ctx, "cart.remove")
}

// Clear empties the remote cart and, on success, the mirror.
func (s *Synchronizer) Clear(ctx context.Context) {
	if err := s.api.Delete(ctx, "/cart/clear"); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "cart.clear"), "clear cart", err)
		return
	}
	s.reset()
}

// Lines returns a copy of the current mirror.
func (s *Synchronizer) Lines() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Count is the sum of quantities across lines, recomputed on every call so
// it can never drift from the mirror.
func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// LineCount is the number of distinct cart lines.
func (s *Synchronizer) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// TotalPrice is the sum of unit price times quantity, recomputed per call.
func (s *Synchronizer) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func (s *Synchronizer) reload(ctx context.Context, operation string) {
	if err := s.Load(ctx); err != nil {
		s.log.Error(s.log.WithOperation(ctx, operation), fmt.Sprintf("reload cart after %s", operation), err)
	}
}

func (s *Synchronizer) reset() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}

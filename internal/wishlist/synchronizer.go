package wishlist

import (
	"context"
	"sync"

	"github.com/fasilahammed/snapmob-client/internal/rest"
	"github.com/fasilahammed/snapmob-client/internal/session"
	"github.com/fasilahammed/snapmob-client/pkg/auth"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/shopspring/decimal"
)

// Entry is one wishlist member. The collection has set semantics keyed by
// product ID and is replaced wholesale on every fetch.
type Entry struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"productName"`
	Brand          string          `json:"brandName"`
	Price          decimal.Decimal `json:"price"`
	Images         []string        `json:"imageUrls"`
	AvailableStock int             `json:"currentStock"`
}

// SynchronizerParams groups dependencies for the wishlist synchronizer.
type SynchronizerParams struct {
	API      *rest.Client
	Sessions *session.Manager
	Logger   *logger.Logger
}

// Synchronizer mirrors the remote per-user wishlist. Toggling is an
// idempotent membership flip on the backend followed by a full re-sync.
// Count changes are pushed to subscribers so a badge can live anywhere in
// the program without reaching into this package's state.
type Synchronizer struct {
	api      *rest.Client
	sessions *session.Manager
	log      *logger.Logger

	mu            sync.Mutex
	entries       []Entry
	countWatchers map[int]func(int)
	nextWatcherID int
}

// NewSynchronizer builds the wishlist synchronizer and subscribes it to
// session transitions.
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
		api:           params.API,
		sessions:      params.Sessions,
		log:           params.Logger,
		countWatchers: map[int]func(int){},
	}
	params.Sessions.Subscribe(s.onSessionChange)
	return s, nil
}

func (s *Synchronizer) onSessionChange(sess *auth.Session) {
	ctx := context.Background()
	if sess == nil {
		s.replace(nil)
		return
	}
	if err := s.Fetch(ctx); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "wishlist.fetch"), "fetch wishlist after session change", err)
	}
}

// Fetch replaces the mirror with the backend's wishlist and broadcasts the
// new count.
func (s *Synchronizer) Fetch(ctx context.Context) error {
	if s.sessions.Current() == nil {
		s.replace(nil)
		return nil
	}

	var entries []Entry
	if err := s.api.Get(ctx, "/wishlist", nil, &entries); err != nil {
		return err
	}
	s.replace(entries)
	return nil
}

// Toggle flips the product's wishlist membership. It reports false without
// touching the backend when no session is active; on success it re-syncs
// the full wishlist.
func (s *Synchronizer) Toggle(ctx context.Context, productID string) bool {
	if s.sessions.Current() == nil {
		return false
	}

	if err := s.api.Post(ctx, "/wishlist/"+productID, nil, nil); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "wishlist.toggle"), "toggle wishlist", err)
		return false
	}
	if err := s.Fetch(ctx); err != nil {
		s.log.Error(s.log.WithOperation(ctx, "wishlist.toggle"), "re-sync wishlist after toggle", err)
	}
	return true
}

// Remove drops the product from the wishlist. On the backend this is the
// same toggle endpoint; the caller is expected to pass a present member.
func (s *Synchronizer) Remove(ctx context.Context, productID string) {
	if s.sessions.Current() == nil {
		return
	}
	if !s.Contains(productID) {
		return
	}
	s.Toggle(ctx, productID)
}

// Contains reports membership with a linear scan; wishlists are small.
func (s *Synchronizer) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.ProductID == productID {
			return true
		}
	}
	return false
}

// Entries returns a copy of the current mirror.
func (s *Synchronizer) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count is the current wishlist size.
func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SubscribeCount registers a count listener and returns its unsubscribe
// func. Listeners fire after every mirror replacement.
func (s *Synchronizer) SubscribeCount(fn func(count int)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextWatcherID
	s.nextWatcherID++
	s.countWatchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.countWatchers, id)
	}
}

func (s *Synchronizer) replace(entries []Entry) {
	s.mu.Lock()
	s.entries = entries
	count := len(entries)
	watchers := make([]func(int), 0, len(s.countWatchers))
	for _, fn := range s.countWatchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(count)
	}
}

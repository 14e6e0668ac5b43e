package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/fasilahammed/snapmob-client/internal/localstore"
	"github.com/fasilahammed/snapmob-client/internal/rest"
	"github.com/fasilahammed/snapmob-client/pkg/auth"
	"github.com/fasilahammed/snapmob-client/pkg/enums"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/fasilahammed/snapmob-client/pkg/types"
	"github.com/fasilahammed/snapmob-client/pkg/validate"
)

// ManagerParams groups dependencies for the session manager.
type ManagerParams struct {
	API    *rest.Client
	Store  *localstore.Store
	Logger *logger.Logger
	Now    func() time.Time
}

// LoginResult is what login callers branch on.
type LoginResult struct {
	Success bool
	Role    enums.UserRole
}

// RegisterInput is the registration form payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Manager is the auth state holder. It owns the Session exclusively: every
// other component reads it through Current and reacts to changes through
// Subscribe. All session mutations happen under one lock so observers only
// ever see complete snapshots.
type Manager struct {
	api   *rest.Client
	store *localstore.Store
	log   *logger.Logger
	now   func() time.Time

	mu          sync.Mutex
	loading     bool
	token       string
	current     *auth.Session
	subscribers map[int]func(*auth.Session)
	nextSubID   int
}

// NewManager builds the session manager. Loading stays true until Restore
// completes; dependent synchronizers must not fetch before that.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "local store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		api:         params.API,
		store:       params.Store,
		log:         params.Logger,
		now:         now,
		loading:     true,
		subscribers: map[int]func(*auth.Session){},
	}, nil
}

// Loading reports whether session restoration is still unresolved.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Current returns a snapshot of the active session, or nil when signed out.
func (m *Manager) Current() *auth.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.current)
}

// Token returns the raw bearer token for the API client.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Subscribe registers a listener fired on every session transition and
// returns its unsubscribe func. The listener receives a snapshot (nil when
// signed out).
func (m *Manager) Subscribe(fn func(*auth.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Restore loads the persisted session, discarding it when the token has
// expired. It must run once at startup; until it returns, Loading is true.
func (m *Manager) Restore(ctx context.Context) {
	token, stored, err := m.store.LoadSession(ctx)
	if err != nil {
		m.log.Error(ctx, "restore session", err)
	}

	var restored *auth.Session
	if token != "" && stored != nil {
		decoded, decodeErr := auth.DecodeAccessToken(token, m.now())
		switch {
		case decodeErr != nil:
			m.log.Warn(m.log.WithOperation(ctx, "restore"), "discarding stored session: "+decodeErr.Error())
			if clearErr := m.store.ClearSession(ctx); clearErr != nil {
				m.log.Error(ctx, "clear stored session", clearErr)
			}
		default:
			restored = decoded
		}
	}

	m.mu.Lock()
	m.loading = false
	if restored != nil {
		m.token = token
		m.current = restored
	}
	m.mu.Unlock()

	m.notify()
}

// Login authenticates against the backend and establishes a session when the
// returned token decodes cleanly. Any failure leaves the current session
// untouched.
func (m *Manager) Login(ctx context.Context, email, password string) LoginResult {
	var payload types.AuthPayload
	err := m.api.Do(ctx, rest.Request{
		Method:               http.MethodPost,
		Route:                "/auth/login",
		Path:                 "/auth/login",
		Body:                 map[string]string{"email": email, "password": password},
		RawOut:               &payload,
		SkipUnauthorizedHook: true,
	})
	if err != nil {
		m.log.Error(m.log.WithOperation(ctx, "login"), "login request failed", err)
		return LoginResult{}
	}
	if payload.StatusCode != http.StatusOK || payload.AccessToken == "" {
		return LoginResult{}
	}
	return m.establish(ctx, payload.AccessToken)
}

// Register creates an account. When the backend answers with a token the
// session is established immediately, mirroring login.
func (m *Manager) Register(ctx context.Context, input RegisterInput) bool {
	if err := validate.Struct(input); err != nil {
		m.log.Warn(m.log.WithOperation(ctx, "register"), err.Error())
		return false
	}

	var payload types.AuthPayload
	err := m.api.Do(ctx, rest.Request{
		Method:               http.MethodPost,
		Route:                "/auth/register",
		Path:                 "/auth/register",
		Body:                 input,
		RawOut:               &payload,
		SkipUnauthorizedHook: true,
	})
	if err != nil {
		m.log.Error(m.log.WithOperation(ctx, "register"), "register request failed", err)
		return false
	}
	if payload.StatusCode != http.StatusOK && payload.StatusCode != http.StatusCreated {
		return false
	}
	if payload.AccessToken == "" {
		return true
	}
	return m.establish(ctx, payload.AccessToken).Success
}

// Logout tears the session down and clears durable storage.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.store.ClearSession(ctx); err != nil {
		m.log.Error(ctx, "clear stored session", err)
	}

	m.mu.Lock()
	m.token = ""
	m.current = nil
	m.mu.Unlock()

	m.notify()
}

// ForceTeardown is the 401 hook: same effect as Logout, detached from any
// caller context.
func (m *Manager) ForceTeardown() {
	ctx := context.Background()
	m.log.Warn(ctx, "session expired, forcing logout")
	m.Logout(ctx)
}

func (m *Manager) establish(ctx context.Context, token string) LoginResult {
	decoded, err := auth.DecodeAccessToken(token, m.now())
	if err != nil {
		m.log.Warn(m.log.WithOperation(ctx, "login"), "rejecting access token: "+err.Error())
		return LoginResult{}
	}

	// Persist before exposing the session so a crash between the two never
	// leaves an in-memory session that a restart cannot restore.
	if err := m.store.SaveSession(ctx, token, decoded); err != nil {
		m.log.Error(ctx, "persist session", err)
		return LoginResult{}
	}

	m.mu.Lock()
	m.token = token
	m.current = decoded
	m.mu.Unlock()

	m.notify()
	return LoginResult{Success: true, Role: decoded.Role}
}

func (m *Manager) notify() {
	m.mu.Lock()
	snapshot := copySession(m.current)
	listeners := make([]func(*auth.Session), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func copySession(s *auth.Session) *auth.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

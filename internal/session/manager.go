package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"datamart/internal/backend"
	"datamart/pkg/logging"
)

// ErrNoSession is the cause reported when an authenticated call is made
// without a session. It is always wrapped in an ErrAuthenticationRejected *Error.
var ErrNoSession = errors.New("not logged in")

// API is the part of the backend the Manager talks to.
type API interface {
	Me(ctx context.Context, token string) (*backend.UserProfile, error)
	Login(ctx context.Context, identifier, secret string) (*backend.TokenResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.TokenResponse, error)
	Logout(ctx context.Context, token string) error
	ExchangeOAuthCode(ctx context.Context, code, provider string) (*backend.TokenResponse, error)
	VerifyEmail(ctx context.Context, verificationToken string) error
}

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	Status Status
	// User is nil unless Status is StatusAuthenticated.
	User *backend.UserProfile
	// Err is the failure that produced the current status, if any.
	Err error
	// Generation increments each time the status resolves, so observers can
	// act once per resolution.
	Generation uint64
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	API    API
	Tokens TokenStore

	// States holds the pending OAuth state. Defaults to a fresh StateStore.
	States *StateStore

	// Providers lists the OAuth providers that can start a flow.
	Providers *Providers

	// Navigator receives provider URLs and in-app paths. Optional.
	Navigator Navigator

	// LoginPath is where Logout sends the user. Defaults to "/login".
	LoginPath string

	// HomePath is where a completed OAuth flow lands. Defaults to "/".
	HomePath string

	// Clock decides client-side token expiry. Defaults to the system clock.
	Clock Clock
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Manager owns the session: it is the only writer of the status, the user and
// the bearer token. One Manager exists per process and is passed explicitly to
// whatever needs the session.
type Manager struct {
	mu         sync.RWMutex
	status     Status
	user       *backend.UserProfile
	token      string
	lastErr    error
	generation uint64
	restored   bool

	subMu       sync.Mutex
	subscribers []subscriber
	nextSubID   int

	api       API
	tokens    TokenStore
	states    *StateStore
	providers *Providers
	nav       Navigator
	loginPath string
	homePath  string
	clock     Clock
}

// NewManager creates a Manager in StatusUnresolved.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.API == nil {
		return nil, errors.New("session manager requires a backend API")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("session manager requires a token store")
	}

	m := &Manager{
		status:    StatusUnresolved,
		api:       cfg.API,
		tokens:    cfg.Tokens,
		states:    cfg.States,
		providers: cfg.Providers,
		nav:       cfg.Navigator,
		loginPath: cfg.LoginPath,
		homePath:  cfg.HomePath,
		clock:     cfg.Clock,
	}
	if m.clock == nil {
		m.clock = realClock{}
	}
	if m.states == nil {
		m.states = NewStateStore(DefaultStateTTL, m.clock)
	}
	if m.providers == nil {
		m.providers = &Providers{}
	}
	if m.loginPath == "" {
		m.loginPath = "/login"
	}
	if m.homePath == "" {
		m.homePath = "/"
	}
	return m, nil
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{Status: m.status, Err: m.lastErr, Generation: m.generation}
	if m.status == StatusAuthenticated {
		s.User = m.user
	}
	return s
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// User returns the confirmed identity, or nil when not authenticated.
func (m *Manager) User() *backend.UserProfile {
	return m.Snapshot().User
}

// LastError returns the failure recorded with the current status.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Subscribe registers fn to be called after every state change. Calls happen
// outside the Manager's lock, in the goroutine that made the change. The
// returned function unsubscribes.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) notify(s Snapshot) {
	m.subMu.Lock()
	subs := make([]subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(s)
	}
}

// transitionLocked moves the session to status. Invalid transitions are
// refused and logged. Must be called with m.mu held.
func (m *Manager) transitionLocked(to Status, user *backend.UserProfile, token string, err error) bool {
	from := m.status
	if !canTransition(from, to) {
		logging.Warn("Session", "Refusing session transition %s -> %s", from, to)
		return false
	}

	m.status = to
	m.lastErr = err
	if to == StatusAuthenticated {
		m.user = user
		m.token = token
	} else {
		m.user = nil
		m.token = ""
	}
	if to.Resolved() {
		m.generation++
	}

	logging.Debug("Session", "Session %s -> %s (generation %d)", from, to, m.generation)
	return true
}

// transition is transitionLocked plus locking and notification.
func (m *Manager) transition(to Status, user *backend.UserProfile, token string, err error) bool {
	m.mu.Lock()
	ok := m.transitionLocked(to, user, token, err)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if ok {
		m.notify(snap)
	}
	return ok
}

// settleUnresolved resolves a session that never ran Restore, so a login can
// proceed without validating a token it is about to replace.
func (m *Manager) settleUnresolved() {
	m.mu.Lock()
	if m.status != StatusUnresolved {
		m.mu.Unlock()
		return
	}
	m.restored = true
	m.transitionLocked(StatusUnauthenticated, nil, "", nil)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// Restore validates the persisted token once at startup. It never fails:
// every outcome resolves to Authenticated or Unauthenticated, with the cause
// of a failure recorded in Snapshot.Err. Calls after the first return the
// current snapshot.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.restored || m.status != StatusUnresolved {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.restored = true
	m.transitionLocked(StatusLoading, nil, "", nil)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	token, err := m.tokens.Load()
	if err != nil {
		logging.Warn("Session", "Could not read stored token: %v", err)
		m.discardToken()
		m.transition(StatusUnauthenticated, nil, "", &Error{
			Op:      "restore",
			Kind:    ErrStorageFailure,
			Message: "the stored session could not be read",
			Err:     err,
		})
		return m.Snapshot()
	}
	if token == "" {
		logging.Debug("Session", "No stored token")
		m.transition(StatusUnauthenticated, nil, "", nil)
		return m.Snapshot()
	}

	if tokenExpired(token, m.clock.Now()) {
		logging.Info("Session", "Stored token has expired")
		m.discardToken()
		m.transition(StatusUnauthenticated, nil, "", newError("restore", ErrAuthenticationRejected, "the stored session has expired"))
		return m.Snapshot()
	}

	user, err := m.api.Me(ctx, token)
	if err != nil {
		serr := classify("restore", err)
		logging.Info("Session", "Stored token did not validate: %v", serr)
		m.discardToken()
		m.transition(StatusUnauthenticated, nil, "", serr)
		return m.Snapshot()
	}

	m.transition(StatusAuthenticated, user, token, nil)
	return m.Snapshot()
}

// Login authenticates with credentials. On rejection the session is left
// as it was. Concurrent calls are not coalesced.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	const op = "login"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return newError(op, ErrValidationFailure, "email and password are required")
	}

	tr, err := m.api.Login(ctx, identifier, secret)
	if err != nil {
		return classify(op, err)
	}

	m.settleUnresolved()
	return m.establish(ctx, op, tr.Bearer())
}

// RegisterRequest is the input of Register.
type RegisterRequest struct {
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string
}

func (r RegisterRequest) validate() error {
	const op = "register"
	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
		return newError(op, ErrValidationFailure, "email is required")
	case !strings.Contains(email, "@"):
		return newError(op, ErrValidationFailure, "email address is not valid")
	case r.Password == "":
		return newError(op, ErrValidationFailure, "password is required")
	case r.Password != r.ConfirmPassword:
		return newError(op, ErrValidationFailure, "passwords don't match")
	}
	return nil
}

// Register creates an account. Input is validated before any network call.
// When the backend answers with a token the session becomes Authenticated;
// when it answers with the created user the session is left as it was and
// the user continues with email verification and login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) error {
	const op = "register"

	if err := req.validate(); err != nil {
		return err
	}

	tr, err := m.api.Register(ctx, backend.RegisterRequest{
		Email:    strings.TrimSpace(req.Email),
		FullName: strings.TrimSpace(req.FullName),
		Password: req.Password,
	})
	if err != nil {
		return classify(op, err)
	}

	token := tr.Bearer()
	if token == "" {
		logging.Info("Session", "Account created for %s; awaiting verification", strings.TrimSpace(req.Email))
		return nil
	}

	m.settleUnresolved()
	return m.establish(ctx, op, token)
}

// VerifyEmail confirms an email address. It does not touch the session.
func (m *Manager) VerifyEmail(ctx context.Context, verificationToken string) error {
	const op = "verify email"

	verificationToken = strings.TrimSpace(verificationToken)
	if verificationToken == "" {
		return newError(op, ErrValidationFailure, "invalid verification link")
	}
	if err := m.api.VerifyEmail(ctx, verificationToken); err != nil {
		return classify(op, err)
	}
	return nil
}

// establish persists token and confirms the identity behind it. The user
// always comes from the backend, never from what the caller supplied.
func (m *Manager) establish(ctx context.Context, op, token string) error {
	if err := m.tokens.Save(token); err != nil {
		return &Error{Op: op, Kind: ErrStorageFailure, Message: "the session token could not be stored", Err: err}
	}

	user, err := m.api.Me(ctx, token)
	if err != nil {
		serr := classify(op, err)
		m.discardToken()
		m.transition(StatusUnauthenticated, nil, "", serr)
		return serr
	}

	m.transition(StatusAuthenticated, user, token, nil)
	logging.Info("Session", "Logged in as %s", user.DisplayName())
	return nil
}

// Logout ends the session. The backend is told on a best-effort basis; the
// token is cleared and the session becomes Unauthenticated regardless of
// the outcome. It is idempotent and may run before Restore. The only error
// it returns is a failure to delete the stored token.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == "" {
		// Before Restore the stored token may still be live on the backend.
		token, _ = m.tokens.Load()
	}
	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			logging.Debug("Session", "Ignoring failed backend logout: %v", err)
		}
	}

	delErr := m.tokens.Delete()

	m.mu.Lock()
	m.restored = true
	m.transitionLocked(StatusUnauthenticated, nil, "", nil)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	m.navigate(m.loginPath)

	if delErr != nil {
		return &Error{Op: "logout", Kind: ErrStorageFailure, Message: "the stored session token could not be removed", Err: delErr}
	}
	return nil
}

// RejectToken is called when the backend answers an authenticated request
// with 401. The token is discarded and the session becomes Unauthenticated.
func (m *Manager) RejectToken(reason error) {
	m.mu.Lock()
	if m.status != StatusAuthenticated {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(StatusUnauthenticated, nil, "", &Error{
		Op:      "request",
		Kind:    ErrAuthenticationRejected,
		Message: "the server rejected the session token",
		Err:     reason,
	})
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.discardToken()
	m.notify(snap)
}

// BearerToken returns the token for an authenticated request. A token whose
// exp has passed is discarded and the session becomes Unauthenticated.
func (m *Manager) BearerToken() (string, error) {
	m.mu.RLock()
	status, token := m.status, m.token
	m.mu.RUnlock()

	if status != StatusAuthenticated {
		return "", &Error{Op: "request", Kind: ErrAuthenticationRejected, Err: ErrNoSession}
	}

	if tokenExpired(token, m.clock.Now()) {
		expired := newError("request", ErrAuthenticationRejected, "the session has expired")
		m.mu.Lock()
		ok := m.token == token && m.transitionLocked(StatusUnauthenticated, nil, "", expired)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		if ok {
			m.discardToken()
			m.notify(snap)
		}
		return "", expired
	}

	return token, nil
}

func (m *Manager) discardToken() {
	if err := m.tokens.Delete(); err != nil {
		logging.Error("Session", err, "Failed to delete stored token")
	}
}

func (m *Manager) navigate(target string) {
	if m.nav == nil {
		return
	}
	if err := m.nav.Navigate(target); err != nil {
		logging.Warn("Session", "Navigation to %s failed: %v", target, err)
	}
}

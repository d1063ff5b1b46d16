package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xetiic/busdesk/internal/domain/auth"
)

// Config holds session manager configuration.
type Config struct {
	// Store persists the session across process restarts.
	Store StateStore
	// Authenticator performs the credential exchange with the auth backend.
	Authenticator auth.Authenticator
	// Logger receives internal failures that are swallowed by design
	// (storage corruption, audit write errors). Default: slog.Default().
	Logger *slog.Logger
	// Sink receives auth lifecycle events. Optional.
	Sink EventSink
}

// Manager is the single source of truth for "who is signed in".
// It is the only writer of session state; everything else (guards, views)
// reads snapshots. Create one per process and share it through NewContext.
type Manager struct {
	store  StateStore
	authn  auth.Authenticator
	logger *slog.Logger
	sink   EventSink

	mu       sync.Mutex
	cur      Session
	inFlight bool
	subs     map[int]func(Session)
	nextSub  int
}

// NewManager creates a session manager in the initial loading state.
// Call Initialize once before serving reads.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  cfg.Store,
		authn:  cfg.Authenticator,
		logger: logger,
		sink:   cfg.Sink,
		cur:    Session{IsLoading: true},
		subs:   make(map[int]func(Session)),
	}
}

// Initialize restores the persisted session from storage. Corrupt or
// partially-present entries are treated as no session: both keys are
// cleared and the manager comes up unauthenticated. Failures are swallowed
// and logged; the caller never sees an error. Always ends with
// IsLoading = false.
func (m *Manager) Initialize() {
	restored, ok := m.loadPersisted()
	if !ok {
		m.clearStorage()
		m.setSession(Session{})
		return
	}
	m.setSession(Session{
		User:            restored.User,
		Token:           restored.Token,
		IsAuthenticated: true,
	})
	m.record(EventRestore, restored.User.Email, restored.User.ID, nil)
	m.logger.Debug("session restored", "identity_id", restored.User.ID, "role", restored.User.Role)
}

// loadPersisted reads and validates both storage entries.
// ok is false when either entry is missing, unreadable, or unparseable.
func (m *Manager) loadPersisted() (Session, bool) {
	token, tokOK, tokErr := m.store.Get(KeyToken)
	userRaw, userOK, userErr := m.store.Get(KeyUser)
	if tokErr != nil || userErr != nil {
		m.logger.Warn("failed to read persisted session, starting unauthenticated",
			"token_err", tokErr, "user_err", userErr)
		m.record(EventRestoreFailed, "", "", fmt.Errorf("read storage: token=%v user=%v", tokErr, userErr))
		return Session{}, false
	}
	if !tokOK && !userOK {
		// Clean empty state, nothing to restore.
		return Session{}, false
	}
	if !tokOK || !userOK || len(token) == 0 {
		m.logger.Warn("partial persisted session, clearing",
			"has_token", tokOK, "has_user", userOK)
		m.record(EventRestoreFailed, "", "", fmt.Errorf("partial persisted session"))
		return Session{}, false
	}

	var identity auth.Identity
	if err := json.Unmarshal(userRaw, &identity); err != nil {
		m.logger.Warn("corrupt persisted identity, clearing", "error", err)
		m.record(EventRestoreFailed, "", "", err)
		return Session{}, false
	}
	if identity.ID == "" || !identity.Role.IsValid() {
		m.logger.Warn("persisted identity failed validation, clearing",
			"identity_id", identity.ID, "role", identity.Role)
		m.record(EventRestoreFailed, "", identity.ID, fmt.Errorf("invalid restored identity"))
		return Session{}, false
	}

	return Session{User: &identity, Token: string(token)}, true
}

// Login exchanges credentials for an authenticated session. On success the
// token and identity are persisted before the new state becomes observable.
// On failure the prior session is left untouched (IsLoading returns to
// false) and the domain error propagates to the caller for display.
// A second Login while one is in flight is rejected with ErrOperationInFlight.
func (m *Manager) Login(ctx context.Context, creds auth.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	prev, err := m.beginExchange()
	if err != nil {
		return err
	}

	identity, token, err := m.authn.Authenticate(ctx, creds)
	if err != nil {
		m.endExchange(prev)
		m.record(EventLoginFailed, creds.Email, "", err)
		return err
	}

	if err := m.persist(identity, token); err != nil {
		// Storage and session must never diverge: a failed write fails the login.
		m.endExchange(prev)
		m.record(EventLoginFailed, creds.Email, identity.ID, err)
		return err
	}

	m.finishExchange(Session{User: identity.Clone(), Token: token, IsAuthenticated: true})
	m.record(EventLogin, identity.Email, identity.ID, nil)
	m.logger.Info("signed in", "identity_id", identity.ID, "role", identity.Role)
	return nil
}

// Register creates an account and signs it in. Symmetric to Login: same
// persistence, state, and failure contract, with ErrEmailAlreadyExists as
// the caller-correctable failure.
func (m *Manager) Register(ctx context.Context, input auth.CreateAccountInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	prev, err := m.beginExchange()
	if err != nil {
		return err
	}

	identity, token, err := m.authn.CreateAccount(ctx, input)
	if err != nil {
		m.endExchange(prev)
		m.record(EventRegisterFailed, input.Email, "", err)
		return err
	}

	if err := m.persist(identity, token); err != nil {
		m.endExchange(prev)
		m.record(EventRegisterFailed, input.Email, identity.ID, err)
		return err
	}

	m.finishExchange(Session{User: identity.Clone(), Token: token, IsAuthenticated: true})
	m.record(EventRegister, identity.Email, identity.ID, nil)
	m.logger.Info("account registered", "identity_id", identity.ID, "role", identity.Role)
	return nil
}

// Logout clears both storage entries and resets the session to empty.
// Synchronous, idempotent, never fails.
func (m *Manager) Logout() {
	m.mu.Lock()
	email, id := "", ""
	if m.cur.User != nil {
		email, id = m.cur.User.Email, m.cur.User.ID
	}
	wasAuthenticated := m.cur.IsAuthenticated
	m.mu.Unlock()

	m.clearStorage()
	m.setSession(Session{})
	if wasAuthenticated {
		m.record(EventLogout, email, id, nil)
		m.logger.Info("signed out", "identity_id", id)
	}
}

// UpdateUser merges a partial identity patch into the current identity,
// persists the merged record, and updates session state. No-op when
// unauthenticated. The token is untouched.
func (m *Manager) UpdateUser(patch IdentityPatch) error {
	m.mu.Lock()
	if !m.cur.IsAuthenticated || m.cur.User == nil {
		m.mu.Unlock()
		return nil
	}
	merged := m.cur.User.Clone()
	token := m.cur.Token
	m.mu.Unlock()

	patch.apply(merged)
	merged.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := m.store.Set(KeyUser, data); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}

	m.setSession(Session{User: merged, Token: token, IsAuthenticated: true})
	m.record(EventUserUpdated, merged.Email, merged.ID, nil)
	return nil
}

// RefreshToken exchanges the current token for a fresh one, updating
// storage and session together. Any failure forces a logout before the
// error propagates: a session with a stale token is unsafe to keep.
func (m *Manager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	cur := m.cur
	m.mu.Unlock()

	if !cur.IsAuthenticated {
		return fmt.Errorf("%w: no active session", auth.ErrRefreshFailed)
	}

	newToken, err := m.authn.Refresh(ctx, cur.Token)
	if err != nil {
		m.record(EventRefreshFailed, cur.User.Email, cur.User.ID, err)
		m.Logout()
		return fmt.Errorf("%w: %w", auth.ErrRefreshFailed, err)
	}

	if err := m.store.Set(KeyToken, []byte(newToken)); err != nil {
		m.record(EventRefreshFailed, cur.User.Email, cur.User.ID, err)
		m.Logout()
		return fmt.Errorf("%w: persist token: %w", auth.ErrRefreshFailed, err)
	}

	m.mu.Lock()
	m.cur.Token = newToken
	snap, subs := m.snapshotAndSubsLocked()
	m.mu.Unlock()
	m.notify(snap, subs)

	m.record(EventRefresh, cur.User.Email, cur.User.ID, nil)
	return nil
}

// Snapshot returns a copy of the current session. The caller may not
// mutate manager state through it.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur.clone()
}

// HasPermission reports whether the current identity holds the permission.
// False (not an error) when unauthenticated. Admins hold every permission.
func (m *Manager) HasPermission(p auth.Permission) bool {
	snap := m.Snapshot()
	if !snap.IsAuthenticated {
		return false
	}
	return snap.User.HasPermission(p)
}

// IsAdmin reports whether the current identity has the admin role.
func (m *Manager) IsAdmin() bool {
	return m.Snapshot().User.IsAdmin()
}

// IsManager reports whether the current identity has manager authority
// (manager role or admin).
func (m *Manager) IsManager() bool {
	return m.Snapshot().User.IsManager()
}

// CanAccessCompany reports whether the current identity may act on the
// given company's data.
func (m *Manager) CanAccessCompany(companyID string) bool {
	return m.Snapshot().User.CanAccessCompany(companyID)
}

// Subscribe registers fn to run after every session change. By the time fn
// runs, persistent storage is already consistent with the snapshot it
// receives. Returns a cancel func; fn is never called after cancel returns.
func (m *Manager) Subscribe(fn func(Session)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Watch returns a channel of session snapshots, one per change, until ctx
// is cancelled. Slow consumers miss intermediate snapshots rather than
// blocking the auth path.
func (m *Manager) Watch(ctx context.Context) <-chan Session {
	ch := make(chan Session, 8)
	cancel := m.Subscribe(func(s Session) {
		select {
		case ch <- s:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		cancel()
		close(ch)
	}()
	return ch
}

// --- internal state transitions ---

// beginExchange marks a login/registration as in flight and flips the
// session into the loading state. Returns the prior session for restore.
func (m *Manager) beginExchange() (Session, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return Session{}, ErrOperationInFlight
	}
	m.inFlight = true
	prev := m.cur
	prev.IsLoading = false
	m.cur.IsLoading = true
	snap, subs := m.snapshotAndSubsLocked()
	m.mu.Unlock()

	m.notify(snap, subs)
	return prev, nil
}

// endExchange restores the prior session untouched after a failed exchange.
func (m *Manager) endExchange(prev Session) {
	m.mu.Lock()
	m.inFlight = false
	m.cur = prev
	snap, subs := m.snapshotAndSubsLocked()
	m.mu.Unlock()

	m.notify(snap, subs)
}

// finishExchange installs the new authenticated session.
func (m *Manager) finishExchange(s Session) {
	m.mu.Lock()
	m.inFlight = false
	m.cur = s
	snap, subs := m.snapshotAndSubsLocked()
	m.mu.Unlock()

	m.notify(snap, subs)
}

// setSession replaces the session state and notifies subscribers.
func (m *Manager) setSession(s Session) {
	m.mu.Lock()
	m.cur = s
	snap, subs := m.snapshotAndSubsLocked()
	m.mu.Unlock()

	m.notify(snap, subs)
}

// snapshotAndSubsLocked collects the current snapshot and subscriber list.
// Caller must hold m.mu.
func (m *Manager) snapshotAndSubsLocked() (Session, []func(Session)) {
	subs := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return m.cur.clone(), subs
}

// notify invokes subscriber callbacks outside the state lock.
func (m *Manager) notify(snap Session, subs []func(Session)) {
	for _, fn := range subs {
		fn(snap)
	}
}

// persist writes the identity and token to storage. The user record is
// written first so an interrupted write leaves a partial pair, which
// Initialize treats as no session and clears.
func (m *Manager) persist(identity *auth.Identity, token string) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := m.store.Set(KeyUser, data); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	if err := m.store.Set(KeyToken, []byte(token)); err != nil {
		m.clearStorage()
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// clearStorage removes both entries. Errors are logged, never propagated:
// logout and corruption recovery must not fail.
func (m *Manager) clearStorage() {
	if err := m.store.Delete(KeyToken); err != nil {
		m.logger.Warn("failed to clear persisted token", "error", err)
	}
	if err := m.store.Delete(KeyUser); err != nil {
		m.logger.Warn("failed to clear persisted identity", "error", err)
	}
}

// record hands an event to the sink, if configured.
func (m *Manager) record(kind EventKind, email, identityID string, err error) {
	if m.sink == nil {
		return
	}
	ev := Event{
		Time:       time.Now().UTC(),
		Kind:       kind,
		Email:      email,
		IdentityID: identityID,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	m.sink.Record(ev)
}

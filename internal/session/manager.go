package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/broadcast"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

// State is the manager's lifecycle state.
type State string

const (
	StateInitializing  State = "initializing"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
	StateTerminating   State = "terminating"
)

// The single-flight guard is process-wide, not per-user: the manager owns one
// active identity at a time, so concurrent callers always want the same fetch.
const profileFlightKey = "profile"

// Config holds tunables whose defaults come from production experience.
type Config struct {
	// TokenExpiryMargin treats a session as invalid when it expires within
	// this window, so a refresh happens before requests start failing.
	TokenExpiryMargin time.Duration
}

// View is an immutable snapshot of the manager's state.
type View struct {
	State            State
	Session          *Session
	User             *user.User
	Profile          *user.Profile
	IsProfileLoading bool
	IsAdmin          bool
	LastError        string
}

// Manager is the single source of truth for the authenticated identity.
// All mutation goes through the provider's event callback or the explicit
// SignIn/SignOut/UpdateProfile operations.
type Manager struct {
	provider Provider
	store    ArtifactStore
	profiles ProfileStore
	bus      broadcast.Broadcaster
	log      zerolog.Logger
	margin   time.Duration

	mu      sync.RWMutex
	state   State
	session *Session
	user    *user.User
	profile *user.Profile
	loading bool
	lastErr string

	group singleflight.Group
	// generation is bumped on sign-out and user switch; a profile fetch that
	// completes under an older generation discards its result instead of
	// mutating shared state (soft cancellation).
	generation atomic.Int64

	unsubs []func()
}

// NewManager wires the manager to its collaborators. Call Init to start.
func NewManager(provider Provider, store ArtifactStore, profiles ProfileStore, bus broadcast.Broadcaster, log zerolog.Logger, cfg Config) *Manager {
	margin := cfg.TokenExpiryMargin
	if margin <= 0 {
		margin = 5 * time.Minute
	}
	return &Manager{
		provider: provider,
		store:    store,
		profiles: profiles,
		bus:      bus,
		log:      log,
		margin:   margin,
		state:    StateInitializing,
	}
}

// Init restores a persisted session if one exists and is still valid.
// Any failure on the way resolves to a safe Anonymous state via forced
// cleanup, never a partial one.
func (m *Manager) Init(ctx context.Context) State {
	m.setState(StateInitializing)

	m.unsubs = append(m.unsubs,
		m.provider.Subscribe(m.handleProviderEvent),
		m.bus.Subscribe(TopicProfileUpdated, m.handleProfileUpdated),
		m.bus.Subscribe(TopicSignOut, m.handleRemoteSignOut),
	)

	sess := m.readPersistedSession(ctx)
	if !m.TokenValid(sess) {
		m.forceCleanup(ctx)
		return StateAnonymous
	}

	u, err := m.provider.CurrentUser(ctx, sess.AccessToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("persisted session failed validation")
		m.forceCleanup(ctx)
		return StateAnonymous
	}

	m.mu.Lock()
	m.session = sess
	m.user = u
	m.state = StateAuthenticated
	m.mu.Unlock()

	if _, err := m.FetchProfile(ctx, u.ID, false); err != nil {
		m.log.Warn().Err(err).Str("user_id", u.ID).Msg("profile load during init failed")
	}

	return StateAuthenticated
}

// Teardown detaches the manager from its event sources without signing out.
func (m *Manager) Teardown() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
}

// TokenValid is a cheap local check: the session must not expire within the
// configured safety margin. No network round-trip.
func (m *Manager) TokenValid(s *Session) bool {
	return s != nil && time.Until(s.ExpiresAt) > m.margin
}

// SignIn authenticates and adopts the resulting session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, *user.User, error) {
	sess, u, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	m.adoptSession(ctx, sess, u)
	return sess, u, nil
}

// SignUp registers a new account and adopts the resulting session.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string, userType user.UserType) (*Session, *user.User, error) {
	sess, u, err := m.provider.SignUp(ctx, email, password, fullName, userType)
	if err != nil {
		return nil, nil, err
	}
	m.adoptSession(ctx, sess, u)
	return sess, u, nil
}

// SignOut tears the session down. Every step is best-effort: a failing step
// is logged and the sequence continues, so artifacts are cleared even when
// the provider call fails.
func (m *Manager) SignOut(ctx context.Context) {
	m.setState(StateTerminating)
	uid := m.currentUserID()

	// 1. Broadcast the intent so other instances clear their state too.
	if b, err := json.Marshal(signOutMessage{UserID: uid}); err == nil {
		if err := m.bus.Publish(ctx, TopicSignOut, b); err != nil {
			m.log.Warn().Err(err).Msg("sign-out broadcast failed")
		}
	}

	// 2. Clear persisted auth artifacts.
	if err := m.store.DeleteByPrefix(ctx, KeyPrefix); err != nil {
		m.log.Warn().Err(err).Msg("artifact cleanup failed")
	}

	// 3. Clear the profile cache.
	if err := m.store.DeleteByPrefix(ctx, profileKeyPrefix); err != nil {
		m.log.Warn().Err(err).Msg("profile cache cleanup failed")
	}

	// 4. Invalidate any in-flight profile fetch.
	m.generation.Add(1)

	// 5. Provider sign-out with global scope.
	if err := m.provider.SignOut(ctx, ScopeGlobal); err != nil {
		m.log.Warn().Err(err).Msg("provider sign-out failed")
	}

	// 6. Clear artifacts again: the provider call may have raced a write.
	if err := m.store.DeleteByPrefix(ctx, KeyPrefix); err != nil {
		m.log.Warn().Err(err).Msg("artifact cleanup failed")
	}

	// 7. Clear in-memory state.
	m.mu.Lock()
	m.session = nil
	m.user = nil
	m.profile = nil
	m.lastErr = ""
	m.state = StateAnonymous
	m.mu.Unlock()
}

// FetchProfile loads the profile for userID. Concurrent callers share one
// underlying fetch; the durable cache is consulted unless force is set.
// Soft auth errors are suppressed and leave the prior profile untouched.
func (m *Manager) FetchProfile(ctx context.Context, userID string, force bool) (*user.Profile, error) {
	gen := m.generation.Load()

	m.setLoading(true)
	defer m.setLoading(false)

	v, err, _ := m.group.Do(profileFlightKey, func() (any, error) {
		if !force {
			if b, ok, err := m.store.Get(ctx, profileKey(userID)); err == nil && ok {
				var p user.Profile
				if json.Unmarshal(b, &p) == nil {
					return &p, nil
				}
			}
		}
		return m.profiles.FetchProfile(ctx, userID)
	})
	if err != nil {
		if isSoftAuthError(err) {
			// Expected transient condition (token rotation): keep prior state.
			return m.currentProfile(), nil
		}
		m.mu.Lock()
		m.profile = nil
		m.lastErr = "failed to load profile"
		m.mu.Unlock()
		return nil, err
	}

	p := v.(*user.Profile)

	// Discard results that arrive after a sign-out or user switch.
	if m.generation.Load() != gen {
		return nil, ErrSuperseded
	}

	m.mu.Lock()
	if m.user == nil || m.user.ID != p.UserID {
		m.mu.Unlock()
		return nil, ErrSuperseded
	}
	m.profile = p
	m.lastErr = ""
	m.mu.Unlock()

	if b, err := json.Marshal(p); err == nil {
		if err := m.store.Set(ctx, profileKey(userID), b); err != nil {
			m.log.Warn().Err(err).Msg("profile cache write failed")
		}
	}

	return p, nil
}

// UpdateProfile persists profile changes, refreshes the cache and notifies
// other instances.
func (m *Manager) UpdateProfile(ctx context.Context, p *user.Profile) error {
	if err := m.profiles.UpdateProfile(ctx, p); err != nil {
		return err
	}

	m.mu.Lock()
	if m.user != nil && m.user.ID == p.UserID {
		m.profile = p
	}
	m.mu.Unlock()

	if b, err := json.Marshal(p); err == nil {
		if err := m.store.Set(ctx, profileKey(p.UserID), b); err != nil {
			m.log.Warn().Err(err).Msg("profile cache write failed")
		}
	}

	if b, err := json.Marshal(profileMessage{UserID: p.UserID, Profile: p}); err == nil {
		if err := m.bus.Publish(ctx, TopicProfileUpdated, b); err != nil {
			m.log.Warn().Err(err).Msg("profile update broadcast failed")
		}
	}

	return nil
}

// View returns a consistent snapshot of the current state.
func (m *Manager) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return View{
		State:            m.state,
		Session:          m.session,
		User:             m.user,
		Profile:          m.profile,
		IsProfileLoading: m.loading,
		IsAdmin:          m.profile.IsAdmin(),
		LastError:        m.lastErr,
	}
}

// adoptSession installs a new session. Cached profiles of other users are
// purged before the new profile is set, so no cross-user data survives a
// user switch.
func (m *Manager) adoptSession(ctx context.Context, sess *Session, u *user.User) {
	m.mu.Lock()
	switched := m.user != nil && m.user.ID != u.ID
	m.session = sess
	m.user = u
	if switched {
		m.profile = nil
	}
	m.state = StateAuthenticated
	m.mu.Unlock()

	if switched {
		m.generation.Add(1)
	}
	if err := m.store.DeleteByPrefix(ctx, profileKeyPrefix); err != nil {
		m.log.Warn().Err(err).Msg("profile cache purge failed")
	}

	m.persistSession(ctx, sess)

	if _, err := m.FetchProfile(ctx, u.ID, false); err != nil {
		m.log.Warn().Err(err).Str("user_id", u.ID).Msg("profile load after sign-in failed")
	}
}

// forceCleanup resolves any ambiguous state to Anonymous: artifacts cleared,
// memory cleared, in-flight fetches invalidated. Best-effort.
func (m *Manager) forceCleanup(ctx context.Context) {
	m.generation.Add(1)

	if err := m.store.DeleteByPrefix(ctx, KeyPrefix); err != nil {
		m.log.Warn().Err(err).Msg("artifact cleanup failed")
	}

	m.mu.Lock()
	m.session = nil
	m.user = nil
	m.profile = nil
	m.state = StateAnonymous
	m.mu.Unlock()
}

func (m *Manager) handleProviderEvent(e Event) {
	ctx := context.Background()
	switch e.Kind {
	case EventInitialSession, EventSignedIn:
		if e.Session != nil && e.User != nil {
			m.adoptSession(ctx, e.Session, e.User)
		}
	case EventTokenRefreshed:
		if e.Session != nil {
			m.mu.Lock()
			m.session = e.Session
			m.mu.Unlock()
			m.persistSession(ctx, e.Session)
		}
	case EventSignedOut:
		m.forceCleanup(ctx)
	}
}

// handleProfileUpdated applies a broadcast profile change if it concerns the
// current user.
func (m *Manager) handleProfileUpdated(topic string, payload []byte) {
	var msg profileMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}

	m.mu.Lock()
	if m.user != nil && m.user.ID == msg.UserID {
		m.profile = msg.Profile
	}
	m.mu.Unlock()
}

// handleRemoteSignOut clears all local auth state. The message is
// authoritative regardless of local in-flight operations.
func (m *Manager) handleRemoteSignOut(topic string, payload []byte) {
	m.forceCleanup(context.Background())
}

func (m *Manager) readPersistedSession(ctx context.Context) *Session {
	b, ok, err := m.store.Get(ctx, sessionKey)
	if err != nil || !ok {
		return nil
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	return &s
}

func (m *Manager) persistSession(ctx context.Context, sess *Session) {
	b, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := m.store.Set(ctx, sessionKey, b); err != nil {
		m.log.Warn().Err(err).Msg("session persist failed")
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) currentUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.ID
}

func (m *Manager) currentProfile() *user.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/broadcast"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

type fakeProvider struct {
	mu           sync.Mutex
	subs         []func(Event)
	signInUser   *user.User
	currentUser  *user.User
	signOutErr   error
	signOutCalls int
	signOutScope SignOutScope
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*Session, *user.User, error) {
	f.mu.Lock()
	u := f.signInUser
	f.mu.Unlock()
	if u == nil {
		return nil, nil, user.ErrInvalidCredentials
	}
	return testSession(time.Hour), u, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password, fullName string, ut user.UserType) (*Session, *user.User, error) {
	return f.SignIn(ctx, email, password)
}

func (f *fakeProvider) SignOut(ctx context.Context, scope SignOutScope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	f.signOutScope = scope
	return f.signOutErr
}

func (f *fakeProvider) CurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentUser == nil {
		return nil, apperror.NewKind(http.StatusUnauthorized, apperror.KindAuthHard, "invalid token")
	}
	return f.currentUser, nil
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*Session, *user.User, error) {
	return nil, nil, errors.New("not implemented")
}

func (f *fakeProvider) Subscribe(fn func(Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeProvider) emit(e Event) {
	f.mu.Lock()
	subs := append([]func(Event){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}

type fakeProfiles struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeProfiles) FetchProfile(ctx context.Context, userID string) (*user.Profile, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	block := f.block
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &user.Profile{UserID: userID, FullName: "User " + userID, UserType: user.TypeBuyer}, nil
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, p *user.Profile) error {
	return nil
}

func (f *fakeProfiles) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testSession(ttl time.Duration) *Session {
	return &Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(ttl),
	}
}

func testUser(id string) *user.User {
	return &user.User{ID: id, Email: id + "@example.com", IsActive: true}
}

type testRig struct {
	manager  *Manager
	provider *fakeProvider
	profiles *fakeProfiles
	store    *MemoryStore
	bus      *broadcast.Memory
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	provider := &fakeProvider{}
	profiles := &fakeProfiles{}
	store := NewMemoryStore()
	bus := broadcast.NewMemory()
	t.Cleanup(func() { bus.Close() })

	m := NewManager(provider, store, profiles, bus, zerolog.Nop(), Config{})
	return &testRig{manager: m, provider: provider, profiles: profiles, store: store, bus: bus}
}

// signIn initializes the rig anonymous and signs in as the given user.
func (r *testRig) signIn(t *testing.T, id string) {
	t.Helper()
	r.provider.mu.Lock()
	r.provider.signInUser = testUser(id)
	r.provider.mu.Unlock()

	require.Equal(t, StateAnonymous, r.manager.Init(context.Background()))
	_, _, err := r.manager.SignIn(context.Background(), id+"@example.com", "password")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, r.manager.View().State)
}

func TestFetchProfileSingleFlight(t *testing.T) {
	r := newTestRig(t)
	r.signIn(t, "u1")
	before := r.profiles.callCount()

	r.profiles.mu.Lock()
	r.profiles.block = make(chan struct{})
	r.profiles.started = make(chan struct{}, 1)
	r.profiles.mu.Unlock()

	ctx := context.Background()
	results := make(chan *user.Profile, 2)
	errs := make(chan error, 2)

	go func() {
		p, err := r.manager.FetchProfile(ctx, "u1", true)
		results <- p
		errs <- err
	}()

	// Wait until the first fetch is in flight, then issue a second one.
	<-r.profiles.started
	go func() {
		p, err := r.manager.FetchProfile(ctx, "u1", true)
		results <- p
		errs <- err
	}()

	// Give the second caller time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(r.profiles.block)

	p1, p2 := <-results, <-results
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	assert.Equal(t, p1, p2)

	// Exactly one underlying fetch for both callers.
	assert.Equal(t, before+1, r.profiles.callCount())
}

func TestCachePurgeOnUserSwitch(t *testing.T) {
	r := newTestRig(t)
	r.signIn(t, "userA")

	// Profile for userA is durably cached after sign-in.
	require.Contains(t, r.store.Keys(profileKeyPrefix), profileKey("userA"))

	// The provider observes a session transition to userB.
	r.provider.emit(Event{Kind: EventSignedIn, Session: testSession(time.Hour), User: testUser("userB")})

	keys := r.store.Keys(profileKeyPrefix)
	assert.NotContains(t, keys, profileKey("userA"), "cached profile of previous user must be purged")
	assert.Contains(t, keys, profileKey("userB"))

	view := r.manager.View()
	require.NotNil(t, view.Profile)
	assert.Equal(t, "userB", view.Profile.UserID)
}

func TestSignOutCompleteness(t *testing.T) {
	r := newTestRig(t)
	r.signIn(t, "u1")

	// Teardown proceeds even when the provider call fails.
	r.provider.mu.Lock()
	r.provider.signOutErr = errors.New("network down")
	r.provider.mu.Unlock()

	r.manager.SignOut(context.Background())

	assert.Empty(t, r.store.Keys(KeyPrefix), "no auth-prefixed key may survive sign-out")

	view := r.manager.View()
	assert.Equal(t, StateAnonymous, view.State)
	assert.Nil(t, view.Session)
	assert.Nil(t, view.User)
	assert.Nil(t, view.Profile)

	r.provider.mu.Lock()
	defer r.provider.mu.Unlock()
	assert.Equal(t, 1, r.provider.signOutCalls)
	assert.Equal(t, ScopeGlobal, r.provider.signOutScope)
}

func TestSoftAuthErrorKeepsPriorProfile(t *testing.T) {
	r := newTestRig(t)
	r.signIn(t, "u1")

	prior := r.manager.View().Profile
	require.NotNil(t, prior)

	r.profiles.mu.Lock()
	r.profiles.err = apperror.NewKind(http.StatusUnauthorized, apperror.KindAuthSoft, "token rotating")
	r.profiles.mu.Unlock()

	p, err := r.manager.FetchProfile(context.Background(), "u1", true)
	require.NoError(t, err, "soft auth errors are suppressed")
	assert.Equal(t, prior, p)

	view := r.manager.View()
	assert.Equal(t, prior, view.Profile)
	assert.Empty(t, view.LastError)
}

func TestProfileFetchErrorClearsProfile(t *testing.T) {
	r := newTestRig(t)
	r.signIn(t, "u1")
	require.NotNil(t, r.manager.View().Profile)

	r.profiles.mu.Lock()
	r.profiles.err = errors.New("row scan failed")
	r.profiles.mu.Unlock()

	_, err := r.manager.FetchProfile(context.Background(), "u1", true)
	require.Error(t, err)

	view := r.manager.View()
	assert.Nil(t, view.Profile)
	assert.NotEmpty(t, view.LastError)
}

func TestStaleFetchDiscardedAfterSignOut(t *testing.T) {
	r := newTestRig(t)
	r.signIn(t, "u1")

	r.profiles.mu.Lock()
	r.profiles.block = make(chan struct{})
	r.profiles.started = make(chan struct{}, 1)
	r.profiles.mu.Unlock()

	ctx := context.Background()
	errCh := make(chan error, 1)
	go func() {
		_, err := r.manager.FetchProfile(ctx, "u1", true)
		errCh <- err
	}()

	<-r.profiles.started
	r.manager.SignOut(ctx)
	close(r.profiles.block)

	require.ErrorIs(t, <-errCh, ErrSuperseded)
	assert.Nil(t, r.manager.View().Profile, "stale fetch result must not repopulate state after sign-out")
}

func TestTokenValidMargin(t *testing.T) {
	r := newTestRig(t)

	assert.False(t, r.manager.TokenValid(nil))
	assert.False(t, r.manager.TokenValid(testSession(4*time.Minute)), "expiring within the margin is invalid")
	assert.True(t, r.manager.TokenValid(testSession(6*time.Minute)))
}

func TestInitResolvesToAnonymousOnBadSession(t *testing.T) {
	t.Run("no persisted session", func(t *testing.T) {
		r := newTestRig(t)
		assert.Equal(t, StateAnonymous, r.manager.Init(context.Background()))
	})

	t.Run("corrupt persisted session", func(t *testing.T) {
		r := newTestRig(t)
		require.NoError(t, r.store.Set(context.Background(), sessionKey, []byte("{not json")))
		assert.Equal(t, StateAnonymous, r.manager.Init(context.Background()))
		assert.Empty(t, r.store.Keys(KeyPrefix), "cleanup removes the corrupt artifact")
	})

	t.Run("provider rejects token", func(t *testing.T) {
		r := newTestRig(t)
		persistTestSession(t, r.store, time.Hour)
		// provider.currentUser left nil: validation round-trip fails.
		assert.Equal(t, StateAnonymous, r.manager.Init(context.Background()))
		assert.Empty(t, r.store.Keys(KeyPrefix))
	})
}

func TestInitRestoresValidSession(t *testing.T) {
	r := newTestRig(t)
	persistTestSession(t, r.store, time.Hour)
	r.provider.mu.Lock()
	r.provider.currentUser = testUser("u1")
	r.provider.mu.Unlock()

	require.Equal(t, StateAuthenticated, r.manager.Init(context.Background()))

	view := r.manager.View()
	require.NotNil(t, view.User)
	assert.Equal(t, "u1", view.User.ID)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "u1", view.Profile.UserID)
}

func TestRemoteSignOutIsAuthoritative(t *testing.T) {
	r := newTestRig(t)
	r.signIn(t, "u1")

	// Another instance broadcasts a forced sign-out.
	require.NoError(t, r.bus.Publish(context.Background(), TopicSignOut, []byte(`{"user_id":"u1"}`)))

	assert.Eventually(t, func() bool {
		return r.manager.View().State == StateAnonymous
	}, time.Second, 5*time.Millisecond)
}

func TestProfileUpdateConvergesAcrossInstances(t *testing.T) {
	provider := &fakeProvider{currentUser: testUser("u1")}
	profiles := &fakeProfiles{}
	store := NewMemoryStore()
	bus := broadcast.NewMemory()
	defer bus.Close()

	m1 := NewManager(provider, store, profiles, bus, zerolog.Nop(), Config{})
	m2 := NewManager(provider, store, profiles, bus, zerolog.Nop(), Config{})

	persistTestSession(t, store, time.Hour)
	require.Equal(t, StateAuthenticated, m1.Init(context.Background()))
	require.Equal(t, StateAuthenticated, m2.Init(context.Background()))

	updated := &user.Profile{UserID: "u1", FullName: "Renamed", UserType: user.TypeSeller}
	require.NoError(t, m1.UpdateProfile(context.Background(), updated))

	assert.Eventually(t, func() bool {
		p := m2.View().Profile
		return p != nil && p.FullName == "Renamed"
	}, time.Second, 5*time.Millisecond)
}

func TestIsAdminDerivedFromUserType(t *testing.T) {
	p := &user.Profile{UserType: user.TypeAdmin}
	assert.True(t, p.IsAdmin())
	assert.False(t, (&user.Profile{UserType: user.TypeSeller}).IsAdmin())

	var nilProfile *user.Profile
	assert.False(t, nilProfile.IsAdmin())
}

func persistTestSession(t *testing.T, store *MemoryStore, ttl time.Duration) {
	t.Helper()
	s := testSession(ttl)
	b := []byte(`{"access_token":"` + s.AccessToken + `","refresh_token":"` + s.RefreshToken + `","expires_at":"` + s.ExpiresAt.UTC().Format(time.RFC3339) + `"}`)
	require.NoError(t, store.Set(context.Background(), sessionKey, b))
}

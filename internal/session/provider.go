package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/nekogravitycat/parts-market-backend/internal/auth"
	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

// LocalProvider implements Provider on top of the user service and the JWT
// manager. Tokens are stateless, so global sign-out amounts to artifact
// clearing plus the broadcast the manager already performs.
type LocalProvider struct {
	users user.Service
	jwt   *auth.JWTManager

	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// NewLocalProvider creates a Provider backed by the local user service.
func NewLocalProvider(users user.Service, jwt *auth.JWTManager) *LocalProvider {
	return &LocalProvider{
		users: users,
		jwt:   jwt,
		subs:  make(map[int]func(Event)),
	}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, *user.User, error) {
	u, err := p.users.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	// Adoption happens on the caller's side; emitting here as well would
	// make the manager adopt the same session twice.
	return p.sessionFor(u)
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password, fullName string, userType user.UserType) (*Session, *user.User, error) {
	u, _, err := p.users.Register(ctx, email, password, fullName, userType)
	if err != nil {
		return nil, nil, err
	}
	return p.sessionFor(u)
}

func (p *LocalProvider) SignOut(ctx context.Context, scope SignOutScope) error {
	p.emit(Event{Kind: EventSignedOut})
	return nil
}

// CurrentUser validates the access token and confirms the account is still
// active with a database round-trip.
func (p *LocalProvider) CurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := p.jwt.ParseAndValidate(accessToken)
	if err != nil {
		return nil, apperror.WrapKind(err, http.StatusUnauthorized, apperror.KindAuthHard, "invalid or expired token")
	}

	u, err := p.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperror.WrapKind(err, http.StatusUnauthorized, apperror.KindAuthHard, "user no longer exists")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperror.NewKind(http.StatusUnauthorized, apperror.KindAuthHard, "user is inactive")
	}

	return u, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, *user.User, error) {
	claims, err := p.jwt.ParseAndValidate(refreshToken)
	if err != nil {
		return nil, nil, apperror.WrapKind(err, http.StatusUnauthorized, apperror.KindAuthHard, "invalid refresh token")
	}

	u, err := p.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}

	sess, err := p.newSession(u)
	if err != nil {
		return nil, nil, err
	}

	p.emit(Event{Kind: EventTokenRefreshed, Session: sess, User: u})
	return sess, u, nil
}

func (p *LocalProvider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *LocalProvider) sessionFor(u *user.User) (*Session, *user.User, error) {
	sess, err := p.newSession(u)
	if err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

func (p *LocalProvider) newSession(u *user.User) (*Session, error) {
	pair, err := p.jwt.GeneratePair(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

// UserProfileStore adapts the user service to the ProfileStore interface.
type UserProfileStore struct {
	users user.Service
}

func NewUserProfileStore(users user.Service) *UserProfileStore {
	return &UserProfileStore{users: users}
}

func (s *UserProfileStore) FetchProfile(ctx context.Context, userID string) (*user.Profile, error) {
	return s.users.GetProfile(ctx, userID)
}

func (s *UserProfileStore) UpdateProfile(ctx context.Context, p *user.Profile) error {
	return s.users.UpdateProfile(ctx, p)
}

func (p *LocalProvider) emit(e Event) {
	p.mu.Lock()
	subs := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

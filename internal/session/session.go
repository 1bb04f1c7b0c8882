// Package session owns the authoritative view of the authenticated identity:
// the current session, user and profile. It mediates profile fetch/cache/
// invalidation, deduplicates concurrent fetches, and keeps separate instances
// converged through a broadcast channel.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSuperseded marks a profile fetch whose result arrived after a
	// sign-out or user switch and was discarded.
	ErrSuperseded = errors.New("profile fetch superseded")
)

// Session is the persisted token set for an authenticated identity.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SignOutScope controls whether a sign-out invalidates only this instance's
// artifacts or every session of the user.
type SignOutScope string

const (
	ScopeLocal  SignOutScope = "local"
	ScopeGlobal SignOutScope = "global"
)

// EventKind identifies an auth provider state change.
type EventKind string

const (
	EventInitialSession EventKind = "initial_session"
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event is delivered by the Provider on auth state changes.
type Event struct {
	Kind    EventKind
	Session *Session
	User    *user.User
}

// Provider is the auth backend the manager drives.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, *user.User, error)
	SignUp(ctx context.Context, email, password, fullName string, userType user.UserType) (*Session, *user.User, error)
	SignOut(ctx context.Context, scope SignOutScope) error
	// CurrentUser validates the access token with a server round-trip.
	CurrentUser(ctx context.Context, accessToken string) (*user.User, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, *user.User, error)
	Subscribe(fn func(Event)) (unsubscribe func())
}

// ArtifactStore is durable key-value storage for auth artifacts. Keys follow
// the "auth:" prefix convention so a full cleanup can enumerate them by
// prefix without a key registry. Absence of a key is an expected state, not
// an error: the store may be concurrently cleared by another instance.
type ArtifactStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ProfileStore reads and writes the row-per-user profile table.
type ProfileStore interface {
	FetchProfile(ctx context.Context, userID string) (*user.Profile, error)
	UpdateProfile(ctx context.Context, p *user.Profile) error
}

// Artifact key conventions.
const (
	KeyPrefix        = "auth:"
	sessionKey       = KeyPrefix + "session"
	profileKeyPrefix = KeyPrefix + "profile:"
)

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

// Broadcast topics.
const (
	TopicProfileUpdated = "auth.profile.updated"
	TopicSignOut        = "auth.signout"
)

type profileMessage struct {
	UserID  string        `json:"user_id"`
	Profile *user.Profile `json:"profile"`
}

type signOutMessage struct {
	UserID string `json:"user_id"`
}

// isSoftAuthError reports whether the error is a transient auth condition
// (e.g. an expected unauthorized during token rotation) that should be
// suppressed, keeping the prior state.
func isSoftAuthError(err error) bool {
	return apperror.KindOf(err) == apperror.KindAuthSoft
}

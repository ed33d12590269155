// ABOUTME: Authenticated session held in memory and mirrored to the state store
// ABOUTME: Read once at startup and trusted without asking the service

package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/kvstore"
	"github.com/pkg/errors"
)

// Storage keys.
const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)

// ErrNotAuthenticated is returned when an operation needs a session.
var ErrNotAuthenticated = errors.New("not logged in")

// Session is the authenticated identity.
type Session struct {
	UserID      int    `json:"userid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayname"`
	Token       string `json:"-"`
}

// Name is the display name, falling back to the email.
func (s Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}

// Authenticator is the part of the API client used for sign-in.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	Register(ctx context.Context, input client.RegisterRequest) (*client.User, error)
}

// Store owns the session.
type Store struct {
	kv kvstore.Store

	mu      sync.RWMutex
	current *Session
}

// Open reads any persisted session from kv. A stored user that cannot be
// decoded clears both keys and starts signed out.
func Open(ctx context.Context, kv kvstore.Store) (*Store, error) {
	s := &Store{kv: kv}

	token, hasToken, err := kv.Get(ctx, TokenKey)
	if err != nil {
		return nil, errors.Wrap(err, "read session token")
	}
	raw, hasUser, err := kv.Get(ctx, UserKey)
	if err != nil {
		return nil, errors.Wrap(err, "read session user")
	}
	if !hasToken || !hasUser || token == "" {
		return s, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.UserID == 0 {
		if err := kv.Delete(ctx, TokenKey, UserKey); err != nil {
			return nil, errors.Wrap(err, "clear corrupt session")
		}
		return s, nil
	}
	sess.Token = token
	s.current = &sess
	return s, nil
}

// Current returns the session, or nil when signed out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// Authenticated reports whether a session exists.
func (s *Store) Authenticated() bool {
	return s.Current() != nil
}

// Require returns the session or ErrNotAuthenticated.
func (s *Store) Require() (*Session, error) {
	if c := s.Current(); c != nil {
		return c, nil
	}
	return nil, ErrNotAuthenticated
}

// Save installs sess and persists it.
func (s *Store) Save(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := s.kv.Set(ctx, TokenKey, sess.Token); err != nil {
		return errors.Wrap(err, "persist session token")
	}
	if err := s.kv.Set(ctx, UserKey, string(raw)); err != nil {
		s.restoreToken(ctx)
		return errors.Wrap(err, "persist session user")
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	return nil
}

// restoreToken puts back the token that pairs with the stored user after a
// half-written Save. If that fails too, both keys are cleared so the next
// start is signed out rather than holding a mismatched pair.
func (s *Store) restoreToken(ctx context.Context) {
	var err error
	if prev := s.Current(); prev != nil {
		err = s.kv.Set(ctx, TokenKey, prev.Token)
	} else {
		err = s.kv.Delete(ctx, TokenKey)
	}
	if err != nil {
		s.kv.Delete(ctx, TokenKey, UserKey)
	}
}

// Login signs in and replaces the session. On failure the session is left
// as it was.
func (s *Store) Login(ctx context.Context, auth Authenticator, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "login failed")
	}
	if resp.AccessToken == "" {
		return nil, errors.New("login failed: no token in response")
	}

	sess := Session{
		UserID:      resp.User.UserID,
		Email:       resp.User.Email,
		DisplayName: resp.User.DisplayName,
		Token:       resp.AccessToken,
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Register creates an account and then signs in with it.
func (s *Store) Register(ctx context.Context, auth Authenticator, email, password, displayName string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	if _, err := auth.Register(ctx, client.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	}); err != nil {
		return nil, errors.Wrap(err, "registration failed")
	}
	return s.Login(ctx, auth, email, password)
}

// Logout forgets the session in memory and on disk.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return errors.Wrap(s.kv.Delete(ctx, TokenKey, UserKey), "clear session")
}

// TokenExpiry decodes the token's exp claim for display. The signature is
// not checked and the session stays trusted either way.
func (s *Store) TokenExpiry() (time.Time, bool) {
	c := s.Current()
	if c == nil {
		return time.Time{}, false
	}
	return TokenExpiry(c.Token)
}

// TokenExpiry reads exp from an unverified JWT.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

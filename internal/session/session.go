// Package session holds the signed-in user's token and identity and keeps them
// in persistent storage between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Storage keys shared with every client of the same profile.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// User identifies the signed-in account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Session is a snapshot of the current credentials. A zero Session is anonymous.
type Session struct {
	Token string
	User  *User
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool { return s.Token != "" }

// Storage persists string values by key.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CookieClearer drops every stored cookie. Clearing a session signs the user
// out of the backend cookie session too.
type CookieClearer interface {
	ExpireAll()
}

// Store is the single holder of the current session. Writers race with last
// writer wins; readers always see a consistent token/user pair.
type Store struct {
	mu      sync.RWMutex
	current Session
	storage Storage
	cookies CookieClearer
	log     zerolog.Logger

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Session)
}

// Option configures a Store.
type Option func(*Store)

// WithCookies wires the cookie jar wiped on Clear.
func WithCookies(c CookieClearer) Option {
	return func(s *Store) { s.cookies = c }
}

// WithLogger sets the logger used for recoverable storage problems.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New restores the persisted session from storage. A persisted user that no
// longer decodes is dropped rather than failing startup.
func New(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, errors.New("session storage is required")
	}

	s := &Store{
		storage: storage,
		log:     zerolog.Nop(),
		subs:    make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, _, err := storage.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	raw, ok, err := storage.Get(ctx, UserKey)
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}

	s.current.Token = token
	if ok && raw != "" {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.log.Warn().Err(err).Msg("discarding unreadable persisted user")
			_ = storage.Delete(ctx, UserKey)
		} else {
			s.current.User = &u
		}
	}

	return s, nil
}

// Set stores the credentials returned by login or registration. A nil user
// keeps only the token.
func (s *Store) Set(ctx context.Context, token string, user *User) error {
	if token == "" {
		return errors.New("session token is required")
	}

	next := Session{Token: token}
	if user != nil {
		u := *user
		next.User = &u
	}

	s.mu.Lock()
	if err := s.storage.Set(ctx, TokenKey, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist token: %w", err)
	}
	if next.User != nil {
		payload, err := json.Marshal(next.User)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("encode user: %w", err)
		}
		if err := s.storage.Set(ctx, UserKey, string(payload)); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("persist user: %w", err)
		}
	} else if err := s.storage.Delete(ctx, UserKey); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("remove user: %w", err)
	}
	s.current = next
	s.mu.Unlock()

	s.notify(next)
	return nil
}

// Clear signs out locally: token and user leave storage and every cookie
// expires. The in-memory session is cleared even when storage fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = Session{}
	errToken := s.storage.Delete(ctx, TokenKey)
	errUser := s.storage.Delete(ctx, UserKey)
	if s.cookies != nil {
		s.cookies.ExpireAll()
	}
	s.mu.Unlock()

	s.notify(Session{})

	if err := errors.Join(errToken, errUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Get returns a snapshot of the current session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// Token returns the current token, empty when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn to run after every Set and Clear. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(snapshot Session) {
	s.subMu.Lock()
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

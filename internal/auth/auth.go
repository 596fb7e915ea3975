// Package auth abstracts the external auth service: token retrieval for
// the remote adapter and a typed auth-state subscription for the router.
package auth

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAuthenticated is returned by a TokenSource with no current user.
var ErrNotAuthenticated = errors.New("no authenticated user")

// User identifies the signed-in account.
type User struct {
	UID         string
	Email       string
	DisplayName string
}

// TokenSource yields bearer tokens for authenticated API calls.
type TokenSource interface {
	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *User
	// IDToken returns a bearer token for the current user, or
	// ErrNotAuthenticated when signed out.
	IDToken(ctx context.Context) (string, error)
}

// State is one auth-state-change notification.
type State struct {
	User          *User
	Authenticated bool
}

// Broadcaster fans auth-state changes out to subscribers. It replaces the
// original DOM custom-event plumbing with an explicit subscription.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(State)
	last   State
}

// NewBroadcaster returns a Broadcaster in the signed-out state.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[int]func(State){}}
}

// Subscribe registers fn and immediately delivers the current state.
// The returned function removes the subscription.
func (b *Broadcaster) Subscribe(fn func(State)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	last := b.last
	b.mu.Unlock()

	fn(last)
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers a new auth state to all subscribers.
func (b *Broadcaster) Publish(s State) {
	b.mu.Lock()
	b.last = s
	fns := make([]func(State), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// StaticTokenSource returns a fixed token for a fixed user. Used by the
// CLI (personal access token from config) and by tests. A nil user or
// empty token means signed out.
type StaticTokenSource struct {
	mu    sync.Mutex
	user  *User
	token string
}

// NewStaticTokenSource builds a StaticTokenSource.
func NewStaticTokenSource(user *User, token string) *StaticTokenSource {
	return &StaticTokenSource{user: user, token: token}
}

// SetUser swaps the signed-in user and token; pass nil, "" to sign out.
func (s *StaticTokenSource) SetUser(user *User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()
}

// CurrentUser implements TokenSource.
func (s *StaticTokenSource) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IDToken implements TokenSource.
func (s *StaticTokenSource) IDToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.token == "" {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

package auth

import (
	"context"
	"errors"
	"testing"
)

// TestBroadcasterDeliversCurrentStateOnSubscribe verifies new subscribers
// immediately learn the present auth state.
func TestBroadcasterDeliversCurrentStateOnSubscribe(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(State{User: &User{UID: "u1"}, Authenticated: true})

	var got []State
	b.Subscribe(func(s State) { got = append(got, s) })

	if len(got) != 1 || !got[0].Authenticated || got[0].User.UID != "u1" {
		t.Fatalf("initial delivery = %+v", got)
	}
}

// TestBroadcasterUnsubscribe verifies removed subscriptions stop
// receiving updates.
func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	var count int
	cancel := b.Subscribe(func(State) { count++ })
	if count != 1 {
		t.Fatalf("count = %d after subscribe, want 1", count)
	}

	b.Publish(State{Authenticated: true})
	if count != 2 {
		t.Fatalf("count = %d after publish, want 2", count)
	}

	cancel()
	b.Publish(State{Authenticated: false})
	if count != 2 {
		t.Fatalf("count = %d after unsubscribe, want still 2", count)
	}
}

// TestStaticTokenSource covers the signed-in and signed-out states.
func TestStaticTokenSource(t *testing.T) {
	s := NewStaticTokenSource(&User{UID: "u1"}, "tok")

	token, err := s.IDToken(context.Background())
	if err != nil || token != "tok" {
		t.Fatalf("IDToken() = %q, %v", token, err)
	}

	s.SetUser(nil, "")
	if s.CurrentUser() != nil {
		t.Fatal("CurrentUser() non-nil after sign-out")
	}
	if _, err := s.IDToken(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("IDToken() error = %v, want ErrNotAuthenticated", err)
	}
}

package auth

import (
	"sync"

	"github.com/google/uuid"
)

// Event names an auth-state transition.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// Listener receives auth-state events. session is nil after sign-out.
type Listener func(event Event, session *Session)

// Subscription is a registered Listener.
type Subscription interface {
	ID() string
	// Unsubscribe stops delivery. Calling it more than once is harmless.
	Unsubscribe()
}

type subscription struct {
	id     string
	fn     Listener
	client *Client
	once   sync.Once
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.client.removeListener(s.id) })
}

// OnAuthStateChange registers fn for every subsequent auth-state event.
// Listeners run synchronously, in registration order, on the goroutine that
// caused the transition.
func (c *Client) OnAuthStateChange(fn Listener) Subscription {
	sub := &subscription{id: uuid.NewString(), fn: fn, client: c}
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, sub)
	c.listenersMu.Unlock()
	return sub
}

// ListenerCount reports how many listeners are registered.
func (c *Client) ListenerCount() int {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	return len(c.listeners)
}

func (c *Client) removeListener(id string) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	for i, sub := range c.listeners {
		if sub.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *Client) emit(event Event, session *Session) {
	c.listenersMu.Lock()
	subs := append([]*subscription(nil), c.listeners...)
	c.listenersMu.Unlock()

	c.log.WithField("event", string(event)).Debug("auth state changed")
	for _, sub := range subs {
		sub.fn(event, session)
	}
}

package events

import (
	"sync"

	"github.com/google/uuid"
)

type Type string

const (
	InitialSession Type = "INITIAL_SESSION"
	SignedIn       Type = "SIGNED_IN"
	SignedOut      Type = "SIGNED_OUT"
	TokenRefreshed Type = "TOKEN_REFRESHED"
	CartUpdated    Type = "CART_UPDATED"
)

// Event is delivered to every subscriber of UserID. CartCount is set for
// CART_UPDATED and SIGNED_OUT (always 0); Email is set for auth events.
// TokenID names the session token an auth event belongs to, and a
// TOKEN_REFRESHED also names the token it replaced.
type Event struct {
	Type            Type      `json:"event"`
	UserID          uuid.UUID `json:"user_id"`
	Email           string    `json:"email,omitempty"`
	CartCount       *int      `json:"cart_count,omitempty"`
	TokenID         string    `json:"-"`
	ReplacesTokenID string    `json:"-"`
}

func WithCount(e Event, n int) Event {
	e.CartCount = &n
	return e
}

// Broker fans events out per user. Slow subscribers lose events rather than
// block publishers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[chan Event]struct{}
	buffer int
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uuid.UUID]map[chan Event]struct{}), buffer: 16}
}

// Subscribe returns a channel of events for userID and a cancel func that
// unregisters and closes it.
func (b *Broker) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[userID], ch)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (b *Broker) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[e.UserID] {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *Broker) Subscribers(userID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/user"
)

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type CartCounter interface {
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Snapshot is the shell state every page renders: who is signed in and how
// many items are in the cart.
type Snapshot struct {
	User      *user.User `json:"user"`
	CartCount int        `json:"cart_count"`
	IsAdmin   bool       `json:"is_admin"`
}

// message is one SSE frame payload.
type message struct {
	Event     events.Type `json:"event"`
	Session   *sessionRef `json:"session"`
	CartCount int         `json:"cart_count"`
}

type sessionRef struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
}

// writeFrame writes one server-sent event and flushes it.
func writeFrame(w *bufio.Writer, m message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Event, data); err != nil {
		return err
	}
	return w.Flush()
}

// apply folds an event into the running count and returns the frame for it.
func apply(count int, ref *sessionRef, ev events.Event) (int, message) {
	switch ev.Type {
	case events.SignedOut:
		return 0, message{Event: ev.Type, Session: nil, CartCount: 0}
	case events.CartUpdated:
		if ev.CartCount != nil {
			count = *ev.CartCount
		}
	}
	if ev.Email != "" && ref != nil {
		ref = &sessionRef{UserID: ref.UserID, Email: ev.Email}
	}
	return count, message{Event: ev.Type, Session: ref, CartCount: count}
}

// follow tracks the token a stream was opened with across refreshes and
// reports whether ev belongs on that stream. A SIGNED_OUT for another token
// is dropped; one without a token id ends every stream.
func follow(jti string, ev events.Event) (string, bool) {
	switch ev.Type {
	case events.TokenRefreshed:
		if ev.ReplacesTokenID != "" && ev.ReplacesTokenID == jti {
			return ev.TokenID, true
		}
	case events.SignedOut:
		return jti, ev.TokenID == "" || ev.TokenID == jti
	}
	return jti, true
}

const heartbeat = 15 * time.Second

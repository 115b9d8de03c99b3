// Package flash stores one-shot user notifications between requests.
//
// Messages are kept per browser session, identified by a random id in a
// cookie, and removed when read. The typical flow is: a POST handler adds a
// message, redirects, and the next GET drains and displays it.
package flash

import (
	"context"
	"fmt"
	"log/slog"
)

// Severity classifies a message for display.
type Severity string

const (
	Success Severity = "success"
	Warning Severity = "warning"
	Info    Severity = "info"
	Error   Severity = "error"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case Success, Warning, Info, Error:
		return true
	}
	return false
}

// Message is one notification.
type Message struct {
	Severity Severity `json:"type"`
	Text     string   `json:"message"`
}

// Store persists pending messages per session.
type Store interface {
	// Push appends m to the session's queue.
	Push(ctx context.Context, sessionID string, m Message) error
	// Drain returns the queued messages in insertion order and removes them.
	Drain(ctx context.Context, sessionID string) ([]Message, error)
}

// Bag is the request-scoped view of one session's messages.
// The zero of *Bag (nil) accepts and drops everything.
type Bag struct {
	store     Store
	sessionID string
	log       *slog.Logger
}

// NewBag binds store to a session.
func NewBag(store Store, sessionID string, log *slog.Logger) *Bag {
	if log == nil {
		log = slog.Default()
	}
	return &Bag{store: store, sessionID: sessionID, log: log}
}

// SessionID returns the id the bag writes under.
func (b *Bag) SessionID() string {
	if b == nil {
		return ""
	}
	return b.sessionID
}

// Add queues a message. Store failures are logged and the message is
// dropped: losing a notification must not fail the request that caused it.
func (b *Bag) Add(ctx context.Context, severity Severity, text string) {
	if b == nil {
		return
	}
	if !severity.Valid() {
		severity = Info
	}
	if err := b.store.Push(ctx, b.sessionID, Message{Severity: severity, Text: text}); err != nil {
		b.log.WarnContext(ctx, "flash message dropped",
			"severity", string(severity),
			"error", err,
		)
	}
}

// Drain returns and removes every pending message. A nil bag returns none.
func (b *Bag) Drain(ctx context.Context) ([]Message, error) {
	if b == nil {
		return nil, nil
	}
	msgs, err := b.store.Drain(ctx, b.sessionID)
	if err != nil {
		return nil, fmt.Errorf("flash.Bag.Drain: %w", err)
	}
	return msgs, nil
}

type bagKey struct{}

// WithBag returns a copy of ctx carrying b.
func WithBag(ctx context.Context, b *Bag) context.Context {
	return context.WithValue(ctx, bagKey{}, b)
}

// FromContext returns the bag stored by Middleware, or nil.
func FromContext(ctx context.Context) *Bag {
	b, _ := ctx.Value(bagKey{}).(*Bag)
	return b
}

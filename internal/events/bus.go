package events

import (
	"context"
	"sync"

	"budgenet/internal/log"

	"github.com/google/uuid"
)

// Handler reacts to a notification. Handlers run on the publisher's
// goroutine and should re-read whatever state they need rather than rely on
// the notification carrying it.
type Handler func(ctx context.Context, n Notification)

type subscriber struct {
	token   uuid.UUID
	kinds   map[Kind]bool
	handler Handler
}

func (s subscriber) wants(k Kind) bool {
	return len(s.kinds) == 0 || s.kinds[k]
}

// Bus delivers session notifications to subscribers, synchronously and in
// subscription order. There is no acknowledgement or retry.
type Bus struct {
	log *log.Logger

	mu   sync.Mutex
	subs []subscriber
}

func NewBus(logger *log.Logger) *Bus {
	return &Bus{log: log.OrDiscard(logger).WithComponent(log.ComponentEvents)}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus   *Bus
	token uuid.UUID
}

func (s *Subscription) Token() string { return s.token.String() }

// Unsubscribe stops delivery. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.token)
}

// Subscribe registers h for the given kinds, or for every notification when
// no kind is given.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) *Subscription {
	sub := subscriber{token: uuid.New(), handler: h}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return &Subscription{bus: b, token: sub.token}
}

func (b *Bus) remove(token uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.token == token {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers n to every interested subscriber before returning.
// Handlers may publish further notifications or change subscriptions; the
// set of receivers is fixed when Publish starts.
func (b *Bus) Publish(ctx context.Context, n Notification) {
	b.mu.Lock()
	targets := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.wants(n.Kind()) {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	b.log.DebugContext(ctx, "Publishing notification",
		log.FieldEvent, string(n.Kind()),
		log.FieldSubscribers, len(targets))

	for _, s := range targets {
		s.handler(ctx, n)
	}
}

func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

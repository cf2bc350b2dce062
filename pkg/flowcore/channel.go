package flowcore

import (
	"sync"

	"github.com/google/uuid"
)

// ============================================================================
// CHANNEL FABRIC — generic pub/sub connecting operator output slots to
// operator input slots. Every operator exposes a fixed, numbered set of
// named output channels and input channels (0..N-1); a Subscription binds
// one output channel of a producer to one input channel of a consumer.
// ============================================================================

// Subscription is the handle returned by Connect; Close detaches the
// consumer without affecting other subscribers of the same output channel.
type Subscription struct {
	ID     uuid.UUID
	detach func()
	closed bool
	mu     sync.Mutex
}

// Close detaches this subscription from its output channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.detach()
}

// subscriber pairs an input channel with the subscription ID that claimed
// it, kept in a slice ordered by Connect call order rather than a map so
// Publish's fan-out order matches subscription order (spec §4.2/§5).
type subscriber[T any] struct {
	id uuid.UUID
	ch chan<- T
}

// OutputChannel is a named publish point. Every message Published is
// delivered to every currently-subscribed InputChannel (fan-out), in
// subscription order.
type OutputChannel[T any] struct {
	Name string

	mu   sync.RWMutex
	subs []subscriber[T]
}

// NewOutputChannel creates a named, initially unconnected output slot.
func NewOutputChannel[T any](name string) *OutputChannel[T] {
	return &OutputChannel[T]{Name: name}
}

// Connect wires this output channel to an input channel, returning a handle
// that can later Close the subscription. Both sides must agree on T.
func Connect[T any](out *OutputChannel[T], in *InputChannel[T]) *Subscription {
	out.mu.Lock()
	id := uuid.New()
	out.subs = append(out.subs, subscriber[T]{id: id, ch: in.deliver})
	out.mu.Unlock()

	return &Subscription{
		ID: id,
		detach: func() {
			out.mu.Lock()
			for i, sub := range out.subs {
				if sub.id == id {
					out.subs = append(out.subs[:i:i], out.subs[i+1:]...)
					break
				}
			}
			out.mu.Unlock()
		},
	}
}

// Publish delivers msg to every current subscriber in subscription order.
// Blocking and synchronous: Publish does not return until every
// subscriber's buffered channel has accepted the message, matching the
// "synchronized channel" contract used for transaction-boundary
// punctuations.
func (out *OutputChannel[T]) Publish(msg T) {
	out.mu.RLock()
	targets := make([]chan<- T, len(out.subs))
	for i, sub := range out.subs {
		targets[i] = sub.ch
	}
	out.mu.RUnlock()
	for _, ch := range targets {
		ch <- msg
	}
	RecordPublish(out.Name)
}

// SubscriberCount reports the number of currently connected input channels.
func (out *OutputChannel[T]) SubscriberCount() int {
	out.mu.RLock()
	defer out.mu.RUnlock()
	return len(out.subs)
}

// InputChannel is a named receive point owned by a consuming operator.
// deliver is buffered per NewInputChannel's bufferSize so a slow consumer
// doesn't stall Publish indefinitely for unrelated fast subscribers.
type InputChannel[T any] struct {
	Name    string
	deliver chan T
}

// NewInputChannel creates a named input slot with the given buffer depth.
// A depth of 0 makes the channel synchronous: Publish blocks until this
// specific consumer has read the message, which is how tx-chopping
// punctuations guarantee ordering relative to the data they bound.
func NewInputChannel[T any](name string, bufferSize int) *InputChannel[T] {
	return &InputChannel[T]{Name: name, deliver: make(chan T, bufferSize)}
}

// Recv blocks for the next message, or returns ok=false if the channel was
// closed by its producer-side teardown.
func (in *InputChannel[T]) Recv() (T, bool) {
	v, ok := <-in.deliver
	return v, ok
}

// C exposes the raw receive channel for use in select statements, e.g. an
// operator waiting on both a data channel and a punctuation channel.
func (in *InputChannel[T]) C() <-chan T {
	return in.deliver
}

// Close closes the underlying delivery channel. Only the owning consumer
// (on teardown) should call this, after all producers have disconnected.
func (in *InputChannel[T]) Close() {
	close(in.deliver)
}

package flowcore

import "sync"

// ============================================================================
// BARRIER — before forwarding e, wait until pred(e) becomes true against a
// shared global clock value, woken by Advance(). Grounded on the design
// note's "keep the barrier abstraction; any wait/notify primitive suffices"
// guidance: a sync.Cond replaces the condition-variable wait the original
// used, with the clock itself held as an atomic-style guarded value.
// ============================================================================

// GlobalClock is the shared value barrier predicates are evaluated against.
// Advance bumps the clock and wakes every waiting barrier.
type GlobalClock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value int64
}

// NewGlobalClock creates a clock starting at 0.
func NewGlobalClock() *GlobalClock {
	c := &GlobalClock{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Advance sets the clock to v (if v is greater than the current value) and
// wakes every goroutine waiting in Wait.
func (c *GlobalClock) Advance(v int64) {
	c.mu.Lock()
	if v > c.value {
		c.value = v
	}
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Value returns the current clock value.
func (c *GlobalClock) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Wait blocks until pred(current value) is true.
func (c *GlobalClock) Wait(pred func(int64) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !pred(c.value) {
		c.cond.Wait()
	}
}

// BarrierPredicate decides, given the tuple and the current clock value,
// whether the tuple may be forwarded now.
type BarrierPredicate func(t *Tuple, clock int64) bool

// BarrierOp holds each input element until pred(e, clock) becomes true.
type BarrierOp struct {
	unaryBase
	clock *GlobalClock
	pred  BarrierPredicate
}

// NewBarrierOp builds a barrier(pred, clock) operator.
func NewBarrierOp(name string, bufferSize int, clock *GlobalClock, pred BarrierPredicate) *BarrierOp {
	return &BarrierOp{unaryBase: newUnaryBase(name, bufferSize), clock: clock, pred: pred}
}

func (b *BarrierOp) run() {
	for {
		select {
		case msg, ok := <-b.dataIn.C():
			if !ok {
				return
			}
			t := msg.Tuple
			b.clock.Wait(func(v int64) bool { return b.pred(t, v) })
			b.dataOut.Publish(msg)
		case p, ok := <-b.punctIn.C():
			if !ok {
				return
			}
			b.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

package flowcore

import "testing"

func TestChannelPublishFansOutToAllSubscribers(t *testing.T) {
	out := NewOutputChannel[int]("src")
	a := NewInputChannel[int]("a", 1)
	b := NewInputChannel[int]("b", 1)
	Connect(out, a)
	Connect(out, b)

	if out.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", out.SubscriberCount())
	}

	out.Publish(42)
	va, _ := a.Recv()
	vb, _ := b.Recv()
	if va != 42 || vb != 42 {
		t.Fatalf("expected both subscribers to receive 42, got a=%d b=%d", va, vb)
	}
}

func TestSubscriptionCloseDetachesOnlyItself(t *testing.T) {
	out := NewOutputChannel[int]("src")
	a := NewInputChannel[int]("a", 1)
	b := NewInputChannel[int]("b", 1)
	subA := Connect(out, a)
	Connect(out, b)

	subA.Close()
	if out.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount after closing one subscription = %d, want 1", out.SubscriberCount())
	}

	out.Publish(7)
	vb, _ := b.Recv()
	if vb != 7 {
		t.Fatalf("remaining subscriber should still receive published values, got %d", vb)
	}

	select {
	case v := <-a.C():
		t.Fatalf("detached subscriber should not receive further values, got %d", v)
	default:
	}

	// Close is idempotent.
	subA.Close()
}

// TestSubscribersAreOrderedBySubscriptionNotMapIteration guards against a
// map-backed subscriber set (Go map iteration order is randomized per run):
// out.subs must list subscribers in the exact order Connect was called, so
// Publish's fan-out loop (which walks that slice in order) delivers in
// subscription order as spec §4.2/§5 require.
func TestSubscribersAreOrderedBySubscriptionNotMapIteration(t *testing.T) {
	out := NewOutputChannel[int]("src")
	const n = 8
	ins := make([]*InputChannel[int], n)
	for i := 0; i < n; i++ {
		ins[i] = NewInputChannel[int]("sub", 1)
		Connect(out, ins[i])
	}

	if len(out.subs) != n {
		t.Fatalf("len(out.subs) = %d, want %d", len(out.subs), n)
	}
	for i, sub := range out.subs {
		if sub.ch != (chan<- int)(ins[i].deliver) {
			t.Fatalf("subscriber %d is not the %dth connected input channel; subs is not ordered by Connect call order", i, i)
		}
	}
}

// TestSubscriptionCloseMiddlePreservesOrderOfSurvivors confirms detaching
// a subscriber in the middle of the list doesn't reorder (or alias) the
// remaining ones, i.e. Connect's append(subs[:i:i], subs[i+1:]...) removal
// is a true ordered delete, not a swap-with-last.
func TestSubscriptionCloseMiddlePreservesOrderOfSurvivors(t *testing.T) {
	out := NewOutputChannel[int]("src")
	const n = 5
	ins := make([]*InputChannel[int], n)
	subs := make([]*Subscription, n)
	for i := 0; i < n; i++ {
		ins[i] = NewInputChannel[int]("sub", 1)
		subs[i] = Connect(out, ins[i])
	}

	subs[2].Close()

	wantOrder := []*InputChannel[int]{ins[0], ins[1], ins[3], ins[4]}
	if len(out.subs) != len(wantOrder) {
		t.Fatalf("len(out.subs) = %d, want %d", len(out.subs), len(wantOrder))
	}
	for i, want := range wantOrder {
		if out.subs[i].ch != (chan<- int)(want.deliver) {
			t.Fatalf("survivor %d is not %dth original channel; order was disturbed by removal", i, i)
		}
	}
}

package flowcore

import "testing"

func TestMapOpTransformsAndDropsOnError(t *testing.T) {
	m := NewMapOp("double", 4, func(in *Tuple, outdated bool) (*Tuple, error) {
		v, ok := GetAttr[int64](in, 0)
		if !ok {
			return nil, ErrSchemaMismatch
		}
		return NewTuple(v * 2), nil
	})
	h := newWindowHarness(m.DataInput(), m.PunctuationInput(), m.DataOutput(), m.PunctuationOutput())
	go m.run()

	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(21))})
	msg, ok := h.outData.Recv()
	if !ok {
		t.Fatalf("expected a transformed tuple")
	}
	got, _ := GetAttr[int64](msg.Tuple, 0)
	if got != 42 {
		t.Fatalf("mapped value = %d, want 42", got)
	}

	// A tuple the mapping function rejects is dropped, not forwarded; a
	// following good tuple acts as a fence proving the bad one produced
	// nothing.
	h.srcData.Publish(DataMsg{Tuple: NewTuple("not an int")})
	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(1))})
	fence, _ := h.outData.Recv()
	fenceVal, _ := GetAttr[int64](fence.Tuple, 0)
	if fenceVal != 2 {
		t.Fatalf("expected only the fence's mapped value 2, got %d (a dropped tuple leaked through)", fenceVal)
	}
}

func TestWhereOpFiltersTuples(t *testing.T) {
	w := NewWhereOp("even", 4, func(t *Tuple, outdated bool) bool {
		v, _ := GetAttr[int64](t, 0)
		return v%2 == 0
	})
	h := newWindowHarness(w.DataInput(), w.PunctuationInput(), w.DataOutput(), w.PunctuationOutput())
	go w.run()

	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(1))})
	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(2))})
	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(4))})

	msg, _ := h.outData.Recv()
	v, _ := GetAttr[int64](msg.Tuple, 0)
	if v != 2 {
		t.Fatalf("first surviving tuple should be 2 (1 filtered out), got %d", v)
	}
	msg, _ = h.outData.Recv()
	v, _ = GetAttr[int64](msg.Tuple, 0)
	if v != 4 {
		t.Fatalf("second surviving tuple should be 4, got %d", v)
	}
}

// TestWhereOpPredicateSeesOutdatedFlag confirms the predicate can branch on
// retraction status: this one keeps odd values only when they're a
// retraction, inverting WhereOp's usual filter, which is only expressible
// if outdated actually reaches predicate.
func TestWhereOpPredicateSeesOutdatedFlag(t *testing.T) {
	w := NewWhereOp("odd-retractions-only", 4, func(t *Tuple, outdated bool) bool {
		v, _ := GetAttr[int64](t, 0)
		return v%2 != 0 && outdated
	})
	h := newWindowHarness(w.DataInput(), w.PunctuationInput(), w.DataOutput(), w.PunctuationOutput())
	go w.run()

	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(1)), Outdated: false})
	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(1)), Outdated: true})

	msg, ok := h.outData.Recv()
	if !ok {
		t.Fatalf("expected the retracted odd tuple to survive")
	}
	if !msg.Outdated {
		t.Fatalf("expected the surviving tuple to be the retraction, not the original value")
	}
}

func TestBatchOpEmitsOnceFullAndFlushesOnEndOfStream(t *testing.T) {
	b := NewBatchOp("batch3", 4, 3)
	h := newWindowHarness(b.DataInput(), b.PunctuationInput(), b.DataOutput(), b.PunctuationOutput())
	go b.run()

	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(1))})
	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(2))})
	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(3))})

	msg, ok := h.outData.Recv()
	if !ok {
		t.Fatalf("expected a batch to be emitted once full")
	}
	batch, _ := GetAttr[[]BatchedElement](msg.Tuple, 0)
	if len(batch) != 3 {
		t.Fatalf("batch should contain 3 elements, got %d", len(batch))
	}

	// A partial batch below n must still flush on EndOfStream.
	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(9))})
	h.srcPunct.Publish(NewPunctuation(EndOfStream, 0))

	msg, ok = h.outData.Recv()
	if !ok {
		t.Fatalf("expected the partial batch to flush on EndOfStream")
	}
	batch, _ = GetAttr[[]BatchedElement](msg.Tuple, 0)
	if len(batch) != 1 {
		t.Fatalf("flushed partial batch should contain 1 element, got %d", len(batch))
	}
}

func TestAssignTimestampsOpReplacesTimestamp(t *testing.T) {
	a := NewAssignTimestampsOp("assign", 4, func(t *Tuple) (int64, error) {
		return MustGetAttr[int64](t, 0), nil
	})
	h := newWindowHarness(a.DataInput(), a.PunctuationInput(), a.DataOutput(), a.PunctuationOutput())
	go a.run()

	h.srcData.Publish(DataMsg{Tuple: NewTuple(int64(12345))})
	msg, ok := h.outData.Recv()
	if !ok {
		t.Fatalf("expected a tuple")
	}
	if msg.Tuple.Timestamp() != 12345 {
		t.Fatalf("timestamp = %d, want 12345", msg.Tuple.Timestamp())
	}
}

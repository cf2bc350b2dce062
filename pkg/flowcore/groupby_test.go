package flowcore

import "testing"

func TestGroupByMaintainsIndependentPerGroupState(t *testing.T) {
	g := NewGroupByOp("bySensor", 8,
		func(t *Tuple) string { return MustGetAttr[string](t, 0) },
		func() []*aggregateSlot { return []*aggregateSlot{NewAggregateSlot(1, SumAggregate())} },
		func() TriggerPolicy { return TriggerAll() },
	)
	h := newWindowHarness(g.DataInput(), g.PunctuationInput(), g.DataOutput(), g.PunctuationOutput())
	go g.run()

	h.srcData.Publish(DataMsg{Tuple: NewTuple("a", int64(10))})
	msg, _ := h.outData.Recv()
	key, _ := GetAttr[string](msg.Tuple, 0)
	sum, _ := GetAttr[float64](msg.Tuple, 1)
	if key != "a" || sum != 10 {
		t.Fatalf("group a after first element = (%q, %v), want (a, 10)", key, sum)
	}

	h.srcData.Publish(DataMsg{Tuple: NewTuple("b", int64(100))})
	msg, _ = h.outData.Recv()
	key, _ = GetAttr[string](msg.Tuple, 0)
	sum, _ = GetAttr[float64](msg.Tuple, 1)
	if key != "b" || sum != 100 {
		t.Fatalf("group b after first element = (%q, %v), want (b, 100)", key, sum)
	}

	// group a's second element must add to its own running sum, unaffected
	// by group b's state.
	h.srcData.Publish(DataMsg{Tuple: NewTuple("a", int64(5))})
	msg, _ = h.outData.Recv()
	key, _ = GetAttr[string](msg.Tuple, 0)
	sum, _ = GetAttr[float64](msg.Tuple, 1)
	if key != "a" || sum != 15 {
		t.Fatalf("group a after second element = (%q, %v), want (a, 15)", key, sum)
	}
}

func TestGroupByEmitsAllGroupsOnWindowPunctuation(t *testing.T) {
	g := NewGroupByOp("bySensor", 8,
		func(t *Tuple) string { return MustGetAttr[string](t, 0) },
		func() []*aggregateSlot { return []*aggregateSlot{NewAggregateSlot(1, CountAggregate())} },
		func() TriggerPolicy { return TriggerByCount(100) },
	)
	h := newWindowHarness(g.DataInput(), g.PunctuationInput(), g.DataOutput(), g.PunctuationOutput())
	go g.run()

	h.srcData.Publish(DataMsg{Tuple: NewTuple("a", int64(1))})
	h.srcData.Publish(DataMsg{Tuple: NewTuple("b", int64(1))})
	h.srcPunct.Publish(NewPunctuation(WindowExpired, 0))

	seen := map[string]int64{}
	for i := 0; i < 2; i++ {
		msg, ok := h.outData.Recv()
		if !ok {
			t.Fatalf("expected a result for every group on the window boundary")
		}
		key, _ := GetAttr[string](msg.Tuple, 0)
		n, _ := GetAttr[int64](msg.Tuple, 1)
		seen[key] = n
	}
	if seen["a"] != 1 || seen["b"] != 1 {
		t.Fatalf("expected both groups to emit count 1, got %v", seen)
	}
}

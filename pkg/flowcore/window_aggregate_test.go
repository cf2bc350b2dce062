package flowcore

import "testing"

// TestWindowAggregateScenarioAProducesWindowSums wires a real
// TumblingWindowOp into a real AggregateOp (not a hand-built punctuation,
// as aggregate_test.go's per-operator tests use) and checks the full
// scenario A output: three row-windows of size 3 over 9 values, summed to
// 60, 150 and 240. This only holds if the window's WindowExpired
// punctuation is observed, and acted on, before the outdated retraction
// burst that follows it zeroes the running sum back out.
func TestWindowAggregateScenarioAProducesWindowSums(t *testing.T) {
	win := NewTumblingWindowOp("win", 64, WindowSpec{Kind: Row, Size: 3})

	slot := NewAggregateSlot(0, SumAggregate())
	// A trigger whose OnElement never fires within this test: 9 elements
	// plus 9 retractions is 18 OnElement calls, well under k, so every
	// emission comes from OnWindowPunctuation alone.
	agg := NewAggregateOp("sum", 64, TriggerByCount(1000), slot)

	Connect(win.DataOutput(), agg.DataInput())
	Connect(win.PunctuationOutput(), agg.PunctuationInput())

	src := NewOutputChannel[DataMsg]("src.data")
	Connect(src, win.DataInput())
	srcPunct := NewOutputChannel[*Punctuation]("src.punct")
	Connect(srcPunct, win.PunctuationInput())

	out := NewInputChannel[DataMsg]("out.data", 64)
	Connect(agg.DataOutput(), out)

	go win.run()
	go agg.run()

	for _, v := range []int64{10, 20, 30, 40, 50, 60, 70, 80, 90} {
		src.Publish(DataMsg{Tuple: NewTuple(v)})
	}

	for _, want := range []float64{60, 150, 240} {
		msg, ok := out.Recv()
		if !ok {
			t.Fatalf("expected a window sum, channel closed early")
		}
		sum, _ := GetAttr[float64](msg.Tuple, 0)
		if sum != want {
			t.Fatalf("window sum = %v, want %v", sum, want)
		}
	}

	srcPunct.Publish(NewPunctuation(EndOfStream, 0))
}

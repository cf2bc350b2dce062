package flowcore

import "testing"

func TestPartitionIndexIsDeterministicAndInRange(t *testing.T) {
	n := 4
	idx := partitionIndex([]byte("sensor-a"), n)
	if idx < 0 || idx >= n {
		t.Fatalf("partitionIndex out of range: %d", idx)
	}
	for i := 0; i < 5; i++ {
		if got := partitionIndex([]byte("sensor-a"), n); got != idx {
			t.Fatalf("partitionIndex is not deterministic: got %d, want %d", got, idx)
		}
	}
}

func TestPartitionByOpRoutesDataAndBroadcastsEndOfStream(t *testing.T) {
	p := NewPartitionByOp("part", 4, 1, 4, func(t *Tuple) []byte {
		return []byte(MustGetAttr[string](t, 0))
	})

	src := NewOutputChannel[DataMsg]("src")
	Connect(src, p.DataInput())
	punctSrc := NewOutputChannel[*Punctuation]("punct-src")
	Connect(punctSrc, p.PunctuationInput())

	out := NewInputChannel[DataMsg]("out", 4)
	Connect(p.PartitionDataOutput(0), out)
	punctOut := NewInputChannel[*Punctuation]("punct-out", 4)
	Connect(p.PartitionPunctuationOutput(0), punctOut)

	errCh := make(chan error, 1)
	go func() { errCh <- p.run() }()

	src.Publish(DataMsg{Tuple: NewTuple("x", int64(1))})
	src.Publish(DataMsg{Tuple: NewTuple("x", int64(2))})

	msg, ok := out.Recv()
	if !ok {
		t.Fatalf("expected the first tuple on the single partition")
	}
	if v, _ := GetAttr[int64](msg.Tuple, 1); v != 1 {
		t.Fatalf("first routed tuple value = %d, want 1", v)
	}
	msg, ok = out.Recv()
	if !ok {
		t.Fatalf("expected the second tuple on the single partition")
	}
	if v, _ := GetAttr[int64](msg.Tuple, 1); v != 2 {
		t.Fatalf("second routed tuple value = %d, want 2", v)
	}

	punctSrc.Publish(NewPunctuation(EndOfStream, 0))
	gotPunct, ok := punctOut.Recv()
	if !ok || gotPunct.Kind != EndOfStream {
		t.Fatalf("expected EndOfStream broadcast to the partition, got %+v ok=%v", gotPunct, ok)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}
}

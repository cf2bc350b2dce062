package flowcore

import (
	"testing"
	"time"
)

func keyAttr0(t *Tuple) string {
	return MustGetAttr[string](t, 0)
}

func recvWithTimeout(t *testing.T, in *InputChannel[DataMsg], d time.Duration) DataMsg {
	t.Helper()
	select {
	case msg, ok := <-in.deliver:
		if !ok {
			t.Fatalf("data output closed unexpectedly")
		}
		return msg
	case <-time.After(d):
		t.Fatalf("timed out waiting for a join result")
		return DataMsg{}
	}
}

// TestJoinSymmetricHashMatch is scenario C: a symmetric hash join must match
// a right arrival against already-buffered left state (and vice versa),
// and must stop probing a key once its matching side has been retracted.
func TestJoinSymmetricHashMatch(t *testing.T) {
	j := NewJoinOp("join", 8, keyAttr0, keyAttr0, func(l, r *Tuple) bool { return true }, DefaultJoinMerge)

	leftSrc := NewOutputChannel[DataMsg]("left")
	rightSrc := NewOutputChannel[DataMsg]("right")
	leftPunct := NewOutputChannel[*Punctuation]("left.punct")
	rightPunct := NewOutputChannel[*Punctuation]("right.punct")
	Connect(leftSrc, j.LeftDataInput())
	Connect(rightSrc, j.RightDataInput())
	Connect(leftPunct, j.LeftPunctuationInput())
	Connect(rightPunct, j.RightPunctuationInput())

	out := NewInputChannel[DataMsg]("out", 8)
	Connect(j.DataOutput(), out)

	go j.run()

	a1 := NewTuple("a", int64(1))
	b1 := NewTuple("b", int64(2))
	leftSrc.Publish(DataMsg{Tuple: a1})
	leftSrc.Publish(DataMsg{Tuple: b1})

	a2 := NewTuple("a", int64(10))
	rightSrc.Publish(DataMsg{Tuple: a2})

	msg := recvWithTimeout(t, out, time.Second)
	left0, _ := GetAttr[string](msg.Tuple, 0)
	left1, _ := GetAttr[int64](msg.Tuple, 1)
	right0, _ := GetAttr[string](msg.Tuple, 2)
	right1, _ := GetAttr[int64](msg.Tuple, 3)
	if left0 != "a" || left1 != 1 || right0 != "a" || right1 != 10 {
		t.Fatalf("unexpected merged tuple %v", msg.Tuple)
	}

	// Retract the left "a" entry; a later right "a" arrival must find no
	// match. The left and right inputs are separate channels, so the join
	// may take a right arrival ahead of an earlier left one. A "c" match is
	// awaited first: its left half is queued behind the retraction on the
	// left channel, so once it is out the retraction has been applied.
	leftSrc.Publish(DataMsg{Tuple: a1, Outdated: true})
	leftSrc.Publish(DataMsg{Tuple: NewTuple("c", int64(3))})
	rightSrc.Publish(DataMsg{Tuple: NewTuple("c", int64(30))})
	applied := recvWithTimeout(t, out, time.Second)
	if key, _ := GetAttr[string](applied.Tuple, 0); key != "c" {
		t.Fatalf("expected the \"c\" match before any later probe, got key %q", key)
	}

	// Both later arrivals are on the right channel, so they are taken in
	// send order: observing only the "b" merge next (and nothing for "a"
	// first) proves the retraction suppressed the match rather than the
	// result merely arriving late.
	a3 := NewTuple("a", int64(20))
	rightSrc.Publish(DataMsg{Tuple: a3})
	b2 := NewTuple("b", int64(99))
	rightSrc.Publish(DataMsg{Tuple: b2})

	fence := recvWithTimeout(t, out, time.Second)
	fenceKey, _ := GetAttr[string](fence.Tuple, 0)
	if fenceKey != "b" {
		t.Fatalf("expected the retracted key's probe to produce nothing, but got a result for key %q first", fenceKey)
	}

	leftPunct.Publish(NewPunctuation(EndOfStream, 0))
	rightPunct.Publish(NewPunctuation(EndOfStream, 0))
}

package flowcore

import (
	"testing"
	"time"
)

func TestTriggerAllFiresEveryElement(t *testing.T) {
	tr := TriggerAll()
	for i := 0; i < 3; i++ {
		if !tr.OnElement(int64(i)) {
			t.Fatalf("TriggerAll should fire on every element")
		}
	}
	if !tr.OnWindowPunctuation() {
		t.Fatalf("TriggerAll should fire on every window punctuation")
	}
}

func TestTriggerByCountFiresEveryK(t *testing.T) {
	tr := TriggerByCount(3)
	got := make([]bool, 6)
	for i := range got {
		got[i] = tr.OnElement(0)
	}
	want := []bool{false, false, true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d fired=%v, want %v", i, got[i], want[i])
		}
	}
	if !tr.OnWindowPunctuation() {
		t.Fatalf("TriggerByCount should always fire on a window boundary")
	}
}

func TestTriggerByCountPanicsOnNonPositiveK(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("TriggerByCount(0) should panic")
		}
	}()
	TriggerByCount(0)
}

func TestTriggerByTimeRateLimits(t *testing.T) {
	tr := TriggerByTime(50 * time.Millisecond)
	if !tr.OnElement(0) {
		t.Fatalf("first element should fire immediately (burst of 1)")
	}
	if tr.OnElement(0) {
		t.Fatalf("an immediate second element should not fire yet")
	}
	time.Sleep(60 * time.Millisecond)
	if !tr.OnElement(0) {
		t.Fatalf("element after dt has elapsed should fire")
	}
}

func TestTriggerByTimestampFiresOnEventTimeAdvance(t *testing.T) {
	tr := TriggerByTimestamp(10 * time.Microsecond)
	if tr.OnElement(100) {
		t.Fatalf("the first element only establishes the baseline, should not fire")
	}
	if tr.OnElement(105) {
		t.Fatalf("an advance smaller than dt should not fire")
	}
	if !tr.OnElement(111) {
		t.Fatalf("an advance of at least dt since the baseline should fire")
	}
	if tr.OnElement(112) {
		t.Fatalf("immediately after firing, a tiny advance should not fire again")
	}
}

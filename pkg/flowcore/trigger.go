package flowcore

import (
	"time"

	"golang.org/x/time/rate"
)

// ============================================================================
// TRIGGER — when to emit an aggregation result. Four policies per §4.4,
// generalized from the teacher's Trigger[T] interface (CountTrigger,
// ValueChangeTrigger) down to the fixed policy set the core specifies.
// ============================================================================

// TriggerPolicy decides, for each incoming element (and independently for
// each WindowExpired/SlideExpired punctuation), whether the aggregate
// should emit its current value now.
type TriggerPolicy interface {
	// OnElement is called once per accumulated element; returns true to fire.
	OnElement(eventTimestamp int64) bool
	// OnWindowPunctuation is called on WindowExpired/SlideExpired; returns
	// true to fire (independent of OnElement — a window boundary always
	// fires under the Aggregator1 tumbling-range resolution, §E).
	OnWindowPunctuation() bool
}

// triggerAll fires after every input element.
type triggerAll struct{}

// TriggerAll builds the "fire after every input" policy.
func TriggerAll() TriggerPolicy { return triggerAll{} }

func (triggerAll) OnElement(int64) bool     { return true }
func (triggerAll) OnWindowPunctuation() bool { return true }

// triggerByCount fires every k accumulated elements.
type triggerByCount struct {
	k     int
	count int
}

// TriggerByCount builds the "fire every k inputs" policy.
func TriggerByCount(k int) TriggerPolicy {
	if k <= 0 {
		panic("flowcore: TriggerByCount requires k > 0")
	}
	return &triggerByCount{k: k}
}

func (t *triggerByCount) OnElement(int64) bool {
	t.count++
	if t.count >= t.k {
		t.count = 0
		return true
	}
	return false
}

func (t *triggerByCount) OnWindowPunctuation() bool { return true }

// triggerByTime fires whenever dt of wall-clock time has elapsed, paced
// with golang.org/x/time/rate rather than a manual ticker comparison.
type triggerByTime struct {
	limiter *rate.Limiter
}

// TriggerByTime builds the "fire every dt real time" policy. Internally a
// token-bucket limiter of rate 1/dt with burst 1 models "at most once per
// dt, and eligible again once dt has passed".
func TriggerByTime(dt time.Duration) TriggerPolicy {
	if dt <= 0 {
		panic("flowcore: TriggerByTime requires dt > 0")
	}
	return &triggerByTime{limiter: rate.NewLimiter(rate.Every(dt), 1)}
}

func (t *triggerByTime) OnElement(int64) bool {
	return t.limiter.Allow()
}

func (t *triggerByTime) OnWindowPunctuation() bool { return true }

// triggerByTimestamp fires whenever event time (the tuple's own timestamp)
// has advanced by at least dt microseconds since the last fire.
type triggerByTimestamp struct {
	dtMicros int64
	lastFire int64
	started  bool
}

// TriggerByTimestamp builds the "fire whenever event time advances by dt"
// policy.
func TriggerByTimestamp(dt time.Duration) TriggerPolicy {
	if dt <= 0 {
		panic("flowcore: TriggerByTimestamp requires dt > 0")
	}
	return &triggerByTimestamp{dtMicros: dt.Microseconds()}
}

func (t *triggerByTimestamp) OnElement(eventTimestamp int64) bool {
	if !t.started {
		t.started = true
		t.lastFire = eventTimestamp
		return false
	}
	if eventTimestamp-t.lastFire >= t.dtMicros {
		t.lastFire = eventTimestamp
		return true
	}
	return false
}

func (t *triggerByTimestamp) OnWindowPunctuation() bool { return true }

package flowcore

import (
	"fmt"
	"sort"
	"sync"
)

// ============================================================================
// TABLE — a keyed store of records, with observer callbacks fired on every
// mutation. No direct teacher analogue (streamv2 has no persistent table);
// grounded on the spec's own §4.5 contract and laid out in the teacher's
// generics idiom (Table[K comparable, V any]).
// ============================================================================

// ChangeKind classifies a Table mutation delivered to observers.
type ChangeKind int

const (
	Insert ChangeKind = iota
	Update
	Delete
)

// ObserverMode selects when a registered callback fires.
type ObserverMode int

const (
	// Immediate observers run synchronously under the table's write lock;
	// they must not call back into the table.
	Immediate ObserverMode = iota
	// OnCommit observers are queued and flushed outside the lock.
	OnCommit
)

// TableObserver is invoked with the affected key, a value and the kind of
// change. The value is the new record for Insert/Update; for Delete, Table
// passes the removed record and MVCCTable passes V's zero value.
type TableObserver[K comparable, V any] func(key K, value V, kind ChangeKind)

type registeredObserver[K comparable, V any] struct {
	cb   TableObserver[K, V]
	mode ObserverMode
}

// Table is a generic keyed store of records, each a *Tuple by convention
// (V is typically *Tuple, kept generic so MVCCTable can layer versions).
type Table[K comparable, V any] struct {
	mu        sync.RWMutex
	data      map[K]V
	observers []registeredObserver[K, V]
	pending   []func()
}

// NewTable creates an empty table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{data: make(map[K]V)}
}

// Insert adds or replaces the record at k, firing observers with
// Insert or Update depending on prior presence. Returns 1.
func (t *Table[K, V]) Insert(k K, v V) int {
	t.mu.Lock()
	_, existed := t.data[k]
	t.data[k] = v
	kind := Insert
	if existed {
		kind = Update
	}
	t.notifyLocked(k, v, kind)
	t.mu.Unlock()
	t.flushOnCommit()
	return 1
}

// Erase removes k if present, firing Delete. Returns the count removed.
func (t *Table[K, V]) Erase(k K) int {
	t.mu.Lock()
	v, existed := t.data[k]
	if !existed {
		t.mu.Unlock()
		return 0
	}
	delete(t.data, k)
	t.notifyLocked(k, v, Delete)
	t.mu.Unlock()
	t.flushOnCommit()
	return 1
}

// GetByKey returns the current record for k, or ErrKeyNotFound.
func (t *Table[K, V]) GetByKey(k K) (V, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.data[k]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: key %v", ErrKeyNotFound, k)
	}
	return v, nil
}

// Select returns a weakly-consistent snapshot of every record: a point-in-
// time copy taken under the read lock, so later concurrent modifications
// are not observed by the caller iterating the returned slice.
func (t *Table[K, V]) Select() []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]V, 0, len(t.data))
	for _, v := range t.data {
		out = append(out, v)
	}
	return out
}

// SelectWhere returns the records satisfying predicate, snapshotted the
// same way as Select.
func (t *Table[K, V]) SelectWhere(predicate func(V) bool) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []V
	for _, v := range t.data {
		if predicate(v) {
			out = append(out, v)
		}
	}
	return out
}

// RangeScan returns records whose key lies in [low, high], requiring a
// caller-supplied comparator since K is only `comparable`, not ordered.
func (t *Table[K, V]) RangeScan(low, high K, less func(a, b K) bool) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	type kv struct {
		k K
		v V
	}
	var inRange []kv
	for k, v := range t.data {
		if !less(k, low) && !less(high, k) {
			inRange = append(inRange, kv{k, v})
		}
	}
	sort.Slice(inRange, func(i, j int) bool { return less(inRange[i].k, inRange[j].k) })
	out := make([]V, len(inRange))
	for i, e := range inRange {
		out[i] = e.v
	}
	return out
}

// RegisterObserver attaches cb, invoked per mode on every mutation.
func (t *Table[K, V]) RegisterObserver(cb TableObserver[K, V], mode ObserverMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, registeredObserver[K, V]{cb: cb, mode: mode})
}

// Size returns the current record count.
func (t *Table[K, V]) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}

// Drop releases all records and detaches every observer.
func (t *Table[K, V]) Drop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = make(map[K]V)
	t.observers = nil
	t.pending = nil
}

// notifyLocked must be called with t.mu held for writing. Immediate
// observers run inline; OnCommit observers are queued for flushOnCommit.
func (t *Table[K, V]) notifyLocked(k K, v V, kind ChangeKind) {
	for _, obs := range t.observers {
		obs := obs
		if obs.mode == Immediate {
			obs.cb(k, v, kind)
		} else {
			t.pending = append(t.pending, func() { obs.cb(k, v, kind) })
		}
	}
}

func (t *Table[K, V]) flushOnCommit() {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

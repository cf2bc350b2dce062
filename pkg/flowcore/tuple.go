package flowcore

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"time"
)

// ============================================================================
// TUPLE - FIXED-ARITY HETEROGENEOUS RECORD
// ============================================================================

// Tuple is a fixed-arity heterogeneous record. Attributes are addressed by
// compile-time index; a null bitmap tracks which attributes are unset. A
// Tuple is shared by reference (Retain/Release) so the same value can be
// forwarded to many subscribers without copying.
type Tuple struct {
	attrs     []any
	nullBits  []bool
	timestamp int64 // microseconds since Unix epoch
	refcount  atomic.Int32
}

// NewTuple builds a Tuple from positional values. A nil value marks the
// attribute as null.
func NewTuple(values ...any) *Tuple {
	t := &Tuple{
		attrs:    make([]any, len(values)),
		nullBits: make([]bool, len(values)),
	}
	for i, v := range values {
		if v == nil {
			t.nullBits[i] = true
			continue
		}
		t.attrs[i] = v
	}
	t.timestamp = time.Now().UnixMicro()
	t.refcount.Store(1)
	return t
}

// nowMicros returns the current time as microseconds since the Unix epoch,
// the timestamp unit used throughout the wire format and window logic.
func nowMicros() int64 {
	return time.Now().UnixMicro()
}

// NumAttributes returns the tuple's arity.
func (t *Tuple) NumAttributes() int {
	return len(t.attrs)
}

// Timestamp returns the tuple's arrival timestamp, microseconds since epoch.
func (t *Tuple) Timestamp() int64 {
	return t.timestamp
}

// WithTimestamp returns a copy of t with a replaced timestamp, used by
// assignTimestamps. Copies share no mutable state with the original.
func (t *Tuple) WithTimestamp(us int64) *Tuple {
	clone := t.Clone()
	clone.timestamp = us
	return clone
}

// IsNull reports whether attribute i is null.
func (t *Tuple) IsNull(i int) bool {
	return t.nullBits[i]
}

// SetNull marks attribute i null/non-null in place. Only safe before the
// tuple is published; once shared, tuples are treated as immutable.
func (t *Tuple) SetNull(i int, null bool) {
	t.nullBits[i] = null
	if null {
		t.attrs[i] = nil
	}
}

// Retain increments the shared-ownership reference count.
func (t *Tuple) Retain() *Tuple {
	t.refcount.Add(1)
	return t
}

// Release decrements the reference count. The zero-value contract is
// "shared, non-mutating after publish" (Design Note §9): Go's GC reclaims
// the backing memory once no reference remains, so Release exists to let
// callers that care about liveness (tests, pooling) observe the count.
func (t *Tuple) Release() int32 {
	return t.refcount.Add(-1)
}

// RefCount returns the current reference count.
func (t *Tuple) RefCount() int32 {
	return t.refcount.Load()
}

// Clone produces an independent copy with its own refcount of 1.
func (t *Tuple) Clone() *Tuple {
	clone := &Tuple{
		attrs:     make([]any, len(t.attrs)),
		nullBits:  make([]bool, len(t.nullBits)),
		timestamp: t.timestamp,
	}
	copy(clone.attrs, t.attrs)
	copy(clone.nullBits, t.nullBits)
	clone.refcount.Store(1)
	return clone
}

// GetAttr retrieves attribute i with compile-time type T. Returns false if
// the attribute is null or the stored value isn't assignable to T.
func GetAttr[T any](t *Tuple, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(t.attrs) || t.nullBits[i] {
		return zero, false
	}
	v, ok := t.attrs[i].(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// MustGetAttr retrieves attribute i, panicking on type mismatch or null.
// Intended for generated-style call sites where the schema is known.
func MustGetAttr[T any](t *Tuple, i int) T {
	v, ok := GetAttr[T](t, i)
	if !ok {
		panic(fmt.Sprintf("flowcore: attribute %d is null or not of type %s", i, reflect.TypeOf(v)))
	}
	return v
}

// SetAttr assigns attribute i and clears its null bit.
func SetAttr[T any](t *Tuple, i int, v T) {
	t.attrs[i] = v
	t.nullBits[i] = false
}

// AttributeType returns the reflect.Type stored at i, or nil if null/unset.
func (t *Tuple) AttributeType(i int) reflect.Type {
	if t.nullBits[i] || t.attrs[i] == nil {
		return nil
	}
	return reflect.TypeOf(t.attrs[i])
}

// Equal compares two tuples attribute-wise, ignoring null bits unless both
// sides agree the attribute is null (spec.md §4.1).
func (t *Tuple) Equal(other *Tuple) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.attrs) != len(other.attrs) {
		return false
	}
	for i := range t.attrs {
		if t.nullBits[i] && other.nullBits[i] {
			continue
		}
		if !reflect.DeepEqual(t.attrs[i], other.attrs[i]) {
			return false
		}
	}
	return true
}

// String renders a debug representation, grounded on the original's
// TuplePrinter/PTuplePrinter contract.
func (t *Tuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range t.attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		if t.nullBits[i] {
			b.WriteString("NULL")
			continue
		}
		fmt.Fprintf(&b, "%v", v)
	}
	b.WriteByte(')')
	return b.String()
}

// Attrs returns a defensive copy of the attribute slice.
func (t *Tuple) Attrs() []any {
	out := make([]any, len(t.attrs))
	copy(out, t.attrs)
	return out
}

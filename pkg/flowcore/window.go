package flowcore

// ============================================================================
// WINDOW — sliding and tumbling windows over range (time) or row (count),
// adapted from the teacher's WindowBuilder/AdvancedTrigger shape down to
// the two kinds and the eviction contract spec.md §4.4 specifies.
// ============================================================================

// WindowKind selects whether a window's size is measured in time or rows.
type WindowKind int

const (
	// Range windows measure size in microseconds of element timestamp span.
	Range WindowKind = iota
	// Row windows measure size in number of elements.
	Row
)

// WindowSpec configures a window operator: {kind, size}. For Range, size is
// in microseconds; for Row, size is an element count.
type WindowSpec struct {
	Kind WindowKind
	Size int64
}

type windowEntry struct {
	tuple *Tuple
}

// SlidingWindowOp maintains a FIFO buffer, emitting the head as outdated
// whenever it expires and the new element as non-outdated, one at a time.
type SlidingWindowOp struct {
	unaryBase
	spec   WindowSpec
	buffer []windowEntry
}

// NewSlidingWindowOp builds a sliding window operator.
func NewSlidingWindowOp(name string, bufferSize int, spec WindowSpec) *SlidingWindowOp {
	return &SlidingWindowOp{unaryBase: newUnaryBase(name, bufferSize), spec: spec}
}

func (s *SlidingWindowOp) expired(newest int64) bool {
	if len(s.buffer) == 0 {
		return false
	}
	head := s.buffer[0]
	switch s.spec.Kind {
	case Range:
		return newest-head.tuple.Timestamp() > s.spec.Size
	default:
		return int64(len(s.buffer)) > s.spec.Size
	}
}

func (s *SlidingWindowOp) run() {
	for {
		select {
		case msg, ok := <-s.dataIn.C():
			if !ok {
				return
			}
			if msg.Outdated {
				continue
			}
			s.buffer = append(s.buffer, windowEntry{tuple: msg.Tuple})
			newest := msg.Tuple.Timestamp()
			for s.expired(newest) {
				head := s.buffer[0]
				s.buffer = s.buffer[1:]
				s.dataOut.Publish(DataMsg{Tuple: head.tuple, Outdated: true})
				s.punctOut.Publish(NewPunctuation(SlideExpired, nowMicros()))
				RecordWindowEviction(s.Name, "slide")
			}
			s.dataOut.Publish(DataMsg{Tuple: msg.Tuple, Outdated: false})
		case p, ok := <-s.punctIn.C():
			if !ok {
				return
			}
			s.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

// TumblingWindowOp is like SlidingWindowOp but evicts the entire buffer in
// one burst once expiration triggers, leaving the window empty.
type TumblingWindowOp struct {
	unaryBase
	spec   WindowSpec
	buffer []windowEntry
}

// NewTumblingWindowOp builds a tumbling window operator.
func NewTumblingWindowOp(name string, bufferSize int, spec WindowSpec) *TumblingWindowOp {
	return &TumblingWindowOp{unaryBase: newUnaryBase(name, bufferSize), spec: spec}
}

func (t *TumblingWindowOp) full() bool {
	if len(t.buffer) == 0 {
		return false
	}
	switch t.spec.Kind {
	case Range:
		return t.buffer[len(t.buffer)-1].tuple.Timestamp()-t.buffer[0].tuple.Timestamp() > t.spec.Size
	default:
		return int64(len(t.buffer)) >= t.spec.Size
	}
}

func (t *TumblingWindowOp) run() {
	for {
		select {
		case msg, ok := <-t.dataIn.C():
			if !ok {
				return
			}
			if msg.Outdated {
				continue
			}
			t.buffer = append(t.buffer, windowEntry{tuple: msg.Tuple})
			t.dataOut.Publish(DataMsg{Tuple: msg.Tuple, Outdated: false})
			if t.full() {
				// Publish the boundary before the retraction burst: an
				// aggregate downstream must see the window full (and fire
				// on this punctuation) before its state is torn back down
				// by the outdated burst that follows.
				t.punctOut.Publish(NewPunctuation(WindowExpired, nowMicros()))
				for _, e := range t.buffer {
					t.dataOut.Publish(DataMsg{Tuple: e.tuple, Outdated: true})
				}
				t.buffer = t.buffer[:0]
				RecordWindowEviction(t.Name, "tumble")
			}
		case p, ok := <-t.punctIn.C():
			if !ok {
				return
			}
			t.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

package flowcore

import "sync/atomic"

// ============================================================================
// SCALEJOIN — n sibling JoinOp instances, each storing only the tuples
// whose arrival ordinal mod n equals its id, so the union of the n
// instances' state holds each tuple exactly once; every instance still
// probes against its own (partial) state and the outputs are unioned by
// the caller merging each instance's output channel. Per the Open Question
// resolution (SPEC_FULL.md §E), left and right streams share one counter.
// ============================================================================

// ScaleJoinCounter is the shared arrival-ordinal sequence every sibling
// instance consults, across both the left and right input streams.
type ScaleJoinCounter struct {
	next atomic.Uint64
}

// NewScaleJoinCounter creates a fresh shared counter, to be passed to every
// sibling NewScaleJoinInstance call in the group.
func NewScaleJoinCounter() *ScaleJoinCounter { return &ScaleJoinCounter{} }

func (c *ScaleJoinCounter) take() uint64 {
	return c.next.Add(1) - 1
}

// ScaleJoinInstance is one of the n sibling join instances. It embeds a
// JoinOp for matching logic, gated by ownership of the current arrival
// ordinal.
type ScaleJoinInstance struct {
	*JoinOp
	id      uint64
	n       uint64
	counter *ScaleJoinCounter
}

// NewScaleJoinInstance builds sibling id (0-indexed) of an n-way scaleJoin
// group sharing counter.
func NewScaleJoinInstance(name string, bufferSize int, id, n uint64, counter *ScaleJoinCounter, keyL, keyR JoinKeyFunc, pred JoinPredicate, merge JoinMerge) *ScaleJoinInstance {
	return &ScaleJoinInstance{
		JoinOp:  NewJoinOp(name, bufferSize, keyL, keyR, pred, merge),
		id:      id,
		n:       n,
		counter: counter,
	}
}

// owns reports whether this instance is responsible for storing the tuple
// at the current arrival ordinal (every instance still probes regardless).
func (s *ScaleJoinInstance) owns(ordinal uint64) bool {
	return ordinal%s.n == s.id
}

func (s *ScaleJoinInstance) handleLeftScaled(msg DataMsg) {
	ordinal := s.counter.take()
	key := s.keyL(msg.Tuple)
	if msg.Outdated {
		if s.owns(ordinal) {
			s.leftState[key] = eraseMatch(s.leftState[key], msg.Tuple)
		}
		return
	}
	if s.owns(ordinal) {
		s.leftState[key] = append(s.leftState[key], msg.Tuple)
	}
	for _, r := range s.rightState[key] {
		if s.pred(msg.Tuple, r) {
			s.dataOut.Publish(DataMsg{Tuple: s.merge(msg.Tuple, r), Outdated: false})
		}
	}
}

func (s *ScaleJoinInstance) handleRightScaled(msg DataMsg) {
	ordinal := s.counter.take()
	key := s.keyR(msg.Tuple)
	if msg.Outdated {
		if s.owns(ordinal) {
			s.rightState[key] = eraseMatch(s.rightState[key], msg.Tuple)
		}
		return
	}
	if s.owns(ordinal) {
		s.rightState[key] = append(s.rightState[key], msg.Tuple)
	}
	for _, l := range s.leftState[key] {
		if s.pred(l, msg.Tuple) {
			s.dataOut.Publish(DataMsg{Tuple: s.merge(l, msg.Tuple), Outdated: false})
		}
	}
}

// run is identical to JoinOp.run except data handlers consult ownership of
// the shared arrival ordinal before storing.
func (s *ScaleJoinInstance) run() {
	leftDone, rightDone := false, false
	for !leftDone || !rightDone {
		select {
		case msg, ok := <-s.leftDataIn.C():
			if !ok {
				leftDone = true
				continue
			}
			s.handleLeftScaled(msg)
		case msg, ok := <-s.rightDataIn.C():
			if !ok {
				rightDone = true
				continue
			}
			s.handleRightScaled(msg)
		case p, ok := <-s.leftPunctIn.C():
			if !ok {
				leftDone = true
				continue
			}
			if p.Kind == EndOfStream {
				leftDone = true
			}
			s.punctOut.Publish(p)
		case p, ok := <-s.rightPunctIn.C():
			if !ok {
				rightDone = true
				continue
			}
			if p.Kind == EndOfStream {
				rightDone = true
			}
			s.punctOut.Publish(p)
		}
	}
}

package flowcore

// ============================================================================
// JOIN — symmetric hash join. Each side keeps a keyed multimap; on arrival
// of a non-outdated element, probe the other side and emit all matches
// satisfying pred; on arrival of an outdated element, erase the matching
// entry from that side's map. Grounded on join_test.go's InnerJoin shape,
// generalized from field-name keys to extractor closures over *Tuple.
// ============================================================================

// JoinKeyFunc extracts the join key from a tuple.
type JoinKeyFunc func(*Tuple) string

// JoinPredicate is evaluated on every candidate (left, right) pair that
// shares a key; only pairs it accepts are emitted.
type JoinPredicate func(left, right *Tuple) bool

// JoinMerge combines a matched (left, right) pair into the output tuple.
type JoinMerge func(left, right *Tuple) *Tuple

// JoinOp is the join(keyL, keyR, pred) operator.
type JoinOp struct {
	binaryBase
	keyL, keyR JoinKeyFunc
	pred       JoinPredicate
	merge      JoinMerge

	leftState  map[string][]*Tuple
	rightState map[string][]*Tuple
}

// NewJoinOp builds a symmetric hash join operator.
func NewJoinOp(name string, bufferSize int, keyL, keyR JoinKeyFunc, pred JoinPredicate, merge JoinMerge) *JoinOp {
	return &JoinOp{
		binaryBase: newBinaryBase(name, bufferSize),
		keyL:       keyL,
		keyR:       keyR,
		pred:       pred,
		merge:      merge,
		leftState:  make(map[string][]*Tuple),
		rightState: make(map[string][]*Tuple),
	}
}

func eraseMatch(bucket []*Tuple, t *Tuple) []*Tuple {
	for i, x := range bucket {
		if x == t || x.Equal(t) {
			return append(bucket[:i], bucket[i+1:]...)
		}
	}
	return bucket
}

func (j *JoinOp) handleLeft(msg DataMsg) {
	key := j.keyL(msg.Tuple)
	if msg.Outdated {
		j.leftState[key] = eraseMatch(j.leftState[key], msg.Tuple)
		return
	}
	j.leftState[key] = append(j.leftState[key], msg.Tuple)
	for _, r := range j.rightState[key] {
		if j.pred(msg.Tuple, r) {
			j.dataOut.Publish(DataMsg{Tuple: j.merge(msg.Tuple, r), Outdated: false})
		}
	}
}

func (j *JoinOp) handleRight(msg DataMsg) {
	key := j.keyR(msg.Tuple)
	if msg.Outdated {
		j.rightState[key] = eraseMatch(j.rightState[key], msg.Tuple)
		return
	}
	j.rightState[key] = append(j.rightState[key], msg.Tuple)
	for _, l := range j.leftState[key] {
		if j.pred(l, msg.Tuple) {
			j.dataOut.Publish(DataMsg{Tuple: j.merge(l, msg.Tuple), Outdated: false})
		}
	}
}

func (j *JoinOp) run() {
	leftDone, rightDone := false, false
	for !leftDone || !rightDone {
		select {
		case msg, ok := <-j.leftDataIn.C():
			if !ok {
				leftDone = true
				continue
			}
			j.handleLeft(msg)
		case msg, ok := <-j.rightDataIn.C():
			if !ok {
				rightDone = true
				continue
			}
			j.handleRight(msg)
		case p, ok := <-j.leftPunctIn.C():
			if !ok {
				leftDone = true
				continue
			}
			if p.Kind == EndOfStream {
				leftDone = true
			}
			j.punctOut.Publish(p)
		case p, ok := <-j.rightPunctIn.C():
			if !ok {
				rightDone = true
				continue
			}
			if p.Kind == EndOfStream {
				rightDone = true
			}
			j.punctOut.Publish(p)
		}
	}
}

// DefaultJoinMerge concatenates left's attributes followed by right's, so a
// (key, val) pair on each side merges to (key, leftVal, key, rightVal).
func DefaultJoinMerge(left, right *Tuple) *Tuple {
	values := append(append([]any{}, left.Attrs()...), right.Attrs()...)
	return NewTuple(values...)
}

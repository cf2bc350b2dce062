package flowcore

// ============================================================================
// MAP / WHERE — the two stateless per-tuple operators, grounded on the
// teacher's Map[T,U]/Where[T] generics shape but operating on *Tuple over
// the channel fabric instead of a pull Stream[T].
// ============================================================================

// MapOp transforms every tuple with fn; outdated flags and punctuations
// pass through unchanged. fn receives the outdated flag alongside the
// tuple, per §4.3's f(e, outdated), so a retraction-aware transform can
// tell a value from its own retraction. fn may return an error, in which
// case the tuple is dropped and the error is logged rather than
// propagated (operators never abort the pipe on a per-tuple failure).
type MapOp struct {
	unaryBase
	fn func(*Tuple, bool) (*Tuple, error)
}

// NewMapOp builds a stateless per-tuple transform.
func NewMapOp(name string, bufferSize int, fn func(*Tuple, bool) (*Tuple, error)) *MapOp {
	return &MapOp{unaryBase: newUnaryBase(name, bufferSize), fn: fn}
}

func (m *MapOp) run() {
	for {
		select {
		case msg, ok := <-m.dataIn.C():
			if !ok {
				return
			}
			out, err := m.fn(msg.Tuple, msg.Outdated)
			if err != nil {
				m.Log.Warn().Err(err).Msg("map dropped tuple")
				continue
			}
			m.dataOut.Publish(DataMsg{Tuple: out, Outdated: msg.Outdated})
		case p, ok := <-m.punctIn.C():
			if !ok {
				return
			}
			m.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

// WhereOp keeps only tuples for which predicate returns true. predicate
// receives the outdated flag alongside the tuple, per §4.3's p(e, outdated),
// so a retraction can be kept or dropped on its own terms rather than
// always following its originating value's verdict.
type WhereOp struct {
	unaryBase
	predicate func(*Tuple, bool) bool
}

// NewWhereOp builds a stateless filter.
func NewWhereOp(name string, bufferSize int, predicate func(*Tuple, bool) bool) *WhereOp {
	return &WhereOp{unaryBase: newUnaryBase(name, bufferSize), predicate: predicate}
}

func (w *WhereOp) run() {
	for {
		select {
		case msg, ok := <-w.dataIn.C():
			if !ok {
				return
			}
			if w.predicate(msg.Tuple, msg.Outdated) {
				w.dataOut.Publish(msg)
			}
		case p, ok := <-w.punctIn.C():
			if !ok {
				return
			}
			w.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

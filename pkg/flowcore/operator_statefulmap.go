package flowcore

// ============================================================================
// STATEFUL MAP — per-operator mutable state threaded across calls, with a
// side-channel for emitting punctuation (transaction chopping, §4.5).
// ============================================================================

// StatefulMapFunc transforms one tuple while mutating state, optionally
// emitting punctuations through emitPunct (used to chop an input stream
// into transactions at TxID boundaries).
type StatefulMapFunc[S any] func(t *Tuple, outdated bool, state *S, emitPunct func(*Punctuation)) (*Tuple, error)

// StatefulMapOp is the generic statefulMap(f, init) operator. S is kept as
// a single mutable value owned by the operator's own goroutine, so no
// locking is needed around state access.
type StatefulMapOp[S any] struct {
	unaryBase
	state S
	fn    StatefulMapFunc[S]
}

// NewStatefulMapOp builds a statefulMap operator seeded with init.
func NewStatefulMapOp[S any](name string, bufferSize int, init S, fn StatefulMapFunc[S]) *StatefulMapOp[S] {
	return &StatefulMapOp[S]{
		unaryBase: newUnaryBase(name, bufferSize),
		state:     init,
		fn:        fn,
	}
}

func (s *StatefulMapOp[S]) run() {
	emitPunct := func(p *Punctuation) {
		s.punctOut.Publish(p)
	}
	for {
		select {
		case msg, ok := <-s.dataIn.C():
			if !ok {
				return
			}
			out, err := s.fn(msg.Tuple, msg.Outdated, &s.state, emitPunct)
			if err != nil {
				s.Log.Warn().Err(err).Msg("statefulMap dropped tuple")
				continue
			}
			if out != nil {
				s.dataOut.Publish(DataMsg{Tuple: out, Outdated: msg.Outdated})
			}
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

// TxChopperState is the mutable state behind a TxID-keyed chopping
// statefulMap: it maps an application-level transaction identifier (as
// carried by an attribute of the input tuple) onto the MVCC transaction it
// opened, per spec.md §4.5's chopping contract.
type TxChopperState struct {
	currentAppTx any
	currentTx    TransactionID
	hasCurrent   bool
}

// NewTxChopper builds a statefulMap that emits TxBegin/TxCommit punctuations
// whenever appTxOf(t) changes, using newTx to mint MVCC transaction ids.
func NewTxChopper(name string, bufferSize int, appTxOf func(*Tuple) any, newTx func() TransactionID) *StatefulMapOp[TxChopperState] {
	fn := func(t *Tuple, outdated bool, state *TxChopperState, emitPunct func(*Punctuation)) (*Tuple, error) {
		appTx := appTxOf(t)
		if !state.hasCurrent || appTx != state.currentAppTx {
			if state.hasCurrent {
				emitPunct(NewTxPunctuation(TxCommit, nowMicros(), state.currentTx))
			}
			state.currentTx = newTx()
			state.currentAppTx = appTx
			state.hasCurrent = true
			emitPunct(NewTxPunctuation(TxBegin, nowMicros(), state.currentTx))
		}
		return t, nil
	}
	return NewStatefulMapOp(name, bufferSize, TxChopperState{}, fn)
}

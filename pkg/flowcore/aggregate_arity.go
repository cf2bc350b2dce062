package flowcore

// ============================================================================
// AGGREGATOR<N> ADAPTER — bundles N aggregate functions with N column
// indices into a single operator producing a result tuple of arity N,
// N in {1,2,3,4} per spec.md §4.4. Implemented as a slice of type-erased
// aggregateSlot closures rather than four hand-written generic structs,
// since Go has no variadic generics (Design Note §9's "generate bindings
// for the arities actually used" resolved dynamically here).
// ============================================================================

// aggregateSlot is one column's worth of type-erased Aggregate[A,R] state.
type aggregateSlot struct {
	column   int
	state    any
	iterate  func(acc any, v float64, outdated bool) (any, error)
	finalize func(acc any) any
}

// NewAggregateSlot binds an Aggregate[A,R] to a source column, erasing A
// and R behind closures so heterogeneous aggregates can share one slice.
func NewAggregateSlot[A any, R any](column int, agg Aggregate[A, R]) *aggregateSlot {
	return &aggregateSlot{
		column: column,
		state:  agg.Init(),
		iterate: func(acc any, v float64, outdated bool) (any, error) {
			next, err := agg.Iterate(acc.(A), v, outdated)
			if err != nil {
				return acc, err
			}
			return next, nil
		},
		finalize: func(acc any) any {
			return agg.Finalize(acc.(A))
		},
	}
}

// AggregateOp runs 1-4 aggregateSlots in lockstep over the same input
// stream, firing according to trigger on a per-element and per-window-
// punctuation basis.
type AggregateOp struct {
	unaryBase
	slots   []*aggregateSlot
	trigger TriggerPolicy
}

// NewAggregateOp builds the aggregate<A>() operator. Arity is len(slots);
// spec.md bounds this at 4 via Aggregator<N>, enforced here too.
func NewAggregateOp(name string, bufferSize int, trigger TriggerPolicy, slots ...*aggregateSlot) *AggregateOp {
	if len(slots) == 0 || len(slots) > 4 {
		panic("flowcore: aggregate operator supports arity 1..4")
	}
	return &AggregateOp{unaryBase: newUnaryBase(name, bufferSize), slots: slots, trigger: trigger}
}

func (a *AggregateOp) applyMsg(msg DataMsg) {
	for _, slot := range a.slots {
		raw, ok := GetAttr[any](msg.Tuple, slot.column)
		if !ok {
			a.Log.Warn().Int("column", slot.column).Msg("aggregate: null or missing column, skipped")
			continue
		}
		v, err := floatOf(raw)
		if err != nil {
			a.Log.Warn().Err(err).Msg("aggregate: non-numeric value")
			continue
		}
		next, err := slot.iterate(slot.state, v, msg.Outdated)
		if err != nil {
			a.Log.Warn().Err(err).Msg("aggregate: iterate rejected retraction")
			continue
		}
		slot.state = next
	}
}

func (a *AggregateOp) emit() {
	values := make([]any, len(a.slots))
	for i, slot := range a.slots {
		values[i] = slot.finalize(slot.state)
	}
	a.dataOut.Publish(DataMsg{Tuple: NewTuple(values...), Outdated: false})
}

// run favors a.dataIn over a.punctIn: it always drains any data already
// sitting in the buffered data channel before considering a punctuation,
// even when both are ready. A producer (e.g. TumblingWindowOp) publishes a
// WindowExpired/SlideExpired punctuation only after every data message it
// logically follows has already been sent, so draining data first here
// guarantees this aggregate observes that data, in order, before acting on
// the punctuation that follows it — without which a plain two-way select
// (pseudo-random between ready cases) could fire on the punctuation first
// and retract state that hadn't been applied yet.
func (a *AggregateOp) run() {
	for {
		select {
		case msg, ok := <-a.dataIn.C():
			if !ok {
				return
			}
			a.applyMsg(msg)
			if a.trigger.OnElement(msg.Tuple.Timestamp()) {
				a.emit()
			}
			continue
		default:
		}

		select {
		case msg, ok := <-a.dataIn.C():
			if !ok {
				return
			}
			a.applyMsg(msg)
			if a.trigger.OnElement(msg.Tuple.Timestamp()) {
				a.emit()
			}
		case p, ok := <-a.punctIn.C():
			if !ok {
				return
			}
			if p.Kind == WindowExpired || p.Kind == SlideExpired {
				if a.trigger.OnWindowPunctuation() {
					a.emit()
				}
			}
			a.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

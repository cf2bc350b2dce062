package flowcore

import "fmt"

// ============================================================================
// GROUPBY<A,K> — maintains one aggregate slot set per group key; each input
// updates exactly one group; each emitted result carries (groupKey, value).
// Grounded on the teacher's buildGroupKey/groupAccumulator shape in
// filters.go's StreamingGroupBy, generalized to the algebraic Aggregate
// type instead of ad-hoc numeric sums.
// ============================================================================

// GroupKeyFunc extracts the grouping key from a tuple.
type GroupKeyFunc func(*Tuple) string

// groupState holds one group's independent aggregate slots, built fresh
// for each newly seen key via the same slot factories used by the
// ungrouped AggregateOp.
type groupState struct {
	slots []*aggregateSlot
}

// GroupByOp partitions input by key and runs an independent arity-N
// aggregate per group, firing per-group according to trigger.
type GroupByOp struct {
	unaryBase
	key       GroupKeyFunc
	newSlots  func() []*aggregateSlot
	trigger   func() TriggerPolicy
	groups    map[string]*groupState
	triggers  map[string]TriggerPolicy
}

// NewGroupByOp builds the groupBy<A,K>() operator. newSlots must return a
// fresh set of aggregateSlots (independent state) each call, since every
// group owns its own accumulator; newTrigger likewise mints one trigger
// instance per group.
func NewGroupByOp(name string, bufferSize int, key GroupKeyFunc, newSlots func() []*aggregateSlot, newTrigger func() TriggerPolicy) *GroupByOp {
	return &GroupByOp{
		unaryBase: newUnaryBase(name, bufferSize),
		key:       key,
		newSlots:  newSlots,
		trigger:   newTrigger,
		groups:    make(map[string]*groupState),
		triggers:  make(map[string]TriggerPolicy),
	}
}

func (g *GroupByOp) groupFor(k string) (*groupState, TriggerPolicy) {
	gs, ok := g.groups[k]
	if !ok {
		gs = &groupState{slots: g.newSlots()}
		g.groups[k] = gs
		g.triggers[k] = g.trigger()
	}
	return gs, g.triggers[k]
}

func (g *GroupByOp) emit(key string, gs *groupState) {
	values := make([]any, len(gs.slots)+1)
	values[0] = key
	for i, slot := range gs.slots {
		values[i+1] = slot.finalize(slot.state)
	}
	g.dataOut.Publish(DataMsg{Tuple: NewTuple(values...), Outdated: false})
}

func (g *GroupByOp) run() {
	for {
		// Buffered data is taken before any punctuation, so a window
		// punctuation never overtakes data published ahead of it.
		punctC := g.punctIn.C()
		if len(g.dataIn.C()) > 0 {
			punctC = nil
		}
		select {
		case msg, ok := <-g.dataIn.C():
			if !ok {
				return
			}
			key := g.key(msg.Tuple)
			gs, trig := g.groupFor(key)
			for _, slot := range gs.slots {
				raw, ok := GetAttr[any](msg.Tuple, slot.column)
				if !ok {
					continue
				}
				v, err := floatOf(raw)
				if err != nil {
					g.Log.Warn().Err(fmt.Errorf("groupBy %q: %w", key, err)).Msg("non-numeric value")
					continue
				}
				next, err := slot.iterate(slot.state, v, msg.Outdated)
				if err != nil {
					continue
				}
				slot.state = next
			}
			if trig.OnElement(msg.Tuple.Timestamp()) {
				g.emit(key, gs)
			}
		case p, ok := <-punctC:
			if !ok {
				return
			}
			if p.Kind == WindowExpired || p.Kind == SlideExpired {
				for key, gs := range g.groups {
					if g.triggers[key].OnWindowPunctuation() {
						g.emit(key, gs)
					}
				}
			}
			g.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

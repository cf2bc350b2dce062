package flowcore

// ============================================================================
// ASSIGN TIMESTAMPS — replaces an element's arrival timestamp with f(e).
// ============================================================================

// TimestampFunc extracts a new timestamp (microseconds since epoch) from a
// tuple, typically by parsing an event-time attribute via ParseTimestamp.
type TimestampFunc func(*Tuple) (int64, error)

// AssignTimestampsOp is the assignTimestamps(f) operator.
type AssignTimestampsOp struct {
	unaryBase
	fn TimestampFunc
}

// NewAssignTimestampsOp builds an assignTimestamps operator.
func NewAssignTimestampsOp(name string, bufferSize int, fn TimestampFunc) *AssignTimestampsOp {
	return &AssignTimestampsOp{unaryBase: newUnaryBase(name, bufferSize), fn: fn}
}

func (a *AssignTimestampsOp) run() {
	for {
		select {
		case msg, ok := <-a.dataIn.C():
			if !ok {
				return
			}
			ts, err := a.fn(msg.Tuple)
			if err != nil {
				a.Log.Warn().Err(err).Msg("assignTimestamps: dropped tuple")
				continue
			}
			a.dataOut.Publish(DataMsg{Tuple: msg.Tuple.WithTimestamp(ts), Outdated: msg.Outdated})
		case p, ok := <-a.punctIn.C():
			if !ok {
				return
			}
			a.forwardPunctuation(p)
			if p.Kind == EndOfStream {
				return
			}
		}
	}
}

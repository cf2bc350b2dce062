package flowcore

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ============================================================================
// SINK — the leaf of a pipe. A Sink owns one data input channel and one
// punctuation input channel and consumes until EndOfStream.
// ============================================================================

// Sink is the terminal operator of a pipe. consume is invoked once per
// data message; onPunctuation for every punctuation (most sinks only care
// about EndOfStream, but all kinds are delivered).
type Sink struct {
	Name string
	Log  zerolog.Logger

	dataIn  *InputChannel[DataMsg]
	punctIn *InputChannel[*Punctuation]

	consume      func(*Tuple, bool) error
	onPunctuation func(*Punctuation)
}

// NewSink wires a named sink. bufferSize sizes both input channels; 0 makes
// the sink synchronous with its producer.
func NewSink(name string, bufferSize int, consume func(*Tuple, bool) error, onPunctuation func(*Punctuation)) *Sink {
	if onPunctuation == nil {
		onPunctuation = func(*Punctuation) {}
	}
	return &Sink{
		Name:          name,
		Log:           log.With().Str("operator", name).Logger(),
		dataIn:        NewInputChannel[DataMsg](name+".data", bufferSize),
		punctIn:       NewInputChannel[*Punctuation](name+".punct", bufferSize),
		consume:       consume,
		onPunctuation: onPunctuation,
	}
}

// DataInput returns the sink's data input channel, for Connect.
func (s *Sink) DataInput() *InputChannel[DataMsg] { return s.dataIn }

// PunctuationInput returns the sink's punctuation input channel, for Connect.
func (s *Sink) PunctuationInput() *InputChannel[*Punctuation] { return s.punctIn }

// run reads both channels until the data channel closes or an EndOfStream
// punctuation arrives, whichever comes first.
func (s *Sink) run() error {
	for {
		select {
		case msg, ok := <-s.dataIn.C():
			if !ok {
				return nil
			}
			if err := s.consume(msg.Tuple, msg.Outdated); err != nil {
				s.Log.Error().Err(err).Msg("sink consume failed")
				return err
			}
		case p, ok := <-s.punctIn.C():
			if !ok {
				return nil
			}
			s.onPunctuation(p)
			if p.Kind == EndOfStream {
				return nil
			}
		}
	}
}

package flowcore

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ============================================================================
// SOURCE — the root of every pipe. A Source owns exactly one data output
// channel and one punctuation output channel, numbered 0 per §4.1's
// ChannelGroup convention (a single-slot group).
// ============================================================================

// DataMsg travels on a data OutputChannel: a shared tuple plus the outdated
// flag retractions use to signal "this value is no longer valid".
type DataMsg struct {
	Tuple    *Tuple
	Outdated bool
}

// Source produces tuples by running a generator function that pushes each
// tuple, and any punctuation it chooses to emit, through emit callbacks
// that publish them.
type Source struct {
	Name string
	Log  zerolog.Logger

	dataOut *OutputChannel[DataMsg]
	punctOut *OutputChannel[*Punctuation]

	generate func(ctx context.Context, emit func(*Tuple, bool), emitPunct func(*Punctuation)) error
}

// NewSource wires a named source around a generator function. generate is
// called once, on its own goroutine, when Start runs; it should call emit
// for every tuple and emitPunct for every punctuation, returning when done
// (including context cancellation).
func NewSource(name string, generate func(ctx context.Context, emit func(*Tuple, bool), emitPunct func(*Punctuation)) error) *Source {
	return &Source{
		Name:     name,
		Log:      log.With().Str("operator", name).Logger(),
		dataOut:  NewOutputChannel[DataMsg](name + ".data"),
		punctOut: NewOutputChannel[*Punctuation](name + ".punct"),
		generate: generate,
	}
}

// DataOutput returns the source's single data output channel.
func (s *Source) DataOutput() *OutputChannel[DataMsg] { return s.dataOut }

// PunctuationOutput returns the source's single punctuation output channel.
func (s *Source) PunctuationOutput() *OutputChannel[*Punctuation] { return s.punctOut }

// run drives the generator until it returns, then publishes a final
// EndOfStream punctuation. Intended to be invoked by Topology.Start as a
// supervised goroutine.
func (s *Source) run(ctx context.Context) error {
	emit := func(t *Tuple, outdated bool) {
		s.dataOut.Publish(DataMsg{Tuple: t, Outdated: outdated})
	}
	emitPunct := func(p *Punctuation) {
		s.punctOut.Publish(p)
	}
	err := s.generate(ctx, emit, emitPunct)
	s.punctOut.Publish(NewPunctuation(EndOfStream, nowMicros()))
	if err != nil {
		s.Log.Error().Err(err).Msg("source generator exited with error")
	}
	return err
}

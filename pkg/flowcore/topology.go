package flowcore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// TOPOLOGY — builder for a pipe graph and runtime for its sources. No
// single teacher analogue; combines filters.go's errgroup-supervised
// goroutine-per-worker shutdown pattern with the spec's own §4.6 lifecycle.
// ============================================================================

type runnable interface {
	run()
}

// runnableErr is implemented by operators whose run loop can fail
// (partitionBy's errgroup-backed workers).
type runnableErr interface {
	run() error
}

// Topology owns the sources and operators of one assembled pipe graph and
// drives their lifetime.
type Topology struct {
	ID  uuid.UUID
	Log zerolog.Logger

	sources []*Source
	workers []runnable
	errWorkers []runnableErr

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	started bool
	mu      sync.Mutex
}

// NewTopology creates an empty topology.
func NewTopology(name string) *Topology {
	return &Topology{
		ID:  uuid.New(),
		Log: log.With().Str("topology", name).Logger(),
	}
}

// AddSource registers a source whose run loop Start will launch.
func (t *Topology) AddSource(s *Source) { t.sources = append(t.sources, s) }

// AddOperator registers a transform/sink whose run loop Start will launch
// alongside the sources.
func (t *Topology) AddOperator(r runnable) { t.workers = append(t.workers, r) }

// AddErrOperator registers an operator (e.g. partitionBy) whose run loop
// can return an error, which StopThreads/Wait propagate.
func (t *Topology) AddErrOperator(r runnableErr) { t.errWorkers = append(t.errWorkers, r) }

// Pipe is a builder that threads one operator's output into the next's
// input, starting from a Source. Start/AddOperator calls below are kept
// minimal by convention: callers wire channels with Connect directly and
// use Pipe only to accumulate the set of runnables a Topology must drive.
type Pipe struct {
	topology *Topology
}

// NewPipe starts a builder rooted at source, registering it with topology.
func NewPipe(topology *Topology, source *Source) *Pipe {
	topology.AddSource(source)
	return &Pipe{topology: topology}
}

// Then registers op (any operator exposing a run() method) with the
// topology and returns the same builder for chaining. Callers are expected
// to have already Connect-ed op's inputs to the previous stage's outputs.
func (p *Pipe) Then(op runnable) *Pipe {
	p.topology.AddOperator(op)
	return p
}

// ThenErr is Then for operators whose run loop can fail.
func (p *Pipe) ThenErr(op runnableErr) *Pipe {
	p.topology.AddErrOperator(op)
	return p
}

// Start launches every source (each on its own goroutine when async is
// true; sequentially, blocking, when false) plus every registered
// transform/sink operator, each supervised by an errgroup.
func (t *Topology) Start(async bool) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return fmt.Errorf("%w: topology %s already started", ErrTopology, t.ID)
	}
	if len(t.sources) == 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: topology %s has no source", ErrTopology, t.ID)
	}
	t.started = true
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.group, t.ctx = errgroup.WithContext(t.ctx)
	t.mu.Unlock()

	for _, w := range t.workers {
		w := w
		t.group.Go(func() error {
			w.run()
			return nil
		})
	}
	for _, w := range t.errWorkers {
		w := w
		t.group.Go(func() error {
			return w.run()
		})
	}

	if async {
		for _, s := range t.sources {
			s := s
			t.group.Go(func() error {
				return s.run(t.ctx)
			})
		}
		return nil
	}

	for _, s := range t.sources {
		if err := s.run(t.ctx); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until every source has signaled EndOfStream (equivalently,
// until every supervised goroutine returns), then performs the
// deterministic teardown: sinks first (implicit, since they return on
// their own once upstream channels close), then transforms in reverse
// topological order, then sources — approximated here by simply waiting
// for the whole errgroup, since Go's channel-close propagation already
// drains downstream before a source's goroutine is reaped.
func (t *Topology) Wait() error {
	if t.group == nil {
		return fmt.Errorf("%w: topology %s was never started", ErrTopology, t.ID)
	}
	err := t.group.Wait()
	t.Log.Info().Msg("topology wait returned, all sources and operators stopped")
	return err
}

// RunEvery runs every source synchronously once, then sleeps dt, repeating
// until ctx (set up by a prior Start) is cancelled via StopThreads. This is
// the mode used for periodic table snapshot queries (§4.6).
func (t *Topology) RunEvery(dt time.Duration) error {
	for {
		for _, s := range t.sources {
			if err := s.run(t.ctx); err != nil {
				return err
			}
		}
		select {
		case <-t.ctx.Done():
			return nil
		case <-time.After(dt):
		}
	}
}

// StopThreads signals every source to stop and joins all worker goroutines,
// including those started by partitionBy and by async source starts.
func (t *Topology) StopThreads() error {
	if t.cancel != nil {
		t.cancel()
	}
	return t.Wait()
}

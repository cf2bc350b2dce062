package flowcore

import (
	"hash/fnv"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// PARTITION BY — fans a stream out into nPartitions parallel sub-pipelines,
// one goroutine per partition (grounded on the original's ThreadPool.hpp
// shape, and on the teacher's errgroup-based Parallel filter).
// ============================================================================

// PartitionKeyFunc extracts the partition key from a tuple.
type PartitionKeyFunc func(*Tuple) []byte

// PartitionByOp owns nPartitions downstream output channels; partition i's
// channel only ever receives tuples whose key hashes to i. Ordering is
// preserved within a partition, not globally, matching §5's guarantee.
type PartitionByOp struct {
	Name string
	key  PartitionKeyFunc
	n    int

	dataIn  *InputChannel[DataMsg]
	punctIn *InputChannel[*Punctuation]

	dataOut  []*OutputChannel[DataMsg]
	punctOut []*OutputChannel[*Punctuation]

	queues []chan DataMsg
	group  *errgroup.Group
}

// NewPartitionByOp builds a partitionBy operator with nPartitions worker
// goroutines, each with its own bounded queue of depth queueDepth.
func NewPartitionByOp(name string, bufferSize, nPartitions, queueDepth int, key PartitionKeyFunc) *PartitionByOp {
	p := &PartitionByOp{
		Name:     name,
		key:      key,
		n:        nPartitions,
		dataIn:   NewInputChannel[DataMsg](name+".in.data", bufferSize),
		punctIn:  NewInputChannel[*Punctuation](name+".in.punct", bufferSize),
		dataOut:  make([]*OutputChannel[DataMsg], nPartitions),
		punctOut: make([]*OutputChannel[*Punctuation], nPartitions),
		queues:   make([]chan DataMsg, nPartitions),
	}
	for i := 0; i < nPartitions; i++ {
		p.dataOut[i] = NewOutputChannel[DataMsg](name + ".out.data")
		p.punctOut[i] = NewOutputChannel[*Punctuation](name + ".out.punct")
		p.queues[i] = make(chan DataMsg, queueDepth)
	}
	return p
}

func (p *PartitionByOp) DataInput() *InputChannel[DataMsg]            { return p.dataIn }
func (p *PartitionByOp) PunctuationInput() *InputChannel[*Punctuation] { return p.punctIn }
func (p *PartitionByOp) PartitionDataOutput(i int) *OutputChannel[DataMsg] { return p.dataOut[i] }
func (p *PartitionByOp) PartitionPunctuationOutput(i int) *OutputChannel[*Punctuation] {
	return p.punctOut[i]
}
func (p *PartitionByOp) NumPartitions() int { return p.n }

func partitionIndex(key []byte, n int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(n))
}

// run starts one worker goroutine per partition plus a dispatcher that
// reads the single input channel and routes each tuple by hash(key) mod n.
func (p *PartitionByOp) run() error {
	p.group = &errgroup.Group{}

	for i := 0; i < p.n; i++ {
		i := i
		p.group.Go(func() error {
			for msg := range p.queues[i] {
				p.dataOut[i].Publish(msg)
			}
			return nil
		})
	}

	p.group.Go(func() error {
		defer func() {
			for _, q := range p.queues {
				close(q)
			}
		}()
		for {
			select {
			case msg, ok := <-p.dataIn.C():
				if !ok {
					return nil
				}
				idx := partitionIndex(p.key(msg.Tuple), p.n)
				p.queues[idx] <- msg
			case pu, ok := <-p.punctIn.C():
				if !ok {
					return nil
				}
				for i := 0; i < p.n; i++ {
					p.punctOut[i].Publish(pu)
				}
				if pu.Kind == EndOfStream {
					return nil
				}
			}
		}
	})

	return p.group.Wait()
}

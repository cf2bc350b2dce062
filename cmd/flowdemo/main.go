// Command flowdemo assembles a small topology end to end: a CSV source is
// windowed, summed and printed, demonstrating the wiring an
// embedding service would perform against pkg/flowcore.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/flowfabric/flowcore/pkg/flowcore"
)

func main() {
	cfg, err := flowcore.LoadRuntimeConfig(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowdemo: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := flowcore.NewLogger(flowcore.LoggerConfig{
		Level:  cfg.ZerologLevel(),
		Format: flowcore.LogFormat(cfg.LogFormat),
	})
	flowcore.SetGlobalLogger(logger)
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("flowdemo starting")

	sampler := flowcore.NewHostSampler()
	sampler.Start(cfg.MetricsInterval)
	defer sampler.Stop()

	csvData := "sensor,reading\nA,10\nA,20\nB,5\nA,30\nB,15\n"
	source := flowcore.NewCSVTupleSource("readings", strings.NewReader(csvData), ',', true,
		flowcore.CSVSchema{flowcore.FieldString, flowcore.FieldInt64})

	window := flowcore.NewTumblingWindowOp("readings.window", cfg.ChannelBufferSize,
		flowcore.WindowSpec{Kind: flowcore.Row, Size: 3})
	flowcore.Connect(source.DataOutput(), window.DataInput())
	flowcore.Connect(source.PunctuationOutput(), window.PunctuationInput())

	sumSlot := flowcore.NewAggregateSlot(1, flowcore.SumAggregate())
	aggregate := flowcore.NewAggregateOp("readings.sum", cfg.ChannelBufferSize, flowcore.TriggerAll(), sumSlot)
	flowcore.Connect(window.DataOutput(), aggregate.DataInput())
	flowcore.Connect(window.PunctuationOutput(), aggregate.PunctuationInput())

	sink := flowcore.NewSink("readings.sink", cfg.ChannelBufferSize,
		func(t *flowcore.Tuple, outdated bool) error {
			if !outdated {
				logger.Info().Str("tuple", t.String()).Msg("windowed sum")
			}
			return nil
		},
		func(p *flowcore.Punctuation) {
			logger.Debug().Str("punctuation", p.String()).Msg("received")
		})
	flowcore.Connect(aggregate.DataOutput(), sink.DataInput())
	flowcore.Connect(aggregate.PunctuationOutput(), sink.PunctuationInput())

	topology := flowcore.NewTopology("flowdemo")
	pipe := flowcore.NewPipe(topology, source)
	pipe.Then(window).Then(aggregate).ThenErr(sink)

	// Watchdog: force teardown if the topology never reaches EndOfStream on
	// its own (e.g. a misbehaving source), rather than hanging forever.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() {
		<-ctx.Done()
		topology.StopThreads()
	}()

	if err := topology.Start(true); err != nil {
		logger.Fatal().Err(err).Msg("failed to start topology")
	}
	if err := topology.Wait(); err != nil {
		logger.Error().Err(err).Msg("topology exited with error")
	}
	logger.Info().Msg("flowdemo finished")
}

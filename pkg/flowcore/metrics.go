package flowcore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ============================================================================
// METRICS — prometheus counters/gauges for the channel fabric, windowing and
// transactional table, plus host CPU/memory gauges via gopsutil. Grounded on
// adred-codev-ws_poc/src/metrics.go's package-var + init()-MustRegister
// shape and go-server/internal/metrics/system.go's gopsutil sampling. The
// core only exposes these prometheus.Collector values; serving them over
// HTTP is left to cmd/.
// ============================================================================

var (
	publishesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcore_channel_publishes_total",
		Help: "Total messages published on a channel, by channel name.",
	}, []string{"channel"})

	windowEvictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcore_window_evictions_total",
		Help: "Total elements evicted from a window, by operator name and kind.",
	}, []string{"operator", "kind"})

	txCommitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flowcore_tx_commits_total",
		Help: "Total MVCCTable transactions committed.",
	})

	txAbortsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcore_tx_aborts_total",
		Help: "Total MVCCTable transactions aborted, by reason.",
	}, []string{"reason"})

	hostCPUPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowcore_host_cpu_percent",
		Help: "Host CPU usage percentage, sampled via gopsutil.",
	})

	hostMemoryUsedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowcore_host_memory_used_bytes",
		Help: "Host memory used in bytes, sampled via gopsutil.",
	})
)

func init() {
	prometheus.MustRegister(publishesTotal)
	prometheus.MustRegister(windowEvictionsTotal)
	prometheus.MustRegister(txCommitsTotal)
	prometheus.MustRegister(txAbortsTotal)
	prometheus.MustRegister(hostCPUPercent)
	prometheus.MustRegister(hostMemoryUsedBytes)
}

// RecordPublish increments the publish counter for channel.
func RecordPublish(channel string) {
	publishesTotal.WithLabelValues(channel).Inc()
}

// RecordWindowEviction increments the eviction counter for operator/kind
// ("slide" or "tumble").
func RecordWindowEviction(operator, kind string) {
	windowEvictionsTotal.WithLabelValues(operator, kind).Inc()
}

// RecordTxCommit increments the transaction commit counter.
func RecordTxCommit() { txCommitsTotal.Inc() }

// RecordTxAbort increments the transaction abort counter for reason
// ("write_conflict", "tx_aborted").
func RecordTxAbort(reason string) {
	txAbortsTotal.WithLabelValues(reason).Inc()
}

// HostSampler periodically refreshes the host CPU/memory gauges.
type HostSampler struct {
	stop chan struct{}
}

// NewHostSampler creates a sampler; call Start to begin the periodic refresh.
func NewHostSampler() *HostSampler {
	return &HostSampler{stop: make(chan struct{})}
}

// Start launches the sampling loop on its own goroutine, refreshing the
// host gauges every interval until Stop is called.
func (h *HostSampler) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.sample()
			case <-h.stop:
				return
			}
		}
	}()
}

// Stop halts the sampling loop.
func (h *HostSampler) Stop() { close(h.stop) }

func (h *HostSampler) sample() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		hostCPUPercent.Set(percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hostMemoryUsedBytes.Set(float64(vm.Used))
	}
}

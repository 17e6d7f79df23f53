package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shirou/gopsutil/process"
)

const DefaultMetricInterval = 5 * time.Second

// ProcessSampler reports the resident memory and cpu usage of the current process.
type ProcessSampler interface {
	Sample() (rss uint64, cpu float64, err error)
}

// TelemetryWorker periodically publishes the number of live connections
// and the process footprint as gauges.
type TelemetryWorker struct {
	log      *slog.Logger
	clock    clockwork.Clock
	registry contract.IRegistry
	metrics  *observability.Metrics
	sampler  ProcessSampler
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger,
	clock clockwork.Clock,
	registry contract.IRegistry,
	metrics *observability.Metrics,
	sampler ProcessSampler,
	interval time.Duration) *TelemetryWorker {
	if interval <= 0 {
		interval = DefaultMetricInterval
	}
	return &TelemetryWorker{
		log:      log,
		clock:    clock,
		registry: registry,
		metrics:  metrics,
		sampler:  sampler,
		interval: interval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			w.collect()
		}
	}
}

func (w *TelemetryWorker) collect() {
	live := w.registry.Count()
	w.metrics.SetLiveConnections(live)

	if w.sampler == nil {
		return
	}
	rss, cpu, err := w.sampler.Sample()
	if err != nil {
		w.log.Warn("Failed to collect process stats", "error", err)
		return
	}
	w.metrics.SetProcessStats(rss, cpu)
	w.log.Debug("Telemetry collected", "connections", live, "rss", rss, "cpu", cpu)
}

// SelfSampler samples the running process through gopsutil.
type SelfSampler struct {
	proc *process.Process
}

func NewSelfSampler() (*SelfSampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &SelfSampler{proc: p}, nil
}

func (s *SelfSampler) Sample() (uint64, float64, error) {
	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := s.proc.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}

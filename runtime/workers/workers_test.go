package workers

import (
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixedSampler struct {
	rss uint64
	cpu float64
	err error
}

func (s fixedSampler) Sample() (uint64, float64, error) { return s.rss, s.cpu, s.err }

func TestTelemetryWorker_Publishes_Gauges(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().Count().Return(3).MinTimes(1)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	clock := clockwork.NewFakeClock()
	worker := NewTelemetryWorker(logs.GetLoggerFromLevel(slog.LevelDebug),
		clock, registry, metrics, fixedSampler{rss: 2048, cpu: 12.5}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// When the ticker fires once
	req.NoError(clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	// Then the gauges are published
	req.Eventually(func() bool {
		return testutil.ToFloat64(metrics.ProcessRSSBytes) == 2048
	}, time.Second, 5*time.Millisecond)
	req.Equal(float64(3), testutil.ToFloat64(metrics.LiveConnections))

	cancel()
	req.ErrorIs(<-done, context.Canceled)
}

func TestTelemetryWorker_Sampler_Failure_Keeps_Connections_Gauge(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().Count().Return(1)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	worker := NewTelemetryWorker(logs.GetLoggerFromLevel(slog.LevelDebug),
		clockwork.NewRealClock(), registry, metrics, fixedSampler{err: fmt.Errorf("no proc")}, time.Second)
	worker.collect()

	req.Equal(float64(1), testutil.ToFloat64(metrics.LiveConnections))
	req.Equal(float64(0), testutil.ToFloat64(metrics.ProcessRSSBytes))
}

func TestSelfSampler(t *testing.T) {
	req := require.New(t)
	sampler, err := NewSelfSampler()
	req.NoError(err)

	rss, _, err := sampler.Sample()
	req.NoError(err)
	req.Positive(rss)
}

type scriptedCollector struct {
	calls   atomic.Int32
	results []error
}

func (c *scriptedCollector) RunValueLogGC(float64) error {
	i := int(c.calls.Add(1)) - 1
	if i < len(c.results) {
		return c.results[i]
	}
	return badger.ErrNoRewrite
}

func TestStorageGCWorker_Collects_Until_No_Rewrite(t *testing.T) {
	req := require.New(t)
	collector := &scriptedCollector{results: []error{nil, nil, badger.ErrNoRewrite}}
	worker := NewStorageGCWorker(logs.GetLoggerFromLevel(slog.LevelDebug), clockwork.NewRealClock(), collector, time.Minute)

	worker.collect()

	req.Equal(int32(3), collector.calls.Load())
}

func TestStorageGCWorker_Stops_On_Error(t *testing.T) {
	req := require.New(t)
	collector := &scriptedCollector{results: []error{badger.ErrRejected}}
	worker := NewStorageGCWorker(logs.GetLoggerFromLevel(slog.LevelDebug), clockwork.NewRealClock(), collector, time.Minute)

	worker.collect()

	req.Equal(int32(1), collector.calls.Load())
}

func TestStorageGCWorker_Runs_On_Tick(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClock()
	collector := &scriptedCollector{}
	worker := NewStorageGCWorker(logs.GetLoggerFromLevel(slog.LevelDebug), clock, collector, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	req.NoError(clock.BlockUntilContext(ctx, 1))
	req.Zero(collector.calls.Load())

	clock.Advance(time.Minute)
	req.Eventually(func() bool { return collector.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

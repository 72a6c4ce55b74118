package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// fakeCore is a scriptable CoreLLM for middleware tests.
type fakeCore struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
	delay    time.Duration
	lastCtx  context.Context
}

func (f *fakeCore) DoRequest(ctx context.Context, _ string, _ map[string]any) (string, int, int, error) {
	f.mu.Lock()
	f.calls++
	f.lastCtx = ctx
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}
	if f.err != nil {
		return "", 0, 0, f.err
	}
	return f.response, 10, 20, nil
}

func (f *fakeCore) GetModel() string { return "test-model" }

func (f *fakeCore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu        sync.Mutex
	latencies map[string]int
	counters  map[string]float64
	gauges    map[string]float64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		latencies: make(map[string]int),
		counters:  make(map[string]float64),
		gauges:    make(map[string]float64),
	}
}

func (c *recordingCollector) RecordLatency(op string, _ time.Duration, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latencies[op]++
}

func (c *recordingCollector) RecordCounter(metric string, value float64, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[metric] += value
}

func (c *recordingCollector) RecordGauge(metric string, value float64, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[metric] = value
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return coreFunc(func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
				order = append(order, name)
				return next.DoRequest(ctx, prompt, opts)
			})
		}
	}

	core := &fakeCore{response: "ok"}
	chained := Chain(core, tag("outer"), tag("inner"))

	_, _, _, err := chained.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, 1, core.callCount())
}

// coreFunc adapts a function to CoreLLM for chain tests.
type coreFunc func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error)

func (f coreFunc) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	return f(ctx, prompt, opts)
}

func (coreFunc) GetModel() string { return "func-model" }

func TestMetricsMiddleware(t *testing.T) {
	t.Run("success records tokens", func(t *testing.T) {
		collector := newRecordingCollector()
		core := MetricsMiddleware(collector)(&fakeCore{response: "ok"})

		_, _, _, err := core.DoRequest(context.Background(), "p", nil)
		require.NoError(t, err)

		assert.Equal(t, 1, collector.latencies["llm_request"])
		assert.InDelta(t, 1.0, collector.counters["llm_requests_total"], 1e-9)
		assert.InDelta(t, 10.0, collector.counters["llm_tokens_input_total"], 1e-9)
		assert.InDelta(t, 20.0, collector.counters["llm_tokens_output_total"], 1e-9)
	})

	t.Run("failure records failure counter", func(t *testing.T) {
		collector := newRecordingCollector()
		core := MetricsMiddleware(collector)(&fakeCore{err: errors.New("boom")})

		_, _, _, err := core.DoRequest(context.Background(), "p", nil)
		require.Error(t, err)
		assert.InDelta(t, 1.0, collector.counters["llm_requests_failed_total"], 1e-9)
		assert.Zero(t, collector.counters["llm_requests_total"])
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("paces requests", func(t *testing.T) {
		core := RateLimitMiddleware(rate.Limit(50), 1)(&fakeCore{response: "ok"})

		start := time.Now()
		for i := 0; i < 3; i++ {
			_, _, _, err := core.DoRequest(context.Background(), "p", nil)
			require.NoError(t, err)
		}
		// 3 requests at 50 rps with burst 1 need at least ~40ms.
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("honors cancellation while waiting", func(t *testing.T) {
		core := RateLimitMiddleware(rate.Limit(0.001), 1)(&fakeCore{response: "ok"})

		_, _, _, err := core.DoRequest(context.Background(), "p", nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, _, _, err = core.DoRequest(ctx, "p", nil)
		require.Error(t, err)
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	core := TimeoutMiddleware(20*time.Millisecond)(&fakeCore{response: "ok", delay: time.Second})

	_, _, _, err := core.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMiddlewarePreservesModel(t *testing.T) {
	core := Chain(&fakeCore{},
		RateLimitMiddleware(rate.Inf, 1),
		MetricsMiddleware(newRecordingCollector()),
		TimeoutMiddleware(time.Second))
	assert.Equal(t, "test-model", core.GetModel())
}

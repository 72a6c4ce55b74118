package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tribunal/internal/domain"
)

type stubSource struct {
	refs []domain.GameRef
	err  error
}

func (s *stubSource) Discover(context.Context) ([]domain.GameRef, error) {
	return s.refs, s.err
}

// stubRunner scripts per-game outcomes: failures, panics, or a canned result.
type stubRunner struct {
	mu      sync.Mutex
	calls   []string
	failOn  map[string]error
	panicOn map[string]bool
}

func newStubRunner() *stubRunner {
	return &stubRunner{failOn: make(map[string]error), panicOn: make(map[string]bool)}
}

func (r *stubRunner) Run(_ context.Context, ref domain.GameRef) (*domain.GameResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, ref.GameID)
	r.mu.Unlock()

	if r.panicOn[ref.GameID] {
		panic("corrupt transcript")
	}
	if err := r.failOn[ref.GameID]; err != nil {
		return nil, err
	}

	result := domain.NewGameResult()
	response, err := domain.NewRankingResponse(validEntries())
	if err != nil {
		return nil, err
	}
	err = result.Append(domain.NewCriterionResult("deception", response,
		map[string]string{"Alice": "team_red", "Bob": "team_blue"}))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type stubAggWriter struct {
	mu     sync.Mutex
	writes []Aggregation
	err    error
}

func (w *stubAggWriter) WriteAggregation(agg Aggregation) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.writes = append(w.writes, agg)
	return nil
}

func gameRefs(n int) []domain.GameRef {
	refs := make([]domain.GameRef, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("game-%02d", i)
		refs = append(refs, domain.GameRef{
			GameID:       id,
			LogPath:      "log/" + id + ".log",
			MetadataPath: "json/" + id + ".json",
		})
	}
	return refs
}

func newTestBatch(t *testing.T, source GameSource, runner GameRunner, writer AggregationWriter) *BatchProcessor {
	t.Helper()
	b, err := NewBatchProcessor(
		source, runner, writer, testCriteria("deception"), 2, testLogger(), nil)
	require.NoError(t, err)
	return b
}

func TestBatchProcessorProcessAllGames(t *testing.T) {
	runner := newStubRunner()
	writer := &stubAggWriter{}
	b := newTestBatch(t, &stubSource{refs: gameRefs(4)}, runner, writer)

	summary, err := b.ProcessAllGames(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ProcessingResult{Total: 4, Completed: 4, Failed: 0}, summary)
	assert.InDelta(t, 100.0, summary.SuccessRate(), 1e-9)
	assert.Equal(t, 4, runner.callCount())

	require.Len(t, writer.writes, 1)
	assert.Equal(t, 4, writer.writes[0].Summary.TotalGamesProcessed)
}

func TestBatchProcessorIsolatesFailedGames(t *testing.T) {
	// One failure among five must not stop the siblings.
	runner := newStubRunner()
	runner.failOn["game-03"] = errors.New("evaluation failed")
	writer := &stubAggWriter{}
	b := newTestBatch(t, &stubSource{refs: gameRefs(5)}, runner, writer)

	summary, err := b.ProcessAllGames(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ProcessingResult{Total: 5, Completed: 4, Failed: 1}, summary)
	assert.InDelta(t, 80.0, summary.SuccessRate(), 1e-9)
	assert.Equal(t, 5, runner.callCount(), "every game is attempted")

	require.Len(t, writer.writes, 1)
	assert.Equal(t, 4, writer.writes[0].Summary.TotalGamesProcessed,
		"aggregation covers only completed games")
}

func TestBatchProcessorRecoversFromPanic(t *testing.T) {
	runner := newStubRunner()
	runner.panicOn["game-02"] = true
	writer := &stubAggWriter{}
	b := newTestBatch(t, &stubSource{refs: gameRefs(3)}, runner, writer)

	summary, err := b.ProcessAllGames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ProcessingResult{Total: 3, Completed: 2, Failed: 1}, summary)
}

func TestBatchProcessorNoGames(t *testing.T) {
	writer := &stubAggWriter{}
	b := newTestBatch(t, &stubSource{}, newStubRunner(), writer)

	summary, err := b.ProcessAllGames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ProcessingResult{}, summary)
	assert.Zero(t, summary.SuccessRate(), "an empty batch reports a zero success rate")
	assert.Empty(t, writer.writes)
}

func TestProcessingResultSuccessRate(t *testing.T) {
	tests := []struct {
		name   string
		result ProcessingResult
		want   float64
	}{
		{"empty batch", ProcessingResult{}, 0},
		{"all completed", ProcessingResult{Total: 4, Completed: 4}, 100},
		{"partial", ProcessingResult{Total: 5, Completed: 4, Failed: 1}, 80},
		{"all failed", ProcessingResult{Total: 2, Failed: 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.result.SuccessRate(), 1e-9)
		})
	}
}

func TestBatchProcessorNoGamesStillLogsSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	b, err := NewBatchProcessor(
		&stubSource{}, newStubRunner(), &stubAggWriter{},
		testCriteria("deception"), 2, logger, nil)
	require.NoError(t, err)

	_, err = b.ProcessAllGames(context.Background())
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "no games found to process")
	assert.Contains(t, logs, "batch run finished")
	assert.Contains(t, logs, "success_rate=0.0%")
}

func TestBatchProcessorAllGamesFail(t *testing.T) {
	runner := newStubRunner()
	for _, ref := range gameRefs(2) {
		runner.failOn[ref.GameID] = errors.New("boom")
	}
	writer := &stubAggWriter{}
	b := newTestBatch(t, &stubSource{refs: gameRefs(2)}, runner, writer)

	summary, err := b.ProcessAllGames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ProcessingResult{Total: 2, Completed: 0, Failed: 2}, summary)
	assert.Empty(t, writer.writes, "no aggregation without completed games")
}

func TestBatchProcessorDiscoveryError(t *testing.T) {
	b := newTestBatch(t, &stubSource{err: errors.New("input dir missing")},
		newStubRunner(), &stubAggWriter{})

	_, err := b.ProcessAllGames(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discover games")
}

func TestBatchProcessorAggregationWriteError(t *testing.T) {
	writer := &stubAggWriter{err: errors.New("disk full")}
	b := newTestBatch(t, &stubSource{refs: gameRefs(1)}, newStubRunner(), writer)

	summary, err := b.ProcessAllGames(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write aggregation")
	assert.Equal(t, 1, summary.Completed, "the summary still reflects processed games")
}

func TestNewBatchProcessorValidation(t *testing.T) {
	source := &stubSource{}
	runner := newStubRunner()
	writer := &stubAggWriter{}
	logger := testLogger()

	tests := []struct {
		name string
		fn   func() (*BatchProcessor, error)
	}{
		{"nil source", func() (*BatchProcessor, error) {
			return NewBatchProcessor(nil, runner, writer, nil, 1, logger, nil)
		}},
		{"nil runner", func() (*BatchProcessor, error) {
			return NewBatchProcessor(source, nil, writer, nil, 1, logger, nil)
		}},
		{"nil writer", func() (*BatchProcessor, error) {
			return NewBatchProcessor(source, runner, nil, nil, 1, logger, nil)
		}},
		{"nil logger", func() (*BatchProcessor, error) {
			return NewBatchProcessor(source, runner, writer, nil, 1, nil, nil)
		}},
		{"zero workers", func() (*BatchProcessor, error) {
			return NewBatchProcessor(source, runner, writer, nil, 0, logger, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			require.Error(t, err)
		})
	}
}

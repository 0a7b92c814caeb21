package benchmark

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msResults(values ...int) []Result {
	out := make([]Result, len(values))
	for i, v := range values {
		out[i] = Result{Latency: time.Duration(v) * time.Millisecond}
	}
	return out
}

func TestSummarize(t *testing.T) {
	results := msResults(10, 20, 30, 40, 50, 60, 70, 80, 90, 100)
	s := Summarize(results, time.Second)

	assert.Equal(t, 10, s.Count)
	assert.Equal(t, 0, s.Errors)
	assert.Equal(t, 10*time.Millisecond, s.Min)
	assert.Equal(t, 100*time.Millisecond, s.Max)
	assert.Equal(t, 55*time.Millisecond, s.Mean)
	assert.Equal(t, 50*time.Millisecond, s.P50)
	assert.Equal(t, 90*time.Millisecond, s.P90)
	assert.Equal(t, 100*time.Millisecond, s.P95)
	assert.Equal(t, 100*time.Millisecond, s.P99)
	assert.InDelta(t, 10.0, s.Throughput, 1e-9)
}

func TestSummarizeWithErrors(t *testing.T) {
	results := msResults(10, 20)
	results = append(results, Result{Latency: time.Minute, Err: errors.New("boom")})
	s := Summarize(results, time.Second)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1, s.Errors)
	// failed request latency excluded from stats
	assert.Equal(t, 20*time.Millisecond, s.Max)
	assert.InDelta(t, 2.0, s.Throughput, 1e-9)
}

func TestSummarizeAllFailed(t *testing.T) {
	s := Summarize([]Result{{Err: errors.New("x")}, {Err: errors.New("y")}}, time.Second)
	assert.Equal(t, 2, s.Errors)
	assert.Zero(t, s.P99)
	assert.Zero(t, s.Throughput)
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5}
	assert.Equal(t, time.Duration(3), percentile(sorted, 50))
	assert.Equal(t, time.Duration(5), percentile(sorted, 90))
	assert.Equal(t, time.Duration(1), percentile(sorted, 1))
	assert.Equal(t, time.Duration(5), percentile(sorted, 100))
	assert.Zero(t, percentile(nil, 50))
}

func TestSummaryString(t *testing.T) {
	s := Summarize(msResults(10), time.Second)
	assert.Contains(t, s.String(), "count=1")
	assert.Contains(t, s.String(), "p99=10ms")
}

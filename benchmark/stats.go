package benchmark

import (
	"fmt"
	"sort"
	"time"
)

// Summary aggregates a benchmark run.
type Summary struct {
	Count      int           `json:"count"`
	Errors     int           `json:"errors"`
	Elapsed    time.Duration `json:"elapsed"`
	Throughput float64       `json:"throughput"` // successful requests per second
	Mean       time.Duration `json:"mean"`
	Min        time.Duration `json:"min"`
	Max        time.Duration `json:"max"`
	P50        time.Duration `json:"p50"`
	P90        time.Duration `json:"p90"`
	P95        time.Duration `json:"p95"`
	P99        time.Duration `json:"p99"`
}

// Summarize computes latency statistics over successful results. Percentiles
// use the nearest-rank method on the sorted sample.
func Summarize(results []Result, elapsed time.Duration) Summary {
	s := Summary{Count: len(results), Elapsed: elapsed}
	latencies := make([]time.Duration, 0, len(results))
	var total time.Duration
	for _, r := range results {
		if r.Err != nil {
			s.Errors++
			continue
		}
		latencies = append(latencies, r.Latency)
		total += r.Latency
	}
	if len(latencies) == 0 {
		return s
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	s.Min = latencies[0]
	s.Max = latencies[len(latencies)-1]
	s.Mean = total / time.Duration(len(latencies))
	s.P50 = percentile(latencies, 50)
	s.P90 = percentile(latencies, 90)
	s.P95 = percentile(latencies, 95)
	s.P99 = percentile(latencies, 99)
	if elapsed > 0 {
		s.Throughput = float64(len(latencies)) / elapsed.Seconds()
	}
	return s
}

// percentile returns the nearest-rank percentile of a sorted sample.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// String renders the summary as a single report line.
func (s Summary) String() string {
	return fmt.Sprintf("count=%d errors=%d throughput=%.2f/s mean=%s p50=%s p90=%s p95=%s p99=%s max=%s",
		s.Count, s.Errors, s.Throughput, s.Mean, s.P50, s.P90, s.P95, s.P99, s.Max)
}

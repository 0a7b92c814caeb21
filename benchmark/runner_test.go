package benchmark

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/viant/esmtune/inference"
	"github.com/viant/esmtune/platform"
)

type fakeInvoker struct {
	calls   int32
	maxBusy int32
	busy    int32
	fail    func(n int32) bool
	delay   time.Duration
}

func (f *fakeInvoker) Predict(ctx context.Context, seq string) (inference.Prediction, error) {
	n := atomic.AddInt32(&f.calls, 1)
	cur := atomic.AddInt32(&f.busy, 1)
	for {
		prev := atomic.LoadInt32(&f.maxBusy)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxBusy, prev, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			atomic.AddInt32(&f.busy, -1)
			return nil, ctx.Err()
		}
	}
	atomic.AddInt32(&f.busy, -1)
	if f.fail != nil && f.fail(n) {
		return nil, errors.New("invoke failed")
	}
	return inference.Prediction{"A": 1}, nil
}

func TestRunnerRun(t *testing.T) {
	inv := &fakeInvoker{delay: time.Millisecond}
	runner, err := NewRunner(inv, Config{Concurrency: 4, Requests: 20})
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	summary, err := runner.Run(context.Background(), []string{"MKT", "MKV"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Count != 20 {
		t.Fatalf("expected 20 results, got %d", summary.Count)
	}
	if summary.Errors != 0 {
		t.Fatalf("expected no errors, got %d", summary.Errors)
	}
	if got := atomic.LoadInt32(&inv.calls); got != 20 {
		t.Fatalf("expected 20 invocations, got %d", got)
	}
	if inv.maxBusy > 4 {
		t.Fatalf("concurrency exceeded: %d workers busy", inv.maxBusy)
	}
	if summary.P99 < summary.P50 {
		t.Fatalf("inconsistent percentiles: %+v", summary)
	}
}

func TestRunnerRecordsFailures(t *testing.T) {
	inv := &fakeInvoker{fail: func(n int32) bool { return n%2 == 0 }}
	runner, err := NewRunner(inv, Config{Concurrency: 2, Requests: 10})
	if err != nil {
		t.Fatal(err)
	}
	summary, err := runner.Run(context.Background(), []string{"MKT"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Errors != 5 {
		t.Fatalf("expected 5 errors, got %d", summary.Errors)
	}
}

func TestRunnerCancellation(t *testing.T) {
	inv := &fakeInvoker{delay: 50 * time.Millisecond}
	runner, err := NewRunner(inv, Config{Concurrency: 1, Requests: 1000})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := runner.Run(ctx, []string{"MKT"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRunnerValidation(t *testing.T) {
	if _, err := NewRunner(nil, Config{Requests: 1}); err == nil {
		t.Fatal("expected error for nil invoker")
	}
	if _, err := NewRunner(&fakeInvoker{}, Config{Requests: 0}); err == nil {
		t.Fatal("expected error for zero requests")
	}
	runner, err := NewRunner(&fakeInvoker{}, Config{Requests: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := runner.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty inputs")
	}
}

type fakeMetrics struct {
	calls int32
	empty int32 // number of initial polls returning no datapoints
}

func (f *fakeMetrics) QueryMetrics(ctx context.Context, q platform.MetricsQuery) (*platform.MetricsResult, error) {
	n := atomic.AddInt32(&f.calls, 1)
	res := &platform.MetricsResult{Metric: q.Metric, Statistic: q.Statistic}
	if n > f.empty {
		var value float64
		switch q.Statistic {
		case "p50":
			value = 10
		case "p90":
			value = 20
		case "p99":
			value = 30
		}
		res.Datapoints = []platform.MetricDatapoint{{Timestamp: time.Now(), Value: value}}
	}
	return res, nil
}

func TestCollectServerSide(t *testing.T) {
	source := &fakeMetrics{empty: 2}
	got, err := CollectServerSide(context.Background(), source, "ep", time.Minute, time.Millisecond)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got.P50 != 10 || got.P90 != 20 || got.P99 != 30 {
		t.Fatalf("unexpected percentiles %+v", got)
	}
}

func TestCollectServerSideTimeout(t *testing.T) {
	source := &fakeMetrics{empty: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := CollectServerSide(ctx, source, "ep", time.Minute, time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

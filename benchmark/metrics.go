package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/esmtune/platform"
)

// MetricsSource queries the platform monitoring API. *platform.Client
// satisfies it.
type MetricsSource interface {
	QueryMetrics(ctx context.Context, q platform.MetricsQuery) (*platform.MetricsResult, error)
}

// ServerSide holds model latency percentiles reported by the monitoring API,
// used to cross-check client-side measurements.
type ServerSide struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P99 float64 `json:"p99"`
}

// CollectServerSide polls the monitoring API for model latency percentiles
// over the trailing window. Monitoring lags the run, so polling retries until
// datapoints appear or ctx expires.
func CollectServerSide(ctx context.Context, source MetricsSource, endpoint string, window time.Duration, interval time.Duration) (*ServerSide, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	out := &ServerSide{}
	for {
		complete := true
		for _, stat := range []struct {
			name  string
			value *float64
		}{
			{"p50", &out.P50},
			{"p90", &out.P90},
			{"p99", &out.P99},
		} {
			res, err := source.QueryMetrics(ctx, platform.MetricsQuery{
				Endpoint:  endpoint,
				Metric:    "ModelLatency",
				Statistic: stat.name,
				Window:    window,
			})
			if err != nil {
				return nil, fmt.Errorf("metrics %s: %w", stat.name, err)
			}
			if len(res.Datapoints) == 0 {
				complete = false
				continue
			}
			*stat.value = res.Datapoints[len(res.Datapoints)-1].Value
		}
		if complete {
			return out, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("monitoring datapoints not available: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

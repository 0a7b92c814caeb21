package mcp

import (
	"github.com/viant/esmtune/benchmark"
	"github.com/viant/esmtune/platform"
	"github.com/viant/esmtune/service"
)

type PredictInput struct {
	Endpoint    string   `json:"endpoint"`
	Sequence    string   `json:"sequence,omitempty"`
	Sequences   []string `json:"sequences,omitempty"`
	TopK        int      `json:"topK,omitempty"`
	Concurrency int      `json:"concurrency,omitempty"`
}

type PredictOutput struct {
	Results []service.PredictResult `json:"results"`
}

type ScoreInput struct {
	Endpoint  string   `json:"endpoint"`
	Sequence  string   `json:"sequence,omitempty"`
	Sequences []string `json:"sequences,omitempty"`
}

type ScoreOutput struct {
	Scores []service.SequenceScore `json:"scores"`
}

type BenchmarkInput struct {
	Endpoint       string   `json:"endpoint"`
	Sequences      []string `json:"sequences,omitempty"`
	Requests       int      `json:"requests,omitempty"`
	Concurrency    int      `json:"concurrency,omitempty"`
	TimeoutSeconds int      `json:"timeoutSeconds,omitempty"`
	ServerSide     bool     `json:"serverSide,omitempty"`
}

type BenchmarkOutput struct {
	RunID      string                `json:"runId,omitempty"`
	Summary    *benchmark.Summary    `json:"summary"`
	ServerSide *benchmark.ServerSide `json:"serverSide,omitempty"`
}

type EndpointsInput struct {
	Name string `json:"name,omitempty"`
}

type EndpointsOutput struct {
	Endpoints []platform.Endpoint `json:"endpoints"`
}

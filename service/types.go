package service

import (
	"time"

	"github.com/viant/esmtune/benchmark"
	"github.com/viant/esmtune/dataset"
	"github.com/viant/esmtune/inference"
	"github.com/viant/esmtune/lora"
	"github.com/viant/esmtune/platform"
)

// PrepareRequest defines inputs for dataset preparation.
type PrepareRequest struct {
	Name               string
	Source             string
	OutputURL          string
	CacheURL           string
	MaxLen             int
	MinSeqLen          int
	MaxSeqLen          int
	ValidationFraction float64
	Logf               func(format string, args ...any)
}

// PrepareResponse describes the prepared dataset.
type PrepareResponse struct {
	Manifest *dataset.Manifest
}

// TrainRequest defines inputs for submitting a fine-tuning job.
type TrainRequest struct {
	JobName      string
	DatasetURL   string // base URL of a prepared dataset (holds manifest.json)
	LoRA         *lora.Config
	OutputURL    string
	InstanceType string
	MaxRuntime   time.Duration
	Wait         bool
	PollInterval time.Duration
	Logf         func(format string, args ...any)
}

// TrainResponse carries the submitted (or finished, when waited for) job.
type TrainResponse struct {
	Job *platform.TrainingJob
}

// DeployRequest defines inputs for deploying a model endpoint.
type DeployRequest struct {
	EndpointName  string
	ModelDataURL  string
	JobName       string // resolve the artifact from a completed job when ModelDataURL is empty
	Compile       *lora.CompileSpec
	InstanceType  string
	InstanceCount int
	Wait          bool
	PollInterval  time.Duration
	Logf          func(format string, args ...any)
}

// DeployResponse carries the created endpoint.
type DeployResponse struct {
	Endpoint *platform.Endpoint
}

// PredictRequest defines inputs for endpoint invocation.
type PredictRequest struct {
	Endpoint    string
	Sequences   []string
	Concurrency int
	TopK        int
}

// PredictResult is one invocation outcome.
type PredictResult struct {
	Sequence   string
	Prediction inference.Prediction
	Top        []inference.TokenScore
}

// PredictResponse aligns results with the request sequences.
type PredictResponse struct {
	Results []PredictResult
}

// ScoreRequest defines inputs for sequence scoring.
type ScoreRequest struct {
	Endpoint  string
	Sequences []string
}

// SequenceScore is a masked-marginal score for one sequence.
type SequenceScore struct {
	Sequence         string
	PseudoPerplexity float64
}

// ScoreResponse carries per-sequence scores.
type ScoreResponse struct {
	Scores []SequenceScore
}

// BenchmarkRequest defines inputs for a load test against an endpoint.
type BenchmarkRequest struct {
	Endpoint      string
	Sequences     []string
	Source        string // optional FASTA file to draw inputs from
	Requests      int
	Concurrency   int
	Timeout       time.Duration
	ServerSide    bool // cross-check with the platform's monitoring metrics
	MetricsWindow time.Duration
	Logf          func(format string, args ...any)
}

// BenchmarkResponse carries client-side and optional server-side results.
type BenchmarkResponse struct {
	RunID      string
	Summary    *benchmark.Summary
	ServerSide *benchmark.ServerSide
}

// TeardownRequest defines inputs for endpoint removal.
type TeardownRequest struct {
	Endpoint string
	Logf     func(format string, args ...any)
}

// TeardownResponse reports the teardown outcome.
type TeardownResponse struct {
	Deleted bool
}

// EndpointsResponse lists endpoints visible to the caller.
type EndpointsResponse struct {
	Endpoints []platform.Endpoint
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/viant/esmtune/platform"
)

type fakePlatform struct {
	mu        sync.Mutex
	jobs      map[string]*platform.TrainingJob
	endpoints map[string]*platform.Endpoint
	// endpoints report Creating this many times before flipping to InService
	creatingPolls int
	invocations   int
}

func newFakePlatform() (*fakePlatform, *httptest.Server) {
	f := &fakePlatform{
		jobs:      map[string]*platform.TrainingJob{},
		endpoints: map[string]*platform.Endpoint{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/training-jobs", func(w http.ResponseWriter, r *http.Request) {
		var req platform.CreateTrainingJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		job := &platform.TrainingJob{
			Name:            req.Name,
			Status:          platform.JobInProgress,
			BaseModel:       req.BaseModel,
			Hyperparameters: req.Hyperparameters,
			TrainDataURL:    req.TrainDataURL,
			OutputURL:       req.OutputURL,
		}
		f.mu.Lock()
		f.jobs[req.Name] = job
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(job)
	})
	mux.HandleFunc("GET /v1/training-jobs/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		job, ok := f.jobs[r.PathValue("name")]
		f.mu.Unlock()
		if !ok {
			writeAPIError(w, http.StatusNotFound, "NotFound", "no such job")
			return
		}
		_ = json.NewEncoder(w).Encode(job)
	})
	mux.HandleFunc("POST /v1/endpoints", func(w http.ResponseWriter, r *http.Request) {
		var req platform.CreateEndpointRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ep := &platform.Endpoint{
			Name:          req.Name,
			Status:        platform.EndpointCreating,
			ModelDataURL:  req.ModelDataURL,
			InstanceType:  req.InstanceType,
			InstanceCount: req.InstanceCount,
			Compilation:   req.Compilation,
		}
		f.mu.Lock()
		f.endpoints[req.Name] = ep
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(ep)
	})
	mux.HandleFunc("GET /v1/endpoints", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		var endpoints []platform.Endpoint
		for _, ep := range f.endpoints {
			endpoints = append(endpoints, *ep)
		}
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"endpoints": endpoints})
	})
	mux.HandleFunc("GET /v1/endpoints/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ep, ok := f.endpoints[r.PathValue("name")]
		if ok {
			if f.creatingPolls > 0 {
				f.creatingPolls--
			} else {
				ep.Status = platform.EndpointInService
			}
		}
		f.mu.Unlock()
		if !ok {
			writeAPIError(w, http.StatusNotFound, "NotFound", "no such endpoint")
			return
		}
		_ = json.NewEncoder(w).Encode(ep)
	})
	mux.HandleFunc("DELETE /v1/endpoints/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		_, ok := f.endpoints[r.PathValue("name")]
		delete(f.endpoints, r.PathValue("name"))
		f.mu.Unlock()
		if !ok {
			writeAPIError(w, http.StatusNotFound, "NotFound", "no such endpoint")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /v1/endpoints/{name}/invocations", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.invocations++
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]float64{"L": 0.6, "K": 0.3, "M": 0.1})
	})
	mux.HandleFunc("GET /v1/metrics/query", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.MetricsResult{
			Metric:    r.URL.Query().Get("metric"),
			Statistic: r.URL.Query().Get("statistic"),
			Datapoints: []platform.MetricDatapoint{
				{Timestamp: time.Now(), Value: 12.5},
			},
		})
	})
	return f, httptest.NewServer(mux)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	dir := t.TempDir()
	cfg := &Config{
		Platform: PlatformConfig{BaseURL: baseURL, Token: "test-token"},
		Storage:  StorageConfig{BaseURL: filepath.Join(dir, "storage")},
		Model:    ModelConfig{Base: "esm2-t6-8m", MaxLen: 128},
		Endpoint: EndpointConfig{InstanceType: "accel.xlarge"},
		Store:    StoreConfig{DSN: filepath.Join(dir, "runs.sqlite")},
	}
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func writeFasta(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.fasta")
	var data []byte
	for i := 0; i < n; i++ {
		data = append(data, fmt.Sprintf(">seq%03d test\nMKTAYIAKQR\n", i)...)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPrepareAndTrain(t *testing.T) {
	_, server := newFakePlatform()
	defer server.Close()
	svc := newTestService(t, server.URL)
	ctx := context.Background()

	prepared, err := svc.Prepare(ctx, PrepareRequest{
		Source:             writeFasta(t, 20),
		Name:               "demo",
		ValidationFraction: 0.2,
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	m := prepared.Manifest
	if m.TrainCount+m.ValidationCount != 20 {
		t.Fatalf("expected 20 records, got %d train + %d validation", m.TrainCount, m.ValidationCount)
	}

	trained, err := svc.Train(ctx, TrainRequest{DatasetURL: m.BaseURL})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	job := trained.Job
	if job.Status != platform.JobInProgress {
		t.Fatalf("expected InProgress, got %s", job.Status)
	}
	if job.Hyperparameters["lora_r"] != "16" {
		t.Fatalf("expected preset rank 16, got %q", job.Hyperparameters["lora_r"])
	}
	if job.TrainDataURL != m.TrainURL {
		t.Fatalf("job train URL %q does not match manifest %q", job.TrainDataURL, m.TrainURL)
	}
}

func TestTrainRequiresDataset(t *testing.T) {
	_, server := newFakePlatform()
	defer server.Close()
	svc := newTestService(t, server.URL)
	if _, err := svc.Train(context.Background(), TrainRequest{}); err == nil {
		t.Fatal("expected error without dataset URL")
	}
}

func TestDeployWaitsForInService(t *testing.T) {
	fake, server := newFakePlatform()
	defer server.Close()
	fake.creatingPolls = 2
	svc := newTestService(t, server.URL)

	resp, err := svc.Deploy(context.Background(), DeployRequest{
		EndpointName: "ep-demo",
		ModelDataURL: "s3://bucket/models/demo/model.tar.gz",
		Wait:         true,
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if resp.Endpoint.Status != platform.EndpointInService {
		t.Fatalf("expected InService, got %s", resp.Endpoint.Status)
	}
	if resp.Endpoint.InstanceType != "accel.xlarge" {
		t.Fatalf("expected configured instance type, got %s", resp.Endpoint.InstanceType)
	}
	if resp.Endpoint.Compilation["compile_batch_size"] == "" {
		t.Fatal("expected compilation attributes from the default spec")
	}
}

func TestDeployFromJob(t *testing.T) {
	fake, server := newFakePlatform()
	defer server.Close()
	fake.jobs["job-1"] = &platform.TrainingJob{
		Name:         "job-1",
		Status:       platform.JobCompleted,
		ModelDataURL: "s3://bucket/models/job-1/model.tar.gz",
	}
	svc := newTestService(t, server.URL)

	resp, err := svc.Deploy(context.Background(), DeployRequest{
		EndpointName: "ep-from-job",
		JobName:      "job-1",
	})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if resp.Endpoint.ModelDataURL != "s3://bucket/models/job-1/model.tar.gz" {
		t.Fatalf("unexpected model data URL %q", resp.Endpoint.ModelDataURL)
	}

	fake.jobs["job-2"] = &platform.TrainingJob{Name: "job-2", Status: platform.JobInProgress}
	if _, err := svc.Deploy(context.Background(), DeployRequest{EndpointName: "ep2", JobName: "job-2"}); err == nil {
		t.Fatal("expected error for incomplete job")
	}
}

func TestPredictAndScore(t *testing.T) {
	_, server := newFakePlatform()
	defer server.Close()
	svc := newTestService(t, server.URL)
	ctx := context.Background()

	resp, err := svc.Predict(ctx, PredictRequest{
		Endpoint:  "ep-demo",
		Sequences: []string{"MKTAYIAKQR"},
		TopK:      2,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	top := resp.Results[0].Top
	if len(top) != 2 || top[0].Token != "L" {
		t.Fatalf("unexpected top tokens %+v", top)
	}

	scored, err := svc.Score(ctx, ScoreRequest{Endpoint: "ep-demo", Sequences: []string{"MKT"}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scored.Scores[0].PseudoPerplexity <= 0 {
		t.Fatalf("expected positive pseudo-perplexity, got %v", scored.Scores[0].PseudoPerplexity)
	}
}

func TestBenchmark(t *testing.T) {
	fake, server := newFakePlatform()
	defer server.Close()
	svc := newTestService(t, server.URL)

	resp, err := svc.Benchmark(context.Background(), BenchmarkRequest{
		Endpoint:    "ep-demo",
		Sequences:   []string{"MKTAYIAKQR", "GAVLIMFWP"},
		Requests:    10,
		Concurrency: 2,
		ServerSide:  true,
	})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if resp.Summary.Count != 10 {
		t.Fatalf("expected 10 requests, got %d", resp.Summary.Count)
	}
	if resp.Summary.Errors != 0 {
		t.Fatalf("expected no errors, got %d", resp.Summary.Errors)
	}
	if resp.RunID == "" {
		t.Fatal("expected a persisted run ID")
	}
	if resp.ServerSide == nil || resp.ServerSide.P50 != 12.5 {
		t.Fatalf("unexpected server-side metrics %+v", resp.ServerSide)
	}
	fake.mu.Lock()
	invocations := fake.invocations
	fake.mu.Unlock()
	if invocations < 10 {
		t.Fatalf("expected at least 10 invocations, got %d", invocations)
	}
}

func TestBenchmarkInputsFromFasta(t *testing.T) {
	_, server := newFakePlatform()
	defer server.Close()
	svc := newTestService(t, server.URL)

	resp, err := svc.Benchmark(context.Background(), BenchmarkRequest{
		Endpoint: "ep-demo",
		Source:   writeFasta(t, 5),
		Requests: 5,
	})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if resp.Summary.Count != 5 {
		t.Fatalf("expected 5 requests, got %d", resp.Summary.Count)
	}
}

func TestTeardownIdempotent(t *testing.T) {
	fake, server := newFakePlatform()
	defer server.Close()
	fake.endpoints["ep-demo"] = &platform.Endpoint{Name: "ep-demo", Status: platform.EndpointInService}
	svc := newTestService(t, server.URL)
	ctx := context.Background()

	if _, err := svc.Teardown(ctx, TeardownRequest{Endpoint: "ep-demo"}); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	// second delete hits a 404 and still succeeds
	resp, err := svc.Teardown(ctx, TeardownRequest{Endpoint: "ep-demo"})
	if err != nil {
		t.Fatalf("repeat teardown: %v", err)
	}
	if !resp.Deleted {
		t.Fatal("expected Deleted")
	}
}

func TestEndpoints(t *testing.T) {
	fake, server := newFakePlatform()
	defer server.Close()
	fake.endpoints["a"] = &platform.Endpoint{Name: "a", Status: platform.EndpointInService}
	svc := newTestService(t, server.URL)

	resp, err := svc.Endpoints(context.Background())
	if err != nil {
		t.Fatalf("endpoints: %v", err)
	}
	if len(resp.Endpoints) != 1 || resp.Endpoints[0].Name != "a" {
		t.Fatalf("unexpected endpoints %+v", resp.Endpoints)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/viant/esmtune/lora"
	"github.com/viant/esmtune/service"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "prepare":
		prepareCmd(os.Args[2:])
	case "train":
		trainCmd(os.Args[2:])
	case "deploy":
		deployCmd(os.Args[2:])
	case "predict":
		predictCmd(os.Args[2:])
	case "score":
		scoreCmd(os.Args[2:])
	case "benchmark":
		benchmarkCmd(os.Args[2:])
	case "endpoints":
		endpointsCmd(os.Args[2:])
	case "teardown":
		teardownCmd(os.Args[2:])
	case "runs":
		runsCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: esmtune <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  prepare    Tokenize FASTA input into training shards")
	fmt.Fprintln(os.Stderr, "  train      Submit a LoRA fine-tuning job")
	fmt.Fprintln(os.Stderr, "  deploy     Deploy a trained model as an endpoint")
	fmt.Fprintln(os.Stderr, "  predict    Invoke an endpoint with masked sequences")
	fmt.Fprintln(os.Stderr, "  score      Pseudo-perplexity of sequences against an endpoint")
	fmt.Fprintln(os.Stderr, "  benchmark  Load-test an endpoint and report latency percentiles")
	fmt.Fprintln(os.Stderr, "  endpoints  List deployed endpoints")
	fmt.Fprintln(os.Stderr, "  teardown   Delete an endpoint")
	fmt.Fprintln(os.Stderr, "  runs       Show recorded benchmark runs")
	fmt.Fprintln(os.Stderr, "  serve      Run the MCP server")
}

func prepareCmd(args []string) {
	flags := flag.NewFlagSet("prepare", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional, defaults to ~/.esmtune/config.yaml if present)")
	source := flags.String("source", "", "FASTA input path, '-' for stdin, .gz supported (required)")
	name := flags.String("name", "", "dataset name (defaults to the source file name)")
	output := flags.String("output", "", "output base URL (defaults to <storage>/datasets/<name>)")
	cache := flags.String("cache", "", "token cache URL reused across builds")
	maxLen := flags.Int("max-len", 0, "token truncation length (default from config)")
	minSeqLen := flags.Int("min-seq-len", 0, "drop sequences shorter than this many residues")
	maxSeqLen := flags.Int("max-seq-len", 0, "drop sequences longer than this many residues")
	validation := flags.Float64("validation", 0.1, "validation split fraction")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	if *source == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("prepare", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	resp, err := svc.Prepare(ctx, service.PrepareRequest{
		Name:               *name,
		Source:             *source,
		OutputURL:          *output,
		CacheURL:           *cache,
		MaxLen:             *maxLen,
		MinSeqLen:          *minSeqLen,
		MaxSeqLen:          *maxSeqLen,
		ValidationFraction: *validation,
		Logf:               log.Printf,
	})
	if err != nil {
		log.Fatalf("prepare: %v", err)
	}
	m := resp.Manifest
	fmt.Printf("dataset=%s base=%s train=%d validation=%d skipped=%d digest=%s\n",
		m.Name, m.BaseURL, m.TrainCount, m.ValidationCount, m.Skipped, m.TrainDigest)
}

func trainCmd(args []string) {
	flags := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	datasetURL := flags.String("dataset", "", "prepared dataset base URL (required)")
	jobName := flags.String("job", "", "training job name (generated when empty)")
	output := flags.String("output", "", "model output URL (defaults to <storage>/models/<job>)")
	baseModel := flags.String("base-model", "", "base model (default from config)")
	rank := flags.Int("rank", 0, "LoRA rank (default from preset)")
	alpha := flags.Int("alpha", 0, "LoRA alpha (default from preset)")
	dropout := flags.Float64("dropout", -1, "LoRA dropout (default from preset)")
	targets := flags.String("target-modules", "", "comma-separated target modules (default from preset)")
	epochs := flags.Int("epochs", 0, "training epochs (default from preset)")
	learningRate := flags.Float64("learning-rate", 0, "learning rate (default from preset)")
	batchSize := flags.Int("batch-size", 0, "training batch size (default from preset)")
	instanceType := flags.String("instance-type", "", "training instance type")
	maxRuntime := flags.Duration("max-runtime", 0, "maximum job runtime, e.g. 2h")
	wait := flags.Bool("wait", false, "block until the job reaches a terminal state")
	poll := flags.Duration("poll", 30*time.Second, "status poll interval when waiting")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	if *datasetURL == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("train", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	base := *baseModel
	if base == "" {
		base = svc.Config().Model.Base
	}
	tuning, err := lora.DefaultsFor(base)
	if err != nil {
		log.Fatalf("train: %v", err)
	}
	if *rank > 0 {
		tuning.Rank = *rank
	}
	if *alpha > 0 {
		tuning.Alpha = *alpha
	}
	if *dropout >= 0 {
		tuning.Dropout = *dropout
	}
	if *targets != "" {
		tuning.TargetModules = parseCSV(*targets)
	}
	if *epochs > 0 {
		tuning.Epochs = *epochs
	}
	if *learningRate > 0 {
		tuning.LearningRate = *learningRate
	}
	if *batchSize > 0 {
		tuning.BatchSize = *batchSize
	}

	resp, err := svc.Train(ctx, service.TrainRequest{
		JobName:      *jobName,
		DatasetURL:   *datasetURL,
		LoRA:         &tuning,
		OutputURL:    *output,
		InstanceType: *instanceType,
		MaxRuntime:   *maxRuntime,
		Wait:         *wait,
		PollInterval: *poll,
		Logf:         log.Printf,
	})
	if err != nil {
		log.Fatalf("train: %v", err)
	}
	job := resp.Job
	fmt.Printf("job=%s status=%s base=%s output=%s\n", job.Name, job.Status, job.BaseModel, job.OutputURL)
	if job.ModelDataURL != "" {
		fmt.Printf("model=%s\n", job.ModelDataURL)
	}
}

func deployCmd(args []string) {
	flags := flag.NewFlagSet("deploy", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	endpoint := flags.String("endpoint", "", "endpoint name (required)")
	modelData := flags.String("model-data", "", "model artifact URL")
	jobName := flags.String("job", "", "completed training job to deploy (alternative to --model-data)")
	instanceType := flags.String("instance-type", "", "serving instance type (default from config)")
	count := flags.Int("count", 0, "instance count (default from config)")
	batchSize := flags.Int("batch-size", 0, "compiled batch size (default 1)")
	seqLen := flags.Int("seq-len", 0, "compiled sequence length (default 512)")
	cores := flags.Int("cores", 0, "accelerator cores per replica (default 1)")
	precision := flags.String("precision", "", "compiled precision: fp32|fp16|bf16 (default bf16)")
	wait := flags.Bool("wait", false, "block until the endpoint is in service")
	poll := flags.Duration("poll", 15*time.Second, "status poll interval when waiting")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	if *endpoint == "" || (*modelData == "" && *jobName == "") {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("deploy", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	compile := lora.DefaultCompileSpec()
	if *batchSize > 0 {
		compile.BatchSize = *batchSize
	}
	if *seqLen > 0 {
		compile.SequenceLength = *seqLen
	}
	if *cores > 0 {
		compile.NumCores = *cores
	}
	if *precision != "" {
		compile.Precision = lora.Precision(*precision)
	}

	resp, err := svc.Deploy(ctx, service.DeployRequest{
		EndpointName:  *endpoint,
		ModelDataURL:  *modelData,
		JobName:       *jobName,
		Compile:       &compile,
		InstanceType:  *instanceType,
		InstanceCount: *count,
		Wait:          *wait,
		PollInterval:  *poll,
		Logf:          log.Printf,
	})
	if err != nil {
		log.Fatalf("deploy: %v", err)
	}
	ep := resp.Endpoint
	fmt.Printf("endpoint=%s status=%s instance=%s x%d\n", ep.Name, ep.Status, ep.InstanceType, ep.InstanceCount)
}

func predictCmd(args []string) {
	flags := flag.NewFlagSet("predict", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	endpoint := flags.String("endpoint", "", "endpoint name (required)")
	topK := flags.Int("top-k", 5, "top residues to report per sequence")
	concurrency := flags.Int("concurrency", 4, "parallel invocations")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	sequences := flags.Args()
	if *endpoint == "" || len(sequences) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: esmtune predict --endpoint <name> [options] <sequence>...")
		flags.PrintDefaults()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("predict", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	resp, err := svc.Predict(ctx, service.PredictRequest{
		Endpoint:    *endpoint,
		Sequences:   sequences,
		Concurrency: *concurrency,
		TopK:        *topK,
	})
	if err != nil {
		log.Fatalf("predict: %v", err)
	}
	for _, result := range resp.Results {
		fmt.Printf("sequence=%s\n", result.Sequence)
		for _, score := range result.Top {
			fmt.Printf("  %-8s %.4f\n", score.Token, score.Probability)
		}
	}
}

func scoreCmd(args []string) {
	flags := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	endpoint := flags.String("endpoint", "", "endpoint name (required)")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	sequences := flags.Args()
	if *endpoint == "" || len(sequences) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: esmtune score --endpoint <name> <sequence>...")
		flags.PrintDefaults()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("score", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	resp, err := svc.Score(ctx, service.ScoreRequest{Endpoint: *endpoint, Sequences: sequences})
	if err != nil {
		log.Fatalf("score: %v", err)
	}
	for _, score := range resp.Scores {
		fmt.Printf("ppl=%.4f sequence=%s\n", score.PseudoPerplexity, score.Sequence)
	}
}

func benchmarkCmd(args []string) {
	flags := flag.NewFlagSet("benchmark", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	endpoint := flags.String("endpoint", "", "endpoint name (required)")
	source := flags.String("source", "", "FASTA file to draw input sequences from")
	requests := flags.Int("requests", 100, "total requests to issue")
	concurrency := flags.Int("concurrency", 4, "concurrent workers")
	timeout := flags.Duration("timeout", 0, "per-request timeout, 0 disables")
	serverSide := flags.Bool("server-side", false, "cross-check with platform monitoring metrics")
	window := flags.Duration("window", 5*time.Minute, "monitoring metrics window")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	if *endpoint == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("benchmark", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	resp, err := svc.Benchmark(ctx, service.BenchmarkRequest{
		Endpoint:      *endpoint,
		Sequences:     flags.Args(),
		Source:        *source,
		Requests:      *requests,
		Concurrency:   *concurrency,
		Timeout:       *timeout,
		ServerSide:    *serverSide,
		MetricsWindow: *window,
		Logf:          log.Printf,
	})
	if err != nil {
		log.Fatalf("benchmark: %v", err)
	}
	fmt.Println(resp.Summary)
	if resp.ServerSide != nil {
		fmt.Printf("server-side ModelLatency p50=%.2f p90=%.2f p99=%.2f\n",
			resp.ServerSide.P50, resp.ServerSide.P90, resp.ServerSide.P99)
	}
	if resp.RunID != "" {
		fmt.Printf("run=%s\n", resp.RunID)
	}
}

func endpointsCmd(args []string) {
	flags := flag.NewFlagSet("endpoints", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("endpoints", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	resp, err := svc.Endpoints(ctx)
	if err != nil {
		log.Fatalf("endpoints: %v", err)
	}
	for _, ep := range resp.Endpoints {
		fmt.Printf("endpoint=%s status=%s instance=%s x%d model=%s\n",
			ep.Name, ep.Status, ep.InstanceType, ep.InstanceCount, ep.ModelDataURL)
	}
}

func teardownCmd(args []string) {
	flags := flag.NewFlagSet("teardown", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	endpoint := flags.String("endpoint", "", "endpoint name (required)")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	if *endpoint == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("teardown", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	if _, err := svc.Teardown(ctx, service.TeardownRequest{Endpoint: *endpoint, Logf: log.Printf}); err != nil {
		log.Fatalf("teardown: %v", err)
	}
}

func runsCmd(args []string) {
	flags := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	endpoint := flags.String("endpoint", "", "filter runs by endpoint")
	limit := flags.Int("limit", 20, "max runs to show")
	debugSleep := flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("runs", *debugSleep)

	svc := newService(*configPath)
	defer func() { _ = svc.Close() }()

	resp, err := svc.Runs(ctx, service.RunsRequest{Endpoint: *endpoint, Limit: *limit})
	if err != nil {
		log.Fatalf("runs: %v", err)
	}
	for _, run := range resp.Runs {
		fmt.Printf("run=%s endpoint=%s requests=%d errors=%d throughput=%.2f/s p50=%.2fms p99=%.2fms at=%s\n",
			run.ID, run.Endpoint, run.Requests, run.Errors, run.Throughput, run.P50Ms, run.P99Ms, run.CreatedAt)
	}
}

func newService(configPath string) *service.Service {
	cfg := loadConfig(configPath)
	svc, err := service.New(cfg, service.WithLogf(log.Printf))
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc
}

func loadConfig(configPath string) *service.Config {
	path := resolveConfigPath(configPath)
	if path == "" {
		cfg := &service.Config{}
		cfg.Init()
		return cfg
	}
	cfg, err := service.LoadConfig(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, ".esmtune", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func parseCSV(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func maybeDebugSleep(cmd string, seconds int) {
	if seconds <= 0 {
		seconds = debugSleepFromEnv()
	}
	if seconds <= 0 {
		return
	}
	log.Printf("debug: cmd=%s pid=%d sleep=%ds", cmd, os.Getpid(), seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

func debugSleepFromEnv() int {
	val := strings.TrimSpace(os.Getenv("ESMTUNE_DEBUG_SLEEP"))
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

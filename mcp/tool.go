package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/esmtune/service"
)

//go:embed tools/predict.md
var descPredict string

//go:embed tools/score.md
var descScore string

//go:embed tools/benchmark.md
var descBenchmark string

//go:embed tools/endpoints.md
var descEndpoints string

func registerTools(registry *protoserver.Registry, h *Handler) error {
	if err := protoserver.RegisterTool[*PredictInput, *PredictOutput](registry, "predict", descPredict, func(ctx context.Context, in *PredictInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.predict(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*ScoreInput, *ScoreOutput](registry, "score", descScore, func(ctx context.Context, in *ScoreInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.score(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*BenchmarkInput, *BenchmarkOutput](registry, "benchmark", descBenchmark, func(ctx context.Context, in *BenchmarkInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.benchmark(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*EndpointsInput, *EndpointsOutput](registry, "endpoints", descEndpoints, func(ctx context.Context, in *EndpointsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.endpoints(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	return nil
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	b, _ := json.Marshal(payload)
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: string(b)},
		},
		StructuredContent: map[string]any{"result": payload},
	}, nil
}

func (h *Handler) predict(ctx context.Context, in *PredictInput) (*PredictOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &PredictInput{}
	}
	sequences, err := resolveSequences(in.Sequence, in.Sequences)
	if err != nil {
		return nil, err
	}
	topK := in.TopK
	if topK == 0 {
		topK = 5
	}
	resp, err := h.service.Predict(ctx, service.PredictRequest{
		Endpoint:    in.Endpoint,
		Sequences:   sequences,
		Concurrency: in.Concurrency,
		TopK:        topK,
	})
	if err != nil {
		return nil, err
	}
	return &PredictOutput{Results: resp.Results}, nil
}

func (h *Handler) score(ctx context.Context, in *ScoreInput) (*ScoreOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &ScoreInput{}
	}
	sequences, err := resolveSequences(in.Sequence, in.Sequences)
	if err != nil {
		return nil, err
	}
	resp, err := h.service.Score(ctx, service.ScoreRequest{Endpoint: in.Endpoint, Sequences: sequences})
	if err != nil {
		return nil, err
	}
	return &ScoreOutput{Scores: resp.Scores}, nil
}

func (h *Handler) benchmark(ctx context.Context, in *BenchmarkInput) (*BenchmarkOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &BenchmarkInput{}
	}
	if len(in.Sequences) == 0 {
		return nil, fmt.Errorf("mcp: missing sequences")
	}
	resp, err := h.service.Benchmark(ctx, service.BenchmarkRequest{
		Endpoint:    in.Endpoint,
		Sequences:   in.Sequences,
		Requests:    in.Requests,
		Concurrency: in.Concurrency,
		Timeout:     time.Duration(in.TimeoutSeconds) * time.Second,
		ServerSide:  in.ServerSide,
	})
	if err != nil {
		return nil, err
	}
	return &BenchmarkOutput{RunID: resp.RunID, Summary: resp.Summary, ServerSide: resp.ServerSide}, nil
}

func (h *Handler) endpoints(ctx context.Context, in *EndpointsInput) (*EndpointsOutput, error) {
	if h == nil || h.service == nil {
		return nil, fmt.Errorf("mcp: service unavailable")
	}
	if in == nil {
		in = &EndpointsInput{}
	}
	resp, err := h.service.Endpoints(ctx)
	if err != nil {
		return nil, err
	}
	endpoints := resp.Endpoints
	if in.Name != "" {
		filtered := endpoints[:0]
		for _, ep := range endpoints {
			if ep.Name == in.Name {
				filtered = append(filtered, ep)
			}
		}
		endpoints = filtered
	}
	return &EndpointsOutput{Endpoints: endpoints}, nil
}

func resolveSequences(sequence string, sequences []string) ([]string, error) {
	if sequence != "" {
		sequences = append([]string{sequence}, sequences...)
	}
	if len(sequences) == 0 {
		return nil, fmt.Errorf("mcp: missing sequence")
	}
	return sequences, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/viant/esmtune/inference"
)

// Predict invokes an endpoint for each sequence and returns the token
// probability maps, optionally with top-k extraction.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if len(req.Sequences) == 0 {
		return nil, fmt.Errorf("at least one sequence is required")
	}
	client, err := s.invoker(ctx, req.Endpoint)
	if err != nil {
		return nil, err
	}
	predictions, err := client.PredictBatch(ctx, req.Sequences, req.Concurrency)
	if err != nil {
		return nil, err
	}
	results := make([]PredictResult, len(req.Sequences))
	for i, seq := range req.Sequences {
		results[i] = PredictResult{Sequence: seq, Prediction: predictions[i]}
		if req.TopK > 0 && predictions[i] != nil {
			results[i].Top = inference.TopK(predictions[i], req.TopK)
		}
	}
	return &PredictResponse{Results: results}, nil
}

// Score computes the masked-marginal pseudo-perplexity of each sequence
// against an endpoint. Lower is better.
func (s *Service) Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error) {
	if len(req.Sequences) == 0 {
		return nil, fmt.Errorf("at least one sequence is required")
	}
	client, err := s.invoker(ctx, req.Endpoint)
	if err != nil {
		return nil, err
	}
	scores := make([]SequenceScore, 0, len(req.Sequences))
	for _, seq := range req.Sequences {
		ppl, err := inference.PseudoPerplexity(ctx, client, seq)
		if err != nil {
			return nil, fmt.Errorf("score %q: %w", seq, err)
		}
		scores = append(scores, SequenceScore{Sequence: seq, PseudoPerplexity: ppl})
	}
	return &ScoreResponse{Scores: scores}, nil
}

package inference

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/viant/esmtune/tokenizer"
)

// probability floor before taking logs
const minProb = 1e-10

// TokenScore pairs a vocabulary token with its probability.
type TokenScore struct {
	Token       string  `json:"token"`
	Probability float64 `json:"probability"`
}

// TopK returns the k most probable tokens, ties broken lexicographically.
func TopK(pred Prediction, k int) []TokenScore {
	scores := make([]TokenScore, 0, len(pred))
	for tok, p := range pred {
		scores = append(scores, TokenScore{Token: tok, Probability: p})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Probability != scores[j].Probability {
			return scores[i].Probability > scores[j].Probability
		}
		return scores[i].Token < scores[j].Token
	})
	if k > 0 && k < len(scores) {
		scores = scores[:k]
	}
	return scores
}

// LogProb returns the log probability of a token, clamped at the floor so an
// absent token scores finitely.
func LogProb(pred Prediction, token string) float64 {
	p := pred[token]
	if p < minProb {
		p = minProb
	}
	return math.Log(p)
}

// Normalized reports whether probabilities sum to one within tolerance.
func Normalized(pred Prediction, tolerance float64) bool {
	var sum float64
	for _, p := range pred {
		sum += p
	}
	return math.Abs(sum-1) <= tolerance
}

// PseudoPerplexity computes the masked-marginal pseudo-perplexity of a
// sequence: each residue is masked in turn, the endpoint is queried, and the
// negative log probability of the true residue is averaged.
func PseudoPerplexity(ctx context.Context, client *Client, seq string) (float64, error) {
	seq = strings.ToUpper(strings.TrimSpace(seq))
	if seq == "" {
		return 0, fmt.Errorf("empty sequence")
	}
	var nll float64
	for i := 0; i < len(seq); i++ {
		masked := seq[:i] + tokenizer.MaskToken + seq[i+1:]
		pred, err := client.Predict(ctx, masked)
		if err != nil {
			return 0, fmt.Errorf("position %d: %w", i, err)
		}
		nll -= LogProb(pred, string(seq[i]))
	}
	return math.Exp(nll / float64(len(seq))), nil
}

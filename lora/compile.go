package lora

import (
	"fmt"
	"strconv"
)

// Precision enumerates numeric formats supported by the accelerator compiler.
type Precision string

const (
	PrecisionFP32 Precision = "fp32"
	PrecisionFP16 Precision = "fp16"
	PrecisionBF16 Precision = "bf16"
)

// supportedSeqLens lists sequence lengths the compiler produces fixed graphs
// for. Inputs are padded to the compiled length at serving time.
var supportedSeqLens = map[int]bool{128: true, 256: true, 512: true, 1024: true}

// CompileSpec describes how a tuned model is compiled into an
// accelerator-specific executable graph before deployment.
type CompileSpec struct {
	BatchSize      int       `yaml:"batchSize" json:"batchSize"`
	SequenceLength int       `yaml:"sequenceLength" json:"sequenceLength"`
	NumCores       int       `yaml:"numCores" json:"numCores"`
	Precision      Precision `yaml:"precision" json:"precision"`
	AutoCast       bool      `yaml:"autoCast" json:"autoCast"`
}

// DefaultCompileSpec returns the single-core serving default.
func DefaultCompileSpec() CompileSpec {
	return CompileSpec{
		BatchSize:      1,
		SequenceLength: 512,
		NumCores:       1,
		Precision:      PrecisionBF16,
		AutoCast:       true,
	}
}

// Validate checks the compilation parameters.
func (s *CompileSpec) Validate() error {
	if s.BatchSize <= 0 || s.BatchSize&(s.BatchSize-1) != 0 {
		return fmt.Errorf("batch size must be a positive power of two, got %d", s.BatchSize)
	}
	if !supportedSeqLens[s.SequenceLength] {
		return fmt.Errorf("unsupported sequence length %d (supported: 128, 256, 512, 1024)", s.SequenceLength)
	}
	if s.NumCores <= 0 {
		return fmt.Errorf("num cores must be positive, got %d", s.NumCores)
	}
	switch s.Precision {
	case PrecisionFP32, PrecisionFP16, PrecisionBF16:
	default:
		return fmt.Errorf("unsupported precision %q", s.Precision)
	}
	return nil
}

// Attributes flattens the spec to the string map attached to an endpoint
// deployment request.
func (s *CompileSpec) Attributes() map[string]string {
	return map[string]string{
		"compile_batch_size": strconv.Itoa(s.BatchSize),
		"compile_seq_len":    strconv.Itoa(s.SequenceLength),
		"compile_num_cores":  strconv.Itoa(s.NumCores),
		"compile_precision":  string(s.Precision),
		"compile_auto_cast":  strconv.FormatBool(s.AutoCast),
	}
}

// Package lora describes parameter-efficient fine-tuning and accelerator
// compilation settings for ESM-2 base models. Configs validate locally and
// serialize to the flat hyperparameter map the training platform expects.
package lora

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Config holds low-rank adaptation hyperparameters.
type Config struct {
	BaseModel     string   `yaml:"baseModel" json:"baseModel"`
	Rank          int      `yaml:"rank" json:"rank"`
	Alpha         int      `yaml:"alpha" json:"alpha"`
	Dropout       float64  `yaml:"dropout" json:"dropout"`
	TargetModules []string `yaml:"targetModules" json:"targetModules"`

	Epochs       int     `yaml:"epochs" json:"epochs"`
	LearningRate float64 `yaml:"learningRate" json:"learningRate"`
	BatchSize    int     `yaml:"batchSize" json:"batchSize"`
}

var knownTargetModules = map[string]bool{
	"query":        true,
	"key":          true,
	"value":        true,
	"dense":        true,
	"intermediate": true,
	"output":       true,
}

// basePresets maps ESM-2 checkpoints to adaptation defaults. Larger models
// tolerate smaller ranks; the 650M preset follows the published recipe.
var basePresets = map[string]Config{
	"esm2-t6-8m": {
		Rank: 16, Alpha: 32, Dropout: 0.05,
		TargetModules: []string{"query", "key", "value"},
		Epochs:        3, LearningRate: 3e-4, BatchSize: 16,
	},
	"esm2-t12-35m": {
		Rank: 16, Alpha: 32, Dropout: 0.05,
		TargetModules: []string{"query", "key", "value"},
		Epochs:        3, LearningRate: 3e-4, BatchSize: 8,
	},
	"esm2-t33-650m": {
		Rank: 8, Alpha: 16, Dropout: 0.1,
		TargetModules: []string{"query", "key", "value", "dense"},
		Epochs:        1, LearningRate: 1e-4, BatchSize: 4,
	},
}

// DefaultsFor returns the preset for a base model.
func DefaultsFor(baseModel string) (Config, error) {
	preset, ok := basePresets[strings.ToLower(strings.TrimSpace(baseModel))]
	if !ok {
		return Config{}, fmt.Errorf("no tuning preset for base model %q", baseModel)
	}
	preset.BaseModel = strings.ToLower(strings.TrimSpace(baseModel))
	return preset, nil
}

// BaseModels lists models with tuning presets.
func BaseModels() []string {
	out := make([]string, 0, len(basePresets))
	for name := range basePresets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks adaptation hyperparameters.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseModel) == "" {
		return fmt.Errorf("base model is required")
	}
	if c.Rank <= 0 {
		return fmt.Errorf("rank must be positive, got %d", c.Rank)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("alpha must be positive, got %d", c.Alpha)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("dropout must be in [0,1), got %v", c.Dropout)
	}
	if len(c.TargetModules) == 0 {
		return fmt.Errorf("at least one target module is required")
	}
	for _, m := range c.TargetModules {
		if !knownTargetModules[m] {
			return fmt.Errorf("unknown target module %q", m)
		}
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", c.LearningRate)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// Hyperparameters flattens the config to the string map used by the training
// job API.
func (c *Config) Hyperparameters() map[string]string {
	return map[string]string{
		"base_model":     c.BaseModel,
		"lora_r":         strconv.Itoa(c.Rank),
		"lora_alpha":     strconv.Itoa(c.Alpha),
		"lora_dropout":   strconv.FormatFloat(c.Dropout, 'g', -1, 64),
		"target_modules": strings.Join(c.TargetModules, ","),
		"epochs":         strconv.Itoa(c.Epochs),
		"learning_rate":  strconv.FormatFloat(c.LearningRate, 'g', -1, 64),
		"batch_size":     strconv.Itoa(c.BatchSize),
	}
}

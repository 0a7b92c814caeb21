package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultBaseModel = "esm2-t33-650m"

// Config defines project settings shared by the CLI, the MCP server and
// library callers.
type Config struct {
	Platform  PlatformConfig  `yaml:"platform"`
	Storage   StorageConfig   `yaml:"storage"`
	Model     ModelConfig     `yaml:"model"`
	Endpoint  EndpointConfig  `yaml:"endpoint"`
	Store     StoreConfig     `yaml:"store"`
	MCPServer MCPServerConfig `yaml:"mcpServer"`
}

// PlatformConfig defines control plane access.
type PlatformConfig struct {
	BaseURL     string `yaml:"baseURL"`
	Token       string `yaml:"token,omitempty"`
	TokenSecret string `yaml:"tokenSecret,omitempty"`
	Role        string `yaml:"role,omitempty"`
}

// StorageConfig defines where dataset shards and model artifacts live.
type StorageConfig struct {
	BaseURL string `yaml:"baseURL"`
}

// ModelConfig defines the base model and tokenization defaults.
type ModelConfig struct {
	Base   string `yaml:"base"`
	MaxLen int    `yaml:"maxLen"`
}

// EndpointConfig defines deployment defaults.
type EndpointConfig struct {
	InstanceType  string `yaml:"instanceType"`
	InstanceCount int    `yaml:"instanceCount"`
}

// StoreConfig defines the local run history database.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// MCPServerConfig defines MCP server settings.
type MCPServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// Init fills defaults for fields the config file omitted.
func (c *Config) Init() {
	if c.Model.Base == "" {
		c.Model.Base = defaultBaseModel
	}
	if c.Model.MaxLen == 0 {
		c.Model.MaxLen = 512
	}
	if c.Endpoint.InstanceCount == 0 {
		c.Endpoint.InstanceCount = 1
	}
}

// LoadConfig reads a project config from a yaml file.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Store.DSN != "" {
		expanded, err := expandUserPath(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		cfg.Store.DSN = expanded
	}
	cfg.Init()
	return &cfg, nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	if !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	return filepath.Join(home, trimmed[2:]), nil
}

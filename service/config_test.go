package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
platform:
  baseURL: https://platform.example.com
  tokenSecret: projects/demo/secrets/api-token
  role: arn:aws:iam::123456789012:role/esmtune
storage:
  baseURL: s3://demo-bucket/esmtune
model:
  base: esm2-t6-8m
endpoint:
  instanceType: accel.xlarge
store:
  dsn: /tmp/esmtune/runs.sqlite
mcpServer:
  port: 6161
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Platform.BaseURL != "https://platform.example.com" {
		t.Fatalf("unexpected base URL %q", cfg.Platform.BaseURL)
	}
	if cfg.Storage.BaseURL != "s3://demo-bucket/esmtune" {
		t.Fatalf("unexpected storage URL %q", cfg.Storage.BaseURL)
	}
	if cfg.Model.Base != "esm2-t6-8m" {
		t.Fatalf("unexpected base model %q", cfg.Model.Base)
	}
	// defaults fill omitted fields
	if cfg.Model.MaxLen != 512 {
		t.Fatalf("expected default max len 512, got %d", cfg.Model.MaxLen)
	}
	if cfg.Endpoint.InstanceCount != 1 {
		t.Fatalf("expected default instance count 1, got %d", cfg.Endpoint.InstanceCount)
	}
	if cfg.MCPServer.Port != 6161 {
		t.Fatalf("unexpected mcp port %d", cfg.MCPServer.Port)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestConfigInitDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Init()
	if cfg.Model.Base != defaultBaseModel {
		t.Fatalf("unexpected default base model %q", cfg.Model.Base)
	}
}

func TestExpandUserPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	expanded, err := expandUserPath("~/esmtune/runs.sqlite")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if expanded != filepath.Join(home, "esmtune", "runs.sqlite") {
		t.Fatalf("unexpected expansion %q", expanded)
	}
	plain, err := expandUserPath("/var/lib/esmtune.sqlite")
	if err != nil || plain != "/var/lib/esmtune.sqlite" {
		t.Fatalf("plain path changed: %q %v", plain, err)
	}
	if _, err := expandUserPath("~other/x"); err == nil {
		t.Fatal("expected error for ~user path")
	}
}

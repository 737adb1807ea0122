package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}

	if cfg.Pipeline.Concurrency != 3 {
		t.Errorf("concurrency=%d, want 3", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.DefaultFormat != "webp" {
		t.Errorf("default format=%q, want webp", cfg.Pipeline.DefaultFormat)
	}
	if cfg.Kafka.Enabled || cfg.Storage.Enabled {
		t.Errorf("kafka/storage enabled by default")
	}
	if cfg.Retry.Delay != time.Second {
		t.Errorf("retry delay=%v, want 1s", cfg.Retry.Delay)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
server:
  http_port: ":9090"
pipeline:
  concurrency: 8
  default_format: avif
kafka:
  enabled: true
  brokers: ["kafka:9092"]
  topic: uploads
retry:
  attempts: 5
  delay: 250ms
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}

	if cfg.Server.HTTPPort != ":9090" {
		t.Errorf("http port=%q", cfg.Server.HTTPPort)
	}
	if cfg.Pipeline.Concurrency != 3 {
		t.Errorf("concurrency=%d, want clamped to 3", cfg.Pipeline.Concurrency)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Topic != "uploads" {
		t.Errorf("kafka=%+v", cfg.Kafka)
	}
	if cfg.Kafka.EventsTopic != "image.processed" {
		t.Errorf("events topic=%q, want default", cfg.Kafka.EventsTopic)
	}
	if cfg.Retry.Attempts != 5 || cfg.Retry.Delay != 250*time.Millisecond {
		t.Errorf("retry=%+v", cfg.Retry)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("Load(missing) err=nil, want error")
	}
}

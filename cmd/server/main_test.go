package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sprov-ai/sprov-audio-service/internal/config"
	"github.com/sprov-ai/sprov-audio-service/internal/metrics"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	// The default path is relative and absent from this package directory.
	cfg, err := loadConfig(&CLI{Config: defaultConfigPath, APIKey: "from-env"}, false)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.HTTP.Port != 8000 || cfg.Transcription.APIKey != "from-env" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	_, err := loadConfig(&CLI{Config: filepath.Join(t.TempDir(), "missing.yaml"), APIKey: "k"}, false)
	if err == nil {
		t.Error("Expected an error for an explicit missing config file")
	}
}

func TestLoadConfigRequiresKeyUnlessModelDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("transcription:\n  mode: separate\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(&CLI{Config: path}, false); err == nil {
		t.Error("Expected validation error without an API key")
	}

	cfg, err := loadConfig(&CLI{Config: path}, true)
	if err != nil {
		t.Fatalf("loadConfig with model disabled failed: %v", err)
	}
	if cfg.Transcription.Enabled || cfg.Transcription.Mode != config.ModeSeparate {
		t.Errorf("Unexpected transcription config %+v", cfg.Transcription)
	}
}

func TestBuildService(t *testing.T) {
	logger := initLogger(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"})

	t.Run("with model", func(t *testing.T) {
		cfg := config.Default()
		cfg.Transcription.APIKey = "k"

		svc, client, err := buildService(cfg, metrics.NewMetrics(prometheus.NewRegistry()), logger)
		if err != nil {
			t.Fatalf("buildService failed: %v", err)
		}
		defer svc.Close()
		if client == nil {
			t.Fatal("Expected a model client")
		}
		if stats := svc.GetStats(); stats.Model == nil || stats.Pool.Workers != cfg.Audio.Workers {
			t.Errorf("Unexpected stats %+v", stats)
		}
	})

	t.Run("without model", func(t *testing.T) {
		cfg := config.Default()
		cfg.Transcription.Enabled = false

		svc, client, err := buildService(cfg, metrics.NewMetrics(prometheus.NewRegistry()), logger)
		if err != nil {
			t.Fatalf("buildService failed: %v", err)
		}
		defer svc.Close()
		if client != nil {
			t.Error("Expected no model client")
		}
	})

	t.Run("invalid analysis parameters", func(t *testing.T) {
		cfg := config.Default()
		cfg.Transcription.Enabled = false
		cfg.Analysis.HopLength = 0

		if _, _, err := buildService(cfg, metrics.NewMetrics(prometheus.NewRegistry()), logger); err == nil {
			t.Error("Expected an error for invalid analysis parameters")
		}
	})
}

package config_test

import (
	"os"
	"testing"

	"github.com/dfbb/qrscan/internal/config"
)

func TestLoad(t *testing.T) {
	cfg, err := config.Load("../../testdata/config.yaml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Prefix != "#" {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, "#")
	}
	if cfg.Watch.PollEvery != "2s" {
		t.Errorf("Watch.PollEvery = %q, want %q", cfg.Watch.PollEvery, "2s")
	}
	if cfg.Channels.Telegram.Token != "test-token" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Channels.Telegram.Token, "test-token")
	}
}

func TestLoad_Defaults(t *testing.T) {
	f, _ := os.CreateTemp("", "*.yaml")
	f.WriteString("")
	f.Close()
	defer os.Remove(f.Name())

	cfg, err := config.Load(f.Name())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Prefix != "#" {
		t.Errorf("default Prefix = %q, want %q", cfg.Prefix, "#")
	}
	if cfg.Detect.GaussianSigma != 20.0 {
		t.Errorf("default Detect.GaussianSigma = %v, want 20.0", cfg.Detect.GaussianSigma)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Anthropic.Model != "sonnet" {
		t.Errorf("expected default model 'sonnet', got %q", cfg.Anthropic.Model)
	}

	if cfg.Crew.OutputDir != "output" {
		t.Errorf("expected output dir 'output', got %q", cfg.Crew.OutputDir)
	}

	if cfg.Crew.MaxIterations != 25 {
		t.Errorf("expected max iterations 25, got %d", cfg.Crew.MaxIterations)
	}

	if cfg.Trading.InitialBalance != 10000 {
		t.Errorf("expected initial balance 10000, got %v", cfg.Trading.InitialBalance)
	}

	if cfg.Trading.Spread != 0.002 {
		t.Errorf("expected spread 0.002, got %v", cfg.Trading.Spread)
	}

	if !cfg.Trading.RunWhenClosed {
		t.Error("expected trading.run_when_closed to be true")
	}

	if cfg.Bedrock.Enabled {
		t.Error("expected bedrock to be disabled")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: opus
bedrock:
  enabled: true
  region: eu-west-1
crew:
  agents_config: lab/agents.yaml
  output_dir: build
  timeout: 5m
trading:
  initial_balance: 2500
  run_when_closed: false
  cycle_timeout: 90s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Anthropic.Model != "opus" {
		t.Errorf("expected model 'opus', got %q", cfg.Anthropic.Model)
	}

	if !cfg.Bedrock.Enabled || cfg.Bedrock.Region != "eu-west-1" {
		t.Errorf("unexpected bedrock config: %+v", cfg.Bedrock)
	}

	if cfg.Crew.AgentsConfig != "lab/agents.yaml" {
		t.Errorf("expected agents_config 'lab/agents.yaml', got %q", cfg.Crew.AgentsConfig)
	}

	if cfg.Crew.OutputDir != "build" {
		t.Errorf("expected output_dir 'build', got %q", cfg.Crew.OutputDir)
	}

	if cfg.Crew.Timeout != 5*time.Minute {
		t.Errorf("expected crew timeout 5m, got %v", cfg.Crew.Timeout)
	}

	// Unset keys keep their defaults.
	if cfg.Crew.MaxIterations != 25 {
		t.Errorf("expected default max_iterations 25, got %d", cfg.Crew.MaxIterations)
	}

	if cfg.Trading.InitialBalance != 2500 {
		t.Errorf("expected initial balance 2500, got %v", cfg.Trading.InitialBalance)
	}

	if cfg.Trading.RunWhenClosed {
		t.Error("expected run_when_closed to be false")
	}

	if cfg.Trading.CycleTimeout != 90*time.Second {
		t.Errorf("expected cycle timeout 90s, got %v", cfg.Trading.CycleTimeout)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "expanded-value")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := "/custom/config/agentlabs"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, ".agentlabs.yaml")
	if err := os.WriteFile(want, []byte("crew:\n  output_dir: x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	orig, _ := os.Getwd()
	defer os.Chdir(orig)
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	got := findProjectConfig()
	// Resolve symlinks since TempDir may live under a symlinked path.
	gotEval, _ := filepath.EvalSymlinks(got)
	wantEval, _ := filepath.EvalSymlinks(want)
	if gotEval != wantEval {
		t.Errorf("findProjectConfig() = %q, want %q", got, want)
	}
}

package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/config"
)

func TestRunSingle_StartLineBeforeSetup(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("AGENTLABS_USE_BEDROCK", "false")

	oldEnv, oldDB := flagEnvFile, flagDBPath
	defer func() { flagEnvFile, flagDBPath = oldEnv, oldDB }()
	flagEnvFile = filepath.Join(dir, "missing.env")
	flagDBPath = filepath.Join(dir, "state.db")

	var buf bytes.Buffer
	err := runSingle(rootCmd, &buf)
	if !errors.Is(err, config.ErrNoAPIKey) {
		t.Fatalf("err = %v, want ErrNoAPIKey", err)
	}
	if buf.String() != "🏁 Starting Lab 3 Trading Floor Test\n" {
		t.Errorf("output = %q, want only the start line", buf.String())
	}
}

func TestPrintUsage(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	tracker := api.NewTokenTracker()
	printUsage(&buf, tracker)
	if buf.Len() != 0 {
		t.Errorf("no calls should print nothing, got %q", buf.String())
	}

	tracker.Add(anthropic.ModelClaudeHaiku4_5_20251001, 1000, 200)
	printUsage(&buf, tracker)
	if !strings.Contains(buf.String(), "Usage: 1 calls, 1000 in / 200 out tokens") {
		t.Errorf("output = %q", buf.String())
	}
}

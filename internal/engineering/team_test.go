package engineering

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ShayCichocki/agentlabs/internal/crew"
	"github.com/ShayCichocki/agentlabs/pkg/models"
)

type scriptedRunner struct {
	requests []crew.RunRequest
	err      error
}

func (s *scriptedRunner) Run(ctx context.Context, req crew.RunRequest) (*crew.RunResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	out := "# Calculator design"
	if len(s.requests) == 2 {
		out = "class Calculator:\n    def add(self, a, b):\n        return a + b\n"
	}
	return &crew.RunResult{Output: out, Usage: models.UsageMetrics{InputTokens: 20, OutputTokens: 10, Requests: 1}}, nil
}

func TestNewSimpleTeam_Defaults(t *testing.T) {
	team, err := NewSimpleTeam(TeamConfig{
		AgentsConfig: filepath.Join(t.TempDir(), "missing.yaml"),
		Runner:       &scriptedRunner{},
	})
	if err != nil {
		t.Fatalf("NewSimpleTeam: %v", err)
	}

	if !team.Lead.Verbose || !team.Engineer.Verbose {
		t.Error("both agents should be verbose")
	}
	if team.Engineer.AllowCodeExecution {
		t.Error("backend engineer must have code execution disabled")
	}
	if team.Design.Agent != team.Lead || team.Code.Agent != team.Engineer {
		t.Error("tasks bound to the wrong agents")
	}

	c := team.Crew()
	if c.Process != models.ProcessSequential || !c.Verbose {
		t.Errorf("crew process=%s verbose=%v", c.Process, c.Verbose)
	}
	if len(c.Tasks) != 2 || c.Tasks[0].Name != DesignTask || c.Tasks[1].Name != CodeTask {
		t.Errorf("task order wrong: %v", c.Tasks)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestNewSimpleTeam_CodeExecutionStaysDisabled(t *testing.T) {
	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.yaml")
	if err := os.WriteFile(agents, []byte(`
engineering_lead:
  role: Lead
  goal: Design {module_name}
  backstory: Experienced.
backend_engineer:
  role: Engineer
  goal: Build {class_name}
  backstory: Careful.
  allow_code_execution: true
`), 0644); err != nil {
		t.Fatal(err)
	}

	team, err := NewSimpleTeam(TeamConfig{AgentsConfig: agents, Runner: &scriptedRunner{}})
	if err != nil {
		t.Fatalf("NewSimpleTeam: %v", err)
	}
	if team.Engineer.AllowCodeExecution {
		t.Error("code execution should be forced off")
	}
	if team.Lead.Config.Role != "Lead" {
		t.Errorf("custom agents not loaded: %+v", team.Lead.Config)
	}
}

func TestNewSimpleTeam_Errors(t *testing.T) {
	if _, err := NewSimpleTeam(TeamConfig{}); err == nil {
		t.Error("expected error without runner")
	}

	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.yaml")
	os.WriteFile(agents, []byte("engineering_lead:\n  role: Lead\n"), 0644)
	_, err := NewSimpleTeam(TeamConfig{AgentsConfig: agents, Runner: &scriptedRunner{}})
	if !errors.Is(err, crew.ErrUnknownAgent) {
		t.Errorf("err = %v, want ErrUnknownAgent", err)
	}

	tasks := filepath.Join(dir, "tasks.yaml")
	os.WriteFile(tasks, []byte("design_task:\n  description: Design\n  agent: engineering_lead\n"), 0644)
	_, err = NewSimpleTeam(TeamConfig{TasksConfig: tasks, Runner: &scriptedRunner{}})
	if !errors.Is(err, crew.ErrUnknownTask) {
		t.Errorf("err = %v, want ErrUnknownTask", err)
	}
}

func TestDefaultInputs(t *testing.T) {
	in := DefaultInputs()
	if in["module_name"] != "calculator" || in["class_name"] != "Calculator" {
		t.Errorf("DefaultInputs = %v", in)
	}
	if !strings.HasPrefix(in["requirements"], "Create a simple calculator") {
		t.Errorf("requirements = %q", in["requirements"])
	}
}

func TestRunSmokeTest(t *testing.T) {
	color.NoColor = true

	t.Run("success", func(t *testing.T) {
		runner := &scriptedRunner{}
		outDir := t.TempDir()
		team, err := NewSimpleTeam(TeamConfig{Runner: runner, OutputDir: outDir})
		if err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		if ok := RunSmokeTest(context.Background(), &buf, team, DefaultInputs()); !ok {
			t.Fatalf("RunSmokeTest failed:\n%s", buf.String())
		}

		out := buf.String()
		for _, want := range []string{
			"🧪 Testing Lab 2 CrewAI Engineering Team (without Docker)",
			"✅ Lab 2 CrewAI test completed successfully!",
			"📄 Result: class Calculator:",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		if len(runner.requests) != 2 {
			t.Fatalf("runner called %d times", len(runner.requests))
		}
		if !strings.Contains(runner.requests[0].Prompt, "add, subtract, multiply and divide") {
			t.Errorf("requirements not interpolated: %q", runner.requests[0].Prompt)
		}
		if runner.requests[1].Tools != nil {
			t.Error("backend engineer received tools")
		}
		if _, err := os.Stat(filepath.Join(outDir, "calculator.py")); err != nil {
			t.Errorf("code output not written: %v", err)
		}
		if _, err := os.Stat(filepath.Join(outDir, "calculator_design.md")); err != nil {
			t.Errorf("design output not written: %v", err)
		}
	})

	t.Run("failure", func(t *testing.T) {
		team, err := NewSimpleTeam(TeamConfig{Runner: &scriptedRunner{err: errors.New("rate limited")}, OutputDir: t.TempDir()})
		if err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		if ok := RunSmokeTest(context.Background(), &buf, team, DefaultInputs()); ok {
			t.Fatal("expected failure")
		}
		if !strings.Contains(buf.String(), "❌ Lab 2 test failed: ") || !strings.Contains(buf.String(), "rate limited") {
			t.Errorf("failure output = %q", buf.String())
		}
	})
}

package crew

import (
	"os"
	"path/filepath"
	"testing"
)

const testAgentsYAML = `
engineering_lead:
  role: Engineering Lead for {module_name}
  goal: Design {class_name}
  backstory: Seasoned lead.
  llm: gpt-4o-mini
  verbose: true
backend_engineer:
  role: Python Engineer
  goal: Implement the design
  backstory: Writes clean code.
  max_iter: 5
`

const testTasksYAML = `
design_task:
  description: Design {module_name}
  expected_output: A design document
  agent: engineering_lead
  output_file: "{module_name}_design.md"
code_task:
  description: Implement {class_name}
  expected_output: Python code
  agent: backend_engineer
  context:
    - design_task
`

func TestLoadAgentConfigs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	if err := os.WriteFile(path, []byte(testAgentsYAML), 0644); err != nil {
		t.Fatal(err)
	}

	agents, err := LoadAgentConfigs(path)
	if err != nil {
		t.Fatalf("LoadAgentConfigs: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("got %d agents, want 2", len(agents))
	}

	lead := agents["engineering_lead"]
	if lead.LLM != "gpt-4o-mini" || !lead.Verbose {
		t.Errorf("engineering_lead = %+v", lead)
	}
	if be := agents["backend_engineer"]; be.MaxIter != 5 || be.AllowCodeExecution {
		t.Errorf("backend_engineer = %+v", be)
	}
}

func TestLoadTaskConfigs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(testTasksYAML), 0644); err != nil {
		t.Fatal(err)
	}

	tasks, err := LoadTaskConfigs(path)
	if err != nil {
		t.Fatalf("LoadTaskConfigs: %v", err)
	}
	code := tasks["code_task"]
	if code.Agent != "backend_engineer" || len(code.Context) != 1 || code.Context[0] != "design_task" {
		t.Errorf("code_task = %+v", code)
	}
	if tasks["design_task"].OutputFile != "{module_name}_design.md" {
		t.Errorf("design_task output_file = %q", tasks["design_task"].OutputFile)
	}
}

func TestLoadConfigs_Errors(t *testing.T) {
	if _, err := LoadAgentConfigs(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ParseAgentConfigs([]byte("lead:\n  goal: no role\n")); err == nil {
		t.Error("expected error for agent without role")
	}
	if _, err := ParseTaskConfigs([]byte("t:\n  agent: lead\n")); err == nil {
		t.Error("expected error for task without description")
	}
	if _, err := ParseTaskConfigs([]byte("not: [valid")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

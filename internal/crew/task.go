package crew

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// Task is a unit of work bound to the agent that performs it.
type Task struct {
	// Name is the task's key in tasks.yaml.
	Name   string
	Config models.TaskConfig
	Agent  *Agent
}

// NewTask binds a task definition to an agent.
func NewTask(name string, cfg models.TaskConfig, agent *Agent) *Task {
	return &Task{Name: name, Config: cfg, Agent: agent}
}

// interpolated returns a copy of the definition with inputs substituted.
func (t *Task) interpolated(inputs map[string]string) (models.TaskConfig, error) {
	cfg := t.Config
	var err error
	if cfg.Description, err = Interpolate(cfg.Description, inputs); err != nil {
		return cfg, fmt.Errorf("description: %w", err)
	}
	if cfg.ExpectedOutput, err = Interpolate(cfg.ExpectedOutput, inputs); err != nil {
		return cfg, fmt.Errorf("expected_output: %w", err)
	}
	if cfg.OutputFile, err = Interpolate(cfg.OutputFile, inputs); err != nil {
		return cfg, fmt.Errorf("output_file: %w", err)
	}
	return cfg, nil
}

func buildTaskPrompt(cfg models.TaskConfig, prior []string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(cfg.Description))
	if exp := strings.TrimSpace(cfg.ExpectedOutput); exp != "" {
		sb.WriteString("\n\nThis is the expected criteria for your final answer: ")
		sb.WriteString(exp)
		sb.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	}
	if len(prior) > 0 {
		sb.WriteString("\n\nThis is the context you're working with:\n")
		sb.WriteString(strings.Join(prior, "\n\n----------\n\n"))
	}
	return sb.String()
}

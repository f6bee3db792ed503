package crew

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// LoadAgentConfigs reads an agents.yaml file keyed by agent name.
func LoadAgentConfigs(path string) (map[string]models.AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents config: %w", err)
	}
	return ParseAgentConfigs(data)
}

// ParseAgentConfigs parses agent definitions from YAML.
func ParseAgentConfigs(data []byte) (map[string]models.AgentConfig, error) {
	var agents map[string]models.AgentConfig
	if err := yaml.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("parse agents config: %w", err)
	}
	for name, a := range agents {
		if a.Role == "" {
			return nil, fmt.Errorf("agent %s: role is required", name)
		}
	}
	return agents, nil
}

// LoadTaskConfigs reads a tasks.yaml file keyed by task name.
func LoadTaskConfigs(path string) (map[string]models.TaskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks config: %w", err)
	}
	return ParseTaskConfigs(data)
}

// ParseTaskConfigs parses task definitions from YAML.
func ParseTaskConfigs(data []byte) (map[string]models.TaskConfig, error) {
	var tasks map[string]models.TaskConfig
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks config: %w", err)
	}
	for name, t := range tasks {
		if t.Description == "" {
			return nil, fmt.Errorf("task %s: description is required", name)
		}
	}
	return tasks, nil
}

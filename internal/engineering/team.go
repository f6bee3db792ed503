// Package engineering assembles the two-agent engineering team and runs its
// smoke test.
package engineering

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/ShayCichocki/agentlabs/internal/crew"
	"github.com/ShayCichocki/agentlabs/pkg/models"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Names used in agents.yaml and tasks.yaml.
const (
	CrewName        = "engineering_team"
	LeadAgent       = "engineering_lead"
	EngineerAgent   = "backend_engineer"
	DesignTask      = "design_task"
	CodeTask        = "code_task"
	defaultAgentsFS = "defaults/agents.yaml"
	defaultTasksFS  = "defaults/tasks.yaml"
)

// TeamConfig configures NewSimpleTeam.
type TeamConfig struct {
	// AgentsConfig and TasksConfig are YAML paths. A missing file falls back
	// to the built-in definitions.
	AgentsConfig string
	TasksConfig  string
	// Runner executes both agents.
	Runner crew.Runner
	// OutputDir receives the task output files.
	OutputDir string
	// Observer and Recorder are passed through to the crew.
	Observer crew.Observer
	Recorder crew.Recorder
}

// Team is the engineering lead plus a backend engineer working through a
// design task and a code task.
type Team struct {
	Lead     *crew.Agent
	Engineer *crew.Agent
	Design   *crew.Task
	Code     *crew.Task

	outputDir string
	observer  crew.Observer
	recorder  crew.Recorder
}

// NewSimpleTeam builds the team. Both agents are verbose; the backend engineer
// has code execution disabled.
func NewSimpleTeam(cfg TeamConfig) (*Team, error) {
	if cfg.Runner == nil {
		return nil, errors.New("engineering team requires a runner")
	}

	agentData, err := readConfig(cfg.AgentsConfig, defaultAgentsFS)
	if err != nil {
		return nil, err
	}
	agents, err := crew.ParseAgentConfigs(agentData)
	if err != nil {
		return nil, err
	}

	taskData, err := readConfig(cfg.TasksConfig, defaultTasksFS)
	if err != nil {
		return nil, err
	}
	tasks, err := crew.ParseTaskConfigs(taskData)
	if err != nil {
		return nil, err
	}

	leadCfg, err := lookupAgent(agents, LeadAgent)
	if err != nil {
		return nil, err
	}
	engCfg, err := lookupAgent(agents, EngineerAgent)
	if err != nil {
		return nil, err
	}
	designCfg, err := lookupTask(tasks, DesignTask)
	if err != nil {
		return nil, err
	}
	codeCfg, err := lookupTask(tasks, CodeTask)
	if err != nil {
		return nil, err
	}

	t := &Team{
		Lead:      crew.NewAgent(LeadAgent, leadCfg, cfg.Runner, crew.WithVerbose(true)),
		Engineer:  crew.NewAgent(EngineerAgent, engCfg, cfg.Runner, crew.WithVerbose(true), crew.WithCodeExecution(false)),
		outputDir: cfg.OutputDir,
		observer:  cfg.Observer,
		recorder:  cfg.Recorder,
	}
	members := map[string]*crew.Agent{LeadAgent: t.Lead, EngineerAgent: t.Engineer}
	t.Design = crew.NewTask(DesignTask, designCfg, assignee(members, designCfg.Agent, t.Lead))
	t.Code = crew.NewTask(CodeTask, codeCfg, assignee(members, codeCfg.Agent, t.Engineer))

	return t, nil
}

// Crew returns the sequential crew for this team.
func (t *Team) Crew() *crew.Crew {
	return &crew.Crew{
		Name:      CrewName,
		Agents:    []*crew.Agent{t.Lead, t.Engineer},
		Tasks:     []*crew.Task{t.Design, t.Code},
		Process:   models.ProcessSequential,
		Verbose:   true,
		OutputDir: t.outputDir,
		Observer:  t.observer,
		Recorder:  t.recorder,
	}
}

// SetObserver replaces the observer passed to future crews.
func (t *Team) SetObserver(o crew.Observer) {
	t.observer = o
}

// DefaultInputs returns the calculator inputs the smoke test kicks off with.
func DefaultInputs() map[string]string {
	return map[string]string{
		"requirements": "Create a simple calculator that can add, subtract, multiply and divide two numbers",
		"module_name":  "calculator",
		"class_name":   "Calculator",
	}
}

func readConfig(path, fallback string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		log.Printf("[engineering] %s not found, using built-in definitions", path)
	}
	return defaultsFS.ReadFile(fallback)
}

// assignee resolves a task's agent field, defaulting when it is empty.
func assignee(members map[string]*crew.Agent, name string, fallback *crew.Agent) *crew.Agent {
	if a, ok := members[name]; ok {
		return a
	}
	return fallback
}

func lookupAgent(agents map[string]models.AgentConfig, name string) (models.AgentConfig, error) {
	a, ok := agents[name]
	if !ok {
		return a, fmt.Errorf("%w: %s", crew.ErrUnknownAgent, name)
	}
	return a, nil
}

func lookupTask(tasks map[string]models.TaskConfig, name string) (models.TaskConfig, error) {
	t, ok := tasks[name]
	if !ok {
		return t, fmt.Errorf("%w: %s", crew.ErrUnknownTask, name)
	}
	if t.Agent != "" && t.Agent != LeadAgent && t.Agent != EngineerAgent {
		return t, fmt.Errorf("task %s: %w: %s", name, crew.ErrUnknownAgent, t.Agent)
	}
	return t, nil
}

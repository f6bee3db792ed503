package crew

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// RunRequest is a single unit of work handed to a Runner.
type RunRequest struct {
	// System is the agent persona prompt.
	System string
	// Prompt is the task prompt, including any context.
	Prompt string
	// Model overrides the runner's default model when set.
	Model string
	// MaxIter caps model round-trips (0 = runner default).
	MaxIter int
	// Tools is nil for agents without code execution.
	Tools api.Toolset
}

// RunResult is what a Runner produced for a request.
type RunResult struct {
	Output string
	Usage  models.UsageMetrics
}

// Runner executes agent prompts against a model backend.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// LoopRunner runs requests through an api.AgentLoop.
type LoopRunner struct {
	client        *api.Client
	signals       *api.Signals
	maxIterations int
	onStream      func(api.StreamEvent)
}

// NewLoopRunner creates a Runner backed by client.
func NewLoopRunner(client *api.Client, signals *api.Signals, maxIterations int) *LoopRunner {
	return &LoopRunner{
		client:        client,
		signals:       signals,
		maxIterations: maxIterations,
	}
}

// SetStreamHandler forwards loop events to fn.
func (r *LoopRunner) SetStreamHandler(fn func(api.StreamEvent)) {
	r.onStream = fn
}

// Run implements Runner.
func (r *LoopRunner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	maxIter := req.MaxIter
	if maxIter == 0 {
		maxIter = r.maxIterations
	}

	loop := api.NewAgentLoop(api.AgentLoopConfig{
		Client:        r.client,
		Signals:       r.signals,
		MaxIterations: maxIter,
		Model:         req.Model,
	})
	if r.onStream != nil {
		loop.SetStreamHandler(r.onStream)
	}

	res, err := loop.Run(ctx, req.System, req.Prompt, req.Tools)
	if err != nil {
		return nil, err
	}
	return &RunResult{
		Output: res.Output,
		Usage: models.UsageMetrics{
			InputTokens:  res.TokensIn,
			OutputTokens: res.TokensOut,
			Requests:     res.Iterations,
			ToolCalls:    res.ToolCalls,
		},
	}, nil
}

// Agent is a crew member: a definition plus the runner that executes it.
type Agent struct {
	// Name is the agent's key in agents.yaml.
	Name   string
	Config models.AgentConfig
	// Verbose logs every step this agent takes.
	Verbose bool
	// AllowCodeExecution grants workspace tools rooted at WorkDir.
	AllowCodeExecution bool
	// WorkDir is the root for workspace tools (default: current directory).
	WorkDir string
	Runner  Runner
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithVerbose sets the agent's verbose flag.
func WithVerbose(v bool) AgentOption {
	return func(a *Agent) { a.Verbose = v }
}

// WithCodeExecution enables or disables workspace tools.
func WithCodeExecution(allow bool) AgentOption {
	return func(a *Agent) { a.AllowCodeExecution = allow }
}

// WithWorkDir roots the agent's workspace tools at dir.
func WithWorkDir(dir string) AgentOption {
	return func(a *Agent) { a.WorkDir = dir }
}

// NewAgent builds an agent from its definition. Flags in cfg are the defaults;
// options override them.
func NewAgent(name string, cfg models.AgentConfig, runner Runner, opts ...AgentOption) *Agent {
	a := &Agent{
		Name:               name,
		Config:             cfg,
		Verbose:            cfg.Verbose,
		AllowCodeExecution: cfg.AllowCodeExecution,
		Runner:             runner,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Role returns the agent's role with surrounding whitespace removed.
func (a *Agent) Role() string {
	return strings.TrimSpace(a.Config.Role)
}

// interpolated returns a copy of the definition with inputs substituted.
func (a *Agent) interpolated(inputs map[string]string) (models.AgentConfig, error) {
	cfg := a.Config
	var err error
	if cfg.Role, err = Interpolate(cfg.Role, inputs); err != nil {
		return cfg, fmt.Errorf("agent %s role: %w", a.Name, err)
	}
	if cfg.Goal, err = Interpolate(cfg.Goal, inputs); err != nil {
		return cfg, fmt.Errorf("agent %s goal: %w", a.Name, err)
	}
	if cfg.Backstory, err = Interpolate(cfg.Backstory, inputs); err != nil {
		return cfg, fmt.Errorf("agent %s backstory: %w", a.Name, err)
	}
	return cfg, nil
}

// tools returns the toolset for this agent, or nil without code execution.
func (a *Agent) tools() api.Toolset {
	if !a.AllowCodeExecution {
		return nil
	}
	dir := a.WorkDir
	if dir == "" {
		dir = "."
	}
	return api.NewWorkspaceTools(dir)
}

func buildSystemPrompt(cfg models.AgentConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s. %s\n", strings.TrimSpace(cfg.Role), strings.TrimSpace(cfg.Backstory))
	fmt.Fprintf(&sb, "Your personal goal is: %s", strings.TrimSpace(cfg.Goal))
	return sb.String()
}

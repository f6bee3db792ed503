// Package crew runs a sequence of agent tasks defined in YAML.
package crew

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// Recorder persists kickoff records. *state.DB implements it.
type Recorder interface {
	CreateCrewRun(run *models.CrewRun) error
	FinishCrewRun(run *models.CrewRun) error
}

// Crew is a set of agents working through tasks.
type Crew struct {
	// Name identifies the crew in run records.
	Name    string
	Agents  []*Agent
	Tasks   []*Task
	Process models.Process
	Verbose bool
	// OutputDir is the base for relative task output files.
	OutputDir string
	// Observer, when set, receives progress events.
	Observer Observer
	// Recorder, when set, stores each kickoff.
	Recorder Recorder
}

// Validate checks the crew can be kicked off: a supported process, every task
// assigned to a crew member, and context references that point at earlier
// tasks without cycles.
func (c *Crew) Validate() error {
	switch c.Process {
	case "", models.ProcessSequential:
	case models.ProcessHierarchical:
		return fmt.Errorf("%w: %s", ErrUnsupportedProcess, c.Process)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProcess, c.Process)
	}

	if len(c.Tasks) == 0 {
		return fmt.Errorf("%w: no tasks", ErrInvalidCrew)
	}

	members := make(map[*Agent]bool, len(c.Agents))
	for _, a := range c.Agents {
		members[a] = true
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	position := make(map[string]int, len(c.Tasks))
	for i, t := range c.Tasks {
		if t.Agent == nil {
			return fmt.Errorf("task %s: %w: none assigned", t.Name, ErrUnknownAgent)
		}
		if !members[t.Agent] {
			return fmt.Errorf("task %s: %w: %s is not a crew member", t.Name, ErrUnknownAgent, t.Agent.Name)
		}
		if t.Agent.Runner == nil {
			return fmt.Errorf("task %s: agent %s has no runner", t.Name, t.Agent.Name)
		}
		if err := g.AddVertex(t.Name); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return fmt.Errorf("%w: duplicate task %s", ErrInvalidCrew, t.Name)
			}
			return err
		}
		position[t.Name] = i
	}

	for _, t := range c.Tasks {
		for _, dep := range t.Config.Context {
			if _, ok := position[dep]; !ok {
				return fmt.Errorf("task %s context: %w: %s", t.Name, ErrUnknownTask, dep)
			}
			if err := g.AddEdge(dep, t.Name); err != nil {
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					return fmt.Errorf("%w: context of %s creates a cycle via %s", ErrInvalidCrew, t.Name, dep)
				}
				if errors.Is(err, graph.ErrEdgeAlreadyExists) {
					continue
				}
				return err
			}
			if position[dep] >= position[t.Name] {
				return fmt.Errorf("%w: task %s uses %s, which runs later", ErrInvalidCrew, t.Name, dep)
			}
		}
	}

	return nil
}

// Kickoff interpolates inputs into every agent and task, then runs the tasks
// in declared order. It stops at the first failure.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*models.CrewOutput, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkInputs(inputs); err != nil {
		return nil, err
	}

	run := &models.CrewRun{
		ID:     uuid.NewString(),
		Crew:   c.Name,
		Inputs: inputs,
	}
	if c.Recorder != nil {
		if err := c.Recorder.CreateCrewRun(run); err != nil {
			log.Printf("[crew] failed to record run start: %v", err)
		}
	}

	out, err := c.runSequential(ctx, inputs)

	c.emit(Event{Type: EventCrewCompleted, Output: out.String(), Error: err, Usage: usageOf(out), Total: len(c.Tasks)})

	if c.Recorder != nil {
		run.TokensUsed = usageOf(out).TotalTokens()
		if err != nil {
			run.Status = models.CrewRunFailed
			run.Error = err.Error()
		} else {
			run.Status = models.CrewRunSucceeded
			run.Result = out.Raw
		}
		if rerr := c.Recorder.FinishCrewRun(run); rerr != nil {
			log.Printf("[crew] failed to record run result: %v", rerr)
		}
	}

	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequiredInputs returns every placeholder used by the crew's agents and
// tasks, sorted.
func (c *Crew) RequiredInputs() []string {
	seen := make(map[string]bool)
	add := func(templates ...string) {
		for _, tpl := range templates {
			for _, name := range Placeholders(tpl) {
				seen[name] = true
			}
		}
	}
	for _, a := range c.Agents {
		add(a.Config.Role, a.Config.Goal, a.Config.Backstory)
	}
	for _, t := range c.Tasks {
		add(t.Config.Description, t.Config.ExpectedOutput, t.Config.OutputFile)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkInputs fails before any task runs when a placeholder has no input.
func (c *Crew) checkInputs(inputs map[string]string) error {
	var missing []string
	for _, name := range c.RequiredInputs() {
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Crew) runSequential(ctx context.Context, inputs map[string]string) (*models.CrewOutput, error) {
	out := &models.CrewOutput{}
	results := make(map[string]string, len(c.Tasks))

	for i, t := range c.Tasks {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		taskOut, err := c.runTask(ctx, i, t, inputs, results, out)
		if err != nil {
			c.emit(Event{Type: EventTaskFailed, Task: t.Name, Agent: t.Agent.Role(), Index: i, Total: len(c.Tasks), Error: err, Usage: out.Usage})
			return out, fmt.Errorf("task %s: %w", t.Name, err)
		}

		results[t.Name] = taskOut.Raw
		out.Tasks = append(out.Tasks, *taskOut)
		out.Usage.Add(taskOut.Usage)
		out.Raw = taskOut.Raw

		c.emit(Event{Type: EventTaskCompleted, Task: t.Name, Agent: taskOut.Agent, Index: i, Total: len(c.Tasks), Output: taskOut.Raw, Usage: out.Usage})
	}

	return out, nil
}

func (c *Crew) runTask(ctx context.Context, i int, t *Task, inputs, results map[string]string, out *models.CrewOutput) (*models.TaskOutput, error) {
	agentCfg, err := t.Agent.interpolated(inputs)
	if err != nil {
		return nil, err
	}
	taskCfg, err := t.interpolated(inputs)
	if err != nil {
		return nil, err
	}

	var prior []string
	if len(taskCfg.Context) > 0 {
		for _, dep := range taskCfg.Context {
			prior = append(prior, results[dep])
		}
	} else if out.Raw != "" {
		prior = append(prior, out.Raw)
	}

	verbose := c.Verbose || t.Agent.Verbose
	role := agentCfg.Role
	c.emit(Event{Type: EventTaskStarted, Task: t.Name, Agent: role, Index: i, Total: len(c.Tasks), Usage: out.Usage})
	if verbose {
		log.Printf("[crew] %s: starting task %s (%d/%d)", role, t.Name, i+1, len(c.Tasks))
	}

	taskOut := &models.TaskOutput{
		Name:        t.Name,
		Agent:       role,
		Description: taskCfg.Description,
		Status:      models.TaskStatusInProgress,
		StartedAt:   time.Now(),
	}

	res, err := t.Agent.Runner.Run(ctx, RunRequest{
		System:  buildSystemPrompt(agentCfg),
		Prompt:  buildTaskPrompt(taskCfg, prior),
		Model:   agentCfg.LLM,
		MaxIter: agentCfg.MaxIter,
		Tools:   t.Agent.tools(),
	})
	taskOut.CompletedAt = time.Now()
	if err != nil {
		return nil, err
	}

	taskOut.Raw = res.Output
	taskOut.Usage = res.Usage
	taskOut.Status = models.TaskStatusDone

	if taskCfg.OutputFile != "" {
		path, err := c.writeOutput(taskCfg.OutputFile, res.Output)
		if err != nil {
			return nil, err
		}
		taskOut.OutputFile = path
	}

	if verbose {
		log.Printf("[crew] %s: finished task %s in %s (%d tokens)", role, t.Name,
			taskOut.Duration().Round(time.Millisecond), res.Usage.TotalTokens())
	}
	return taskOut, nil
}

func (c *Crew) writeOutput(file, content string) (string, error) {
	path := file
	if !filepath.IsAbs(path) && c.OutputDir != "" {
		path = filepath.Join(c.OutputDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return path, nil
}

func (c *Crew) emit(e Event) {
	if c.Observer == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	c.Observer(e)
}

func usageOf(out *models.CrewOutput) models.UsageMetrics {
	if out == nil {
		return models.UsageMetrics{}
	}
	return out.Usage
}

package models

import "time"

// Process controls how a crew orders its tasks.
type Process string

const (
	// ProcessSequential runs tasks one after another in declared order.
	ProcessSequential Process = "sequential"
	// ProcessHierarchical delegates through a manager agent. Not supported.
	ProcessHierarchical Process = "hierarchical"
)

// Valid returns true if the process is a known value.
func (p Process) Valid() bool {
	switch p {
	case ProcessSequential, ProcessHierarchical:
		return true
	default:
		return false
	}
}

// UsageMetrics counts model usage.
type UsageMetrics struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	Requests     int   `json:"requests"`
	ToolCalls    int   `json:"tool_calls"`
}

// Add accumulates other into u.
func (u *UsageMetrics) Add(other UsageMetrics) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.Requests += other.Requests
	u.ToolCalls += other.ToolCalls
}

// TotalTokens returns input plus output tokens.
func (u UsageMetrics) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// CrewOutput is the result of a crew kickoff.
type CrewOutput struct {
	// Raw is the final task's output.
	Raw string `json:"raw"`
	// Tasks holds every task output in execution order.
	Tasks []TaskOutput `json:"tasks"`
	// Usage is the total usage across all tasks.
	Usage UsageMetrics `json:"usage"`
}

// String returns the raw output so a CrewOutput prints as its final answer.
func (o *CrewOutput) String() string {
	if o == nil {
		return ""
	}
	return o.Raw
}

// CrewRunStatus is the lifecycle state of a recorded kickoff.
type CrewRunStatus string

const (
	CrewRunRunning   CrewRunStatus = "running"
	CrewRunSucceeded CrewRunStatus = "succeeded"
	CrewRunFailed    CrewRunStatus = "failed"
)

// CrewRun is a persisted record of one kickoff.
type CrewRun struct {
	ID          string            `json:"id"`
	Crew        string            `json:"crew"`
	Inputs      map[string]string `json:"inputs"`
	Status      CrewRunStatus     `json:"status"`
	Result      string            `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	TokensUsed  int64             `json:"tokens_used"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

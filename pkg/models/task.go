package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskConfig is a task definition as it appears in tasks.yaml.
type TaskConfig struct {
	// Description is the instruction given to the agent.
	Description string `yaml:"description" json:"description"`
	// ExpectedOutput describes what a finished answer looks like.
	ExpectedOutput string `yaml:"expected_output" json:"expected_output"`
	// Agent is the name of the agent that performs the task.
	Agent string `yaml:"agent" json:"agent"`
	// OutputFile, when set, receives the task's raw output.
	OutputFile string `yaml:"output_file,omitempty" json:"output_file,omitempty"`
	// Context lists earlier tasks whose outputs are fed into this one.
	Context []string `yaml:"context,omitempty" json:"context,omitempty"`
}

// TaskOutput is the result of running a single task.
type TaskOutput struct {
	// Name is the task's key in tasks.yaml.
	Name string `json:"name"`
	// Agent is the role of the agent that produced the output.
	Agent string `json:"agent"`
	// Description is the interpolated task description.
	Description string `json:"description"`
	// Raw is the agent's final answer.
	Raw string `json:"raw"`
	// OutputFile is the path the output was written to, if any.
	OutputFile string `json:"output_file,omitempty"`
	// Status is the final task state.
	Status TaskStatus `json:"status"`
	// Usage is the token usage for this task.
	Usage UsageMetrics `json:"usage"`
	// StartedAt is when the task began.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the task finished.
	CompletedAt time.Time `json:"completed_at"`
}

// Duration returns how long the task ran.
func (o TaskOutput) Duration() time.Duration {
	if o.CompletedAt.IsZero() {
		return 0
	}
	return o.CompletedAt.Sub(o.StartedAt)
}

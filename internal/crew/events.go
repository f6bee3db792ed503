package crew

import (
	"time"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// EventType represents the type of crew event.
type EventType string

const (
	// EventTaskStarted indicates a task has been handed to its agent.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task produced its output.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed and the kickoff is stopping.
	EventTaskFailed EventType = "task_failed"
	// EventCrewCompleted indicates the kickoff has finished, successfully or not.
	EventCrewCompleted EventType = "crew_completed"
)

// Event is emitted to the crew observer as a kickoff progresses.
type Event struct {
	Type EventType
	// Task is the task name, empty for crew-level events.
	Task string
	// Agent is the role of the agent handling the task.
	Agent string
	// Index and Total locate the task in the run.
	Index int
	Total int
	// Output is the task or crew output on completion.
	Output string
	// Error is set for failures.
	Error error
	// Usage is the cumulative usage so far.
	Usage     models.UsageMetrics
	Timestamp time.Time
}

// Observer receives crew events. It is called synchronously from Kickoff.
type Observer func(Event)

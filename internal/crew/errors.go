package crew

import "errors"

var (
	// ErrUnknownAgent is returned when a task names an agent that is not in the crew.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrUnknownTask is returned when a context reference names no task.
	ErrUnknownTask = errors.New("unknown task")
	// ErrMissingInput is returned when a placeholder has no kickoff input.
	ErrMissingInput = errors.New("missing input")
	// ErrUnsupportedProcess is returned for any process other than sequential.
	ErrUnsupportedProcess = errors.New("unsupported process")
	// ErrInvalidCrew is returned for structural problems such as duplicate
	// task names or context cycles.
	ErrInvalidCrew = errors.New("invalid crew")
)

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

var (
	// ErrStopped is returned when a kill signal interrupts the loop.
	ErrStopped = errors.New("stop signal received")
	// ErrMaxIterations is returned when the model keeps calling tools past the limit.
	ErrMaxIterations = errors.New("max iterations reached")
)

// Toolset supplies tool schemas to the model and executes the calls it makes.
type Toolset interface {
	Definitions() []anthropic.ToolUnionParam
	Execute(ctx context.Context, name string, input json.RawMessage) ToolResult
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Content string
	IsError bool
}

// AgentLoop manages the API call and tool execution cycle.
type AgentLoop struct {
	client        *Client
	signals       *Signals
	onStream      func(StreamEvent)
	maxIterations int
	maxTokens     int64
	model         anthropic.Model
}

// StreamEvent represents an event during agent execution for streaming to UI.
type StreamEvent struct {
	Type    string // "text", "tool_use", "tool_result", "done", "error"
	Content string
	Tool    string
	Input   json.RawMessage
}

// LoopResult contains the results of an agent loop execution.
type LoopResult struct {
	Output     string
	TokensIn   int64
	TokensOut  int64
	ToolCalls  int
	Iterations int
	Stopped    bool // True if stopped by signal
}

// AgentLoopConfig contains configuration for the agent loop.
type AgentLoopConfig struct {
	Client  *Client
	Signals *Signals
	// MaxIterations is the max API calls before stopping (0 = 50).
	MaxIterations int
	// MaxTokens bounds each response (0 = 8192).
	MaxTokens int64
	// Model overrides the client's model when set.
	Model string
}

// NewAgentLoop creates a new agent loop with the given configuration.
func NewAgentLoop(cfg AgentLoopConfig) *AgentLoop {
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = 50
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	model := cfg.Client.Model()
	if cfg.Model != "" {
		model = cfg.Client.TranslateModel(ResolveModel(cfg.Model))
	}

	return &AgentLoop{
		client:        cfg.Client,
		signals:       cfg.Signals,
		maxIterations: maxIter,
		maxTokens:     maxTokens,
		model:         model,
	}
}

// Model returns the model this loop calls.
func (l *AgentLoop) Model() anthropic.Model {
	return l.model
}

// SetStreamHandler sets a callback for streaming events during execution.
func (l *AgentLoop) SetStreamHandler(fn func(StreamEvent)) {
	l.onStream = fn
}

func (l *AgentLoop) emit(event StreamEvent) {
	if l.onStream != nil {
		l.onStream(event)
	}
}

func (l *AgentLoop) stopped() bool {
	return l.signals != nil && l.signals.ShouldStop()
}

// Run executes the agent loop. A nil toolset makes it a plain completion.
func (l *AgentLoop) Run(ctx context.Context, systemPrompt, userPrompt string, tools Toolset) (*LoopResult, error) {
	result := &LoopResult{}

	var toolDefs []anthropic.ToolUnionParam
	if tools != nil {
		toolDefs = tools.Definitions()
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}

	for result.Iterations < l.maxIterations {
		result.Iterations++

		if l.stopped() {
			result.Stopped = true
			return result, ErrStopped
		}

		params := anthropic.MessageNewParams{
			Model:     l.model,
			MaxTokens: l.maxTokens,
			Messages:  messages,
			Tools:     toolDefs,
		}
		if systemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
		}

		resp, err := l.client.messages.New(ctx, params)
		if err != nil {
			l.emit(StreamEvent{Type: "error", Content: err.Error()})
			return result, fmt.Errorf("API call failed: %w", err)
		}

		result.TokensIn += resp.Usage.InputTokens
		result.TokensOut += resp.Usage.OutputTokens
		l.client.Tracker().Add(l.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				l.emit(StreamEvent{Type: "text", Content: variant.Text})
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				result.ToolCalls++
				l.emit(StreamEvent{Type: "tool_use", Tool: variant.Name, Input: variant.Input})
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				var toolResult ToolResult
				if tools == nil {
					toolResult = ToolResult{Content: fmt.Sprintf("Unknown tool: %s", variant.Name), IsError: true}
				} else {
					toolResult = tools.Execute(ctx, variant.Name, variant.Input)
				}
				l.emit(StreamEvent{Type: "tool_result", Tool: variant.Name, Content: truncateForDisplay(toolResult.Content)})

				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, toolResult.Content, toolResult.IsError))
			}
		}

		// Anything other than a tool round-trip ends the turn.
		if len(toolResultBlocks) == 0 || resp.StopReason == anthropic.StopReasonEndTurn {
			result.Output = textOutput
			l.emit(StreamEvent{Type: "done"})
			return result, nil
		}

		messages = append(messages,
			anthropic.NewAssistantMessage(assistantBlocks...),
			anthropic.NewUserMessage(toolResultBlocks...))
	}

	return result, fmt.Errorf("%w (%d)", ErrMaxIterations, l.maxIterations)
}

func truncateForDisplay(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}

// Package apitest provides scripted stand-ins for the Anthropic message API.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Creator replays canned responses and records every request it receives.
// When Handler is set it is consulted instead of Responses.
type Creator struct {
	mu        sync.Mutex
	Responses []*anthropic.Message
	Handler   func(call int, params anthropic.MessageNewParams) (*anthropic.Message, error)
	Calls     []anthropic.MessageNewParams
}

// New implements api.MessageCreator.
func (c *Creator) New(ctx context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	call := len(c.Calls)
	c.Calls = append(c.Calls, params)
	handler := c.Handler
	c.mu.Unlock()

	if handler != nil {
		return handler(call, params)
	}
	if call >= len(c.Responses) {
		return nil, fmt.Errorf("apitest: unexpected call %d", call+1)
	}
	return c.Responses[call], nil
}

// CallCount returns the number of requests seen so far.
func (c *Creator) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// Text builds an end_turn response containing text.
func Text(text string) *anthropic.Message {
	return build("end_turn", []map[string]interface{}{
		{"type": "text", "text": text},
	})
}

// ToolUse builds a tool_use response calling name with input.
func ToolUse(id, name string, input interface{}) *anthropic.Message {
	return build("tool_use", []map[string]interface{}{
		{"type": "tool_use", "id": id, "name": name, "input": input},
	})
}

func build(stop string, content []map[string]interface{}) *anthropic.Message {
	raw, err := json.Marshal(map[string]interface{}{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"content":     content,
		"stop_reason": stop,
		"usage": map[string]interface{}{
			"input_tokens":  10,
			"output_tokens": 5,
		},
	})
	if err != nil {
		panic(err)
	}

	var msg anthropic.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		panic(err)
	}
	return &msg
}

// SystemText returns the system prompt of a request.
func SystemText(params anthropic.MessageNewParams) string {
	var s string
	for _, b := range params.System {
		s += b.Text
	}
	return s
}

// FirstUserText returns the text of the opening user message.
func FirstUserText(params anthropic.MessageNewParams) string {
	if len(params.Messages) == 0 {
		return ""
	}
	var s string
	for _, block := range params.Messages[0].Content {
		if block.OfText != nil {
			s += block.OfText.Text
		}
	}
	return s
}

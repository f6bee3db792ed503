// Package api provides direct Anthropic API integration for crew agents and traders.
package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/ShayCichocki/agentlabs/internal/version"
	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// MessageCreator is the subset of the SDK's message service the loop needs.
// *anthropic.MessageService satisfies it; tests substitute scripted fakes.
type MessageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client wraps the Anthropic SDK client with token tracking.
type Client struct {
	inner    anthropic.Client
	messages MessageCreator
	model    anthropic.Model
	bedrock  bool
	tracker  *TokenTracker
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is a Claude model name or alias (haiku, sonnet, opus).
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// NewClient creates a new Anthropic API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	opts := []option.RequestOption{
		option.WithHeader("User-Agent", version.UserAgent()),
	}

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	c := &Client{
		inner:   anthropic.NewClient(opts...),
		bedrock: cfg.UseAWSBedrock,
		tracker: NewTokenTracker(),
	}
	c.messages = &c.inner.Messages
	c.model = c.TranslateModel(ResolveModel(cfg.Model))

	return c, nil
}

// NewClientWithCreator builds a Client around an existing message creator.
func NewClientWithCreator(messages MessageCreator, model string) *Client {
	return &Client{
		messages: messages,
		model:    ResolveModel(model),
		tracker:  NewTokenTracker(),
	}
}

// ResolveModel maps aliases and foreign model names onto a Claude model.
//
//	""/"sonnet" -> Sonnet 4.5, "haiku" -> Haiku 4.5, "opus" -> Opus 4.1
//	"anthropic/<model>" -> <model>
//	"claude-*" and Bedrock ids ("*anthropic.claude-*") pass through
//	anything else -> haiku for mini/nano/flash/lite variants, sonnet otherwise
func ResolveModel(name string) anthropic.Model {
	name = strings.TrimSpace(strings.TrimPrefix(name, "anthropic/"))
	lower := strings.ToLower(name)

	switch lower {
	case "", string(models.TierSonnet):
		return anthropic.ModelClaudeSonnet4_5_20250929
	case string(models.TierHaiku):
		return anthropic.ModelClaudeHaiku4_5_20251001
	case string(models.TierOpus):
		return anthropic.ModelClaudeOpus4_1_20250805
	}

	if strings.HasPrefix(lower, "claude") || strings.Contains(lower, "anthropic.claude") {
		return anthropic.Model(name)
	}

	target := anthropic.ModelClaudeSonnet4_5_20250929
	for _, small := range []string{"mini", "nano", "flash", "lite"} {
		if strings.Contains(lower, small) {
			target = anthropic.ModelClaudeHaiku4_5_20251001
			break
		}
	}
	log.Printf("[api] model %q is not a Claude model, using %s", name, target)
	return target
}

// TierOf classifies a model into a pricing tier.
func TierOf(model anthropic.Model) models.ModelTier {
	s := strings.ToLower(string(model))
	switch {
	case strings.Contains(s, "haiku"):
		return models.TierHaiku
	case strings.Contains(s, "opus"):
		return models.TierOpus
	default:
		return models.TierSonnet
	}
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock inference profile format.
// Bedrock uses cross-region inference profiles: us.anthropic.{model}-v1:0
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// Model returns the configured model name.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// TranslateModel translates a model name for Bedrock if this client uses Bedrock.
func (c *Client) TranslateModel(model anthropic.Model) anthropic.Model {
	if c.bedrock {
		return translateModelForBedrock(model)
	}
	return model
}

// TokenTracker tracks token usage and estimated cost across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
	cost      float64
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call made against model.
func (t *TokenTracker) Add(model anthropic.Model, input, output int64) {
	inPrice, outPrice := TierOf(model).Pricing()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
	t.cost += float64(input)/1_000_000*inPrice + float64(output)/1_000_000*outPrice
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Cost returns the estimated cost in USD.
func (t *TokenTracker) Cost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cost
}

// Summary formats calls, tokens and estimated cost for display.
func (t *TokenTracker) Summary() string {
	in, out := t.Total()
	return fmt.Sprintf("%d calls, %d in / %d out tokens, est. $%.4f", t.Calls(), in, out, t.Cost())
}

// Reset clears all tracked usage.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok = 0
	t.outputTok = 0
	t.calls = 0
	t.cost = 0
}

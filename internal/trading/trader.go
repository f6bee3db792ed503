package trading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/state"
)

// DefaultMaxTurns bounds model round-trips per cycle.
const DefaultMaxTurns = 30

// TraderDeps are the collaborators a Trader needs.
type TraderDeps struct {
	Client   *api.Client
	Accounts state.AccountStore
	Prices   PriceSource
	// Account seeds a newly created account. Its Prices field is ignored.
	Account AccountOptions
	// Tracing defaults to DefaultTracing().
	Tracing *Tracing
	Signals *api.Signals
	// MaxTurns caps model round-trips per cycle (0 = DefaultMaxTurns).
	MaxTurns int
	// Clock defaults to time.Now.
	Clock Clock
}

// Trader is an autonomous model managing one simulated account.
type Trader struct {
	Name     string
	Lastname string
	Model    string

	account *Account
	deps    TraderDeps
}

// NewTrader creates a trader and loads (or opens) its account, named after the
// trader in lower case.
func NewTrader(name, lastname, model string, deps TraderDeps) (*Trader, error) {
	if name == "" {
		return nil, errors.New("trader name is required")
	}
	if deps.Client == nil {
		return nil, errors.New("trader requires an api client")
	}
	if deps.Accounts == nil {
		return nil, errors.New("trader requires an account store")
	}
	if deps.Prices == nil {
		deps.Prices = RandomPrices{Now: deps.Clock}
	}
	if deps.Tracing == nil {
		deps.Tracing = DefaultTracing()
	}
	if deps.MaxTurns == 0 {
		deps.MaxTurns = DefaultMaxTurns
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	opts := deps.Account
	opts.Prices = deps.Prices
	account, err := LoadAccount(deps.Accounts, strings.ToLower(name), opts)
	if err != nil {
		return nil, fmt.Errorf("load account for %s: %w", name, err)
	}

	return &Trader{
		Name:     name,
		Lastname: lastname,
		Model:    model,
		account:  account,
		deps:     deps,
	}, nil
}

// Account returns the trader's account.
func (t *Trader) Account() *Account {
	return t.account
}

// NextCycleIsRebalance reports whether the next Run rebalances instead of
// looking for new trades. Cycles alternate, starting with trading.
func (t *Trader) NextCycleIsRebalance() bool {
	return t.account.Cycles()%2 == 1
}

// Run executes one trading cycle inside a trace.
func (t *Trader) Run(ctx context.Context) error {
	rebalance := t.NextCycleIsRebalance()
	kind := "trading"
	if rebalance {
		kind = "rebalancing"
	}

	trace := t.deps.Tracing.Start(t.Name, fmt.Sprintf("%s-%s", strings.ToLower(t.Name), kind))
	err := t.runCycle(ctx, trace, rebalance)
	trace.End(err)
	return err
}

func (t *Trader) runCycle(ctx context.Context, trace *ActiveTrace, rebalance bool) error {
	report, err := t.account.Report(ctx)
	if err != nil {
		return fmt.Errorf("account report: %w", err)
	}

	now := t.deps.Clock()
	var prompt string
	if rebalance {
		prompt = rebalanceMessage(t.Name, report, now)
	} else {
		prompt = tradeMessage(t.Name, report, now)
	}

	loop := api.NewAgentLoop(api.AgentLoopConfig{
		Client:        t.deps.Client,
		Signals:       t.deps.Signals,
		MaxIterations: t.deps.MaxTurns,
		Model:         t.Model,
	})

	var tool *ActiveSpan
	loop.SetStreamHandler(func(ev api.StreamEvent) {
		switch ev.Type {
		case "tool_use":
			tool = trace.StartSpan("function", ev.Tool)
			log.Printf("[trader] %s: %s", t.Name, api.FormatToolAction(ev.Tool, ev.Input))
		case "tool_result":
			if tool != nil {
				tool.End(nil)
				tool = nil
			}
		}
	})

	span := trace.StartSpan("agent", t.Name)
	res, err := loop.Run(ctx, instructions(t.Name, report.Strategy), prompt, NewTraderTools(t.account))
	span.End(err)
	if err != nil {
		return err
	}

	n, err := t.account.CompleteCycle()
	if err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}
	log.Printf("[trader] %s: cycle %d done (%d tool calls, %d tokens)", t.Name, n, res.ToolCalls, res.TokensIn+res.TokensOut)
	return nil
}

func instructions(name, strategy string) string {
	return fmt.Sprintf(`You are %[1]s, a trader on the stock market. Your account is under your name, %[1]s.
You actively manage your portfolio according to your strategy.
You have tools to look up share prices, to buy and sell shares, to read your account report and to change your strategy.
Your investment strategy is:
%[2]s
Trades pay a small spread: buys execute slightly above the quoted price and sells slightly below.
After you have finished trading, reply with a brief summary of the trades you made and your outlook.`, name, strategy)
}

func tradeMessage(name string, report *Report, now time.Time) string {
	return fmt.Sprintf(`Based on your investment strategy, you should now look for new opportunities.
Look up prices for the stocks you are interested in, then make trades with your account name %s.
You do not have to make any trades if nothing fits your strategy.

Your current holdings and balance:
%s

The current datetime is %s.
Now carry out analysis and make your portfolio management decisions.`, name, report.JSON(), now.Format(time.DateTime))
}

func rebalanceMessage(name string, report *Report, now time.Time) string {
	return fmt.Sprintf(`Based on your investment strategy, you should now examine your portfolio and decide if you need to rebalance.
Look up prices for your current holdings, then sell or buy with your account name %s.
You may change your strategy if you decide it needs to evolve.

Your current holdings and balance:
%s

The current datetime is %s.
Now review your existing positions and rebalance as needed.`, name, report.JSON(), now.Format(time.DateTime))
}

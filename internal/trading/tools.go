package trading

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/agentlabs/internal/api"
)

// Tool names exposed to trader models.
const (
	ToolLookupPrice    = "lookup_share_price"
	ToolBuyShares      = "buy_shares"
	ToolSellShares     = "sell_shares"
	ToolAccountReport  = "get_account_report"
	ToolChangeStrategy = "change_strategy"
)

// TraderTools gives a model access to one account.
type TraderTools struct {
	account *Account
	prices  PriceSource
}

// NewTraderTools creates the toolset for account.
func NewTraderTools(account *Account) *TraderTools {
	return &TraderTools{account: account, prices: account.prices}
}

// Definitions implements api.Toolset.
func (t *TraderTools) Definitions() []anthropic.ToolUnionParam {
	trade := map[string]api.Prop{
		"symbol":    {Type: "string", Description: "The ticker symbol of the stock"},
		"quantity":  {Type: "integer", Description: "The number of shares"},
		"rationale": {Type: "string", Description: "Why this trade fits the strategy"},
	}
	return []anthropic.ToolUnionParam{
		api.NewTool(ToolLookupPrice, "Look up the current price of a share.", map[string]api.Prop{
			"symbol": {Type: "string", Description: "The ticker symbol of the stock"},
		}, "symbol"),
		api.NewTool(ToolBuyShares, "Buy shares of a stock. The price includes the spread.", trade, "symbol", "quantity", "rationale"),
		api.NewTool(ToolSellShares, "Sell shares of a stock held in the account.", trade, "symbol", "quantity", "rationale"),
		api.NewTool(ToolAccountReport, "Get the account's cash balance, holdings, strategy, profit and loss, and recent transactions.", map[string]api.Prop{}),
		api.NewTool(ToolChangeStrategy, "Change the account's investment strategy.", map[string]api.Prop{
			"strategy": {Type: "string", Description: "The new strategy"},
		}, "strategy"),
	}
}

type tradeInput struct {
	Symbol    string `json:"symbol"`
	Quantity  int    `json:"quantity"`
	Rationale string `json:"rationale"`
}

// Execute implements api.Toolset. Domain failures are returned to the model as
// error results rather than aborting the run.
func (t *TraderTools) Execute(ctx context.Context, name string, input json.RawMessage) api.ToolResult {
	switch name {
	case ToolLookupPrice:
		var in struct {
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return invalid(err)
		}
		p, err := t.prices.Price(ctx, in.Symbol)
		if err != nil {
			return failed(err)
		}
		return api.ToolResult{Content: fmt.Sprintf("%.2f", p)}

	case ToolBuyShares, ToolSellShares:
		var in tradeInput
		if err := json.Unmarshal(input, &in); err != nil {
			return invalid(err)
		}
		trade := t.account.Buy
		if name == ToolSellShares {
			trade = t.account.Sell
		}
		if _, err := trade(ctx, in.Symbol, in.Quantity, in.Rationale); err != nil {
			return failed(err)
		}
		return t.report(ctx)

	case ToolAccountReport:
		return t.report(ctx)

	case ToolChangeStrategy:
		var in struct {
			Strategy string `json:"strategy"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return invalid(err)
		}
		if err := t.account.ChangeStrategy(in.Strategy); err != nil {
			return failed(err)
		}
		return api.ToolResult{Content: "Strategy updated"}

	default:
		return api.ToolResult{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
}

func (t *TraderTools) report(ctx context.Context) api.ToolResult {
	r, err := t.account.Report(ctx)
	if err != nil {
		return failed(err)
	}
	return api.ToolResult{Content: r.JSON()}
}

func invalid(err error) api.ToolResult {
	return api.ToolResult{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
}

func failed(err error) api.ToolResult {
	return api.ToolResult{Content: fmt.Sprintf("Error: %v", err), IsError: true}
}

var _ api.Toolset = (*TraderTools)(nil)

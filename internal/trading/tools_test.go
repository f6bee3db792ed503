package trading

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ShayCichocki/agentlabs/internal/api"
)

func TestTraderTools_Definitions(t *testing.T) {
	db := newTestDB(t)
	acct, _ := newTestAccount(t, db)

	got := api.ToolNames(NewTraderTools(acct).Definitions())
	want := []string{ToolLookupPrice, ToolBuyShares, ToolSellShares, ToolAccountReport, ToolChangeStrategy}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("tools = %v, want %v", got, want)
	}
}

func TestTraderTools_Execute(t *testing.T) {
	db := newTestDB(t)
	acct, _ := newTestAccount(t, db)
	tools := NewTraderTools(acct)
	ctx := context.Background()

	tests := []struct {
		name        string
		tool        string
		input       string
		wantError   bool
		wantContain string
	}{
		{"price", ToolLookupPrice, `{"symbol":"AAPL"}`, false, "100.00"},
		{"unknown price", ToolLookupPrice, `{"symbol":"NOPE"}`, true, "unknown symbol"},
		{"buy", ToolBuyShares, `{"symbol":"AAPL","quantity":3,"rationale":"momentum"}`, false, `"AAPL": 3`},
		{"sell", ToolSellShares, `{"symbol":"AAPL","quantity":1,"rationale":"trim"}`, false, `"AAPL": 2`},
		{"oversell", ToolSellShares, `{"symbol":"AAPL","quantity":10,"rationale":"x"}`, true, "insufficient shares"},
		{"bad json", ToolBuyShares, `{"symbol":`, true, "Invalid parameters"},
		{"report", ToolAccountReport, `{}`, false, "total_portfolio_value"},
		{"strategy", ToolChangeStrategy, `{"strategy":"Value investing"}`, false, "Strategy updated"},
		{"unknown tool", "short_sell", `{}`, true, "Unknown tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tools.Execute(ctx, tt.tool, json.RawMessage(tt.input))
			if res.IsError != tt.wantError {
				t.Errorf("IsError = %v, want %v (content %q)", res.IsError, tt.wantError, res.Content)
			}
			if !strings.Contains(res.Content, tt.wantContain) {
				t.Errorf("content %q does not contain %q", res.Content, tt.wantContain)
			}
		})
	}

	if acct.Strategy() != "Value investing" {
		t.Errorf("strategy = %q", acct.Strategy())
	}
}

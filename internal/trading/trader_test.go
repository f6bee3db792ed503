package trading

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/api/apitest"
	"github.com/ShayCichocki/agentlabs/internal/state"
)

var (
	openClock   Clock = func() time.Time { return nyTime(2025, time.October, 15, 11, 0) }
	closedClock Clock = func() time.Time { return nyTime(2025, time.October, 18, 11, 0) }
)

func newTestTrader(t *testing.T, db *state.DB, creator *apitest.Creator, tracing *Tracing) *Trader {
	t.Helper()
	tr, err := NewTrader("Warren", "Patience", "gpt-4o-mini", TraderDeps{
		Client:   api.NewClientWithCreator(creator, "sonnet"),
		Accounts: db,
		Prices:   NewStaticPrices(map[string]float64{"AAPL": 100}),
		Tracing:  tracing,
		MaxTurns: 5,
		Clock:    openClock,
	})
	if err != nil {
		t.Fatalf("NewTrader: %v", err)
	}
	return tr
}

func TestNewTrader(t *testing.T) {
	db := newTestDB(t)
	tr := newTestTrader(t, db, &apitest.Creator{}, &Tracing{})

	if tr.Name != "Warren" || tr.Lastname != "Patience" || tr.Model != "gpt-4o-mini" {
		t.Errorf("trader = %s %s %s", tr.Name, tr.Lastname, tr.Model)
	}
	if tr.Account().Name() != "warren" {
		t.Errorf("account name = %q", tr.Account().Name())
	}
	if tr.NextCycleIsRebalance() {
		t.Error("first cycle should trade, not rebalance")
	}

	if _, err := NewTrader("", "x", "haiku", TraderDeps{}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewTrader("Cathie", "Wood", "haiku", TraderDeps{Accounts: db}); err == nil {
		t.Error("expected error without client")
	}
}

func TestTrader_RunAlternatesCycles(t *testing.T) {
	db := newTestDB(t)
	creator := &apitest.Creator{Responses: []*anthropic.Message{
		apitest.ToolUse("tu_1", ToolBuyShares, map[string]interface{}{"symbol": "AAPL", "quantity": 5, "rationale": "strong earnings"}),
		apitest.Text("Bought 5 AAPL."),
		apitest.Text("Portfolio is balanced."),
	}}
	rec := &recordingProcessor{}
	tracing := &Tracing{}
	tracing.Add(rec)
	tr := newTestTrader(t, db, creator, tracing)
	ctx := context.Background()

	if err := tr.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if got := tr.Account().Holdings()["AAPL"]; got != 5 {
		t.Errorf("AAPL holdings = %d, want 5", got)
	}
	if creator.Calls[0].Model != anthropic.ModelClaudeHaiku4_5_20251001 {
		t.Errorf("model = %s, want haiku tier", creator.Calls[0].Model)
	}
	if !strings.Contains(apitest.SystemText(creator.Calls[0]), "You are Warren") {
		t.Errorf("system prompt = %q", apitest.SystemText(creator.Calls[0]))
	}
	if !strings.Contains(apitest.FirstUserText(creator.Calls[0]), "look for new opportunities") {
		t.Error("first cycle should use the trading prompt")
	}
	if len(creator.Calls[0].Tools) != 5 {
		t.Errorf("got %d tools, want 5", len(creator.Calls[0].Tools))
	}

	if !tr.NextCycleIsRebalance() {
		t.Fatal("second cycle should rebalance")
	}
	if err := tr.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !strings.Contains(apitest.FirstUserText(creator.Calls[2]), "rebalance") {
		t.Error("second cycle should use the rebalance prompt")
	}
	if tr.Account().Cycles() != 2 {
		t.Errorf("cycles = %d, want 2", tr.Account().Cycles())
	}

	events := strings.Join(rec.list(), "|")
	for _, want := range []string{
		"trace_start:warren-trading",
		"span_start:function:buy_shares",
		"span_end:function:buy_shares",
		"trace_end:warren-trading:<nil>",
		"trace_start:warren-rebalancing",
	} {
		if !strings.Contains(events, want) {
			t.Errorf("events missing %q: %s", want, events)
		}
	}
}

func TestTrader_RunFailure(t *testing.T) {
	db := newTestDB(t)
	creator := &apitest.Creator{Handler: func(int, anthropic.MessageNewParams) (*anthropic.Message, error) {
		return nil, errors.New("overloaded")
	}}
	rec := &recordingProcessor{}
	tracing := &Tracing{}
	tracing.Add(rec)
	tr := newTestTrader(t, db, creator, tracing)

	err := tr.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("err = %v", err)
	}
	if tr.Account().Cycles() != 0 {
		t.Error("failed cycle should not be counted")
	}
	last := rec.list()[len(rec.list())-1]
	if !strings.HasPrefix(last, "trace_end:warren-trading:") || strings.HasSuffix(last, "<nil>") {
		t.Errorf("trace end should carry the error: %q", last)
	}
}

func TestFloor_RunOnce(t *testing.T) {
	db := newTestDB(t)
	var calls atomic.Int32
	handler := func(int, anthropic.MessageNewParams) (*anthropic.Message, error) {
		calls.Add(1)
		return apitest.Text("No trades today."), nil
	}

	var traders []*Trader
	for _, name := range []string{"Warren", "George", "Ray"} {
		tr, err := NewTrader(name, "Test", "haiku", TraderDeps{
			Client:   api.NewClientWithCreator(&apitest.Creator{Handler: handler}, "haiku"),
			Accounts: db,
			Prices:   NewStaticPrices(nil),
			Tracing:  &Tracing{},
		})
		if err != nil {
			t.Fatal(err)
		}
		traders = append(traders, tr)
	}

	closed := &Floor{Traders: traders, Clock: closedClock}
	ran, err := closed.RunOnce(context.Background())
	if err != nil || ran {
		t.Fatalf("closed market: ran=%v err=%v", ran, err)
	}
	if calls.Load() != 0 {
		t.Error("no trader should run while the market is closed")
	}

	anyway := &Floor{Traders: traders, Clock: closedClock, RunWhenClosed: true, CycleTimeout: time.Minute}
	ran, err = anyway.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("RunWhenClosed: ran=%v err=%v", ran, err)
	}
	if calls.Load() != 3 {
		t.Errorf("model called %d times, want 3", calls.Load())
	}
	for _, tr := range traders {
		if tr.Account().Cycles() != 1 {
			t.Errorf("%s cycles = %d", tr.Name, tr.Account().Cycles())
		}
	}
}

func TestFloor_RunOnceError(t *testing.T) {
	db := newTestDB(t)
	bad := &apitest.Creator{Handler: func(int, anthropic.MessageNewParams) (*anthropic.Message, error) {
		return nil, errors.New("invalid api key")
	}}
	tr, err := NewTrader("Warren", "Patience", "haiku", TraderDeps{
		Client:   api.NewClientWithCreator(bad, "haiku"),
		Accounts: db,
		Tracing:  &Tracing{},
		Clock:    openClock,
	})
	if err != nil {
		t.Fatal(err)
	}

	f := &Floor{Traders: []*Trader{tr}, Clock: openClock}
	if _, err := f.RunOnce(context.Background()); err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("err = %v", err)
	}
}

func TestFloor_RunOnceFailureDoesNotCancelOthers(t *testing.T) {
	db := newTestDB(t)
	bad := &apitest.Creator{Handler: func(int, anthropic.MessageNewParams) (*anthropic.Message, error) {
		return nil, errors.New("invalid api key")
	}}
	slow := &apitest.Creator{Handler: func(int, anthropic.MessageNewParams) (*anthropic.Message, error) {
		time.Sleep(50 * time.Millisecond)
		return apitest.Text("Holding steady."), nil
	}}

	newTrader := func(name string, c *apitest.Creator) *Trader {
		tr, err := NewTrader(name, "Test", "haiku", TraderDeps{
			Client:   api.NewClientWithCreator(c, "haiku"),
			Accounts: db,
			Prices:   NewStaticPrices(nil),
			Tracing:  &Tracing{},
			Clock:    openClock,
		})
		if err != nil {
			t.Fatal(err)
		}
		return tr
	}
	warren := newTrader("Warren", bad)
	george := newTrader("George", slow)

	f := &Floor{Traders: []*Trader{warren, george}, Clock: openClock}
	ran, err := f.RunOnce(context.Background())
	if !ran {
		t.Fatal("cycle should have run")
	}
	if err == nil || !strings.Contains(err.Error(), "Warren") || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("err = %v, want Warren's failure", err)
	}
	if strings.Contains(err.Error(), "George") {
		t.Errorf("George should not fail: %v", err)
	}
	if got := george.Account().Cycles(); got != 1 {
		t.Errorf("George cycles = %d, want 1", got)
	}
	if got := warren.Account().Cycles(); got != 0 {
		t.Errorf("Warren cycles = %d, want 0", got)
	}
}

func TestFloor_RunStopsOnCancel(t *testing.T) {
	f := &Floor{Clock: closedClock, Interval: time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := f.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run err = %v", err)
	}
}

func TestRunSingleCycle(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name          string
		clock         Clock
		runWhenClosed bool
		fail          bool
		wantErr       bool
		wantCalls     int
		wantLines     []string
	}{
		{
			name:      "open market",
			clock:     openClock,
			wantCalls: 1,
			wantLines: []string{"📊 Created trader: Warren Patience", "🏛️ Market is open: true", "🚀 Running trader...", "✅ Single trading cycle completed successfully!"},
		},
		{
			name:          "closed but running anyway",
			clock:         closedClock,
			runWhenClosed: true,
			wantCalls:     1,
			wantLines:     []string{"🏛️ Market is open: false", "⚠️ Market is closed, but running anyway for testing...", "✅ Single trading cycle completed successfully!"},
		},
		{
			name:      "closed and skipped",
			clock:     closedClock,
			wantCalls: 0,
			wantLines: []string{"⚠️ Market is closed, skipping trading cycle"},
		},
		{
			name:      "failure",
			clock:     openClock,
			fail:      true,
			wantErr:   true,
			wantCalls: 1,
			wantLines: []string{"❌ Error during trading: "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			creator := &apitest.Creator{Handler: func(int, anthropic.MessageNewParams) (*anthropic.Message, error) {
				if tt.fail {
					return nil, errors.New("boom")
				}
				return apitest.Text("done"), nil
			}}
			tr := newTestTrader(t, db, creator, &Tracing{})

			var buf bytes.Buffer
			PrintStart(&buf)
			err := RunSingleCycle(context.Background(), &buf, tr, tt.clock, tt.runWhenClosed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if creator.CallCount() != tt.wantCalls {
				t.Errorf("model calls = %d, want %d", creator.CallCount(), tt.wantCalls)
			}
			if !strings.HasPrefix(buf.String(), "🏁 Starting Lab 3 Trading Floor Test\n") {
				t.Errorf("output should open with the start line:\n%s", buf.String())
			}
			for _, line := range tt.wantLines {
				if !strings.Contains(buf.String(), line) {
					t.Errorf("output missing %q:\n%s", line, buf.String())
				}
			}
		})
	}
}

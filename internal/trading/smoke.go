package trading

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ShayCichocki/agentlabs/internal/console"
)

// PrintStart writes the single-cycle start line. Callers print it before
// building the tracer and trader.
func PrintStart(w io.Writer) {
	console.Status(w, "🏁", "Starting Lab 3 Trading Floor Test", color.FgCyan)
}

// RunSingleCycle runs one cycle for trader and reports progress to w, after
// PrintStart. When the market is closed it warns and continues if
// runWhenClosed is set, otherwise it skips the cycle. The run error is printed
// and returned.
func RunSingleCycle(ctx context.Context, w io.Writer, trader *Trader, clock Clock, runWhenClosed bool) error {
	console.Status(w, "📊", fmt.Sprintf("Created trader: %s %s", trader.Name, trader.Lastname), color.FgCyan)

	open := IsMarketOpen(clock())
	console.Status(w, "🏛️", fmt.Sprintf("Market is open: %t", open), color.FgCyan)
	if !open {
		if !runWhenClosed {
			console.Status(w, "⚠️", "Market is closed, skipping trading cycle", color.FgYellow)
			return nil
		}
		console.Status(w, "⚠️", "Market is closed, but running anyway for testing...", color.FgYellow)
	}

	console.Status(w, "🚀", "Running trader...", color.FgCyan)
	if err := trader.Run(ctx); err != nil {
		console.Status(w, "❌", fmt.Sprintf("Error during trading: %v", err), color.FgRed)
		return err
	}
	console.Status(w, "✅", "Single trading cycle completed successfully!", color.FgGreen)
	return nil
}

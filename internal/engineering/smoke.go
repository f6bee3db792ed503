package engineering

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ShayCichocki/agentlabs/internal/console"
)

// Banner is printed before the crew is kicked off.
const Banner = "Testing Lab 2 CrewAI Engineering Team (without Docker)"

// RunSmokeTest kicks off the team's crew with inputs and reports the outcome
// to w. It returns true on success.
func RunSmokeTest(ctx context.Context, w io.Writer, team *Team, inputs map[string]string) bool {
	PrintBanner(w)

	result, err := team.Crew().Kickoff(ctx, inputs)
	if err != nil {
		ReportFailure(w, err)
		return false
	}

	console.Status(w, "✅", "Lab 2 CrewAI test completed successfully!", color.FgGreen)
	fmt.Fprintf(w, "📄 Result: %s\n", result)
	return true
}

// PrintBanner prints the line that opens the smoke test.
func PrintBanner(w io.Writer) {
	console.Status(w, "🧪", Banner, color.FgCyan)
}

// ReportFailure prints the smoke test's failure line.
func ReportFailure(w io.Writer, err error) {
	console.Status(w, "❌", fmt.Sprintf("Lab 2 test failed: %v", err), color.FgRed)
}

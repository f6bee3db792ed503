package console

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
)

func TestStatus(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tests := []struct {
		name  string
		write func(b *bytes.Buffer)
		want  string
	}{
		{"status", func(b *bytes.Buffer) { Status(b, "✓", "done", color.FgGreen) }, "✓ done\n"},
		{"statusf", func(b *bytes.Buffer) { Statusf(b, "📊", color.FgCyan, "Created trader: %s %s", "Warren", "Patience") }, "📊 Created trader: Warren Patience\n"},
		{"info", func(b *bytes.Buffer) { Info(b, "🧪", "testing") }, "🧪 testing\n"},
		{"success", func(b *bytes.Buffer) { Success(b, "✅", "ok") }, "✅ ok\n"},
		{"warn", func(b *bytes.Buffer) { Warn(b, "⚠️", "closed") }, "⚠️ closed\n"},
		{"fail", func(b *bytes.Buffer) { Fail(b, "❌", "boom") }, "❌ boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.write(&buf)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

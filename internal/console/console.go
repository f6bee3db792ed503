// Package console prints colored status lines for the command-line tools.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Status writes "<symbol> <msg>" to w with the symbol colored.
func Status(w io.Writer, symbol, msg string, attr color.Attribute) {
	c := color.New(attr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), msg)
}

// Statusf is Status with a format string.
func Statusf(w io.Writer, symbol string, attr color.Attribute, format string, args ...any) {
	Status(w, symbol, fmt.Sprintf(format, args...), attr)
}

// Info prints an informational line.
func Info(w io.Writer, symbol, msg string) {
	Status(w, symbol, msg, color.FgCyan)
}

// Success prints a success line.
func Success(w io.Writer, symbol, msg string) {
	Status(w, symbol, msg, color.FgGreen)
}

// Warn prints a warning line.
func Warn(w io.Writer, symbol, msg string) {
	Status(w, symbol, msg, color.FgYellow)
}

// Fail prints a failure line.
func Fail(w io.Writer, symbol, msg string) {
	Status(w, symbol, msg, color.FgRed)
}

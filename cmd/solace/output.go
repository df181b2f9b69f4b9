package main

// Terminal output conventions: replies print to stdout so they stay
// pipeable; status, warnings, and errors go to stderr with ANSI color
// unless --no-color is set.

import (
	"fmt"
	"os"

	"solace/internal/state"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

// replyLabel is the prompt label shown before an assistant reply.
func replyLabel(failed bool) string {
	if failed {
		return colorize(colorRed, "solace>")
	}
	return colorize(colorGreen, "solace>")
}

// roleLabel names a logged message's speaker, red when the entry
// records a failed send.
func roleLabel(m state.Message) string {
	switch {
	case m.Error:
		return colorize(colorRed, "solace")
	case m.Role == state.RoleAssistant:
		return colorize(colorGreen, "solace")
	default:
		return colorize(colorCyan, "you")
	}
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(colorBold, label+":"), val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

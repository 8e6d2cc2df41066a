// Package colors applies ANSI color to the handful of status markers
// forgevault's CLI prints: added/deleted/modified paths in a diff, and
// the bold seal name in a log line. Color is suppressed automatically
// for non-terminal output or when NO_COLOR is set.
package colors

import (
	"os"
	"runtime"
	"strings"
)

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	brightRed   = "\033[91m"
	brightBlue  = "\033[94m"
	brightGreen = "\033[92m"
)

// enabled caches whether the current process should emit color codes.
var enabled = shouldUseColor()

// shouldUseColor mirrors the common NO_COLOR / FORCE_COLOR / TERM
// conventions, plus a check that stdout is actually a terminal.
func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if runtime.GOOS == "windows" {
		wt := os.Getenv("WT_SESSION") != ""
		vscode := os.Getenv("VSCODE_PID") != ""
		return wt || vscode || strings.Contains(term, "color") || strings.Contains(term, "xterm")
	}
	if term == "dumb" || term == "" {
		return false
	}
	if info, err := os.Stdout.Stat(); err == nil {
		return (info.Mode() & os.ModeCharDevice) != 0
	}
	return true
}

// SetEnabled overrides color detection, for commands that accept a
// --color/--no-color flag.
func SetEnabled(v bool) { enabled = v }

func wrap(text, code string) string {
	if !enabled {
		return text
	}
	return code + text + colorReset
}

// Added colors a line added by a diff.
func Added(text string) string { return wrap(text, brightGreen) }

// Deleted colors a line removed by a diff.
func Deleted(text string) string { return wrap(text, brightRed) }

// Modified colors a line changed by a diff.
func Modified(text string) string { return wrap(text, brightBlue) }

// Bold highlights a seal name in log output.
func Bold(text string) string { return wrap(text, colorBold) }

package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Quiet suppresses informational output when set.
var Quiet bool

// RunErrorCount and RunWarningCount track errors/warnings during a run.
var RunErrorCount int
var RunWarningCount int

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Printf("%s%s%s %s\n", ColorGreen, SymbolCheck, ColorReset, msg)
}

// PrintError prints an error message to stderr and increments the error counter.
func PrintError(msg string) {
	RunErrorCount++
	fmt.Fprintf(os.Stderr, "%s%s%s %s\n", ColorRed, SymbolCross, ColorReset, msg)
}

// PrintInfo prints an info message unless quiet mode is on.
func PrintInfo(msg string) {
	if Quiet {
		return
	}
	fmt.Printf("%s%s%s %s\n", ColorBlue, SymbolInfo, ColorReset, msg)
}

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount++
	fmt.Printf("%s%s%s %s\n", ColorYellow, SymbolWarning, ColorReset, msg)
}

// PrintHeader prints a bold header with a rule sized to the terminal.
func PrintHeader(title string) {
	if Quiet {
		return
	}
	width := GetTermWidth()
	if width > 72 {
		width = 72
	}
	fmt.Printf("%s%s %s%s\n%s\n", ColorBold, BulletArrow, title, ColorReset, strings.Repeat("─", width))
}

// GetTermWidth returns the terminal width, defaulting to 80.
func GetTermWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width == 0 {
		return 80
	}
	return width
}

package ui

import (
	"os"
	"strings"
)

// ANSI color codes - exported for use across packages.
var (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorCyan   = "\033[96m"
	ColorBold   = "\033[1m"
)

// Unicode symbols
var (
	SymbolCheck   = "✓"
	SymbolCross   = "✗"
	SymbolInfo    = "ℹ"
	SymbolWarning = "⚠"
	BulletArrow   = "▸"
)

func init() {
	InitColorPalette()
}

// InitColorPalette disables colors when NO_COLOR is set or the terminal is
// dumb, following the convention the rest of the output code relies on.
func InitColorPalette() {
	if os.Getenv("NO_COLOR") == "" && !strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return
	}
	ColorReset = ""
	ColorRed = ""
	ColorGreen = ""
	ColorYellow = ""
	ColorBlue = ""
	ColorCyan = ""
	ColorBold = ""
}

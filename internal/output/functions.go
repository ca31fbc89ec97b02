package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ProgressLine renders a percentage as a fixed width bar.
func ProgressLine(percent float64, width int) string {
	if width <= 0 {
		width = 30
	}
	percent = max(0, min(percent, 100))
	filled := int(percent / 100 * float64(width))
	bar := StyleSymbols["bullet"] + strings.Repeat(StyleSymbols["hline"], filled) +
		strings.Repeat(" ", width-filled) + StyleSymbols["bullet"]
	return debugStyle.Render(fmt.Sprintf("%s %.1f%%", bar, percent))
}

func getTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return 80, 24
	}
	return width, height
}

// Truncate shortens text to fit the current terminal width minus indent.
func Truncate(text string, indent int) string {
	width, _ := getTerminalSize()
	limit := width - indent - 2
	runes := []rune(text)
	if limit <= 10 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

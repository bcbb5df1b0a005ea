package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	marble "github.com/milly/gostream-marble"
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

// parseValueTable parses a "k=v,k=v" flag value into a marble.ValueTable.
// Each key must be exactly one rune; values are kept as strings, matching
// how series characters are rendered back out by marble.Render.
func parseValueTable(spec string) (marble.ValueTable, error) {
	vt := marble.ValueTable{}
	if spec == "" {
		return vt, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("marbledump: malformed --values entry %q, want k=v", pair)
		}
		runes := []rune(k)
		if len(runes) != 1 {
			return nil, fmt.Errorf("marbledump: malformed --values key %q, must be a single character", k)
		}
		vt[runes[0]] = v
	}
	return vt, nil
}

func parseMode(s string) (marble.Mode, error) {
	switch s {
	case "readable":
		return marble.ModeReadable, nil
	case "writable":
		return marble.ModeWritable, nil
	case "abort":
		return marble.ModeAbort, nil
	default:
		return 0, fmt.Errorf("marbledump: unknown --mode %q, want readable|writable|abort", s)
	}
}

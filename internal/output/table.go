package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tanq16/vodkit/internal/types"
)

func RenditionTable(renditions []types.Rendition, markdown bool) string {
	t := table.New().Headers("#", "QUALITY", "RESOLUTION", "URL")
	t = t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Padding(0, 1)
		}
		if col == 1 {
			return detailStyle.Padding(0, 1)
		}
		return lipgloss.NewStyle().Padding(0, 1)
	})
	for i, r := range renditions {
		resolution := r.Resolution
		if resolution == "" {
			resolution = "-"
		}
		t.Row(fmt.Sprint(i+1), r.Quality, resolution, Truncate(r.URL, 40))
	}
	if markdown {
		t = t.Border(lipgloss.MarkdownBorder())
	}
	return t.String()
}

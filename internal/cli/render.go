package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/habithouse/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func standingRows(standings []models.Standing) [][]string {
	rows := make([][]string, 0, len(standings))
	for i, s := range standings {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), s.Username, fmt.Sprintf("%d", s.Points)})
	}
	return rows
}

func renderStandings(title string, standings []models.Standing) string {
	return titleStyle.Render(title) + "\n" + renderTable([]string{"#", "User", "Points"}, standingRows(standings))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func bonusLabel(h models.Habit) string {
	if h.IsBonus {
		return "yes"
	}
	return ""
}

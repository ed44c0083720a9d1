package board

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habithouse/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// Model shows one household's standings.
type Model struct {
	table     table.Model
	household string
	position  string
}

func New(width, height int) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(max(height, 3)),
	)
	t.SetStyles(tableStyles())
	return Model{table: t}
}

func columns(width int) []table.Column {
	user := max(width-24, 16)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "User", Width: user},
		{Title: "Points", Width: 8},
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

// SetStandings replaces the rows with household's ranking. position is
// shown next to the title, e.g. "1/3".
func (m *Model) SetStandings(household, position string, standings []models.Standing) {
	m.household = household
	m.position = position
	rows := make([]table.Row, 0, len(standings))
	for i, s := range standings {
		rows = append(rows, table.Row{fmt.Sprintf("%d", i+1), s.Username, fmt.Sprintf("%d", s.Points)})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}

func (m Model) Household() string {
	return m.household
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.household == "" {
		return emptyStyle.Render("No households yet.\nCreate one with 'habithouse household create <name>'.")
	}
	title := "Household: " + m.household
	if m.position != "" {
		title += "  (" + m.position + ")"
	}
	if len(m.table.Rows()) == 0 {
		return titleStyle.Render(title) + "\n" + emptyStyle.Render("No rankings available yet.")
	}
	return titleStyle.Render(title) + "\n" + m.table.View()
}

func (m *Model) SetSize(width, height int) {
	m.table.SetColumns(columns(width))
	m.table.SetWidth(width)
	m.table.SetHeight(max(height, 3))
}

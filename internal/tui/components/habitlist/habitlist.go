package habitlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/models"
)

var emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)

// Model lists the habit catalog, regular habits first.
type Model struct {
	table  table.Model
	habits []models.Habit
}

func New(width, height int) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(max(height, 3)),
	)
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
	t.SetStyles(s)
	return Model{table: t}
}

func columns(width int) []table.Column {
	name := max(width-48, 16)
	return []table.Column{
		{Title: "Habit", Width: name},
		{Title: "Periodicity", Width: 11},
		{Title: "Points", Width: 6},
		{Title: "Bonus", Width: 5},
		{Title: "Last done", Width: 10},
	}
}

func (m *Model) SetHabits(habits []models.Habit) {
	m.habits = habits
	rows := make([]table.Row, 0, len(habits))
	for _, h := range habits {
		bonus, last := "", ""
		if h.IsBonus {
			bonus = "yes"
		}
		if h.LastCompletedAt != nil {
			last = h.LastCompletedAt.Format(constants.DateFormat)
		}
		rows = append(rows, table.Row{h.Name, string(h.Periodicity), fmt.Sprintf("%d", h.Points), bonus, last})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}

// Selected returns the habit under the cursor.
func (m Model) Selected() (models.Habit, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.habits) {
		return models.Habit{}, false
	}
	return m.habits[i], true
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
	if len(m.habits) == 0 {
		return emptyStyle.Render("No habits yet.\nDefine one with 'habithouse habit add <name> <daily|weekly> <points>'.")
	}
	return m.table.View()
}

func (m *Model) SetSize(width, height int) {
	m.table.SetColumns(columns(width))
	m.table.SetWidth(width)
	m.table.SetHeight(max(height, 3))
}

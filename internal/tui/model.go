package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/tracker"
	"github.com/julianstephens/habithouse/internal/tui/components/board"
	"github.com/julianstephens/habithouse/internal/tui/components/habitlist"
)

type SessionState int

const (
	StateLeaderboard SessionState = iota
	StateHabits
	StateComplete
)

var tabTitles = []string{"Leaderboard", "Habits"}

type CompleteFormModel struct {
	Username string
	Habit    string
}

type Model struct {
	tracker       *tracker.Tracker
	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	board         board.Model
	habitList     habitlist.Model
	households    []string
	household     int // index into households shown on the leaderboard tab
	usernames     []string
	form          *huh.Form
	completeForm  *CompleteFormModel
	status        string
	statusErr     bool
	warning       string
	quitting      bool
	width         int
	height        int
}

func NewModel(tr *tracker.Tracker) Model {
	m := Model{
		tracker:   tr,
		state:     StateLeaderboard,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		board:     board.New(0, 0),
		habitList: habitlist.New(0, 0),
	}
	m.refresh()
	return m
}

// refresh reloads households, standings and habits from the tracker.
func (m *Model) refresh() {
	households, err := m.tracker.Households()
	if err != nil {
		m.setError(err)
		return
	}
	m.households = make([]string, 0, len(households))
	for _, h := range households {
		m.households = append(m.households, h.Name)
	}
	if m.household >= len(m.households) {
		m.household = 0
	}
	m.refreshBoard()

	habits, err := m.tracker.Habits()
	if err != nil {
		m.setError(err)
		return
	}
	m.habitList.SetHabits(habits)

	if m.usernames, err = m.tracker.Usernames(); err != nil {
		m.setError(err)
		return
	}

	m.updateValidationStatus()
}

func (m *Model) refreshBoard() {
	if len(m.households) == 0 {
		m.board.SetStandings("", "", nil)
		return
	}
	name := m.households[m.household]
	standings, err := m.tracker.Leaderboard(name)
	if err != nil {
		m.setError(err)
		return
	}
	m.board.SetStandings(name, fmt.Sprintf("%d/%d", m.household+1, len(m.households)), standings)
}

func (m *Model) updateValidationStatus() {
	result, err := m.tracker.Validate()
	if err != nil {
		m.warning = "⚠ Validation unavailable"
		return
	}
	if result.HasConflicts() {
		m.warning = fmt.Sprintf("⚠ %d validation warning(s), run 'habithouse validate'", len(result.Conflicts))
	} else {
		m.warning = ""
	}
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m *Model) setError(err error) {
	logger.Debug("TUI action failed", "error", err)
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) setState(state SessionState) {
	m.state = state
	m.keys.setTab(state)
}

func (m Model) Init() tea.Cmd {
	return nil
}

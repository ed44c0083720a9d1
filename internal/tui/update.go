package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// chromeHeight is the space taken by tabs, status and help lines.
const chromeHeight = 8

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateComplete {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.board.SetSize(msg.Width-4, msg.Height-chromeHeight)
		m.habitList.SetSize(msg.Width-4, msg.Height-chromeHeight)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.NextTab):
			m.setState((m.state + 1) % SessionState(len(tabTitles)))
			return m, nil
		case key.Matches(msg, m.keys.PrevTab):
			m.setState((m.state - 1 + SessionState(len(tabTitles))) % SessionState(len(tabTitles)))
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.refresh()
			m.setStatus("Refreshed.")
			return m, nil
		case key.Matches(msg, m.keys.Complete):
			return m.openForm()
		case key.Matches(msg, m.keys.PrevHousehold):
			m.cycleHousehold(-1)
			return m, nil
		case key.Matches(msg, m.keys.NextHousehold):
			m.cycleHousehold(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateLeaderboard:
		m.board, cmd = m.board.Update(msg)
	case StateHabits:
		m.habitList, cmd = m.habitList.Update(msg)
	}
	return m, cmd
}

func (m *Model) cycleHousehold(delta int) {
	if len(m.households) == 0 {
		return
	}
	m.household = (m.household + delta + len(m.households)) % len(m.households)
	m.refreshBoard()
}

func (m Model) openForm() (tea.Model, tea.Cmd) {
	habits, err := m.tracker.Habits()
	if err != nil {
		m.setError(err)
		return m, nil
	}
	if len(m.usernames) == 0 || len(habits) == 0 {
		m.setStatus("Add a user and a habit before completing anything.")
		return m, nil
	}

	m.completeForm = &CompleteFormModel{Username: m.usernames[0], Habit: habits[0].Name}
	if m.state == StateHabits {
		if h, ok := m.habitList.Selected(); ok {
			m.completeForm.Habit = h.Name
		}
	}

	m.form = NewCompleteForm(m.completeForm, m.usernames, habits)
	m.previousState = m.state
	m.setState(StateComplete)
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.setState(m.previousState)
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.setState(m.previousState)
		if status, err := m.submit(m.completeForm.Username, m.completeForm.Habit); err != nil {
			m.setError(err)
		} else {
			m.setStatus(status)
		}
		m.refresh()
	case huh.StateAborted:
		m.setState(m.previousState)
	}
	return m, cmd
}

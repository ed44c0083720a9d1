package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habithouse/internal/cli"
	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/tui"
)

type TuiCmd struct {
	Inline bool `help:"Render in the current terminal buffer instead of the alternate screen."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Surface an unreadable store before taking over the terminal
	if _, err := ctx.Store.Load(); err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	var opts []tea.ProgramOption
	if !c.Inline {
		opts = append(opts, tea.WithAltScreen())
	}
	logger.Debug("Starting dashboard", "inline", c.Inline)
	_, err := tea.NewProgram(tui.NewModel(ctx.Tracker), opts...).Run()
	return err
}

package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habithouse/internal/cli"
	apperrors "github.com/julianstephens/habithouse/internal/errors"
)

type DebugCmd struct {
	DBPath        *DebugDBPathCmd        `cmd:"" help:"Show the data store location."`
	DumpDocument  *DebugDumpDocumentCmd  `cmd:"" help:"Dump the whole stored document as JSON."`
	DumpHousehold *DebugDumpHouseholdCmd `cmd:"" help:"Dump household data as JSON."`
	DumpUser      *DebugDumpUserCmd      `cmd:"" help:"Dump user data as JSON."`
	DumpHabit     *DebugDumpHabitCmd     `cmd:"" help:"Dump habit data as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path":   ctx.Store.GetConfigPath(),
		"config": ctx.ConfigPath,
	})
}

type DebugDumpDocumentCmd struct{}

func (cmd *DebugDumpDocumentCmd) Run(ctx *cli.Context) error {
	doc, err := ctx.Store.Load()
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	return printJSON(ctx, doc)
}

type DebugDumpHouseholdCmd struct {
	Name string `arg:"" help:"Household name."`
}

func (cmd *DebugDumpHouseholdCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Tracker.Household(cmd.Name)
	if err != nil {
		return ctx.Explain(err, cli.Names{Household: cmd.Name})
	}
	return printJSON(ctx, h)
}

type DebugDumpUserCmd struct {
	Username string `arg:"" help:"Username."`
}

func (cmd *DebugDumpUserCmd) Run(ctx *cli.Context) error {
	doc, err := ctx.Store.Load()
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	u, ok := doc.Users[cmd.Username]
	if !ok {
		return ctx.Explain(fmt.Errorf("%w: %s", apperrors.ErrUserNotFound, cmd.Username), cli.Names{User: cmd.Username})
	}
	return printJSON(ctx, map[string]interface{}{
		"user":            u,
		"streaks":         doc.Streaks[cmd.Username],
		"longest_streaks": doc.LongestStreaks[cmd.Username],
	})
}

type DebugDumpHabitCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Tracker.Habit(cmd.Name)
	if err != nil {
		return ctx.Explain(err, cli.Names{Habit: cmd.Name})
	}
	return printJSON(ctx, h)
}

func printJSON(ctx *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}

package system

import (
	"errors"

	"github.com/julianstephens/habithouse/internal/cli"
)

type ValidateCmd struct {
	Fix bool `help:"Repair the conflicts that can be fixed automatically."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	result, err := ctx.Tracker.Validate()
	if err != nil {
		return err
	}
	ctx.Print(result.FormatReport())
	if !result.HasConflicts() {
		ctx.Println()
		return nil
	}

	if !c.Fix {
		return errors.New("validation found conflicts")
	}

	actions, err := ctx.Tracker.Repair()
	if err != nil {
		return err
	}
	ctx.Printf("\nApplied %d fix(es):\n", len(actions))
	for _, a := range actions {
		ctx.Printf("- %s\n", a.Action)
	}

	remaining, err := ctx.Tracker.Validate()
	if err != nil {
		return err
	}
	if remaining.HasConflicts() {
		ctx.Printf("\n%s", remaining.FormatReport())
		return errors.New("conflicts remain that need manual attention")
	}
	return nil
}

package cli

type ClearCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ClearCmd) Run(ctx *Context) error {
	if !c.Yes {
		ok, err := ctx.Confirm("Delete all households, users, habits and rankings?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Clear cancelled.")
			return nil
		}
	}

	if err := ctx.Tracker.ClearAll(); err != nil {
		return err
	}
	ctx.Println("All data has been cleared.")
	return nil
}

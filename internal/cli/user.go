package cli

type UserCmd struct {
	Add UserAddCmd `cmd:"" help:"Add a user to a household."`
}

type UserAddCmd struct {
	Username  string `arg:"" help:"Username."`
	Household string `arg:"" help:"Household to join."`
}

func (c *UserAddCmd) Run(ctx *Context) error {
	u, err := ctx.Tracker.AddUser(c.Username, c.Household)
	if err != nil {
		return ctx.Explain(err, Names{User: c.Username, Household: c.Household})
	}
	ctx.Printf("User '%s' added to household '%s'.\n", u.Username, u.Household)
	return nil
}

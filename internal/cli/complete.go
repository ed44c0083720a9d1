package cli

type CompleteCmd struct {
	Username string `arg:"" help:"User completing the habit."`
	Habit    string `arg:"" help:"Habit name."`
}

// Run completes a regular habit or claims a bonus habit.
func (c *CompleteCmd) Run(ctx *Context) error {
	names := Names{User: c.Username, Habit: c.Habit}

	habit, err := ctx.Tracker.Habit(c.Habit)
	if err != nil {
		return ctx.Explain(err, names)
	}
	if habit.IsBonus {
		return claim(ctx, c.Username, c.Habit)
	}

	res, err := ctx.Tracker.Complete(c.Username, c.Habit)
	if err != nil {
		return ctx.Explain(err, names)
	}

	ctx.Printf("'%s' completed by '%s'. +%d points", res.Habit, res.Username, res.Points)
	if res.StreakBonus > 0 {
		ctx.Printf(", +%d streak bonus", res.StreakBonus)
	}
	ctx.Printf(" (streak %d, %s total %d)\n", res.Streak, res.Household, res.Total)
	return nil
}

type ClaimCmd struct {
	Username string `arg:"" help:"User claiming the bonus habit."`
	Habit    string `arg:"" help:"Bonus habit name."`
}

func (c *ClaimCmd) Run(ctx *Context) error {
	return claim(ctx, c.Username, c.Habit)
}

func claim(ctx *Context, username, habit string) error {
	res, err := ctx.Tracker.ClaimBonus(username, habit)
	if err != nil {
		return ctx.Explain(err, Names{User: username, Habit: habit})
	}
	ctx.Printf("Bonus habit '%s' claimed by '%s' for %s. +%d points (%s total %d)\n",
		res.Habit, res.Username, res.Period, res.Points, res.Household, res.Total)
	return nil
}

package cli

import (
	"fmt"

	"github.com/julianstephens/habithouse/internal/tracker"
)

type StreakCmd struct {
	Longest StreakLongestCmd `cmd:"" help:"Show the longest streak recorded."`
	Show    StreakShowCmd    `cmd:"" help:"Show a user's streaks per habit."`
}

type StreakLongestCmd struct {
	Habit string `help:"Limit to one habit."`
}

func (c *StreakLongestCmd) Run(ctx *Context) error {
	var (
		rec tracker.StreakRecord
		ok  bool
		err error
	)
	if c.Habit != "" {
		rec, ok, err = ctx.Tracker.LongestStreakForHabit(c.Habit)
		if err != nil {
			return ctx.Explain(err, Names{Habit: c.Habit})
		}
	} else {
		rec, ok, err = ctx.Tracker.LongestStreak()
		if err != nil {
			return err
		}
	}

	if !ok {
		ctx.Println("No streaks recorded yet.")
		return nil
	}
	ctx.Printf("Longest streak: %s on '%s' with %d\n", rec.Username, rec.Habit, rec.Length)
	return nil
}

type StreakShowCmd struct {
	Username string `arg:"" help:"User to show."`
}

func (c *StreakShowCmd) Run(ctx *Context) error {
	streaks, err := ctx.Tracker.UserStreaks(c.Username)
	if err != nil {
		return ctx.Explain(err, Names{User: c.Username})
	}
	if len(streaks) == 0 {
		ctx.Printf("'%s' has not completed any habits yet.\n", c.Username)
		return nil
	}

	rows := make([][]string, 0, len(streaks))
	for _, s := range streaks {
		last := s.LastDone
		if last == "" {
			last = "-"
		}
		rows = append(rows, []string{s.Habit, fmt.Sprintf("%d", s.Current), fmt.Sprintf("%d", s.Longest), last, fmt.Sprintf("%d", len(s.Completions))})
	}
	ctx.Println(renderTable([]string{"Habit", "Current", "Longest", "Last done", "Completions"}, rows))
	return nil
}

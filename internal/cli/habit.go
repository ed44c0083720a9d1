package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/models"
)

type HabitCmd struct {
	Add   HabitAddCmd   `cmd:"" help:"Define a new habit."`
	List  HabitListCmd  `cmd:"" help:"List habits."`
	Reset HabitResetCmd `cmd:"" help:"Clear the last-completed marker on every habit."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Periodicity string `arg:"" enum:"daily,weekly" help:"How often the habit repeats (daily or weekly)."`
	Points      int    `arg:"" help:"Points awarded per completion."`
	Bonus       bool   `help:"Make this a bonus habit that only one user can claim per period."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	h, err := ctx.Tracker.DefineHabit(c.Name, constants.Periodicity(c.Periodicity), c.Points, c.Bonus)
	if err != nil {
		return err
	}
	kind := "Habit"
	if h.IsBonus {
		kind = "Bonus habit"
	}
	ctx.Printf("%s '%s' added (%s, %d points).\n", kind, h.Name, h.Periodicity, h.Points)
	return nil
}

type HabitListCmd struct {
	Periodicity string `help:"Only show habits with this periodicity (daily or weekly)."`
	History     bool   `help:"Show each user's completion dates."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	var habits []models.Habit
	var err error
	if c.Periodicity != "" {
		habits, err = ctx.Tracker.HabitsByPeriodicity(constants.Periodicity(c.Periodicity))
	} else {
		habits, err = ctx.Tracker.Habits()
	}
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		last := "-"
		if h.LastCompletedAt != nil {
			last = h.LastCompletedAt.Format(constants.DateFormat)
		}
		rows = append(rows, []string{h.Name, string(h.Periodicity), fmt.Sprintf("%d", h.Points), bonusLabel(h), last})
	}
	ctx.Println(renderTable([]string{"Habit", "Periodicity", "Points", "Bonus", "Last done"}, rows))

	if c.History {
		return c.printHistory(ctx, habits)
	}
	return nil
}

func (c *HabitListCmd) printHistory(ctx *Context, habits []models.Habit) error {
	usernames, err := ctx.Tracker.Usernames()
	if err != nil {
		return err
	}

	done := make(map[string][]string)
	for _, username := range usernames {
		streaks, err := ctx.Tracker.UserStreaks(username)
		if err != nil {
			return err
		}
		for _, s := range streaks {
			if len(s.Completions) > 0 {
				done[s.Habit] = append(done[s.Habit], fmt.Sprintf("%s: %s", username, strings.Join(s.Completions, ", ")))
			}
		}
	}

	for _, h := range habits {
		ctx.Printf("\n%s\n", titleStyle.Render(h.Name))
		if len(done[h.Name]) == 0 {
			ctx.Println("  No completions yet.")
			continue
		}
		for _, line := range done[h.Name] {
			ctx.Printf("  %s\n", line)
		}
	}
	return nil
}

type HabitResetCmd struct{}

func (c *HabitResetCmd) Run(ctx *Context) error {
	n, err := ctx.Tracker.ResetHabitMarkers()
	if err != nil {
		return err
	}
	ctx.Printf("Reset %d habit(s).\n", n)
	return nil
}

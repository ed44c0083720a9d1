package cli

import (
	"fmt"
)

type LeaderboardCmd struct {
	Show  LeaderboardShowCmd  `cmd:"" default:"withargs" help:"Show current rankings."`
	Reset LeaderboardResetCmd `cmd:"" help:"Archive this month's rankings and reset monthly scores."`
	Top   LeaderboardTopCmd   `cmd:"" help:"Show the top performer of each archived month."`
	Past  LeaderboardPastCmd  `cmd:"" help:"Show archived monthly rankings."`
}

type LeaderboardShowCmd struct {
	Household string `arg:"" optional:"" help:"Household to show. All households when omitted."`
}

func (c *LeaderboardShowCmd) Run(ctx *Context) error {
	if c.Household != "" {
		standings, err := ctx.Tracker.Leaderboard(c.Household)
		if err != nil {
			return ctx.Explain(err, Names{Household: c.Household})
		}
		if len(standings) == 0 {
			ctx.Printf("No rankings available for household '%s'.\n", c.Household)
			return nil
		}
		ctx.Println(renderStandings(fmt.Sprintf("Leaderboard for '%s'", c.Household), standings))
		return nil
	}

	rankings, err := ctx.Tracker.Rankings()
	if err != nil {
		return err
	}
	if len(rankings) == 0 {
		ctx.Println("No households found.")
		return nil
	}
	for i, household := range sortedKeys(rankings) {
		if i > 0 {
			ctx.Println()
		}
		ctx.Println(renderStandings(fmt.Sprintf("Leaderboard for '%s'", household), rankings[household]))
	}
	return nil
}

type LeaderboardResetCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *LeaderboardResetCmd) Run(ctx *Context) error {
	if !c.Yes {
		ok, err := ctx.Confirm("Archive the current leaderboard and reset monthly scores?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Reset cancelled.")
			return nil
		}
	}

	archive, err := ctx.Tracker.ResetMonthly()
	if err != nil {
		return err
	}
	ctx.Printf("Monthly scores reset. Leaderboard archived as %s.\n", archive.Month)
	if archive.TopUser != nil {
		ctx.Printf("Top performer: %s (%s) with %d points\n", archive.TopUser.Username, archive.TopUser.Household, archive.TopUser.Points)
	}
	return nil
}

type LeaderboardTopCmd struct{}

func (c *LeaderboardTopCmd) Run(ctx *Context) error {
	archives, err := ctx.Tracker.TopPerformers()
	if err != nil {
		return err
	}
	if len(archives) == 0 {
		ctx.Println("No top performers recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(archives))
	for _, a := range archives {
		rows = append(rows, []string{a.Month, a.TopUser.Username, a.TopUser.Household, fmt.Sprintf("%d", a.TopUser.Points)})
	}
	ctx.Println(renderTable([]string{"Month", "User", "Household", "Points"}, rows))
	return nil
}

type LeaderboardPastCmd struct {
	Month string `help:"Only show the archive for this month (YYYY-MM)."`
}

func (c *LeaderboardPastCmd) Run(ctx *Context) error {
	archives, err := ctx.Tracker.PastRankings()
	if err != nil {
		return err
	}

	shown := 0
	for _, a := range archives {
		if c.Month != "" && a.Month != c.Month {
			continue
		}
		if shown > 0 {
			ctx.Println()
		}
		shown++
		ctx.Printf("%s\n", titleStyle.Render(a.Month+" Rankings"))
		if len(a.Rankings) == 0 {
			ctx.Println("  No households ranked.")
			continue
		}
		for _, household := range sortedKeys(a.Rankings) {
			ctx.Println(renderStandings("Household: "+household, a.Rankings[household]))
		}
	}
	if shown == 0 {
		ctx.Println("No past rankings recorded.")
	}
	return nil
}

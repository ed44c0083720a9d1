package cli

import (
	"fmt"
	"strings"
)

type HouseholdCmd struct {
	Create HouseholdCreateCmd `cmd:"" help:"Create a household."`
	List   HouseholdListCmd   `cmd:"" help:"List households and their members."`
}

type HouseholdCreateCmd struct {
	Name string `arg:"" help:"Household name."`
}

func (c *HouseholdCreateCmd) Run(ctx *Context) error {
	h, err := ctx.Tracker.CreateHousehold(c.Name)
	if err != nil {
		return err
	}
	ctx.Printf("Household '%s' created.\n", h.Name)
	return nil
}

type HouseholdListCmd struct{}

func (c *HouseholdListCmd) Run(ctx *Context) error {
	households, err := ctx.Tracker.Households()
	if err != nil {
		return err
	}
	if len(households) == 0 {
		ctx.Println("No households found.")
		return nil
	}

	rows := make([][]string, 0, len(households))
	for _, h := range households {
		total := 0
		for _, p := range h.Points {
			total += p
		}
		members := strings.Join(h.Members, ", ")
		if members == "" {
			members = "-"
		}
		rows = append(rows, []string{h.Name, members, fmt.Sprintf("%d", total)})
	}
	ctx.Println(renderTable([]string{"Household", "Members", "Points this month"}, rows))
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habithouse/internal/cli"
	"github.com/julianstephens/habithouse/internal/cli/backups"
	"github.com/julianstephens/habithouse/internal/cli/system"
	"github.com/julianstephens/habithouse/internal/config"
	"github.com/julianstephens/habithouse/internal/constants"
	apperrors "github.com/julianstephens/habithouse/internal/errors"
	"github.com/julianstephens/habithouse/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" default:"~/.config/habithouse/config.toml"`
	Data     string `help:"Data file path. A .db or .sqlite file selects SQLite, a .json file selects the JSON store." type:"path"`
	DB       string `name:"db" help:"PostgreSQL connection string. Credentials must NOT be embedded; store them with 'habithouse keyring set' or the ${env} variable instead."`
	DebugLog bool   `name:"debug" help:"Enable debug logging to stderr."`

	Init     system.InitCmd     `cmd:"" help:"Initialize habithouse config and storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Validate system.ValidateCmd `cmd:"" help:"Check stored data for conflicts."`
	Debug    system.DebugCmd    `cmd:"" help:"Debug commands for troubleshooting."`
	Tui      system.TuiCmd      `cmd:"" help:"Launch the interactive dashboard." default:"1"`

	Household   cli.HouseholdCmd   `cmd:"" help:"Manage households."`
	User        cli.UserCmd        `cmd:"" help:"Manage users."`
	Habit       cli.HabitCmd       `cmd:"" help:"Manage habit definitions."`
	Complete    cli.CompleteCmd    `cmd:"" help:"Record a habit completion."`
	Claim       cli.ClaimCmd       `cmd:"" help:"Claim a bonus habit for the current period."`
	Leaderboard cli.LeaderboardCmd `cmd:"" help:"Show and manage household rankings."`
	Streak      cli.StreakCmd      `cmd:"" help:"Show streaks."`
	Clear       cli.ClearCmd       `cmd:"" help:"Delete all data."`
	Backup      backups.BackupCmd  `cmd:"" help:"Manage data backups."`
	Keyring     system.KeyringCmd  `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Household habit tracker with streaks, bonus claims and a monthly leaderboard"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"env":     constants.EnvConnectionString,
		},
	)

	configDir := filepath.Dir(CLI.Config)
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}

	command := strings.Fields(ctx.Command())[0]
	if err := logger.Init(logger.Config{
		Debug:     CLI.DebugLog || cfg.Log.Debug,
		ConfigDir: configDir,
		Command:   ctx.Command(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	opts := cli.StoreOptions{Data: CLI.Data, Database: CLI.DB}

	// Keyring commands must work before a store can be reached
	if command == "keyring" {
		apperrors.Fatal(ctx.Run(&cli.Context{Config: cfg, ConfigDir: configDir, ConfigPath: CLI.Config, StoreOptions: opts}))
		return
	}

	appCtx, err := cli.NewContext(cfg, configDir, CLI.Config, opts)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer appCtx.Store.Close()

	// Init prepares its own store from the config it writes
	if command != "init" {
		if err := appCtx.Store.Init(); err != nil {
			apperrors.Fatal(fmt.Errorf("failed to open store (run '%s init' first?): %w", constants.AppName, err))
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		appCtx.Store.Close()
		apperrors.Fatal(err)
	}
}

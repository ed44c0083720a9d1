package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habithouse/internal/cli"
	"github.com/julianstephens/habithouse/internal/config"
	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/storage"
	"github.com/julianstephens/habithouse/internal/storage/postgres"
)

type InitCmd struct {
	Backend  string `help:"Storage backend (json, sqlite or postgres)." enum:"json,sqlite,postgres" default:"json"`
	Timezone string `help:"IANA timezone used for day and week boundaries." default:"Local"`
	Force    bool   `help:"Overwrite an existing config file."`
	Source   string `help:"Data file or PostgreSQL connection string to copy the document from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	cfg, err := c.writeConfig(ctx)
	if err != nil {
		return err
	}

	store, err := cli.NewStore(cfg, ctx.ConfigDir, ctx.StoreOptions)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habithouse storage at: %s\n", store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", displaySource(c.Source))
		if err := c.copyFrom(ctx, store); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	}
	return nil
}

func (c *InitCmd) writeConfig(ctx *cli.Context) (config.Config, error) {
	if _, err := os.Stat(ctx.ConfigPath); err == nil && !c.Force {
		ctx.Printf("Using existing config at: %s\n", ctx.ConfigPath)
		return ctx.Config, nil
	} else if err != nil && !os.IsNotExist(err) {
		return config.Config{}, fmt.Errorf("failed to access config: %w", err)
	}

	cfg := ctx.Config
	cfg.Storage.Backend = constants.StorageBackend(c.Backend)
	cfg.Timezone = c.Timezone
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := config.Save(ctx.ConfigPath, cfg); err != nil {
		return config.Config{}, err
	}
	ctx.Printf("Wrote config: %s\n", ctx.ConfigPath)
	return cfg, nil
}

func (c *InitCmd) copyFrom(ctx *cli.Context, dest storage.Provider) error {
	var opts cli.StoreOptions
	if postgres.IsConnString(c.Source) {
		opts.Database = c.Source
	} else {
		path, err := filepath.Abs(config.ExpandPath(c.Source))
		if err != nil {
			return err
		}
		destPath, _ := filepath.Abs(dest.GetConfigPath())
		if path == destPath {
			return fmt.Errorf("source and destination are the same: %s", path)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("source not found: %w", err)
		}
		opts.Data = path
	}

	src, err := cli.NewStore(config.Default(), ctx.ConfigDir, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	doc, err := src.Load()
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	current, err := dest.Load()
	if err != nil {
		return fmt.Errorf("failed to load destination: %w", err)
	}

	doc.Revision = current.Revision
	if err := dest.Save(doc); err != nil {
		return fmt.Errorf("failed to save destination: %w", err)
	}

	ctx.Printf("  Copied %d households, %d users, %d habits and %d archived months\n",
		len(doc.Households), len(doc.Users), len(doc.Habits)+len(doc.BonusHabits), len(doc.Leaderboard.PastRankings))
	return nil
}

func displaySource(source string) string {
	if postgres.IsConnString(source) {
		return maskPassword(source)
	}
	return source
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/pophits/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file when none exists, then creates the cache database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Using existing config %s\n", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Created config %s\n", configPath)
	}

	if dir := filepath.Dir(config.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.RunMigrations(db)
	if err != nil {
		return err
	}
	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}

	r.writePlain("✓ Database ready at %s (schema v%d, %d migrations applied)\n", config.Database.Path, version, applied)
	if config.Spotify.ClientID == "" {
		r.writePlainln("⚠ Set spotify.client_id in %s to enable Spotify export", configPath)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/linkbox/internal/shared"
)

// SetupConfig writes the config file with a random session secret.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%w: %s already exists, use --force to overwrite", shared.ErrInvalidArgument, path)
	}

	config := shared.DefaultConfig()
	secret, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate session secret: %w", err)
	}
	config.Auth.SessionSecret = secret

	if err := shared.SaveConfig(path, config); err != nil {
		return err
	}
	r.config = config
	r.logger.Info("config file written", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set auth.client_id and auth.client_secret (or LINKBOX_CLIENT_ID / LINKBOX_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'linkbox setup database'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := shared.Schema(ctx, db)
	if err != nil {
		return err
	}

	r.logger.Info("setup complete", "path", r.config.Database.Path, "schema", status.Version)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", r.config.Database.Path, status.Version)
}

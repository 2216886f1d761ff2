package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations. With --reset it
// rolls every migration back first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}
	if err := r.loadConfig(configPath, false); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("reset") {
		r.logger.Warn("resetting database, play history and track cache will be dropped")
		if err := shared.ResetDatabase(db); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}

	status, err := shared.Status(db)
	if err != nil {
		return fmt.Errorf("failed to read schema status: %w", err)
	}
	r.logger.Info("schema ready", "version", status.Version, "applied", status.Applied)

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupConfig writes the example configuration to the config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set presence.client_id to your chat application ID\n")
	r.writePlain("2. Start the Deezer desktop shell with --remote-debugging-port=9222\n")
	r.writePlain("3. Run 'dzrpc probe' to check the player can be read\n")
	return nil
}

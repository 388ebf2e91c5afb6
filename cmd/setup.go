package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.config = config
	r.configPath = configPath

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer func() {
		db.Close()
		r.db = nil
	}()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Configuration: %s\n", configPath)
	r.writePlain("✓ Database: %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add your Spotify client_id and client_secret to %s\n", configPath)
	r.writePlain("2. Run 'tlsync auth login' to authorize\n")
	r.writePlain("3. Run 'tlsync sync run tracklist.txt' to sync a tracklist\n")

	return nil
}

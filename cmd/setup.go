package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/emx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example config (unless one exists) and initializes the history database.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("output")

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Config written to %s\n", configPath)
	} else {
		r.logger.Info("config file already exists, leaving it untouched", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
	}

	if !config.Database.Enabled {
		r.logger.Info("run history disabled, skipping database setup")
		return nil
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.OpenLedger(config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.writePlain("✓ History database ready at %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in [source] token and the [destination] block in %s\n", configPath)
	r.writePlain("2. Run 'emx setup destination --curl-file request.sh' to extract destination credentials\n")
	return nil
}

// SetupDestination extracts destination credentials from a browser "Copy as cURL" request
// and prints the matching config block.
func (r *Runner) SetupDestination(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var req *shared.CurlRequest
	var err error

	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		req, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	dest, err := req.Destination()
	if err != nil {
		return err
	}
	if dest.TeamID == "" {
		r.logger.Warn("workspace not found in request URL, fill in team_id by hand", "url", req.URL)
	}

	r.writePlain("✓ Destination credentials extracted\n")
	r.writePlainln("Add this block to your config.toml:")
	r.writePlain("\n%s", dest.ToTOML())
	return nil
}

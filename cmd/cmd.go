// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are inherited by every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("EMX_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "source-token",
			Usage:   "Source workspace API token",
			Sources: cli.EnvVars("EMX_SOURCE_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "team-id",
			Usage:   "Destination workspace team ID or subdomain",
			Sources: cli.EnvVars("EMX_TEAM_ID"),
		},
		&cli.StringFlag{
			Name:    "cookie",
			Usage:   "Destination browser session cookie",
			Sources: cli.EnvVars("EMX_COOKIE"),
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Destination xoxc- session token",
			Sources: cli.EnvVars("EMX_TOKEN"),
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Do not record this run in the history database",
		},
	}
}

// listCommand fetches the source catalog
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Fetch the custom emoji list from the source workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-file",
				Aliases: []string{"o"},
				Usage:   "Where to write the emoji list (default from [paths] list_file)",
			},
		},
		Action: r.List,
	}
}

// downloadCommand fetches every image in the catalog
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download emoji images, fetching the list first if needed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "emoji-list",
				Aliases: []string{"l"},
				Usage:   "Emoji list file (default from [paths] list_file)",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"d"},
				Usage:   "Directory to save images into (default from [paths] output_dir)",
			},
		},
		Action: r.Download,
	}
}

// uploadCommand publishes a directory of images
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload every image in a directory to the destination workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "emoji-dir",
				Aliases: []string{"d"},
				Usage:   "Directory of images to upload (default from [paths] output_dir)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write per-emoji outcomes to a CSV file",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the images that would be uploaded without contacting the API",
			},
		},
		Action: r.Upload,
	}
}

// exportCommand runs list, download and upload in sequence
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "List, download and upload in one step",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"d"},
				Usage:   "Directory to stage images in (default from [paths] output_dir)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write upload outcomes to a CSV file",
			},
		},
		Action: r.Export,
	}
}

// historyCommand inspects the run ledger
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded migration runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show per-emoji outcomes of a run",
				ArgsUsage: "<run-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// setupCommand handles configuration helpers
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Configuration helpers",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "destination",
				Usage: "Extract destination credentials from a browser \"Copy as cURL\" request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from browser DevTools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to file containing cURL command",
					},
				},
				Action: r.SetupDestination,
			},
		},
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse the source catalog and migrate interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"d"},
				Usage:   "Directory to stage images in (default from [paths] output_dir)",
			},
		},
		Action: r.TUI,
	}
}

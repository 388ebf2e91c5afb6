// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and initialize the database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// parseCommand previews a tracklist without touching the catalog.
func parseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Parse a tracklist file and print the extracted tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Override the tracklist title",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.Parse,
	}
}

// syncCommand handles tracklist sync operations
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Match a tracklist against Spotify and write a playlist",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a full tracklist sync",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Override the playlist name",
					},
					&cli.FloatFlag{
						Name:  "confidence",
						Usage: "Minimum similarity score to accept a match (0.0-1.0)",
					},
					&cli.BoolFlag{
						Name:  "no-duration-filter",
						Usage: "Disable the search result duration filter",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Match tracks without creating or modifying any playlist",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent catalog searches",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Report format: text, json, csv, or markdown",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file instead of stdout",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:    "ui",
				Aliases: []string{"interactive"},
				Usage:   "Interactive TUI for reviewing matches before syncing",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Override the playlist name",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Match tracks without creating or modifying any playlist",
					},
				},
				Action: r.SyncUI,
			},
		},
	}
}

// historyCommand inspects persisted sync runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sync runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a sync run with its per-track results",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// cacheCommand manages the catalog search cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the catalog search cache",
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Delete cached search results older than the given age",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "older-than",
						Usage: "Age cutoff as a Go duration (e.g. 720h)",
						Value: "720h",
					},
				},
				Action: r.CachePrune,
			},
		},
	}
}

// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

const defaultConfigPath = "config.toml"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
		Sources: cli.EnvVars("DZRPC_CONFIG"),
	}
}

func debugFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "debug",
		Usage: "Log at debug level",
	}
}

// runCommand starts the reconciliation loop
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Poll the player and publish presence, broadcasts and history",
		Flags: []cli.Flag{
			configFlag(),
			debugFlag(),
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print dispatched changes",
			},
		},
		Action: r.Run,
	}
}

// probeCommand reads the player once
func probeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Sample the player once and print the snapshot",
		Flags: []cli.Flag{
			configFlag(),
			debugFlag(),
			&cli.BoolFlag{
				Name:  "resolve",
				Usage: "Also look the track up in the catalog",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Probe,
	}
}

// historyCommand lists recorded plays
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"plays"},
		Usage:   "List recorded changes, newest first",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of plays to return",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "tracks",
				Usage: "Only list track changes",
			},
			&cli.DurationFlag{
				Name:  "since",
				Usage: "Only list plays observed within this duration",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Write the plays to a file instead (csv, markdown, text)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export file path (default: plays_<timestamp>.<ext>)",
			},
		},
		Action: r.History,
	}
}

// watchCommand opens the TUI listener
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"tui", "ui"},
		Usage:   "Follow the broadcast channel in a terminal UI",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "url",
				Usage: "Broadcast channel URL (default: ws://<server.host>:<server.port>/)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the UI owns the terminal",
				Value: "./tmp/dzrpc-watch.log",
			},
		},
		Action: r.Watch,
	}
}

// configCommand reads and writes the settings store
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Read and write stored settings",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print one setting",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigGet,
			},
			{
				Name:  "set",
				Usage: "Change one setting and write the config file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
					&cli.StringArg{Name: "value"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigSet,
			},
			{
				Name:   "list",
				Usage:  "Print every setting",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigList,
			},
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Roll back every migration and recreate the schema, dropping play history and the track cache",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "spotify",
				Usage: "Authorize artwork lookups with Spotify using OAuth2",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening a browser",
					},
				},
				Action: r.AuthSpotify,
			},
			{
				Name:   "status",
				Usage:  "Show whether an artwork token is stored",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

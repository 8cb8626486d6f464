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
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the track API and audio streams",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.StringFlag{
				Name:  "media",
				Usage: "Media root directory (overrides media.root)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Import audio files added to the media root while serving",
			},
		},
		Action: r.Serve,
	}
}

// tracksCommand manages the track library
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracks",
		Aliases: []string{"t"},
		Usage:   "Manage the track library",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a track by filename under the media root or by absolute URL",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "location"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Track title (read from tags for local files when omitted)",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Track artist",
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Track album",
					},
					&cli.IntFlag{
						Name:  "duration",
						Usage: "Duration in seconds",
					},
				},
				Action: r.TracksAdd,
			},
			{
				Name:  "list",
				Usage: "List registered tracks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table, csv or json",
						Value:   "table",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only list tracks by this artist",
					},
					&cli.StringFlag{
						Name:  "external",
						Usage: "Only list external (true) or local (false) tracks",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the listing to a .csv or .json file instead of stdout",
					},
				},
				Action: r.TracksList,
			},
			{
				Name:  "show",
				Usage: "Show one track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.TracksShow,
			},
			{
				Name:  "delete",
				Usage: "Soft delete a track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.TracksDelete,
			},
			{
				Name:  "check",
				Usage: "Verify every track still has a file or a reachable URL",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent checks",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "External probes per second",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Skip probing external URLs",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the full report as JSON",
					},
				},
				Action: r.TracksCheck,
			},
			{
				Name:   "import",
				Usage:  "Register every .mp3 file under the media root",
				Flags:  []cli.Flag{configFlag()},
				Action: r.TracksImport,
			},
		},
	}
}

// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file with a freshly generated session secret",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles sign in, sign out and session inspection.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in and out",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser with OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Usage: "OAuth provider",
						Value: "google",
					},
					&cli.StringFlag{
						Name:  "redirect",
						Usage: "Where the provider sends the browser after consent (defaults to auth.redirect_uri)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:    "whoami",
				Aliases: []string{"status"},
				Usage:   "Show the signed-in account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthWhoami,
			},
		},
	}
}

// bookmarksCommand handles bookmark CRUD, import and export.
func bookmarksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "bookmarks",
		Aliases: []string{"bm"},
		Usage:   "Manage the signed-in account's bookmarks",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List bookmarks, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.BookmarksList,
			},
			{
				Name:  "add",
				Usage: "Add a bookmark",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Bookmark title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Bookmark URL",
						Required: true,
					},
				},
				Action: r.BookmarksAdd,
			},
			{
				Name:  "edit",
				Usage: "Change the title or url of a bookmark",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Bookmark ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "New title",
					},
					&cli.StringFlag{
						Name:    "url",
						Aliases: []string{"u"},
						Usage:   "New URL",
					},
				},
				Action: r.BookmarksEdit,
			},
			{
				Name:    "rm",
				Aliases: []string{"delete"},
				Usage:   "Delete a bookmark",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Bookmark ID",
						Required: true,
					},
				},
				Action: r.BookmarksRemove,
			},
			{
				Name:  "export",
				Usage: "Export bookmarks (json, yaml, csv, markdown, txt)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (output directory with --all)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Write every format plus a manifest into one directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers for --all",
						Value: 3,
					},
				},
				Action: r.BookmarksExport,
			},
			{
				Name:  "import",
				Usage: "Import bookmarks from a JSON or YAML file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "file",
					},
				},
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Inserts per second",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "skip-duplicates",
						Usage: "Skip urls that are already saved",
					},
				},
				Action: r.BookmarksImport,
			},
		},
	}
}

// watchCommand streams change events for the signed-in account.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print bookmark changes as they happen until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output one JSON event per line",
			},
		},
		Action: r.Watch,
	}
}

// tuiCommand launches the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ui",
		Aliases: []string{"tui", "dashboard"},
		Usage:   "Open the interactive bookmark dashboard",
		Action:  r.TUI,
	}
}

// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// outputFlags are shared by every command that can print JSON.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "export",
			Usage: "Write the result to a file: csv, md or txt",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Export file path (default: derived from the title)",
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// setupCommand writes a config file and prepares the local cache
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write config.toml, create the cache database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// songsCommand handles catalog reads and per-song interactions
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Browse, rate, comment on and bookmark songs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs with filters, sorting and paging",
				Flags: withFlags([]cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "page-size", Usage: "Songs per page", Value: 25},
					&cli.StringFlag{Name: "sort", Usage: "Sort field (title, artist, year, peak_rank, ...)"},
					&cli.StringFlag{Name: "order", Usage: "Sort order: asc or desc"},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search title and artist"},
					&cli.StringFlag{Name: "artist", Usage: "Artist slug"},
					&cli.IntFlag{Name: "year", Usage: "Chart year"},
					&cli.IntFlag{Name: "decade", Usage: "First year of a decade, e.g. 1980"},
					&cli.StringFlag{Name: "peak", Usage: "Peak rank filter: number_one, top_10 or 1-100"},
					&cli.BoolFlag{Name: "number-one", Usage: "Only songs that reached #1"},
					&cli.BoolFlag{Name: "unrated", Usage: "Only songs you have not rated"},
					&cli.StringFlag{Name: "tag", Usage: "Tag filter"},
				}, outputFlags(), exportFlags()),
				Action: r.SongsList,
			},
			{
				Name:      "get",
				Usage:     "Show a song with its comments",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Flags: withFlags([]cli.Flag{
					&cli.BoolFlag{Name: "timeline", Usage: "Include weekly chart positions"},
				}, outputFlags()),
				Action: r.SongsGet,
			},
			{
				Name:   "random",
				Usage:  "Show a random song",
				Flags:  outputFlags(),
				Action: r.SongsRandom,
			},
			{
				Name:  "top",
				Usage: "List the highest rated songs",
				Flags: withFlags([]cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Number of songs (1-100)", Value: 10},
				}, outputFlags(), exportFlags()),
				Action: r.SongsTop,
			},
			{
				Name:   "number-ones",
				Usage:  "List every #1 hit",
				Flags:  withFlags(outputFlags(), exportFlags()),
				Action: r.SongsNumberOnes,
			},
			{
				Name:  "hot100",
				Usage: "Show the current Hot 100 or a past week",
				Flags: withFlags([]cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "Chart week (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "dates", Usage: "List the chart weeks available"},
				}, outputFlags()),
				Action: r.SongsHot100,
			},
			{
				Name:  "rate",
				Usage: "Rate a song 1-10; rating it with your current score clears it",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "score"},
				},
				Action: r.SongsRate,
			},
			{
				Name:      "unrate",
				Usage:     "Clear your rating of a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsUnrate,
			},
			{
				Name:  "comment",
				Usage: "Comment on a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "text"},
				},
				Action: r.SongsComment,
			},
			{
				Name:      "bookmark",
				Usage:     "Toggle a bookmark on a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsBookmark,
			},
			{
				Name:  "bookmarks",
				Usage: "List your bookmarked songs, or clear them all",
				Flags: withFlags([]cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Remove every bookmark"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation for --clear"},
				}, outputFlags(), exportFlags()),
				Action: r.SongsBookmarks,
			},
			{
				Name:      "artist",
				Usage:     "Show an artist with their chart stats and songs",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Flags: withFlags([]cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page of the artist's songs", Value: 1},
					&cli.StringFlag{Name: "sort", Usage: "Sort field for the songs"},
					&cli.StringFlag{Name: "order", Usage: "Sort order: asc or desc"},
				}, outputFlags()),
				Action: r.SongsArtist,
			},
			{
				Name:  "artists",
				Usage: "List artists alphabetically",
				Flags: withFlags([]cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.StringFlag{Name: "letter", Usage: "Only artists starting with this letter"},
					&cli.BoolFlag{Name: "featured", Usage: "Show the featured artists instead"},
				}, outputFlags()),
				Action: r.SongsArtists,
			},
		},
	}
}

func generatorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "songs", Aliases: []string{"n"}, Usage: "Number of songs (1-100, default 10)"},
		&cli.IntFlag{Name: "hit-size", Usage: "Hit level 1-10; 1 is #1 hits only (default 5)"},
		&cli.StringSliceFlag{Name: "decade", Aliases: []string{"d"}, Usage: "Decade to draw from; repeat for more"},
	}
}

// generateCommand handles the playlist and quiz generators
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a random playlist or quiz",
		Commands: []*cli.Command{
			{
				Name:  "playlist",
				Usage: "Generate a playlist and optionally export it",
				Flags: withFlags(generatorFlags(), outputFlags(), exportFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "spotify", Usage: "Create the playlist on Spotify"},
					&cli.StringFlag{Name: "name", Usage: "Playlist name", Value: "PopHits Playlist"},
					&cli.BoolFlag{Name: "public", Usage: "Make the Spotify playlist public"},
				}),
				Action: r.GeneratePlaylist,
			},
			{
				Name:   "quiz",
				Usage:  "Generate quiz questions and optionally export them",
				Flags:  withFlags(generatorFlags(), outputFlags(), exportFlags()),
				Action: r.GenerateQuiz,
			},
		},
	}
}

func credentialFlags(register bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "email", Usage: "Account email"},
		&cli.StringFlag{Name: "password", Usage: "Account password (prompted when omitted)"},
	}
	if register {
		flags = append([]cli.Flag{&cli.StringFlag{Name: "username", Usage: "Account username"}}, flags...)
	}
	return flags
}

// authCommand handles PopHits accounts
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in to PopHits",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in with email and password",
				Flags:  credentialFlags(false),
				Action: r.AuthLogin,
			},
			{
				Name:   "register",
				Usage:  "Create an account and sign in",
				Flags:  credentialFlags(true),
				Action: r.AuthRegister,
			},
			{
				Name:  "import",
				Usage: "Sign in with the token from a browser \"Copy as cURL\" request",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "curl", Usage: "cURL command text"},
					&cli.StringFlag{Name: "curl-file", Usage: "File containing a cURL command"},
					&cli.StringFlag{Name: "username", Usage: "Username to show when the profile has none"},
				},
				Action: r.AuthImport,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show who is signed in",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:  "profile",
				Usage: "Show your profile and rating history, or change account details",
				Flags: withFlags([]cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "New username"},
					&cli.StringFlag{Name: "email", Usage: "New email"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
				}, outputFlags()),
				Action: r.AuthProfile,
			},
			{
				Name:  "reset-password",
				Usage: "Email a password reset link",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Account email"},
				},
				Action: r.AuthResetPassword,
			},
			{
				Name:  "confirm-reset",
				Usage: "Set a new password with the uid and token from the reset link",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid", Usage: "uid segment of the reset link"},
					&cli.StringFlag{Name: "token", Usage: "token segment of the reset link"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
				},
				Action: r.AuthConfirmReset,
			},
		},
	}
}

// spotifyCommand handles the Spotify connection and playlist export
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Connect Spotify and export playlists",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Connect Spotify through the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the sign-in URL instead of opening it"},
				},
				Action: r.SpotifyLogin,
			},
			{
				Name:      "token",
				Usage:     "Store the token from a Spotify redirect URL pasted by hand",
				Arguments: []cli.Argument{&cli.StringArg{Name: "redirect-url"}},
				Action:    r.SpotifyToken,
			},
			{
				Name:   "status",
				Usage:  "Show whether a Spotify token is stored",
				Flags:  outputFlags(),
				Action: r.SpotifyStatus,
			},
			{
				Name:      "export",
				Usage:     "Create a Spotify playlist from song slugs or your bookmarks",
				ArgsUsage: "[slug...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Playlist name", Value: "PopHits Playlist"},
					&cli.StringFlag{Name: "description", Usage: "Playlist description", Value: "Generated by PopHits"},
					&cli.BoolFlag{Name: "public", Usage: "Make the playlist public"},
					&cli.BoolFlag{Name: "bookmarks", Usage: "Export your bookmarked songs"},
				},
				Action: r.SpotifyExport,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored Spotify token",
				Action: r.SpotifyLogout,
			},
		},
	}
}

// blogCommand reads editorial posts
func blogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "blog",
		Usage: "Read PopHits blog posts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List blog posts",
				Flags: withFlags([]cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search posts"},
				}, outputFlags()),
				Action: r.BlogList,
			},
			{
				Name:      "get",
				Usage:     "Show a blog post",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Flags:     outputFlags(),
				Action:    r.BlogGet,
			},
		},
	}
}

// rawCommand sends requests straight to the PopHits API for debugging
func rawCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "raw",
		Usage: "Direct PopHits API requests for debugging",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Compact JSON output"},
				},
				Action: r.RawGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with a JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Usage: "JSON request body", Required: true},
				},
				Action: r.RawPost,
			},
		},
	}
}

// serveCommand runs the web front end
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the PopHits web pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the terminal song browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse and rate songs in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Initial search"},
			&cli.BoolFlag{Name: "number-one", Usage: "Start with only #1 hits"},
		},
		Action: r.TUI,
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/session"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/urfave/cli/v3"
)

// configEnv names the variable that overrides the config file location.
const configEnv = shared.EnvPrefix + "CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv(configEnv)
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("failed to load %s: %v", configPath, err)
		}
		config = loaded
	} else if err := shared.ApplyEnv(config); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	sess := session.New()
	api := services.NewPopHitsServiceFromConfig(config.API, sess, logger)

	manager, err := session.NewManager(sess, session.NewFileStore(config.Session.Path), api, logger)
	if err != nil {
		logger.Fatalf("failed to restore session: %v", err)
	}
	defer manager.Close()

	var spotify SpotifyClient
	if svc, err := services.NewSpotifyService(config.Spotify, sess); err == nil {
		spotify = svc
	} else {
		logger.Debug("spotify helper disabled", "reason", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		API:        api,
		Spotify:    spotify,
		Manager:    manager,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "pophits",
		Usage:    "Browse, rate and export Billboard Hot 100 songs from PopHits.org",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		manager.Close()
		logger.Fatalf("application error: %v", err)
	}
}

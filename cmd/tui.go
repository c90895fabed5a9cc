package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal song browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	r.watchSession(ctx)

	q := services.NewSongQuery()
	if term := strings.TrimSpace(cmd.String("search")); term != "" {
		q = q.WithSearch(term)
	}
	if cmd.Bool("number-one") {
		q = q.WithNumberOneOnly(true)
	}

	model := ui.NewModel(ctx, r.api, r.manager.Session(), q)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dzrpc/internal/broadcast"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/desertthunder/dzrpc/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch follows the broadcast channel in the terminal UI.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config"), false); err != nil {
		return err
	}

	url := cmd.String("url")
	if url == "" {
		url = "ws://" + r.config.Server.Addr() + "/"
	}

	sub, err := broadcast.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("is `dzrpc run` running? %w", err)
	}
	defer sub.Close()
	sub.Start()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.logger.Info("watching", "url", url)

	p := tea.NewProgram(ui.NewModel(sub), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/dzrpc/internal/formatter"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/repositories"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayView is the printable form of a [models.Play].
type PlayView struct {
	ID         string    `json:"id"`
	TrackID    int64     `json:"track_id"`
	Title      string    `json:"title"`
	Artists    string    `json:"artists"`
	Album      string    `json:"album"`
	Link       string    `json:"link,omitempty"`
	Reason     string    `json:"reason"`
	Playing    bool      `json:"playing"`
	ObservedAt time.Time `json:"observed_at"`
}

func newPlayView(p *models.Play) PlayView {
	return PlayView{
		ID:         p.ID(),
		TrackID:    p.TrackID(),
		Title:      p.Title(),
		Artists:    p.Artists(),
		Album:      p.Album(),
		Link:       p.Link(),
		Reason:     p.Reason().String(),
		Playing:    p.Playing(),
		ObservedAt: p.ObservedAt(),
	}
}

type playLister interface {
	List(criteria map[string]any) ([]*models.Play, error)
}

// History lists recorded plays.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config"), false); err != nil {
		return err
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if cmd.Bool("tracks") {
		criteria["reason"] = models.TrackChanged
	}
	if since := cmd.Duration("since"); since > 0 {
		criteria["since"] = time.Now().Add(-since)
	}

	plays := repositories.NewPlayRepository(db)
	if cmd.IsSet("export") {
		return r.exportHistory(plays, criteria, cmd.String("export"), cmd.String("output"))
	}
	return r.history(plays, criteria, cmd.Bool("json"), cmd.Bool("pretty"))
}

func (r *Runner) exportHistory(plays playLister, criteria map[string]any, format, output string) error {
	f, err := formatter.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	list, err := plays.List(criteria)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(f, list, output)
	if err != nil {
		return err
	}

	r.logger.Debug("history exported", "format", f, "path", path)
	return r.writePlain("✓ Exported %d plays to %s\n", len(list), path)
}

func (r *Runner) history(plays playLister, criteria map[string]any, asJSON, pretty bool) error {
	list, err := plays.List(criteria)
	if err != nil {
		return err
	}

	views := make([]PlayView, 0, len(list))
	for _, p := range list {
		views = append(views, newPlayView(p))
	}

	if asJSON {
		return r.writeJSON(views, pretty)
	}

	if len(views) == 0 {
		return r.writePlain("No plays recorded\n")
	}

	r.writePlainHeader(fmt.Sprintf("%d plays", len(views)))
	for _, v := range views {
		state := "▶"
		if !v.Playing {
			state = "⏸"
		}
		r.writePlain("%s %s  %s - %s (%s)\n", v.ObservedAt.Local().Format("2006-01-02 15:04:05"), state, v.Artists, v.Title, v.Reason)
	}
	return nil
}

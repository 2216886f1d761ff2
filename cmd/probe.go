package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/dzrpc/internal/bridge"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ProbeResult is what the probe command reports.
type ProbeResult struct {
	Snapshot models.Snapshot       `json:"snapshot"`
	Resolved *models.ResolvedTrack `json:"resolved,omitempty"`
}

// Probe samples the player once.
func (r *Runner) Probe(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config"), cmd.Bool("debug")); err != nil {
		return err
	}

	devtools := bridge.NewDevTools(r.config.Bridge, r.logger)
	defer devtools.Close()

	var resolver tasks.MetadataResolver
	if cmd.Bool("resolve") {
		resolver = r.resolver(nil)
	}
	return r.probe(ctx, bridge.NewSampler(devtools, r.logger), resolver, cmd.Bool("json"), cmd.Bool("pretty"))
}

func (r *Runner) probe(ctx context.Context, sampler tasks.Sampler, resolver tasks.MetadataResolver, asJSON, pretty bool) error {
	snap, err := sampler.Sample(ctx)
	if err != nil {
		return err
	}

	result := ProbeResult{Snapshot: snap}
	if resolver != nil && snap.HasTrack() {
		ctx, cancel := context.WithTimeout(ctx, r.config.Engine.Timeout())
		defer cancel()
		resolved, err := resolver.Resolve(ctx, snap, models.TrackChanged)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", snap.Title(), err)
		}
		result.Resolved = resolved
	}

	if asJSON {
		return r.writeJSON(result, pretty)
	}

	if !snap.HasTrack() {
		return r.writePlain("Nothing is loaded in the player\n")
	}

	r.writePlainHeader(snap.Title())
	state := "paused"
	if snap.Playing {
		state = "playing"
	}
	timing := snap.Timing(time.Now())
	r.writePlain("Album:     %s\n", snap.Album())
	r.writePlain("State:     %s\n", state)
	r.writePlain("Length:    %s\n", timing.SongTime)
	r.writePlain("Remaining: %s\n", timing.Remaining)

	if res := result.Resolved; res != nil {
		r.writePlainln("Catalog")
		r.writePlain("Track:     %d %s\n", res.Track.ID, res.Track.Link)
		r.writePlain("Artists:   %s\n", res.Track.Artists(models.ArtistsSeparator))
		r.writePlain("Album:     %s\n", res.Album.Title)
		if res.Cover != "" {
			r.writePlain("Cover:     %s\n", res.Cover)
		}
	}
	return nil
}

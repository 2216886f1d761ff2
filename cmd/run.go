package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/desertthunder/dzrpc/internal/bridge"
	"github.com/desertthunder/dzrpc/internal/broadcast"
	"github.com/desertthunder/dzrpc/internal/presence"
	"github.com/desertthunder/dzrpc/internal/repositories"
	"github.com/desertthunder/dzrpc/internal/server"
	"github.com/desertthunder/dzrpc/internal/services"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/desertthunder/dzrpc/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Run wires the sampler, resolver and sinks into the engine and serves the broadcast channel
// until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config"), cmd.Bool("debug")); err != nil {
		return err
	}
	cfg := r.config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Presence.ClientID == "" {
		r.logger.Warn("presence client_id is not set, presence updates will fail")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := shared.OpenDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	plays := repositories.NewPlayRepository(db)
	cache := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))

	devtools := bridge.NewDevTools(cfg.Bridge, r.logger)
	defer devtools.Close()

	rpc := presence.NewRPC(cfg.Presence.ClientID, r.logger)
	defer rpc.Close()

	hub := broadcast.NewHub(r.logger)

	engine := tasks.NewEngine(tasks.EngineOpts{
		Sampler:  bridge.NewSampler(devtools, r.logger),
		Resolver: r.resolver(cache),
		Dispatcher: tasks.NewDispatcher(r.logger,
			tasks.NewPresenceSink(rpc, r.store, cfg.Presence.LargeImageKey),
			tasks.NewBroadcastSink(hub),
			tasks.NewHistorySink(plays),
		),
		Interval: cfg.Engine.Interval(),
		Timeout:  cfg.Engine.Timeout(),
		Logger:   r.logger,
		Progress: r.progress(ctx, cmd.Bool("quiet")),
	})

	router := server.NewChiRouter(r.logger)
	router.Handler(server.NewHealthHandler(hub, engine))
	router.Handler(hub)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(4)
	go func() {
		defer wg.Done()
		hub.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := server.Serve(ctx, cfg.Server.Addr(), router, r.logger); err != nil {
			errCh <- err
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		r.followSeeks(ctx, devtools, engine, cfg.Engine.Delay(), cfg.Bridge.SeekSelector)
	}()
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx); err != nil {
			errCh <- err
			stop()
		}
	}()

	r.logger.Info("dzrpc running", "broadcast", "ws://"+cfg.Server.Addr()+"/", "interval", cfg.Engine.Interval())
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// resolver builds the metadata resolver. Artwork lookups are only wired when
// an artwork client is configured.
func (r *Runner) resolver(cache tasks.TrackCache) *tasks.Resolver {
	cfg := r.config
	catalog := services.NewDeezerService(cfg.Catalog, nil)

	var artwork services.Artwork
	if cfg.Credentials.Spotify.ClientID != "" {
		artwork = services.NewArtworkService(cfg.Credentials.Spotify, r.store, services.ArtworkOptions{Logger: r.logger})
	}
	return tasks.NewResolver(catalog, artwork, cache, r.store, r.logger)
}

// followSeeks waits for the page to settle, installs the seek trigger and
// forwards it to the engine. Installation is retried every delay, and the
// trigger is reinstalled the same way whenever the page connection drops it.
func (r *Runner) followSeeks(ctx context.Context, w bridge.Watcher, engine *tasks.Engine, delay time.Duration, selector string) {
	if selector == "" {
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		triggers, err := w.Watch(ctx, selector)
		if err != nil {
			r.logger.Warn("failed to install seek trigger, retrying", "error", err, "in", delay)
			timer.Reset(delay)
			continue
		}

		r.logger.Info("seek trigger installed", "selector", selector)
		engine.Follow(ctx, triggers)
		if ctx.Err() != nil {
			return
		}
		r.logger.Warn("seek trigger lost, reinstalling", "in", delay)
		timer.Reset(delay)
	}
}

// progress prints dispatched changes until ctx is done. A nil channel disables reporting.
func (r *Runner) progress(ctx context.Context, quiet bool) chan<- tasks.Update {
	if quiet {
		return nil
	}

	updates := make(chan tasks.Update, 16)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				if u.Phase == tasks.Dispatch {
					r.writePlain("♪ %s\n", u.Message)
				}
			}
		}
	}()
	return updates
}

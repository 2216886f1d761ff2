package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/broadcast"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/presence"
	"github.com/desertthunder/dzrpc/internal/shared"
)

// Sink receives every resolved change.
type Sink interface {
	Name() string
	Send(ctx context.Context, change models.Change) error
}

// Dispatcher fans a change out to its sinks.
type Dispatcher struct {
	sinks  []Sink
	logger *log.Logger
}

// NewDispatcher creates a dispatcher over sinks.
func NewDispatcher(logger *log.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{sinks: sinks, logger: shared.WithLogger(logger, "component", "dispatcher")}
}

// Dispatch sends change to every sink concurrently and waits for all of them.
//
// A failing or panicking sink is logged and never keeps the others from running.
// The returned error joins every [shared.ErrSinkDelivery] failure.
func (d *Dispatcher) Dispatch(ctx context.Context, change models.Change) error {
	errs := make([]error, len(d.sinks))

	var wg sync.WaitGroup
	for i, sink := range d.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					errs[i] = fmt.Errorf("%w: %s: panic: %v", shared.ErrSinkDelivery, sink.Name(), p)
				}
			}()

			if err := sink.Send(ctx, change); err != nil {
				errs[i] = fmt.Errorf("%w: %s: %w", shared.ErrSinkDelivery, sink.Name(), err)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			d.logger.Warn("delivery failed", "reason", change.Reason, "error", err)
		}
	}
	return errors.Join(errs...)
}

// PresenceSink publishes changes to the chat client.
type PresenceSink struct {
	client        presence.Client
	settings      Settings
	largeImageKey string
}

// NewPresenceSink creates a presence sink. largeImageKey is shown when no cover resolved.
func NewPresenceSink(client presence.Client, settings Settings, largeImageKey string) *PresenceSink {
	return &PresenceSink{client: client, settings: settings, largeImageKey: largeImageKey}
}

func (s *PresenceSink) Name() string { return "presence" }

// Send sets the activity, or clears it when paused and only playing tracks are shown.
func (s *PresenceSink) Send(_ context.Context, change models.Change) error {
	if !change.Playing && s.settings.OnlyShowIfPlaying() {
		return s.client.Clear()
	}
	return s.client.SetActivity(BuildActivity(change, s.settings.ListeningMode(), s.largeImageKey))
}

// Publisher is the broadcast channel.
type Publisher interface {
	Send(msg broadcast.Message) error
}

// BroadcastSink publishes change events to local listeners.
type BroadcastSink struct {
	publisher Publisher
}

// NewBroadcastSink creates a broadcast sink over publisher.
func NewBroadcastSink(publisher Publisher) *BroadcastSink {
	return &BroadcastSink{publisher: publisher}
}

func (s *BroadcastSink) Name() string { return "broadcast" }

func (s *BroadcastSink) Send(_ context.Context, change models.Change) error {
	msg, err := BuildMessage(change)
	if err != nil {
		return err
	}
	return s.publisher.Send(msg)
}

// PlayRecorder persists dispatched changes.
type PlayRecorder interface {
	Create(play *models.Play) error
}

// HistorySink records every change in the listening history.
type HistorySink struct {
	plays PlayRecorder
}

// NewHistorySink creates a history sink over plays.
func NewHistorySink(plays PlayRecorder) *HistorySink {
	return &HistorySink{plays: plays}
}

func (s *HistorySink) Name() string { return "history" }

func (s *HistorySink) Send(_ context.Context, change models.Change) error {
	return s.plays.Create(models.NewPlay(0, change))
}

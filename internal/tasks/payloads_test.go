package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/dzrpc/internal/broadcast"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
)

var observedAt = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func resolvedTrack(cover string, fromArtwork bool) *models.ResolvedTrack {
	catalog := newMockCatalog()
	return &models.ResolvedTrack{
		AlbumRef:    "302127",
		Track:       catalog.tracks["302127|One More Time"],
		Album:       catalog.albums["302127"],
		Cover:       cover,
		FromArtwork: fromArtwork,
	}
}

func testChange(reason models.ChangeReason, playing bool) models.Change {
	return models.Change{
		ID:       "c1",
		Reason:   reason,
		Resolved: resolvedTrack("https://cdn.example/discovery-250.jpg", false),
		Playing:  playing,
		Timing: models.Timing{
			At:        observedAt,
			SongTime:  320 * time.Second,
			Remaining: 200 * time.Second,
		},
	}
}

func TestBuildActivity(t *testing.T) {
	t.Run("plain mode playing", func(t *testing.T) {
		a := BuildActivity(testChange(models.TrackChanged, true), false, "deezer")

		if a.Details != "One More Time" || a.State != "Daft Punk, Romanthony" {
			t.Errorf("unexpected text %q / %q", a.Details, a.State)
		}
		if a.LargeImage != "https://cdn.example/discovery-250.jpg" || a.LargeText != "Discovery" {
			t.Errorf("unexpected large image %q / %q", a.LargeImage, a.LargeText)
		}
		if a.SmallImage != PlayImage {
			t.Errorf("expected play image, got %q", a.SmallImage)
		}
		if a.Start != nil {
			t.Error("plain mode should not carry a start timestamp")
		}
		if a.End == nil || !a.End.Equal(observedAt.Add(200*time.Second)) {
			t.Errorf("expected end at remaining time, got %v", a.End)
		}
		if len(a.Buttons) != 1 || a.Buttons[0].Label != PlayButton || a.Buttons[0].URL != "https://www.deezer.com/track/3135553" {
			t.Errorf("unexpected buttons %+v", a.Buttons)
		}
	})

	t.Run("listening mode with artwork", func(t *testing.T) {
		c := testChange(models.TrackChanged, true)
		c.Resolved = resolvedTrack("ab67616d0000b273", true)
		a := BuildActivity(c, true, "deezer")

		if a.LargeImage != "spotify:ab67616d0000b273" {
			t.Errorf("expected prefixed artwork key, got %q", a.LargeImage)
		}
		if a.Start == nil || !a.Start.Equal(observedAt.Add(-120*time.Second)) {
			t.Errorf("expected start 120s before observation, got %v", a.Start)
		}
		if a.End == nil || !a.End.Equal(observedAt.Add(200*time.Second)) {
			t.Errorf("expected end 200s after observation, got %v", a.End)
		}
	})

	t.Run("no cover falls back to the configured key", func(t *testing.T) {
		c := testChange(models.TrackChanged, true)
		c.Resolved = resolvedTrack("", false)
		if a := BuildActivity(c, true, "deezer"); a.LargeImage != "deezer" {
			t.Errorf("expected fallback key, got %q", a.LargeImage)
		}
	})

	t.Run("paused", func(t *testing.T) {
		a := BuildActivity(testChange(models.Paused, false), true, "deezer")
		if a.SmallImage != PauseImage {
			t.Errorf("expected pause image, got %q", a.SmallImage)
		}
		if a.Start != nil || a.End != nil {
			t.Error("paused activity should carry no timestamps")
		}
	})

	t.Run("unknown remaining time", func(t *testing.T) {
		c := testChange(models.Played, true)
		c.Timing.Remaining = 0
		if a := BuildActivity(c, false, ""); a.End != nil {
			t.Errorf("expected no end without a remaining time, got %v", a.End)
		}
	})

	t.Run("no link no button", func(t *testing.T) {
		c := testChange(models.Played, true)
		c.Resolved.Track.Link = ""
		if a := BuildActivity(c, false, ""); a.Buttons != nil {
			t.Errorf("expected no buttons, got %+v", a.Buttons)
		}
	})
}

func TestBuildMessage(t *testing.T) {
	t.Run("track changed without previous", func(t *testing.T) {
		msg, err := BuildMessage(testChange(models.TrackChanged, true))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Event != broadcast.EventTrackChanged || msg.Type != broadcast.MessageType {
			t.Errorf("unexpected envelope %s/%s", msg.Type, msg.Event)
		}
		data, err := msg.DecodeTrackChanged()
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if data.Old.Track != nil {
			t.Errorf("expected empty old pair, got %+v", data.Old)
		}
		if data.New.Track == nil || data.New.Track.ID != 3135553 || data.New.Album.Title != "Discovery" {
			t.Errorf("unexpected new pair %+v", data.New)
		}
	})

	t.Run("track changed with previous", func(t *testing.T) {
		c := testChange(models.TrackChanged, true)
		prev := resolvedTrack("", false)
		prev.Track = newMockCatalog().tracks["302127|Aerodynamic"]
		c.Previous = prev

		msg, _ := BuildMessage(c)
		data, _ := msg.DecodeTrackChanged()
		if data.Old.Track == nil || data.Old.Track.ID != 3135554 {
			t.Errorf("expected previous track, got %+v", data.Old)
		}
	})

	t.Run("paused", func(t *testing.T) {
		msg, err := BuildMessage(testChange(models.Paused, false))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := msg.DecodeStateChanged()
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if data.Event.Playing == nil || *data.Event.Playing {
			t.Errorf("expected playing=false, got %+v", data.Event)
		}
		if data.Event.Time != nil {
			t.Error("play state events carry no time")
		}
		if data.Track == nil || data.Track.ID != 3135553 {
			t.Errorf("expected track in payload, got %+v", data.TrackAlbum)
		}
	})

	t.Run("played", func(t *testing.T) {
		msg, _ := BuildMessage(testChange(models.Played, true))
		data, _ := msg.DecodeStateChanged()
		if data.Event.Playing == nil || !*data.Event.Playing {
			t.Errorf("expected playing=true, got %+v", data.Event)
		}
	})

	for _, reason := range []models.ChangeReason{models.TimeDrifted, models.TimeMismatch} {
		t.Run(reason.String(), func(t *testing.T) {
			msg, err := BuildMessage(testChange(reason, true))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			data, err := msg.DecodeStateChanged()
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if data.Event.Time == nil || *data.Event.Time != 200 {
				t.Errorf("expected 200 seconds remaining, got %+v", data.Event)
			}
			if data.Event.Playing != nil {
				t.Error("timing events carry no playing flag")
			}
		})
	}

	t.Run("no change", func(t *testing.T) {
		if _, err := BuildMessage(testChange(models.NoChange, true)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

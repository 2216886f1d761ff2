package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
)

// ProbeScript reads transport state from the player page. It has no side effects.
const ProbeScript = `(() => {
	const link = document.querySelector('.track-link[href*="album"]');
	const albumId = link?.getAttribute('href').split('/')[3];
	const trackName = link?.textContent;
	const playing = dzPlayer.isPlaying();
	const songTime = parseInt(dzPlayer.getDuration()) * 1000;
	const timeLeft = Math.floor(dzPlayer.getRemainingTime() * 1000);
	return JSON.stringify({ albumId, trackName, playing, songTime, timeLeft });
})()`

// probeResult mirrors the probe's JSON. NaN durations serialise as null.
type probeResult struct {
	AlbumID   *string  `json:"albumId"`
	TrackName *string  `json:"trackName"`
	Playing   bool     `json:"playing"`
	SongTime  *float64 `json:"songTime"`
	TimeLeft  *float64 `json:"timeLeft"`
}

// Sampler turns one probe evaluation into a [models.Snapshot].
type Sampler struct {
	bridge Bridge
	logger *log.Logger
}

// NewSampler creates a [Sampler] over b.
func NewSampler(b Bridge, logger *log.Logger) *Sampler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Sampler{bridge: b, logger: shared.WithLogger(logger, "component", "sampler")}
}

// Sample evaluates the probe once. It does not retry.
//
// A page without a loaded track yields a snapshot with nil title and album.
func (s *Sampler) Sample(ctx context.Context) (models.Snapshot, error) {
	out, err := s.bridge.Evaluate(ctx, ProbeScript)
	if err != nil {
		if errors.Is(err, shared.ErrBridgeEvaluation) {
			return models.Snapshot{}, err
		}
		return models.Snapshot{}, fmt.Errorf("%w: %w", shared.ErrBridgeEvaluation, err)
	}

	snap, err := ParseSnapshot(out)
	if err != nil {
		return snap, err
	}
	s.logger.Debug("sampled", "title", snap.Title(), "album", snap.Album(), "playing", snap.Playing)
	return snap, nil
}

// ParseSnapshot decodes the probe's output. Empty output and "null" are "no track".
func ParseSnapshot(out string) (models.Snapshot, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == "null" {
		return models.Snapshot{}, nil
	}

	var res probeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: decode probe output: %w", shared.ErrBridgeEvaluation, err)
	}

	return models.Snapshot{
		AlbumRef:    nonEmpty(res.AlbumID),
		TrackTitle:  nonEmpty(res.TrackName),
		Playing:     res.Playing,
		SongTimeMs:  millis(res.SongTime),
		RemainingMs: millis(res.TimeLeft),
	}, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func millis(f *float64) int64 {
	if f == nil || *f < 0 {
		return 0
	}
	return int64(*f)
}

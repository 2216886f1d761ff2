package tasks

import (
	"testing"

	"github.com/desertthunder/dzrpc/internal/models"
)

func str(s string) *string { return &s }

func snapshot(title string, playing bool, songTime int64) models.Snapshot {
	return models.Snapshot{
		AlbumRef:    str("302127"),
		TrackTitle:  str(title),
		Playing:     playing,
		SongTimeMs:  songTime,
		RemainingMs: songTime / 2,
	}
}

func reconciled(title string, playing bool, songTime int64) *models.ReconciledState {
	return &models.ReconciledState{TrackID: 1, TrackTitle: title, Playing: playing, SongTimeMs: songTime}
}

func TestClassify(t *testing.T) {
	tt := []struct {
		name   string
		prev   *models.ReconciledState
		snap   models.Snapshot
		forced bool
		want   models.ChangeReason
	}{
		{name: "nothing resolved yet", prev: nil, snap: snapshot("B", true, 180000), want: models.TrackChanged},
		{name: "nothing resolved yet and forced", prev: nil, snap: snapshot("B", false, 0), forced: true, want: models.TrackChanged},
		{name: "identical", prev: reconciled("A", true, 200000), snap: snapshot("A", true, 200000), want: models.NoChange},
		{name: "title differs", prev: reconciled("A", true, 200000), snap: snapshot("B", true, 200000), want: models.TrackChanged},
		{name: "title gone", prev: reconciled("A", true, 200000), snap: models.Snapshot{Playing: false}, want: models.TrackChanged},
		{name: "paused", prev: reconciled("A", true, 200000), snap: snapshot("A", false, 200000), want: models.Paused},
		{name: "played", prev: reconciled("A", false, 200000), snap: snapshot("A", true, 200000), want: models.Played},
		{name: "paused beats forced", prev: reconciled("A", true, 200000), snap: snapshot("A", false, 200000), forced: true, want: models.Paused},
		{name: "forced", prev: reconciled("A", true, 200000), snap: snapshot("A", true, 200000), forced: true, want: models.TimeDrifted},
		{name: "forced beats mismatch", prev: reconciled("A", true, 200000), snap: snapshot("A", true, 190000), forced: true, want: models.TimeDrifted},
		{name: "length mismatch", prev: reconciled("A", true, 200000), snap: snapshot("A", true, 190000), want: models.TimeMismatch},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.prev, tc.snap, tc.forced); got != tc.want {
				t.Errorf("Classify() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	bools := []bool{false, true}
	times := []int64{0, 180000, 200000}

	t.Run("title change wins over every other difference", func(t *testing.T) {
		for _, prevPlaying := range bools {
			for _, snapPlaying := range bools {
				for _, prevTime := range times {
					for _, snapTime := range times {
						for _, forced := range bools {
							got := Classify(reconciled("A", prevPlaying, prevTime), snapshot("B", snapPlaying, snapTime), forced)
							if got != models.TrackChanged {
								t.Fatalf("playing %v->%v time %d->%d forced=%v: got %v", prevPlaying, snapPlaying, prevTime, snapTime, forced, got)
							}
						}
					}
				}
			}
		}
	})

	t.Run("play state wins over timing", func(t *testing.T) {
		for _, playing := range bools {
			for _, prevTime := range times {
				for _, snapTime := range times {
					for _, forced := range bools {
						want := models.Paused
						if playing {
							want = models.Played
						}
						got := Classify(reconciled("A", !playing, prevTime), snapshot("A", playing, snapTime), forced)
						if got != want {
							t.Fatalf("playing=%v time %d->%d forced=%v: got %v, want %v", playing, prevTime, snapTime, forced, got, want)
						}
					}
				}
			}
		}
	})

	t.Run("nothing resolved yet always reports a track change", func(t *testing.T) {
		for _, playing := range bools {
			for _, songTime := range times {
				if got := Classify(nil, snapshot("B", playing, songTime), false); got != models.TrackChanged {
					t.Fatalf("playing=%v time=%d: got %v", playing, songTime, got)
				}
			}
		}
	})

	t.Run("repeated identical ticks never change", func(t *testing.T) {
		prev := reconciled("A", true, 200000)
		for range 10 {
			if got := Classify(prev, snapshot("A", true, 200000), false); got != models.NoChange {
				t.Fatalf("got %v", got)
			}
		}
	})
}

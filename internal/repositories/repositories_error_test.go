package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
)

func TestPlayRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)
			play := models.NewPlay(0, models.Change{Reason: models.TrackChanged})

			if err := repo.Create(play); err == nil {
				t.Fatal("expected validation error for a play without a track")
			}

			plays, _ := repo.List(nil)
			if len(plays) != 0 {
				t.Errorf("expected nothing stored, got %d", len(plays))
			}
		})

		t.Run("NoChange", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)
			play := models.NewPlay(0, change(models.NoChange, true, time.Now()))

			if err := repo.Create(play); err == nil {
				t.Fatal("expected validation error for NoChange")
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			repo := NewPlayRepository(db)
			if err := repo.Create(models.NewPlay(0, change(models.Played, true, time.Now()))); err == nil {
				t.Fatal("expected error on a closed database")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)

			_, err := repo.Get("nonexistent-id")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})
}

func TestTrackRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track, album := discovery()

			if err := repo.Create(models.NewCachedTrack(0, "", "One More Time", track, album)); err == nil {
				t.Fatal("expected validation error for empty album reference")
			}

			track.ID = 0
			if err := repo.Create(models.NewCachedTrack(0, "302127", "One More Time", track, album)); err == nil {
				t.Fatal("expected validation error for missing track id")
			}
		})

		t.Run("DuplicateKey", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			track, album := discovery()

			if err := repo.Create(models.NewCachedTrack(0, "302127", "One More Time", track, album)); err != nil {
				t.Fatalf("failed to create first track: %v", err)
			}
			if err := repo.Create(models.NewCachedTrack(0, "302127", "One More Time", track, album)); err == nil {
				t.Fatal("expected error when creating a duplicate key")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTrackRepository(db)
			if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Scan", func(t *testing.T) {
		t.Run("CorruptJSON", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			_, err := db.Exec(`INSERT INTO tracks (id, sequence, album_ref, title, track_id, track_json, album_json, created_at, updated_at)
				VALUES ('bad', 1, '1', 'x', 1, '{', '{}', ?, ?)`, time.Now().UTC(), time.Now().UTC())
			if err != nil {
				t.Fatalf("failed to seed row: %v", err)
			}

			repo := NewTrackRepository(db)
			if _, err := repo.Get("bad"); err == nil {
				t.Fatal("expected decode error")
			}
		})
	})
}

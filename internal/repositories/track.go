package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
)

const trackColumns = `id, sequence, album_ref, title, track_json, album_json, created_at, updated_at`

// TrackRepository implements models.Repository[*models.CachedTrack] for catalog lookups.
//
// Track and album records are stored as JSON so the cache can answer without the catalog.
type TrackRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CachedTrack] = (*TrackRepository)(nil)

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	trackJSON, err := json.Marshal(track.Track())
	if err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}
	albumJSON, err := json.Marshal(track.Album())
	if err != nil {
		return fmt.Errorf("failed to encode album: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)

	query := `
		INSERT INTO tracks (id, sequence, album_ref, title, track_id, track_json, album_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.AlbumRef(),
		track.Title(),
		track.Track().ID,
		string(trackJSON),
		string(albumJSON),
		track.CreatedAt().UTC(),
		track.UpdatedAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a cached track by ID
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByKey retrieves the lookup for an album reference and observed title
func (r *TrackRepository) GetByKey(albumRef, title string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE album_ref = ? AND title = ?`
	return r.scan(r.db.QueryRow(query, albumRef, title))
}

// Delete removes a cached track by ID
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track %s %w", id, shared.ErrNotFound)
	}

	return nil
}

// List retrieves cached tracks in insertion order.
//
// Supported criteria: "album_ref" (string) and "track_id" (int64).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1 = 1`
	args := []any{}

	if albumRef, ok := criteria["album_ref"].(string); ok && albumRef != "" {
		query += " AND album_ref = ?"
		args = append(args, albumRef)
	}

	if trackID, ok := criteria["track_id"].(int64); ok && trackID != 0 {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

func (r *TrackRepository) scan(row scanner) (*models.CachedTrack, error) {
	var (
		id        string
		sequence  int
		albumRef  string
		title     string
		trackJSON string
		albumJSON string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &sequence, &albumRef, &title, &trackJSON, &albumJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	var (
		track models.Track
		album models.Album
	)
	if err := json.Unmarshal([]byte(trackJSON), &track); err != nil {
		return nil, fmt.Errorf("failed to decode track %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(albumJSON), &album); err != nil {
		return nil, fmt.Errorf("failed to decode album %s: %w", id, err)
	}

	cached := models.NewCachedTrack(sequence, albumRef, title, track, album)
	cached.SetID(id)
	cached.SetCreatedAt(createdAt)
	cached.SetUpdatedAt(updatedAt)
	return cached, nil
}

package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
)

const playColumns = `id, sequence, track_id, title, artists, album, link, reason, playing, observed_at, created_at, updated_at`

// PlayRepository implements models.Repository[*models.Play] for the listening history.
type PlayRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Play] = (*PlayRepository)(nil)

// NewPlayRepository creates a new PlayRepository with the given database connection
func NewPlayRepository(db *sql.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

// Create inserts a [models.Play] with a generated ID and sequence.
func (r *PlayRepository) Create(play *models.Play) error {
	if err := play.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "plays")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	play.SetID(id)
	play.SetSequence(sequence)

	query := `
		INSERT INTO plays (` + playColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		play.TrackID(),
		play.Title(),
		play.Artists(),
		play.Album(),
		play.Link(),
		int(play.Reason()),
		play.Playing(),
		play.ObservedAt().UTC(),
		play.CreatedAt().UTC(),
		play.UpdatedAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}

	return nil
}

// Get retrieves a play by ID
func (r *PlayRepository) Get(id string) (*models.Play, error) {
	query := `SELECT ` + playColumns + ` FROM plays WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id))
}

// Latest returns the most recently recorded play.
func (r *PlayRepository) Latest() (*models.Play, error) {
	query := `SELECT ` + playColumns + ` FROM plays ORDER BY sequence DESC LIMIT 1`
	return r.scan(r.db.QueryRow(query))
}

// List retrieves plays newest first.
//
// Supported criteria: "track_id" (int64), "reason" ([models.ChangeReason]),
// "since" ([time.Time], inclusive) and "limit" (int).
func (r *PlayRepository) List(criteria map[string]any) ([]*models.Play, error) {
	query := `SELECT ` + playColumns + ` FROM plays WHERE 1 = 1`
	args := []any{}

	if trackID, ok := criteria["track_id"].(int64); ok && trackID != 0 {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	if reason, ok := criteria["reason"].(models.ChangeReason); ok && reason != models.NoChange {
		query += " AND reason = ?"
		args = append(args, int(reason))
	}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND observed_at >= ?"
		args = append(args, since.UTC())
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []*models.Play
	for rows.Next() {
		play, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return plays, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func (r *PlayRepository) scan(row scanner) (*models.Play, error) {
	var (
		id         string
		sequence   int
		trackID    int64
		title      string
		artists    string
		album      string
		link       string
		reason     int
		playing    bool
		observedAt time.Time
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&id, &sequence, &trackID, &title, &artists, &album, &link, &reason, &playing, &observedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("play %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan play: %w", err)
	}

	return models.RestorePlay(id, sequence, trackID, title, artists, album, link,
		models.ChangeReason(reason), playing, observedAt, createdAt, updatedAt), nil
}

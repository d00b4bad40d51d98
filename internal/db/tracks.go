package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackRepository handles track database operations.
type TrackRepository struct {
	pool *pgxpool.Pool
}

const trackColumns = `id, name, artist, genres, acousticness, danceability, energy,
	instrumentalness, liveness, loudness, speechiness, tempo, valence, updated_at`

// UpsertBatch inserts or updates multiple tracks efficiently.
func (r *TrackRepository) UpsertBatch(ctx context.Context, tracks []Track) error {
	if len(tracks) == 0 {
		return nil
	}

	query := `
		INSERT INTO tracks (` + trackColumns + `)
		SELECT * FROM unnest(
			$1::text[], $2::text[], $3::text[], $4::text[],
			$5::float8[], $6::float8[], $7::float8[], $8::float8[], $9::float8[],
			$10::float8[], $11::float8[], $12::float8[], $13::float8[],
			$14::timestamptz[])
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			artist = EXCLUDED.artist,
			genres = EXCLUDED.genres,
			acousticness = EXCLUDED.acousticness,
			danceability = EXCLUDED.danceability,
			energy = EXCLUDED.energy,
			instrumentalness = EXCLUDED.instrumentalness,
			liveness = EXCLUDED.liveness,
			loudness = EXCLUDED.loudness,
			speechiness = EXCLUDED.speechiness,
			tempo = EXCLUDED.tempo,
			valence = EXCLUDED.valence,
			updated_at = EXCLUDED.updated_at
	`

	n := len(tracks)
	ids := make([]string, n)
	names := make([]string, n)
	artists := make([]string, n)
	genres := make([]string, n)
	acousticness := make([]*float64, n)
	danceability := make([]*float64, n)
	energy := make([]*float64, n)
	instrumentalness := make([]*float64, n)
	liveness := make([]*float64, n)
	loudness := make([]*float64, n)
	speechiness := make([]*float64, n)
	tempo := make([]*float64, n)
	valence := make([]*float64, n)
	updatedAts := make([]time.Time, n)

	now := time.Now()
	for i, t := range tracks {
		ids[i] = t.ID
		names[i] = t.Name
		artists[i] = t.Artist
		genres[i] = t.Genres
		acousticness[i] = t.Acousticness
		danceability[i] = t.Danceability
		energy[i] = t.Energy
		instrumentalness[i] = t.Instrumentalness
		liveness[i] = t.Liveness
		loudness[i] = t.Loudness
		speechiness[i] = t.Speechiness
		tempo[i] = t.Tempo
		valence[i] = t.Valence
		updatedAts[i] = now
	}

	_, err := r.pool.Exec(ctx, query, ids, names, artists, genres,
		acousticness, danceability, energy, instrumentalness, liveness,
		loudness, speechiness, tempo, valence, updatedAts)
	if err != nil {
		return fmt.Errorf("batch upserting tracks: %w", err)
	}
	return nil
}

// All retrieves every track, ordered by ID.
func (r *TrackRepository) All(ctx context.Context) ([]Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

// Count returns the number of stored tracks.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return n, nil
}

func scanTrack(row pgx.Row) (*Track, error) {
	var t Track
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Artist,
		&t.Genres,
		&t.Acousticness,
		&t.Danceability,
		&t.Energy,
		&t.Instrumentalness,
		&t.Liveness,
		&t.Loudness,
		&t.Speechiness,
		&t.Tempo,
		&t.Valence,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

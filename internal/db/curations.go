package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultCurationLimit caps ListForUser when no limit is given.
const DefaultCurationLimit = 20

// CurationRepository handles export history operations.
type CurationRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a curation, assigning an ID when none is set.
func (r *CurationRepository) Create(ctx context.Context, c *Curation) error {
	query := `
		INSERT INTO curations (id, user_id, playlist_id, playlist_url, prompt, policy, track_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		c.ID,
		c.UserID,
		c.PlaylistID,
		c.PlaylistURL,
		c.Prompt,
		c.Policy,
		c.TrackCount,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting curation: %w", err)
	}
	return nil
}

// ListForUser returns a user's most recent curations, newest first.
func (r *CurationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]Curation, error) {
	if limit <= 0 {
		limit = DefaultCurationLimit
	}

	query := `
		SELECT id, user_id, playlist_id, playlist_url, prompt, policy, track_count, created_at
		FROM curations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying curations: %w", err)
	}
	defer rows.Close()

	var curations []Curation
	for rows.Next() {
		var c Curation
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.PlaylistID,
			&c.PlaylistURL,
			&c.Prompt,
			&c.Policy,
			&c.TrackCount,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning curation: %w", err)
		}
		curations = append(curations, c)
	}
	return curations, rows.Err()
}

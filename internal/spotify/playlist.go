package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

const maxTracksPerRequest = 100

// CreatePlaylist creates a new playlist for the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (*Playlist, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	return &Playlist{
		ID:      playlist.ID.String(),
		URL:     playlist.ExternalURLs["spotify"],
		OwnerID: userID,
	}, nil
}

// AddTracksToPlaylist adds tracks to a playlist, handling batching for large sets.
// Spotify allows max 100 tracks per request.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := toIDs(trackIDs)

	// Batch in chunks of 100
	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		batch := ids[i:end]

		_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
		if err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", i+1, end, err)
		}
	}

	return nil
}

// Exporter creates playlists on behalf of the user owning a bearer token.
type Exporter struct {
	opts []spotify.ClientOption
}

// NewExporter creates an Exporter. Options are passed to every per-user client.
func NewExporter(opts ...spotify.ClientOption) *Exporter {
	return &Exporter{opts: opts}
}

// UserID returns the Spotify ID of the token's owner.
func (e *Exporter) UserID(ctx context.Context, accessToken string) (string, error) {
	return NewWithToken(ctx, accessToken, e.opts...).UserID(ctx)
}

// Export creates a private playlist and fills it with trackIDs.
func (e *Exporter) Export(ctx context.Context, accessToken, name, description string, trackIDs []string) (*Playlist, error) {
	client := NewWithToken(ctx, accessToken, e.opts...)

	playlist, err := client.CreatePlaylist(ctx, name, description, false)
	if err != nil {
		return nil, err
	}
	if err := client.AddTracksToPlaylist(ctx, playlist.ID, trackIDs); err != nil {
		return nil, err
	}

	playlist.TrackCount = len(trackIDs)
	return playlist, nil
}

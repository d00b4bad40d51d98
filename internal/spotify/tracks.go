package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const maxTracksPerLookup = 50

// FetchTracks retrieves metadata for the given track IDs.
// IDs Spotify does not know are skipped.
func (c *Client) FetchTracks(ctx context.Context, trackIDs []string) ([]Track, error) {
	ids := toIDs(trackIDs)
	tracks := make([]Track, 0, len(ids))

	for i := 0; i < len(ids); i += maxTracksPerLookup {
		end := min(i+maxTracksPerLookup, len(ids))

		batch, err := c.api.GetTracks(ctx, ids[i:end])
		if err != nil {
			return nil, fmt.Errorf("fetching tracks (batch %d-%d): %w", i+1, end, err)
		}
		for _, t := range batch {
			if t == nil {
				continue
			}
			tracks = append(tracks, convertTrack(t))
		}
	}

	return tracks, nil
}

// FetchPlaylistTrackIDs returns the IDs of every track in a playlist,
// in playlist order. Episodes and local files are skipped.
func (c *Client) FetchPlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(100))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist items: %w", err)
	}

	var ids []string
	for {
		for _, item := range page.Items {
			if item.IsLocal || item.Track.Track == nil {
				continue
			}
			ids = append(ids, item.Track.Track.ID.String())
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next page: %w", err)
		}
	}

	return ids, nil
}

// convertTrack converts a Spotify FullTrack to Track.
func convertTrack(t *spotify.FullTrack) Track {
	names := make([]string, len(t.Artists))
	artistIDs := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
		artistIDs[i] = a.ID.String()
	}

	return Track{
		ID:        t.ID.String(),
		Name:      t.Name,
		Artist:    strings.Join(names, ", "),
		ArtistIDs: artistIDs,
	}
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

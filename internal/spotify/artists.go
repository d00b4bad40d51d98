package spotify

import (
	"context"
	"fmt"
	"strings"
)

const maxArtistsPerRequest = 50

// FetchArtistGenres returns the lower-cased Spotify genres of each artist,
// keyed by artist ID. Artists without genres are absent from the result.
func (c *Client) FetchArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	ids := toIDs(artistIDs)
	out := make(map[string][]string, len(ids))

	for i := 0; i < len(ids); i += maxArtistsPerRequest {
		end := min(i+maxArtistsPerRequest, len(ids))

		artists, err := c.api.GetArtists(ctx, ids[i:end]...)
		if err != nil {
			return nil, fmt.Errorf("fetching artists (batch %d-%d): %w", i+1, end, err)
		}

		for _, a := range artists {
			if a == nil || len(a.Genres) == 0 {
				continue
			}
			genres := make([]string, len(a.Genres))
			for j, g := range a.Genres {
				genres[j] = strings.ToLower(g)
			}
			out[a.ID.String()] = genres
		}
	}

	return out, nil
}

package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/playlist-curator/internal/catalog"
)

// FetchAudioFeatures retrieves audio features for the given tracks, keyed by
// track ID. Batches requests to max 100 tracks per request per Spotify API
// limits. Tracks without available audio features are absent from the result.
func (c *Client) FetchAudioFeatures(ctx context.Context, trackIDs []string) (map[string]map[string]float64, error) {
	ids := toIDs(trackIDs)
	out := make(map[string]map[string]float64, len(ids))

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))

		features, err := c.api.GetAudioFeatures(ctx, ids[i:end]...)
		if err != nil {
			return nil, fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}

		for _, f := range features {
			if f == nil {
				continue // Track has no audio features
			}
			out[f.ID.String()] = featureMap(f)
		}
	}

	return out, nil
}

// featureMap converts audio features to catalog feature columns.
func featureMap(f *spotify.AudioFeatures) map[string]float64 {
	return map[string]float64{
		catalog.FeatureAcousticness:     float64(f.Acousticness),
		catalog.FeatureDanceability:     float64(f.Danceability),
		catalog.FeatureEnergy:           float64(f.Energy),
		catalog.FeatureInstrumentalness: float64(f.Instrumentalness),
		catalog.FeatureLiveness:         float64(f.Liveness),
		catalog.FeatureLoudness:         float64(f.Loudness),
		catalog.FeatureSpeechiness:      float64(f.Speechiness),
		catalog.FeatureTempo:            float64(f.Tempo),
		catalog.FeatureValence:          float64(f.Valence),
	}
}

package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/justestif/playlist-curator/internal/catalog"
)

// Track is a catalog row: metadata, genre tags and audio features.
type Track struct {
	ID     string
	Name   string
	Artist string
	Genres string // Comma-separated genre tags

	// Audio features are nullable; a NULL never satisfies a range label.
	Acousticness     *float64
	Danceability     *float64
	Energy           *float64
	Instrumentalness *float64
	Liveness         *float64
	Loudness         *float64
	Speechiness      *float64
	Tempo            *float64
	Valence          *float64

	UpdatedAt time.Time
}

// featureColumns pairs each catalog feature column with its field.
func (t *Track) featureColumns() map[string]**float64 {
	return map[string]**float64{
		catalog.FeatureAcousticness:     &t.Acousticness,
		catalog.FeatureDanceability:     &t.Danceability,
		catalog.FeatureEnergy:           &t.Energy,
		catalog.FeatureInstrumentalness: &t.Instrumentalness,
		catalog.FeatureLiveness:         &t.Liveness,
		catalog.FeatureLoudness:         &t.Loudness,
		catalog.FeatureSpeechiness:      &t.Speechiness,
		catalog.FeatureTempo:            &t.Tempo,
		catalog.FeatureValence:          &t.Valence,
	}
}

// SetFeatures copies known feature columns from features; unknown keys are ignored.
func (t *Track) SetFeatures(features map[string]float64) {
	for col, field := range t.featureColumns() {
		if v, ok := features[col]; ok {
			*field = &v
		}
	}
}

// CatalogTrack converts the row into an in-memory catalog track.
func (t Track) CatalogTrack() catalog.Track {
	features := make(map[string]float64)
	for col, field := range t.featureColumns() {
		if *field != nil {
			features[col] = **field
		}
	}
	return catalog.Track{
		ID:       t.ID,
		Name:     t.Name,
		Artist:   t.Artist,
		Genres:   catalog.SplitGenres(t.Genres),
		Features: features,
	}
}

// Curation records a playlist exported to Spotify.
type Curation struct {
	ID          uuid.UUID
	UserID      string
	PlaylistID  string
	PlaylistURL string
	Prompt      string
	Policy      string
	TrackCount  int
	CreatedAt   time.Time
}

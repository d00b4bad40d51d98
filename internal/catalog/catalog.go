// Package catalog holds the in-memory track table the playlist filter reads from.
package catalog

import (
	"maps"
	"slices"
	"strings"
)

// Audio-feature column names as reported by the Spotify audio-features endpoint.
const (
	FeatureAcousticness     = "acousticness"
	FeatureDanceability     = "danceability"
	FeatureEnergy           = "energy"
	FeatureInstrumentalness = "instrumentalness"
	FeatureLiveness         = "liveness"
	FeatureLoudness         = "loudness"
	FeatureSpeechiness      = "speechiness"
	FeatureTempo            = "tempo"
	FeatureValence          = "valence"
)

// FeatureColumns lists the audio-feature columns persisted for every track.
var FeatureColumns = []string{
	FeatureAcousticness,
	FeatureDanceability,
	FeatureEnergy,
	FeatureInstrumentalness,
	FeatureLiveness,
	FeatureLoudness,
	FeatureSpeechiness,
	FeatureTempo,
	FeatureValence,
}

// Track is a catalog row.
type Track struct {
	ID     string
	Name   string
	Artist string
	Genres []string
	// Features maps column name to value. Absent columns never match a range.
	Features map[string]float64
}

// HasGenre reports whether one of the track's genre tags equals genre exactly.
func (t *Track) HasGenre(genre string) bool {
	return slices.Contains(t.Genres, genre)
}

// Feature returns the value of the named feature column.
func (t *Track) Feature(column string) (float64, bool) {
	v, ok := t.Features[column]
	return v, ok
}

// clone returns a copy that shares no slices or maps with t.
func (t *Track) clone() Track {
	cp := *t
	cp.Genres = slices.Clone(t.Genres)
	cp.Features = maps.Clone(t.Features)
	return cp
}

// SplitGenres splits a comma-separated genre field into trimmed, non-empty tags.
func SplitGenres(field string) []string {
	var genres []string
	for _, g := range strings.Split(field, ",") {
		g = strings.TrimSpace(g)
		if g == "" || slices.Contains(genres, g) {
			continue
		}
		genres = append(genres, g)
	}
	return genres
}

// Catalog is a read-only track table keyed by track ID.
// It is never mutated after construction and is safe for concurrent reads.
type Catalog struct {
	tracks map[string]*Track
}

// New builds a catalog from tracks.
// Rows sharing an ID are merged: genre tags are unioned and the first row's
// features win, with later rows only filling in missing columns.
func New(tracks []Track) *Catalog {
	c := &Catalog{tracks: make(map[string]*Track, len(tracks))}

	for _, t := range tracks {
		if t.ID == "" {
			continue
		}

		existing, ok := c.tracks[t.ID]
		if !ok {
			cp := t.clone()
			if cp.Features == nil {
				cp.Features = make(map[string]float64)
			}
			c.tracks[t.ID] = &cp
			continue
		}

		for _, g := range t.Genres {
			if !existing.HasGenre(g) {
				existing.Genres = append(existing.Genres, g)
			}
		}
		for k, v := range t.Features {
			if _, ok := existing.Features[k]; !ok {
				existing.Features[k] = v
			}
		}
	}

	return c
}

// Lookup returns a copy of the track with the given ID.
func (c *Catalog) Lookup(id string) (Track, bool) {
	t, ok := c.tracks[id]
	if !ok {
		return Track{}, false
	}
	return t.clone(), true
}

// Len returns the number of distinct tracks.
func (c *Catalog) Len() int {
	return len(c.tracks)
}

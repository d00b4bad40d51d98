// Package importer builds catalog rows from Spotify, with Last.fm as a genre
// fallback, and stores them.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/playlist-curator/internal/db"
	"github.com/justestif/playlist-curator/internal/spotify"
)

// Defaults for Importer options.
const (
	DefaultConcurrency = 5
	DefaultTopGenres   = 5
	upsertBatchSize    = 1000
)

// Source provides track metadata, audio features and artist genres.
type Source interface {
	FetchTracks(ctx context.Context, trackIDs []string) ([]spotify.Track, error)
	FetchAudioFeatures(ctx context.Context, trackIDs []string) (map[string]map[string]float64, error)
	FetchArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error)
}

// GenreFetcher looks up fallback genres for a track.
type GenreFetcher interface {
	TopGenres(ctx context.Context, artist, track string, n int) ([]string, error)
}

// Store persists catalog rows.
type Store interface {
	UpsertBatch(ctx context.Context, tracks []db.Track) error
}

// Result summarises an import run.
type Result struct {
	Requested       int // Distinct IDs asked for
	Imported        int // Rows written
	WithoutFeatures int // Rows stored with NULL features
	FallbackGenres  int // Rows whose genres came from Last.fm
	WithoutGenres   int // Rows stored with no genre tags
	FallbackErrors  int // Last.fm lookups that failed
}

// Importer fetches and stores catalog rows.
type Importer struct {
	source      Source
	store       Store
	genres      GenreFetcher
	concurrency int
	topGenres   int
	log         *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithGenreFetcher enables the Last.fm fallback for tracks whose artists
// carry no Spotify genres.
func WithGenreFetcher(g GenreFetcher) Option {
	return func(i *Importer) {
		i.genres = g
	}
}

// WithConcurrency sets the number of concurrent fallback lookups.
func WithConcurrency(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(i *Importer) {
		if log != nil {
			i.log = log
		}
	}
}

// New creates an Importer.
func New(source Source, store Store, opts ...Option) *Importer {
	i := &Importer{
		source:      source,
		store:       store,
		concurrency: DefaultConcurrency,
		topGenres:   DefaultTopGenres,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import fetches the given tracks and upserts them into the store.
// IDs unknown to Spotify are skipped. Fallback lookup failures are logged and
// counted but do not fail the import.
func (i *Importer) Import(ctx context.Context, trackIDs []string) (Result, error) {
	ids := distinct(trackIDs)
	res := Result{Requested: len(ids)}
	if len(ids) == 0 {
		return res, nil
	}

	tracks, err := i.source.FetchTracks(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("fetching tracks: %w", err)
	}
	i.log.Info("fetched track metadata", zap.Int("requested", len(ids)), zap.Int("found", len(tracks)))

	found := make([]string, len(tracks))
	var artistIDs []string
	for n, t := range tracks {
		found[n] = t.ID
		artistIDs = append(artistIDs, t.ArtistIDs...)
	}

	features, err := i.source.FetchAudioFeatures(ctx, found)
	if err != nil {
		return res, fmt.Errorf("fetching audio features: %w", err)
	}

	artistGenres, err := i.source.FetchArtistGenres(ctx, distinct(artistIDs))
	if err != nil {
		return res, fmt.Errorf("fetching artist genres: %w", err)
	}

	genres := make([][]string, len(tracks))
	for n, t := range tracks {
		var g []string
		for _, a := range t.ArtistIDs {
			for _, name := range artistGenres[a] {
				g = append(g, NormalizeGenre(name))
			}
		}
		genres[n] = distinct(g)
	}

	if i.genres != nil {
		if err := i.fallback(ctx, tracks, genres, &res); err != nil {
			return res, err
		}
	}

	rows := make([]db.Track, len(tracks))
	for n, t := range tracks {
		rows[n] = db.Track{
			ID:     t.ID,
			Name:   t.Name,
			Artist: t.Artist,
			Genres: strings.Join(genres[n], ", "),
		}
		if f, ok := features[t.ID]; ok {
			rows[n].SetFeatures(f)
		} else {
			res.WithoutFeatures++
		}
		if len(genres[n]) == 0 {
			res.WithoutGenres++
		}
	}

	for start := 0; start < len(rows); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(rows))
		if err := i.store.UpsertBatch(ctx, rows[start:end]); err != nil {
			return res, fmt.Errorf("storing tracks %d-%d: %w", start+1, end, err)
		}
		res.Imported = end
	}

	i.log.Info("import finished",
		zap.Int("requested", res.Requested),
		zap.Int("imported", res.Imported),
		zap.Int("without_features", res.WithoutFeatures),
		zap.Int("fallback_genres", res.FallbackGenres),
		zap.Int("without_genres", res.WithoutGenres),
		zap.Int("fallback_errors", res.FallbackErrors),
	)
	return res, nil
}

// fallback fills genres[n] from Last.fm for every track that has none.
func (i *Importer) fallback(ctx context.Context, tracks []spotify.Track, genres [][]string, res *Result) error {
	fetched := make([][]string, len(tracks))
	failed := make([]bool, len(tracks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for n, t := range tracks {
		if len(genres[n]) > 0 {
			continue
		}
		n, t := n, t
		g.Go(func() error {
			tags, err := i.genres.TopGenres(gctx, primaryArtist(t.Artist), t.Name, i.topGenres)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				i.log.Warn("genre fallback failed", zap.String("track_id", t.ID), zap.Error(err))
				failed[n] = true
				return nil
			}
			fetched[n] = tags
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("fetching fallback genres: %w", err)
	}

	for n := range tracks {
		if failed[n] {
			res.FallbackErrors++
		}
		var g []string
		for _, name := range fetched[n] {
			g = append(g, NormalizeGenre(name))
		}
		if g = distinct(g); len(g) > 0 {
			genres[n] = g
			res.FallbackGenres++
		}
	}
	return nil
}

// NormalizeGenre rewrites a genre in the spelling the label catalog uses:
// lower-case, words joined by "-" and "&" spelled "n" ("R&B" -> "r-n-b",
// "hip hop" -> "hip-hop").
func NormalizeGenre(genre string) string {
	genre = strings.ReplaceAll(strings.ToLower(genre), "&", " n ")
	return strings.Join(strings.Fields(genre), "-")
}

// primaryArtist returns the first credited artist of a joined artist string.
func primaryArtist(artist string) string {
	first, _, _ := strings.Cut(artist, ", ")
	return first
}

// distinct drops empty and repeated values, keeping first occurrences in order.
func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

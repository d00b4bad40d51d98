package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/justestif/playlist-curator/internal/config"
	"github.com/justestif/playlist-curator/internal/db"
	"github.com/justestif/playlist-curator/internal/importer"
	"github.com/justestif/playlist-curator/internal/lastfm"
	"github.com/justestif/playlist-curator/internal/spotify"
)

func importTracks(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	playlistID := fs.String("playlist", "", "import every track of a Spotify playlist")
	file := fs.String("file", "", "read track IDs from a file, one per line")
	concurrency := fs.Int("concurrency", importer.DefaultConcurrency, "concurrent Last.fm lookups")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := cfg.ValidateImport(); err != nil {
		return err
	}

	client, err := spotify.NewWithCredentials(ctx, cfg.SpotifyID, cfg.SpotifySecret)
	if err != nil {
		return fmt.Errorf("authenticating with Spotify: %w", err)
	}

	ids := fs.Args()
	if *file != "" {
		fromFile, err := readIDs(*file)
		if err != nil {
			return err
		}
		ids = append(ids, fromFile...)
	}
	if *playlistID != "" {
		fromPlaylist, err := client.FetchPlaylistTrackIDs(ctx, *playlistID)
		if err != nil {
			return err
		}
		ids = append(ids, fromPlaylist...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no track IDs given (pass IDs, -file or -playlist)")
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	opts := []importer.Option{
		importer.WithConcurrency(*concurrency),
		importer.WithLogger(log.Named("importer")),
	}
	if cfg.LastFMAPIKey != "" {
		lfm, err := lastfm.NewClient(cfg.LastFMAPIKey)
		if err != nil {
			return err
		}
		opts = append(opts, importer.WithGenreFetcher(lfm))
	} else {
		log.Info("LASTFM_API_KEY not set, genre fallback disabled")
	}

	res, err := importer.New(client, database.Tracks(), opts...).Import(ctx, ids)
	if err != nil {
		return err
	}

	total, err := database.Tracks().Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d of %d tracks (%d without audio features, %d without genres). Catalog now holds %d tracks.\n",
		res.Imported, res.Requested, res.WithoutFeatures, res.WithoutGenres, total)
	return nil
}

// readIDs reads one track ID per line, skipping blank lines and # comments.
func readIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ids, nil
}

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/playlist-curator/internal/catalog"
	"github.com/justestif/playlist-curator/internal/classifier"
	"github.com/justestif/playlist-curator/internal/config"
	"github.com/justestif/playlist-curator/internal/curator"
	"github.com/justestif/playlist-curator/internal/db"
	"github.com/justestif/playlist-curator/internal/labels"
	"github.com/justestif/playlist-curator/internal/playlist"
	"github.com/justestif/playlist-curator/internal/spotify"
	"github.com/justestif/playlist-curator/internal/web"
)

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	labelCatalog, err := loadLabels(cfg.LabelsFile)
	if err != nil {
		return err
	}
	log.Info("label catalog loaded", zap.Int("labels", labelCatalog.Len()))

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return err
		}
	}

	tracks, err := loadTracks(ctx, cfg.CatalogCSV, database)
	if err != nil {
		return err
	}
	trackCatalog := catalog.New(tracks)
	log.Info("track catalog loaded", zap.Int("tracks", trackCatalog.Len()))

	var model classifier.Classifier = classifier.NewHTTPClient(cfg.Classifier.HTTP())
	model = classifier.WithTimeout(model, cfg.Classifier.Timeout)
	model = classifier.WithLimit(model, cfg.Classifier.MaxConcurrent)

	filter := playlist.New(labelCatalog, trackCatalog, cfg.Curator.FilterOptions())
	svc := curator.New(labelCatalog, model, filter, cfg.Curator.Service(), log.Named("curator"))

	handlersCfg := web.HandlersConfig{
		Curator:    svc,
		TrackCount: trackCatalog.Len(),
		Exporter:   spotify.NewExporter(),
		Logger:     log.Named("web"),
	}
	if database != nil {
		handlersCfg.Store = database.Curations()
	}

	server := web.NewServer(web.ServerConfig{
		Addr:   cfg.Addr,
		Logger: log.Named("http"),
	}, web.NewHandlers(handlersCfg))

	return server.Run()
}

func loadLabels(path string) (*labels.Catalog, error) {
	if path == "" {
		return labels.Default()
	}
	c, err := labels.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading labels: %w", err)
	}
	return c, nil
}

// loadTracks reads the catalog from CSV when a path is given, otherwise from the database.
func loadTracks(ctx context.Context, csvPath string, database *db.DB) ([]catalog.Track, error) {
	if csvPath != "" {
		tracks, err := catalog.LoadCSVFile(csvPath)
		if err != nil {
			return nil, fmt.Errorf("loading track catalog: %w", err)
		}
		return tracks, nil
	}

	rows, err := database.Tracks().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading track catalog: %w", err)
	}

	tracks := make([]catalog.Track, len(rows))
	for i := range rows {
		tracks[i] = rows[i].CatalogTrack()
	}
	return tracks, nil
}

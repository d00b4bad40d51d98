// Command playlist-curator serves the playlist curation API and imports
// tracks into its catalog.
//
// Usage:
//
//	playlist-curator [serve]
//	playlist-curator import [-playlist ID] [-file PATH] [TRACK_ID...]
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/justestif/playlist-curator/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	switch command {
	case "serve":
		return serve(ctx, cfg, log)
	case "import":
		return importTracks(ctx, cfg, log, args)
	default:
		return fmt.Errorf("unknown command %q (want serve or import)", command)
	}
}

// newLogger builds a JSON production logger or a console development logger.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl

	return zc.Build()
}

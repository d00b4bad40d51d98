// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/justestif/playlist-curator/internal/classifier"
	"github.com/justestif/playlist-curator/internal/curator"
	"github.com/justestif/playlist-curator/internal/labels"
	"github.com/justestif/playlist-curator/internal/playlist"
)

// Sentinel errors for missing or invalid settings.
var (
	ErrMissingClassifierURL      = errors.New("missing CLASSIFIER_URL environment variable")
	ErrMissingCatalogSource      = errors.New("missing DATABASE_URL or CATALOG_CSV environment variable")
	ErrMissingDatabaseURL        = errors.New("missing DATABASE_URL environment variable")
	ErrMissingSpotifyCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")
	ErrInvalidValue              = errors.New("invalid configuration value")
)

// Environment variable names.
const (
	keyAddr                  = "addr"
	keyLabelsFile            = "labels_file"
	keyCatalogCSV            = "catalog_csv"
	keyDatabaseURL           = "database_url"
	keyClassifierURL         = "classifier_url"
	keyClassifierToken       = "classifier_token"
	keyClassifierTimeout     = "classifier_timeout"
	keyClassifierConcurrency = "classifier_max_concurrent"
	keyPolicy                = "curator_policy"
	keyAnyThreshold          = "curator_any_threshold"
	keyAllThreshold          = "curator_all_threshold"
	keyMissingTracks         = "curator_missing_tracks"
	keyEmptySelection        = "curator_empty_selection"
	keySpotifyID             = "spotify_id"
	keySpotifySecret         = "spotify_secret"
	keyLastFMAPIKey          = "lastfm_api_key"
	keyLogLevel              = "log_level"
	keyLogFormat             = "log_format"
)

// Config holds all service settings.
type Config struct {
	Addr        string
	LabelsFile  string // Empty uses the embedded catalog
	CatalogCSV  string // Non-empty loads tracks from CSV instead of Postgres
	DatabaseURL string

	Classifier ClassifierConfig
	Curator    CuratorConfig

	SpotifyID     string
	SpotifySecret string
	LastFMAPIKey  string

	LogLevel  string
	LogFormat string // "json" or "console"
}

// ClassifierConfig configures the zero-shot model client.
type ClassifierConfig struct {
	URL           string
	Token         string
	Timeout       time.Duration
	MaxConcurrent int
}

// HTTP returns the settings for classifier.NewHTTPClient.
func (c ClassifierConfig) HTTP() classifier.Config {
	return classifier.Config{URL: c.URL, Token: c.Token, Timeout: c.Timeout}
}

// CuratorConfig configures label selection and filtering.
type CuratorConfig struct {
	Policy         playlist.Policy
	AnyThreshold   float64
	AllThreshold   float64
	MissingTracks  playlist.MissingTracks
	EmptySelection playlist.EmptySelection
}

// Service returns the settings for curator.New.
func (c CuratorConfig) Service() curator.Config {
	return curator.Config{
		DefaultPolicy: c.Policy,
		AnyThreshold:  c.AnyThreshold,
		AllThreshold:  c.AllThreshold,
	}
}

// FilterOptions returns the settings for playlist.New.
func (c CuratorConfig) FilterOptions() playlist.Options {
	return playlist.Options{
		MissingTracks:  c.MissingTracks,
		EmptySelection: c.EmptySelection,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(keyAddr, "127.0.0.1:8000")
	v.SetDefault(keyClassifierTimeout, classifier.DefaultTimeout)
	v.SetDefault(keyClassifierConcurrency, 4)
	v.SetDefault(keyPolicy, string(playlist.PolicyAny))
	v.SetDefault(keyAnyThreshold, labels.DefaultAnyThreshold)
	v.SetDefault(keyAllThreshold, labels.DefaultAllThreshold)
	v.SetDefault(keyMissingTracks, "exclude")
	v.SetDefault(keyEmptySelection, "all")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "json")

	return v
}

// Load reads configuration from the environment and validates the values
// shared by every command.
func Load() (*Config, error) {
	v := newViper()

	cfg := &Config{
		Addr:        v.GetString(keyAddr),
		LabelsFile:  v.GetString(keyLabelsFile),
		CatalogCSV:  v.GetString(keyCatalogCSV),
		DatabaseURL: v.GetString(keyDatabaseURL),
		Classifier: ClassifierConfig{
			URL:           v.GetString(keyClassifierURL),
			Token:         v.GetString(keyClassifierToken),
			Timeout:       v.GetDuration(keyClassifierTimeout),
			MaxConcurrent: v.GetInt(keyClassifierConcurrency),
		},
		Curator: CuratorConfig{
			AnyThreshold: v.GetFloat64(keyAnyThreshold),
			AllThreshold: v.GetFloat64(keyAllThreshold),
		},
		SpotifyID:     v.GetString(keySpotifyID),
		SpotifySecret: v.GetString(keySpotifySecret),
		LastFMAPIKey:  v.GetString(keyLastFMAPIKey),
		LogLevel:      strings.ToLower(v.GetString(keyLogLevel)),
		LogFormat:     strings.ToLower(v.GetString(keyLogFormat)),
	}

	policy, err := playlist.ParsePolicy(strings.ToLower(v.GetString(keyPolicy)))
	if err != nil {
		return nil, invalid(keyPolicy, err.Error())
	}
	cfg.Curator.Policy = policy

	switch m := strings.ToLower(v.GetString(keyMissingTracks)); m {
	case "exclude":
		cfg.Curator.MissingTracks = playlist.ExcludeMissing
	case "include":
		cfg.Curator.MissingTracks = playlist.IncludeMissing
	default:
		return nil, invalid(keyMissingTracks, fmt.Sprintf("%q is not exclude or include", m))
	}

	switch e := strings.ToLower(v.GetString(keyEmptySelection)); e {
	case "all":
		cfg.Curator.EmptySelection = playlist.MatchAll
	case "none":
		cfg.Curator.EmptySelection = playlist.MatchNone
	default:
		return nil, invalid(keyEmptySelection, fmt.Sprintf("%q is not all or none", e))
	}

	for key, t := range map[string]float64{keyAnyThreshold: cfg.Curator.AnyThreshold, keyAllThreshold: cfg.Curator.AllThreshold} {
		if t < 0 || t >= 1 {
			return nil, invalid(key, fmt.Sprintf("%v is outside [0, 1)", t))
		}
	}
	if cfg.Classifier.Timeout <= 0 {
		return nil, invalid(keyClassifierTimeout, "must be positive")
	}
	if cfg.Classifier.MaxConcurrent <= 0 {
		return nil, invalid(keyClassifierConcurrency, "must be positive")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, invalid(keyLogFormat, fmt.Sprintf("%q is not json or console", cfg.LogFormat))
	}

	return cfg, nil
}

// ValidateServe checks the settings the HTTP server needs.
func (c *Config) ValidateServe() error {
	if c.Classifier.URL == "" {
		return ErrMissingClassifierURL
	}
	if c.DatabaseURL == "" && c.CatalogCSV == "" {
		return ErrMissingCatalogSource
	}
	return nil
}

// ValidateImport checks the settings the import command needs.
func (c *Config) ValidateImport() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.SpotifyID == "" || c.SpotifySecret == "" {
		return ErrMissingSpotifyCredentials
	}
	return nil
}

func invalid(key, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, strings.ToUpper(key), msg)
}

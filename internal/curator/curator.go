// Package curator turns a free-text prompt and a candidate track list into a
// filtered playlist.
package curator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/justestif/playlist-curator/internal/classifier"
	"github.com/justestif/playlist-curator/internal/labels"
	"github.com/justestif/playlist-curator/internal/playlist"
)

// ErrInvalidInput is returned for requests that must not reach the classifier.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoText is the invalid-input error for an empty prompt.
var ErrNoText = fmt.Errorf("%w: No text provided", ErrInvalidInput)

// Config holds per-policy thresholds and the default policy.
type Config struct {
	DefaultPolicy playlist.Policy
	AnyThreshold  float64 // Selection threshold for ANY (default: 0.95)
	AllThreshold  float64 // Selection threshold for ALL (default: 0.97)
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		DefaultPolicy: playlist.PolicyAny,
		AnyThreshold:  labels.DefaultAnyThreshold,
		AllThreshold:  labels.DefaultAllThreshold,
	}
}

// Threshold returns the selection threshold for policy.
func (c Config) Threshold(p playlist.Policy) float64 {
	if p == playlist.PolicyAll {
		return c.AllThreshold
	}
	return c.AnyThreshold
}

// Request is a single curation request.
type Request struct {
	Text     string
	SongList []string
	Policy   string // Empty selects the configured default
}

// Result is the outcome of a curation.
type Result struct {
	Tracks []string
	Labels []string // Labels selected above the policy threshold
	Policy playlist.Policy
}

// Service orchestrates classification, label selection and filtering.
type Service struct {
	labels     *labels.Catalog
	classifier classifier.Classifier
	filter     *playlist.Filter
	cfg        Config
	log        *zap.Logger
}

// New creates a curator service. The label catalog and filter are shared,
// read-only state; the service itself holds nothing mutable.
func New(labelCatalog *labels.Catalog, c classifier.Classifier, filter *playlist.Filter, cfg Config, log *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = def.DefaultPolicy
	}
	if cfg.AnyThreshold == 0 {
		cfg.AnyThreshold = def.AnyThreshold
	}
	if cfg.AllThreshold == 0 {
		cfg.AllThreshold = def.AllThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		labels:     labelCatalog,
		classifier: c,
		filter:     filter,
		cfg:        cfg,
		log:        log,
	}
}

// Labels returns the label catalog the service classifies against.
func (s *Service) Labels() *labels.Catalog {
	return s.labels
}

// Curate classifies req.Text against the full label catalog and filters
// req.SongList by the labels selected for the requested policy.
func (s *Service) Curate(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrNoText
	}

	policy := s.cfg.DefaultPolicy
	if req.Policy != "" {
		p, err := playlist.ParsePolicy(req.Policy)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		policy = p
	}

	names := s.labels.Names()
	scores, err := s.classifier.Classify(ctx, text, names)
	if err != nil {
		if !errors.Is(err, classifier.ErrFailure) {
			err = fmt.Errorf("%w: %w", classifier.ErrFailure, err)
		}
		return nil, err
	}
	if err := scores.Covers(names); err != nil {
		return nil, err
	}

	selected := labels.Select(scores, s.cfg.Threshold(policy))
	s.log.Debug("prompt classified",
		zap.String("prompt", text),
		zap.String("policy", string(policy)),
		zap.Strings("selected", selected),
	)

	tracks, err := s.apply(policy, selected, req.SongList)
	if err != nil {
		return nil, err
	}

	s.log.Info("playlist curated",
		zap.String("policy", string(policy)),
		zap.Int("labels", len(selected)),
		zap.Int("candidates", len(req.SongList)),
		zap.Int("tracks", len(tracks)),
	)

	return &Result{
		Tracks: tracks,
		Labels: selected,
		Policy: policy,
	}, nil
}

// apply runs the filter, converting a panic into ErrFilterFault.
func (s *Service) apply(policy playlist.Policy, selected, candidates []string) (tracks []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("filter panicked", zap.Any("panic", r))
			tracks, err = nil, fmt.Errorf("%w: %v", playlist.ErrFilterFault, r)
		}
	}()

	return s.filter.Apply(policy, selected, candidates)
}

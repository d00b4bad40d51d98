// Package playlist selects candidate tracks that satisfy a set of labels.
//
// Two policies are supported. ANY keeps a track that matches at least one
// selected label; ALL keeps a track only if it matches every selected label.
// Results never contain duplicates and follow the order in which ids first
// appear in the candidate list, so identical inputs always give identical output.
package playlist

import (
	"errors"
	"fmt"

	"github.com/justestif/playlist-curator/internal/catalog"
	"github.com/justestif/playlist-curator/internal/labels"
)

// ErrFilterFault signals a configuration problem found while filtering,
// such as a selected label that is not in the label catalog.
var ErrFilterFault = errors.New("internal filter fault")

// Policy names a selection policy.
type Policy string

const (
	PolicyAny Policy = "any"
	PolicyAll Policy = "all"
)

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAny, PolicyAll:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown policy %q", s)
	}
}

// MissingTracks controls how candidate ids absent from the track catalog are treated.
type MissingTracks int

const (
	// ExcludeMissing drops unknown ids.
	ExcludeMissing MissingTracks = iota
	// IncludeMissing keeps unknown ids as if they matched every label.
	IncludeMissing
)

// EmptySelection controls what ALL returns when no label was selected.
// ANY always returns nothing for an empty selection.
type EmptySelection int

const (
	// MatchAll keeps every candidate: all of zero labels are satisfied.
	MatchAll EmptySelection = iota
	// MatchNone returns an empty playlist.
	MatchNone
)

// Options configures a Filter.
type Options struct {
	MissingTracks  MissingTracks
	EmptySelection EmptySelection
}

// Filter applies label policies against shared, read-only catalogs.
type Filter struct {
	labels *labels.Catalog
	tracks *catalog.Catalog
	opts   Options
}

// New creates a Filter. The zero Options exclude unknown ids and treat an
// empty ALL selection as matching every known candidate.
func New(labelCatalog *labels.Catalog, trackCatalog *catalog.Catalog, opts Options) *Filter {
	return &Filter{
		labels: labelCatalog,
		tracks: trackCatalog,
		opts:   opts,
	}
}

// Apply runs the named policy.
func (f *Filter) Apply(policy Policy, selected, candidates []string) ([]string, error) {
	switch policy {
	case PolicyAny:
		return f.Any(selected, candidates)
	case PolicyAll:
		return f.All(selected, candidates)
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrFilterFault, policy)
	}
}

// Any returns the candidates matching at least one selected label.
func (f *Filter) Any(selected, candidates []string) ([]string, error) {
	resolved, err := f.resolve(selected)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return []string{}, nil
	}

	return f.collect(candidates, func(t *catalog.Track) bool {
		for _, l := range resolved {
			if matches(t, l) {
				return true
			}
		}
		return false
	}), nil
}

// All returns the candidates matching every selected label.
func (f *Filter) All(selected, candidates []string) ([]string, error) {
	resolved, err := f.resolve(selected)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 && f.opts.EmptySelection == MatchNone {
		return []string{}, nil
	}

	return f.collect(candidates, func(t *catalog.Track) bool {
		for _, l := range resolved {
			if !matches(t, l) {
				return false
			}
		}
		return true
	}), nil
}

// resolve looks up every selected label once, before any track is visited.
func (f *Filter) resolve(selected []string) ([]labels.Label, error) {
	resolved := make([]labels.Label, 0, len(selected))
	for _, name := range selected {
		l, ok := f.labels.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: label %q not in catalog", ErrFilterFault, name)
		}
		if l.Kind == labels.KindRange && l.Range == nil {
			return nil, fmt.Errorf("%w: range label %q has no bounds", ErrFilterFault, name)
		}
		resolved = append(resolved, l)
	}
	return resolved, nil
}

// collect walks candidates in order and keeps the first occurrence of every
// id accepted by keep.
func (f *Filter) collect(candidates []string, keep func(*catalog.Track) bool) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(candidates))

	for _, id := range candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		t, ok := f.tracks.Lookup(id)
		if !ok {
			if f.opts.MissingTracks == IncludeMissing {
				out = append(out, id)
			}
			continue
		}
		if keep(&t) {
			out = append(out, id)
		}
	}

	return out
}

// matches reports whether t satisfies a single label.
func matches(t *catalog.Track, l labels.Label) bool {
	switch l.Kind {
	case labels.KindGenre:
		return t.HasGenre(l.Name)
	case labels.KindRange:
		v, ok := t.Feature(l.Range.Column)
		return ok && l.Range.Contains(v)
	default:
		return false
	}
}

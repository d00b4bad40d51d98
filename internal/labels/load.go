package labels

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// fileLabel is the YAML representation of a label.
type fileLabel struct {
	Name   string   `yaml:"name"`
	Kind   Kind     `yaml:"kind"`
	Column string   `yaml:"column,omitempty"`
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
}

type fileCatalog struct {
	Labels []fileLabel `yaml:"labels"`
}

// Default returns the built-in label catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a YAML label catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening label catalog: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading label catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing label catalog: %w", err)
	}

	out := make([]Label, 0, len(fc.Labels))
	for _, fl := range fc.Labels {
		l, err := fl.toLabel()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}

	return NewCatalog(out)
}

func (fl fileLabel) toLabel() (Label, error) {
	l := Label{Name: fl.Name, Kind: fl.Kind}

	switch fl.Kind {
	case KindGenre:
		if fl.Column != "" || fl.Min != nil || fl.Max != nil {
			return Label{}, fmt.Errorf("%w: genre label %q carries bounds", ErrInvalidLabel, fl.Name)
		}
	case KindRange:
		if fl.Min == nil || fl.Max == nil {
			return Label{}, fmt.Errorf("%w: range label %q needs min and max", ErrInvalidLabel, fl.Name)
		}
		l.Range = &Range{Column: fl.Column, Min: *fl.Min, Max: *fl.Max}
	}

	return l, nil
}

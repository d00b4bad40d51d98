// Package labels defines the label taxonomy prompts are classified against.
//
// Every label is either a genre tag or a numeric range over one audio-feature
// column. The catalog is built once at startup and never mutated, so it is safe
// for concurrent reads without locking.
package labels

import (
	"errors"
	"fmt"
	"slices"
)

// Kind distinguishes genre labels from feature-range labels.
type Kind string

const (
	// KindGenre matches tracks whose genre tags contain the label name.
	KindGenre Kind = "genre"
	// KindRange matches tracks whose feature value lies inside Range.
	KindRange Kind = "range"
)

// Common errors.
var (
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrInvalidLabel   = errors.New("invalid label")
	ErrEmptyCatalog   = errors.New("label catalog is empty")
)

// Range is an inclusive numeric bound over a single feature column.
type Range struct {
	Column string
	Min    float64
	Max    float64
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Label is a single taxonomy entry.
type Label struct {
	Name  string
	Kind  Kind
	Range *Range // nil for genre labels
}

// Catalog is an immutable, ordered set of labels.
type Catalog struct {
	labels []Label
	byName map[string]int
}

// NewCatalog validates the given labels and builds a catalog preserving their order.
func NewCatalog(labels []Label) (*Catalog, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		labels: make([]Label, 0, len(labels)),
		byName: make(map[string]int, len(labels)),
	}

	for _, l := range labels {
		if err := validate(l); err != nil {
			return nil, err
		}
		if _, ok := c.byName[l.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, l.Name)
		}

		// Copy the range so callers cannot mutate catalog entries.
		if l.Range != nil {
			r := *l.Range
			l.Range = &r
		}

		c.byName[l.Name] = len(c.labels)
		c.labels = append(c.labels, l)
	}

	return c, nil
}

func validate(l Label) error {
	if l.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidLabel)
	}

	switch l.Kind {
	case KindGenre:
		if l.Range != nil {
			return fmt.Errorf("%w: genre label %q carries bounds", ErrInvalidLabel, l.Name)
		}
	case KindRange:
		if l.Range == nil {
			return fmt.Errorf("%w: range label %q has no bounds", ErrInvalidLabel, l.Name)
		}
		if l.Range.Column == "" {
			return fmt.Errorf("%w: range label %q has no column", ErrInvalidLabel, l.Name)
		}
		if l.Range.Min > l.Range.Max {
			return fmt.Errorf("%w: range label %q has min %v > max %v",
				ErrInvalidLabel, l.Name, l.Range.Min, l.Range.Max)
		}
	default:
		return fmt.Errorf("%w: label %q has unknown kind %q", ErrInvalidLabel, l.Name, l.Kind)
	}

	return nil
}

// Lookup returns the label with the given name.
func (c *Catalog) Lookup(name string) (Label, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Label{}, false
	}
	return c.labels[i], true
}

// Names returns all label names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.labels))
	for i, l := range c.labels {
		names[i] = l.Name
	}
	return names
}

// All returns a copy of the catalog's labels in order.
func (c *Catalog) All() []Label {
	return slices.Clone(c.labels)
}

// Len returns the number of labels.
func (c *Catalog) Len() int {
	return len(c.labels)
}

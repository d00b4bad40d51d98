package labels

import "slices"

// Default confidence thresholds for each selection policy.
const (
	DefaultAnyThreshold = 0.95
	DefaultAllThreshold = 0.97
)

// Select returns the labels whose score is strictly greater than threshold,
// sorted by name.
func Select(scores map[string]float64, threshold float64) []string {
	var selected []string
	for name, score := range scores {
		if score > threshold {
			selected = append(selected, name)
		}
	}
	slices.Sort(selected)
	return selected
}

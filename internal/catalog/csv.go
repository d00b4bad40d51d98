package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a CSV dataset lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column aliases accepted in CSV headers.
var (
	idColumns     = []string{"track_id", "id"}
	genreColumns  = []string{"track_genre", "genre", "genres"}
	nameColumns   = []string{"track_name", "name"}
	artistColumns = []string{"artists", "artist"}
)

// LoadCSVFile reads a track dataset from a CSV file.
func LoadCSVFile(path string) ([]Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a track dataset with a header row.
// An id column and a genre column are required. Every other column whose
// value parses as a number becomes a feature of that row; blank or
// non-numeric cells are left out so the row never matches ranges on them.
func ReadCSV(r io.Reader) ([]Track, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	idCol, ok := findColumn(index, idColumns)
	if !ok {
		return nil, fmt.Errorf("%w: track id", ErrMissingColumn)
	}
	genreCol, ok := findColumn(index, genreColumns)
	if !ok {
		return nil, fmt.Errorf("%w: genre", ErrMissingColumn)
	}
	nameCol, hasName := findColumn(index, nameColumns)
	artistCol, hasArtist := findColumn(index, artistColumns)

	reserved := map[int]bool{idCol: true, genreCol: true}
	if hasName {
		reserved[nameCol] = true
	}
	if hasArtist {
		reserved[artistCol] = true
	}

	var tracks []Track
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		t := Track{
			ID:       cell(record, idCol),
			Genres:   SplitGenres(cell(record, genreCol)),
			Features: make(map[string]float64),
		}
		if hasName {
			t.Name = cell(record, nameCol)
		}
		if hasArtist {
			t.Artist = cell(record, artistCol)
		}

		for i, v := range record {
			if reserved[i] || i >= len(header) {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			t.Features[strings.ToLower(strings.TrimSpace(header[i]))] = f
		}

		tracks = append(tracks, t)
	}

	return tracks, nil
}

func findColumn(index map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := index[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

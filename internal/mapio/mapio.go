// Package mapio parses the text map file format consumed by the solver's
// external map loader (spec §6): header lines (width/height), a bare "map"
// line, then H rows of W characters, '.' free and any other character
// blocked.
package mapio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
)

// ErrMalformed indicates the file is missing a required header field or has
// fewer grid rows than its declared height.
var ErrMalformed = errors.New("mapio: malformed map file")

// Load reads a map file at path and returns its occupancy Grid.
func Load(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the map format from r.
func Parse(r io.Reader) (*grid.Grid, error) {
	sc := bufio.NewScanner(r)

	width, height := -1, -1
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "width"):
			w, err := parseHeaderInt(line)
			if err != nil {
				return nil, err
			}
			width = w
		case strings.HasPrefix(line, "height"):
			h, err := parseHeaderInt(line)
			if err != nil {
				return nil, err
			}
			height = h
		case line == "map":
			goto rows
		}
	}
rows:
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: missing width/height header", ErrMalformed)
	}

	rowsData := make([][]bool, 0, height)
	for sc.Scan() {
		line := sc.Text()
		if len(line) < width {
			return nil, fmt.Errorf("%w: row %d shorter than declared width", ErrMalformed, len(rowsData))
		}
		row := make([]bool, width)
		for c := 0; c < width; c++ {
			row[c] = line[c] != '.'
		}
		rowsData = append(rowsData, row)
		if len(rowsData) == height {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rowsData) != height {
		return nil, fmt.Errorf("%w: declared height %d, got %d rows", ErrMalformed, height, len(rowsData))
	}

	return grid.New(rowsData)
}

func parseHeaderInt(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformed, line, err)
	}
	return n, nil
}

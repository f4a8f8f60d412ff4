package mapio_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-cbs-core/internal/grid"
	"github.com/elektrokombinacija/mapf-cbs-core/internal/mapio"
)

func TestParseWellFormedMap(t *testing.T) {
	src := "type octile\n" +
		"height 3\n" +
		"width 4\n" +
		"map\n" +
		"....\n" +
		".@..\n" +
		"....\n"

	g, err := mapio.Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 3, g.H)
	assert.Equal(t, 4, g.W)
	assert.True(t, g.IsFree(grid.Cell{Row: 0, Col: 0}))
	assert.False(t, g.IsFree(grid.Cell{Row: 1, Col: 1}))
	assert.True(t, g.IsFree(grid.Cell{Row: 2, Col: 3}))
}

func TestParseTreatsAnyNonDotAsBlocked(t *testing.T) {
	src := "width 3\nheight 1\nmap\nT.@\n"
	g, err := mapio.Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.False(t, g.IsFree(grid.Cell{Row: 0, Col: 0}))
	assert.True(t, g.IsFree(grid.Cell{Row: 0, Col: 1}))
	assert.False(t, g.IsFree(grid.Cell{Row: 0, Col: 2}))
}

func TestParseRejectsMissingHeader(t *testing.T) {
	src := "map\n....\n"
	_, err := mapio.Parse(strings.NewReader(src))
	assert.ErrorIs(t, err, mapio.ErrMalformed)
}

func TestParseRejectsShortGrid(t *testing.T) {
	src := "width 4\nheight 3\nmap\n....\n....\n"
	_, err := mapio.Parse(strings.NewReader(src))
	assert.ErrorIs(t, err, mapio.ErrMalformed)
}

func TestParseRejectsNarrowRow(t *testing.T) {
	src := "width 4\nheight 1\nmap\n..\n"
	_, err := mapio.Parse(strings.NewReader(src))
	assert.ErrorIs(t, err, mapio.ErrMalformed)
}

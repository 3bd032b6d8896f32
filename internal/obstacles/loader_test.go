package obstacles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `lat0 37.792480, lon0 -122.397450
posX,posY,posZ,halfSizeX,halfSizeY,halfSizeZ
-310.2389,-439.2315,85.5,5,5,85.5
-300.2389,-439.2315,85.5,5,5,85.5
-290.2389,-439.2315,85.5,5,5,85.5
`

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(sampleTable))
	require.NoError(t, err)

	assert.InDelta(t, 37.792480, table.Lat0, 1e-9)
	assert.InDelta(t, -122.397450, table.Lon0, 1e-9)
	require.Len(t, table.Obstacles, 3)
	assert.Equal(t, Obstacle{
		North:        -310.2389,
		East:         -439.2315,
		Altitude:     85.5,
		HalfNorth:    5,
		HalfEast:     5,
		HalfAltitude: 85.5,
	}, table.Obstacles[0])
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column int
	}{
		{
			name:  "missing header",
			input: "",
			line:  1,
		},
		{
			name:   "header without value",
			input:  "lat0, lon0 -122\nnames\n1,2,3,4,5,6\n",
			line:   1,
			column: 1,
		},
		{
			name:  "header missing lon0",
			input: "lat0 37.7\nnames\n1,2,3,4,5,6\n",
			line:  1,
		},
		{
			name:  "short row",
			input: "lat0 37.7, lon0 -122.3\nnames\n1,2,3,4,5,6\n1,2,3,4,5\n",
			line:  4,
		},
		{
			name:   "non numeric field",
			input:  "lat0 37.7, lon0 -122.3\nnames\n1,2,abc,4,5,6\n",
			line:   3,
			column: 3,
		},
		{
			name:   "negative half extent",
			input:  "lat0 37.7, lon0 -122.3\nnames\n1,2,3,4,-5,6\n",
			line:   3,
			column: 5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTable), "got %v", err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.line, perr.Line)
			assert.Equal(t, tc.column, perr.Column)
		})
	}
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader("lat0 1, lon0 2\nnames\n"))
	assert.True(t, errors.Is(err, ErrEmptyTable))

	_, err = Read(strings.NewReader("lat0 1, lon0 2\n"))
	assert.True(t, errors.Is(err, ErrEmptyTable))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colliders.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, table.Obstacles, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

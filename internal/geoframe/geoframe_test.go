package geoframe

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var home = Global{Lon: -122.397450, Lat: 37.792480, Alt: 0}

func TestGlobalToLocal(t *testing.T) {
	assert.Equal(t, Local{}, GlobalToLocal(home, home))

	// one arc-second of latitude north is ~30.9 m
	p := Global{Lon: home.Lon, Lat: home.Lat + 1.0/3600, Alt: 10}
	l := GlobalToLocal(p, home)
	assert.InDelta(t, orb.EarthRadius*math.Pi/180/3600, l.North, 1e-6)
	assert.InDelta(t, 0, l.East, 1e-9)
	assert.Equal(t, -10.0, l.Down)

	west := GlobalToLocal(Global{Lon: home.Lon - 0.001, Lat: home.Lat}, home)
	assert.Less(t, west.East, 0.0)
	assert.InDelta(t, -88.0, west.East, 1.0)

	south := GlobalToLocal(Global{Lon: home.Lon, Lat: home.Lat - 0.001}, home)
	assert.InDelta(t, -111.32, south.North, 0.01)
}

func TestRoundTrip(t *testing.T) {
	for _, l := range []Local{
		{North: 0, East: 0, Down: 0},
		{North: 150, East: -420, Down: -5},
		{North: -310.5, East: 439.25, Down: 2},
		{North: 1000, East: 1000, Down: -120},
	} {
		g := LocalToGlobal(l, home)
		back := GlobalToLocal(g, home)
		assert.InDelta(t, l.North, back.North, 1e-6)
		assert.InDelta(t, l.East, back.East, 1e-6)
		assert.InDelta(t, l.Down, back.Down, 1e-9)
	}
}

func TestParseGlobal(t *testing.T) {
	g, err := ParseGlobal("-122.40195876, 37.79673913, -0.147")
	require.NoError(t, err)
	assert.Equal(t, Global{Lon: -122.40195876, Lat: 37.79673913, Alt: -0.147}, g)

	for _, bad := range []string{"", "1,2", "a,b,c", "1,2,3,4", "10,95,0", "200,10,0"} {
		_, err := ParseGlobal(bad)
		assert.Error(t, err, bad)
	}
}

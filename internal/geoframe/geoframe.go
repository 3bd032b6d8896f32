// Package geoframe converts between geodetic positions and the local
// north/east/down frame anchored at the vehicle's home position.
package geoframe

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// Global is a geodetic position. Altitude is in meters, positive up.
type Global struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

// Point returns the horizontal position as an orb point (lon, lat).
func (g Global) Point() orb.Point { return orb.Point{g.Lon, g.Lat} }

func (g Global) String() string {
	return fmt.Sprintf("(%.8f, %.8f, %.3f)", g.Lon, g.Lat, g.Alt)
}

// Local is a position relative to home. Down is positive below home.
type Local struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
	Down  float64 `json:"down"`
}

// GlobalToLocal returns p relative to home. North and east are measured
// along the meridian and parallel through p, on a spherical earth.
func GlobalToLocal(p, home Global) Local {
	corner := orb.Point{home.Lon, p.Lat}

	north := geo.Distance(home.Point(), corner)
	if p.Lat < home.Lat {
		north = -north
	}
	east := geo.Distance(corner, p.Point())
	if lonDelta(home.Lon, p.Lon) < 0 {
		east = -east
	}

	return Local{North: north, East: east, Down: -(p.Alt - home.Alt)}
}

// LocalToGlobal is the inverse of GlobalToLocal.
func LocalToGlobal(l Local, home Global) Global {
	lat := home.Lat + rad2deg(l.North/orb.EarthRadius)
	lon := home.Lon + rad2deg(l.East/(orb.EarthRadius*math.Cos(deg2rad(lat))))
	return Global{Lon: normalizeLon(lon), Lat: lat, Alt: home.Alt - l.Down}
}

// ParseGlobal parses "lon,lat,alt".
func ParseGlobal(s string) (Global, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Global{}, errors.Errorf("expected lon,lat,alt, got %q", s)
	}
	var values [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Global{}, errors.Wrapf(err, "invalid coordinate %q", part)
		}
		values[i] = v
	}
	g := Global{Lon: values[0], Lat: values[1], Alt: values[2]}
	if g.Lat < -90 || g.Lat > 90 || g.Lon < -180 || g.Lon > 180 {
		return Global{}, errors.Errorf("coordinate out of range: %v", g)
	}
	return g, nil
}

// lonDelta returns to-from wrapped into [-180, 180).
func lonDelta(from, to float64) float64 {
	return normalizeLon(to - from)
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }

func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }

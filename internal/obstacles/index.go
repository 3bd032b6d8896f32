package obstacles

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minExtent keeps degenerate boxes (zero half extent) valid for rtreego,
// which rejects non-positive side lengths.
const minExtent = 1e-9

// entry wraps an obstacle for R-tree storage.
type entry struct {
	id   int
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *entry) Bounds() rtreego.Rect {
	return e.bbox
}

// Index is an immutable 3-D R-tree over a set of obstacles. It is safe for
// concurrent readers.
type Index struct {
	tree      *rtreego.Rtree
	obstacles []Obstacle

	minNorth, maxNorth float64
	minEast, maxEast   float64
}

// NewIndex builds an index over obstacles. The slice is copied.
func NewIndex(obstacles []Obstacle) *Index {
	idx := &Index{
		obstacles: append([]Obstacle(nil), obstacles...),
	}

	objs := make([]rtreego.Spatial, 0, len(obstacles))
	for i, o := range idx.obstacles {
		rect, err := rtreego.NewRect(
			rtreego.Point{o.North - o.HalfNorth, o.East - o.HalfEast, o.Bottom()},
			[]float64{
				max(2*o.HalfNorth, minExtent),
				max(2*o.HalfEast, minExtent),
				max(2*o.HalfAltitude, minExtent),
			},
		)
		if err != nil {
			// lengths are positive by construction
			continue
		}
		objs = append(objs, &entry{id: i, bbox: rect})

		if i == 0 {
			idx.minNorth, idx.maxNorth = o.North-o.HalfNorth, o.North+o.HalfNorth
			idx.minEast, idx.maxEast = o.East-o.HalfEast, o.East+o.HalfEast
			continue
		}
		idx.minNorth = min(idx.minNorth, o.North-o.HalfNorth)
		idx.maxNorth = max(idx.maxNorth, o.North+o.HalfNorth)
		idx.minEast = min(idx.minEast, o.East-o.HalfEast)
		idx.maxEast = max(idx.maxEast, o.East+o.HalfEast)
	}

	// 3D, min 25, max 50 entries per node; bulk loaded
	idx.tree = rtreego.NewTree(3, 25, 50, objs...)
	return idx
}

// Len returns the number of indexed obstacles.
func (idx *Index) Len() int { return len(idx.obstacles) }

// Obstacles returns every indexed obstacle in table order.
func (idx *Index) Obstacles() []Obstacle { return idx.obstacles }

// Extent returns the horizontal bounds of all obstacle boxes (without any
// safety margin).
func (idx *Index) Extent() (minNorth, maxNorth, minEast, maxEast float64) {
	return idx.minNorth, idx.maxNorth, idx.minEast, idx.maxEast
}

// InBand returns the obstacles whose vertical extent intersects the closed
// altitude interval [lo, hi], in table order.
func (idx *Index) InBand(lo, hi float64) []Obstacle {
	if len(idx.obstacles) == 0 || hi < lo {
		return nil
	}
	query, err := idx.queryRect(
		idx.minNorth-1, idx.maxNorth+1,
		idx.minEast-1, idx.maxEast+1,
		lo, hi,
	)
	if err != nil {
		return nil
	}
	return idx.collect(query, func(o Obstacle) bool {
		return o.InBand(lo, hi)
	})
}

// Covering returns the obstacles whose footprint, grown by margin, contains
// the point (north, east) and whose vertical extent intersects [lo, hi].
func (idx *Index) Covering(north, east, lo, hi, margin float64) []Obstacle {
	if len(idx.obstacles) == 0 || hi < lo {
		return nil
	}
	query, err := idx.queryRect(
		north-margin, north+margin,
		east-margin, east+margin,
		lo, hi,
	)
	if err != nil {
		return nil
	}
	return idx.collect(query, func(o Obstacle) bool {
		return o.InBand(lo, hi) && o.Footprint(margin).Contains(orb.Point{east, north})
	})
}

// queryRect pads the closed query box slightly; rtreego treats touching
// boxes as disjoint, and the exact test is applied afterwards.
func (idx *Index) queryRect(n0, n1, e0, e1, a0, a1 float64) (rtreego.Rect, error) {
	const pad = 1e-6
	return rtreego.NewRectFromPoints(
		rtreego.Point{n0 - pad, e0 - pad, a0 - pad},
		rtreego.Point{n1 + pad, e1 + pad, a1 + pad},
	)
}

func (idx *Index) collect(query rtreego.Rect, keep func(Obstacle) bool) []Obstacle {
	results := idx.tree.SearchIntersect(query)
	ids := make([]int, 0, len(results))
	for _, item := range results {
		e := item.(*entry)
		if keep(idx.obstacles[e.id]) {
			ids = append(ids, e.id)
		}
	}
	sort.Ints(ids)

	out := make([]Obstacle, len(ids))
	for i, id := range ids {
		out[i] = idx.obstacles[id]
	}
	return out
}

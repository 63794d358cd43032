package pipeline

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// DefaultHexSize is the flat-top hex radius in degrees.
const DefaultHexSize = 0.12

// axial is a flat-top hex coordinate.
type axial struct {
	q, r int
}

func toAxial(p orb.Point, size float64) axial {
	q := (2.0 / 3.0 * p.X()) / size
	r := (-1.0/3.0*p.X() + math.Sqrt(3)/3.0*p.Y()) / size
	return axialRound(q, r)
}

// axialRound rounds fractional axial coordinates to the nearest hex via
// cube coordinates. Halves round to even.
func axialRound(q, r float64) axial {
	x, z := q, r
	y := -x - z
	rx, ry, rz := math.RoundToEven(x), math.RoundToEven(y), math.RoundToEven(z)

	dx, dy, dz := math.Abs(rx-x), math.Abs(ry-y), math.Abs(rz-z)
	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		// ry is not part of the result.
	default:
		rz = -rx - ry
	}
	return axial{q: int(rx), r: int(rz)}
}

func (a axial) center(size float64) orb.Point {
	q, r := float64(a.q), float64(a.r)
	return orb.Point{size * 1.5 * q, size * math.Sqrt(3) * (r + q/2)}
}

func hexRing(c orb.Point, size float64) orb.Ring {
	ring := make(orb.Ring, 0, 7)
	for i := 0; i < 6; i++ {
		angle := math.Pi / 180 * float64(60*i)
		ring = append(ring, orb.Point{c.X() + size*math.Cos(angle), c.Y() + size*math.Sin(angle)})
	}
	return append(ring, ring[0])
}

// containedIn reports whether p falls inside any polygon or multipolygon
// of areas.
func containedIn(p orb.Point, areas []orb.Geometry) bool {
	for _, g := range areas {
		switch g := g.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, p) {
				return true
			}
		}
	}
	return false
}

// BuildHex bins schools into flat-top hexagons. Only hexes whose centre
// lies inside one of the admin geometries are kept. Shares are relative
// to all binned schools of the level, including those in dropped hexes.
func BuildHex(primary, secondary []schools.School, admin []orb.Geometry, b Bounds, size float64) *geojson.FeatureCollection {
	if size <= 0 {
		size = DefaultHexSize
	}

	bins := make(map[axial]*levelCounts)
	var totalPrimary, totalSecondary int
	add := func(list []schools.School, inc func(*levelCounts)) {
		for _, s := range list {
			if !b.ContainsPoint(s.Location) {
				continue
			}
			k := toAxial(s.Location, size)
			c, ok := bins[k]
			if !ok {
				c = &levelCounts{}
				bins[k] = c
			}
			inc(c)
		}
	}
	add(primary, func(c *levelCounts) { c.primary++; totalPrimary++ })
	add(secondary, func(c *levelCounts) { c.secondary++; totalSecondary++ })
	totalAll := totalPrimary + totalSecondary

	keys := make([]axial, 0, len(bins))
	for k := range bins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].q != keys[j].q {
			return keys[i].q < keys[j].q
		}
		return keys[i].r < keys[j].r
	})

	fc := geojson.NewFeatureCollection()
	for _, k := range keys {
		center := k.center(size)
		if !containedIn(center, admin) {
			continue
		}
		c := bins[k]
		f := geojson.NewFeature(orb.Polygon{hexRing(center, size)})
		f.Properties[schools.PropPrimaryCount] = c.primary
		f.Properties[schools.PropSecondaryCount] = c.secondary
		f.Properties[schools.PropTotalCount] = c.total()
		f.Properties[schools.PropPrimaryPct] = share(c.primary, totalPrimary)
		f.Properties[schools.PropSecondaryPct] = share(c.secondary, totalSecondary)
		f.Properties[schools.PropTotalPct] = share(c.total(), totalAll)
		fc.Append(f)
	}
	return fc
}

// share returns n as a percentage of total, or 0 for an empty total.
func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

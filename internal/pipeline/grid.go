package pipeline

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// DefaultCellSize is the grid cell edge in degrees, about 11 km.
const DefaultCellSize = 0.1

type levelCounts struct {
	primary, secondary int
}

func (c levelCounts) total() int { return c.primary + c.secondary }

type cellKey struct {
	row, col int
}

// BuildGrid counts schools in square cells anchored at the south-west
// corner of b. Schools outside b are ignored and empty cells are omitted.
// Cells are ordered south to north, then west to east.
func BuildGrid(primary, secondary []schools.School, b Bounds, cellSize float64) *geojson.FeatureCollection {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	cells := make(map[cellKey]*levelCounts)
	add := func(list []schools.School, inc func(*levelCounts)) {
		for _, s := range list {
			if !b.ContainsPoint(s.Location) {
				continue
			}
			k := cellKey{
				row: int(math.Floor((s.Location.Lat() - b.LatMin) / cellSize)),
				col: int(math.Floor((s.Location.Lon() - b.LonMin) / cellSize)),
			}
			c, ok := cells[k]
			if !ok {
				c = &levelCounts{}
				cells[k] = c
			}
			inc(c)
		}
	}
	add(primary, func(c *levelCounts) { c.primary++ })
	add(secondary, func(c *levelCounts) { c.secondary++ })

	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	fc := geojson.NewFeatureCollection()
	for _, k := range keys {
		c := cells[k]
		if c.total() == 0 {
			continue
		}
		latMin := b.LatMin + float64(k.row)*cellSize
		lonMin := b.LonMin + float64(k.col)*cellSize
		cell := orb.Bound{
			Min: orb.Point{lonMin, latMin},
			Max: orb.Point{lonMin + cellSize, latMin + cellSize},
		}
		f := geojson.NewFeature(cell.ToPolygon())
		f.Properties[schools.PropPrimaryCount] = c.primary
		f.Properties[schools.PropSecondaryCount] = c.secondary
		f.Properties[schools.PropTotalCount] = c.total()
		fc.Append(f)
	}
	return fc
}

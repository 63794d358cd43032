package view

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zw-schools/schoolmap/internal/classify"
	"github.com/zw-schools/schoolmap/internal/heat"
	"github.com/zw-schools/schoolmap/internal/rank"
	"github.com/zw-schools/schoolmap/internal/schools"
	"github.com/zw-schools/schoolmap/internal/templates"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	r, err := templates.NewEmbedded()
	require.NoError(t, err)
	return NewBuilder(r)
}

func square(lon, lat, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat},
	}}
}

func adminAreas() []schools.Area {
	return []schools.Area{
		{
			Name:     "Harare",
			Geometry: square(30, -18, 1),
			Counts:   schools.Counts{Primary: 8, Secondary: 4, Total: 12},
			Shares:   schools.Counts{Primary: 5, Secondary: 20, Total: 10},
		},
		{
			Name:     "Midlands",
			Geometry: square(29, -20, 1),
			Counts:   schools.Counts{Primary: 1000, Secondary: 300, Total: 1300},
			Shares:   schools.Counts{Primary: 60, Secondary: 15, Total: 40},
		},
	}
}

func TestChoropleth(t *testing.T) {
	b := newBuilder(t)

	v, err := b.Choropleth(adminAreas(), DefaultContext())
	require.NoError(t, err)

	assert.Equal(t, classify.ContinuousBreaks{0, 40}, v.Breaks)
	assert.Equal(t, "0.0%", v.Legend.MinLabel)
	assert.Equal(t, "40.0%", v.Legend.MaxLabel)
	assert.Equal(t, classify.ShareLegendTitle, v.Legend.Title)
	assert.Equal(t, ChoroplethStyle, v.Style)

	require.Len(t, v.Features, 2)
	assert.Equal(t, "#27689b", v.Features[0].FillColor.Hex())
	assert.Equal(t, "#f39c34", v.Features[1].FillColor.Hex())
	assert.Equal(t,
		"<strong>Harare</strong><br/>Share: 10.00%<br/>Total: 12<br/>Primary: 8<br/>Secondary: 4",
		v.Features[0].Tooltip)

	assert.Equal(t, 1312, v.Summary.Total)
	assert.Equal(t, "1,312", v.Summary.TotalLabel)
	assert.Equal(t, 2, v.Summary.Visible)
}

func TestChoroplethMetric(t *testing.T) {
	b := newBuilder(t)
	ctx := DefaultContext()
	ctx.Metric = schools.MetricSecondary

	v, err := b.Choropleth(adminAreas(), ctx)
	require.NoError(t, err)

	assert.Equal(t, classify.ContinuousBreaks{0, 20}, v.Breaks)
	assert.Equal(t, "#f39c34", v.Features[0].FillColor.Hex())
	assert.InDelta(t, 15.0, v.Features[1].Value, 1e-9)
	assert.Equal(t, 304, v.Summary.Total)
}

func TestChoroplethViewport(t *testing.T) {
	b := newBuilder(t)
	ctx := DefaultContext()
	vp := orb.Bound{Min: orb.Point{29.5, -18.5}, Max: orb.Point{31, -17}}
	ctx.Viewport = &vp

	v, err := b.Choropleth(adminAreas(), ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Summary.Visible)
	assert.Equal(t, 1312, v.Summary.Total)
}

func TestChoroplethEmpty(t *testing.T) {
	b := newBuilder(t)

	v, err := b.Choropleth(nil, DefaultContext())
	require.NoError(t, err)
	assert.Equal(t, classify.ContinuousBreaks{0, 1}, v.Breaks)
	assert.Empty(t, v.Features)
	assert.Equal(t, "0", v.Summary.TotalLabel)
}

func gridCells() []schools.Area {
	fc := geojson.NewFeatureCollection()
	for i, total := range []any{3.0, 10.0, nil} {
		f := geojson.NewFeature(square(29+float64(i)*0.1, -19, 0.1))
		f.Properties["primary_count"] = 1.0
		f.Properties["secondary_count"] = 1.0
		if total != nil {
			f.Properties["total_count"] = total
		}
		fc.Append(f)
	}
	return schools.DecodeAreas(fc)
}

func TestGrid(t *testing.T) {
	b := newBuilder(t)

	v, err := b.Grid(gridCells(), DefaultContext())
	require.NoError(t, err)

	assert.Equal(t, classify.QuantizedBreaks{0, 3, 6, 9, 12}, v.Breaks)
	assert.Equal(t, classify.DensityLegendTitle, v.Legend.Title)
	require.Len(t, v.Legend.Items, 4)
	assert.Equal(t, "1 - 3", v.Legend.Items[0].Label)

	require.Len(t, v.Cells, 3)
	assert.Equal(t, classify.Class1, v.Cells[0].Class)
	assert.Equal(t, "#f7d79b", v.Cells[0].FillColor.Hex())
	assert.Equal(t, classify.Class4, v.Cells[1].Class)
	assert.Equal(t, "#5f0f40", v.Cells[1].FillColor.Hex())
	assert.Equal(t, classify.NoData, v.Cells[2].Class)
	assert.Equal(t, "#f5f3ef", v.Cells[2].FillColor.Hex())

	assert.Equal(t, "<strong>Grid cell</strong><br/>Total: 3<br/>Primary: 1<br/>Secondary: 1", v.Cells[0].Tooltip)
	assert.Equal(t, 13, v.Summary.Total)
	assert.Equal(t, 3, v.Summary.Visible)
}

func TestGridMetricPresent(t *testing.T) {
	b := newBuilder(t)
	ctx := DefaultContext()
	ctx.Metric = schools.MetricPrimary

	v, err := b.Grid(gridCells(), ctx)
	require.NoError(t, err)
	assert.Equal(t, classify.QuantizedBreaks{0, 1, 2, 3, 4}, v.Breaks)
	for _, c := range v.Cells {
		assert.Equal(t, classify.Class1, c.Class)
	}
}

func testSchools() (primary, secondary []schools.School) {
	primary = []schools.School{
		{Name: "Alpha", Province: "Harare", Level: "Primary", Location: orb.Point{31.05, -17.83}},
		{Name: "Beta", Province: "Harare", Level: "Primary", Location: orb.Point{31.1, -17.9}},
		{Name: "Gamma", Province: "Midlands", Level: "Primary", Location: orb.Point{29.8, -19.45}},
	}
	secondary = []schools.School{
		{Name: "Delta", Province: "Midlands", Level: "Secondary", Location: orb.Point{29.81, -19.46}},
		{Name: "Epsilon", Province: "Midlands", Level: "Secondary", Location: orb.Point{29.7, -19.5}},
	}
	return primary, secondary
}

func TestHeat(t *testing.T) {
	b := newBuilder(t)
	primary, secondary := testSchools()

	v := b.Heat(primary, secondary, DefaultContext())

	require.Len(t, v.Points, 5)
	assert.Equal(t, heat.Point{-17.83, 31.05, heat.PrimaryWeight}, v.Points[0])
	assert.Equal(t, heat.Point{-19.46, 29.81, heat.SecondaryWeight}, v.Points[3])
	assert.Equal(t, 9, v.Options.Radius)
	assert.Equal(t, 26, v.Options.Blur)

	assert.Equal(t, 5, v.Stats.Total)
	assert.Equal(t, "5 schools", v.Stats.TotalLabel)
	assert.Equal(t, 3, v.Stats.Primary)
	assert.Equal(t, 2, v.Stats.Secondary)

	assert.Equal(t, []rank.Entry{{Name: "Midlands", Count: 3}, {Name: "Harare", Count: 2}}, v.Ranking.Top)
	assert.Equal(t, []rank.Entry{{Name: "Harare", Count: 2}, {Name: "Midlands", Count: 3}}, v.Ranking.Bottom)
}

func TestHeatToggles(t *testing.T) {
	b := newBuilder(t)
	primary, secondary := testSchools()

	ctx := DefaultContext()
	ctx.Primary = false
	ctx.Zoom = 8
	v := b.Heat(primary, secondary, ctx)

	assert.Len(t, v.Points, 2)
	assert.Equal(t, 0, v.Stats.Primary)
	assert.Equal(t, 35, v.Options.Radius)
	assert.Equal(t, []rank.Entry{{Name: "Midlands", Count: 2}}, v.Ranking.Top)

	ctx.Secondary = false
	v = b.Heat(primary, secondary, ctx)
	assert.NotNil(t, v.Points)
	assert.Empty(t, v.Points)
	assert.Equal(t, "0 schools", v.Stats.TotalLabel)
	assert.Equal(t, []rank.Entry{rank.Placeholder}, v.Ranking.Top)
	assert.Equal(t, []rank.Entry{rank.Placeholder}, v.Ranking.Bottom)
}

func TestMarkers(t *testing.T) {
	b := newBuilder(t)
	list := []schools.School{{
		Name:     "<b>St. Mary's</b>",
		District: "Harare",
		Province: "Harare",
		Level:    "Primary",
		Location: orb.Point{31.05, -17.83},
	}}

	v, err := b.Markers(list)
	require.NoError(t, err)
	require.Len(t, v.Markers, 1)

	m := v.Markers[0]
	assert.InDelta(t, -17.83, m.Lat, 1e-9)
	assert.InDelta(t, 31.05, m.Lon, 1e-9)
	assert.Contains(t, m.Popup, "&lt;b&gt;St. Mary&#39;s&lt;/b&gt;")
	assert.NotContains(t, m.Popup, "<b>")
	assert.Equal(t, SchoolMarker, v.Style)
}

func TestContextActive(t *testing.T) {
	primary, secondary := testSchools()
	ctx := DefaultContext()

	all := ctx.Active(primary, secondary)
	require.Len(t, all, 5)
	assert.Equal(t, "Alpha", all[0].Name)
	assert.Equal(t, "Delta", all[3].Name)

	ctx.Primary, ctx.Secondary = false, false
	assert.Empty(t, ctx.Active(primary, secondary))
}

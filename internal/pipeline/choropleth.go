package pipeline

import (
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// normalizeName folds whitespace and case so province labels match admin
// region names.
func normalizeName(s string) string {
	return strings.ToLower(normalizeSpaces(s))
}

func countProvinces(list []schools.School) (map[string]int, int) {
	counts := make(map[string]int)
	total := 0
	for _, s := range list {
		if s.Province == "" {
			continue
		}
		counts[normalizeName(s.Province)]++
		total++
	}
	return counts, total
}

// JoinAdmin returns a copy of the admin-1 regions with school counts per
// level and each region's share of the level's schools. Schools are
// matched to regions by normalized province name; regions without
// schools get zero counts.
func JoinAdmin(admin *geojson.FeatureCollection, primary, secondary []schools.School) *geojson.FeatureCollection {
	pCounts, pTotal := countProvinces(primary)
	sCounts, sTotal := countProvinces(secondary)

	out := geojson.NewFeatureCollection()
	if admin == nil {
		return out
	}
	for _, src := range admin.Features {
		f := geojson.NewFeature(src.Geometry)
		f.ID = src.ID
		f.BBox = src.BBox
		for k, v := range src.Properties {
			f.Properties[k] = v
		}

		key := normalizeName(f.Properties.MustString(schools.PropAdminName, ""))
		p, s := pCounts[key], sCounts[key]
		f.Properties[schools.PropPrimaryCount] = p
		f.Properties[schools.PropSecondaryCount] = s
		f.Properties[schools.PropTotalCount] = p + s
		f.Properties[schools.PropPrimaryPct] = share(p, pTotal)
		f.Properties[schools.PropSecondaryPct] = share(s, sTotal)
		f.Properties[schools.PropTotalPct] = share(p+s, pTotal+sTotal)
		out.Append(f)
	}
	return out
}

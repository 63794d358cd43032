package schools

import (
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// ReadFeatureCollection reads and parses a GeoJSON feature collection.
func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schools: read %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "schools: parse %s", path)
	}
	return fc, nil
}

// LoadSchools reads a point feature collection from path.
func LoadSchools(path string) ([]School, error) {
	fc, err := ReadFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	return DecodeSchools(fc), nil
}

// LoadAreas reads a polygon feature collection from path.
func LoadAreas(path string) ([]Area, error) {
	fc, err := ReadFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	return DecodeAreas(fc), nil
}

// DecodeSchools converts point features to schools. Features without a
// point geometry are skipped; missing strings become "".
func DecodeSchools(fc *geojson.FeatureCollection) []School {
	if fc == nil {
		return nil
	}
	out := make([]School, 0, len(fc.Features))
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		p := f.Properties
		out = append(out, School{
			Number:     text(p, PropNumber),
			Name:       text(p, PropName),
			Province:   text(p, PropProvince),
			District:   text(p, PropDistrict),
			Level:      text(p, PropLevel),
			GrantClass: text(p, PropGrantClass),
			Location:   pt,
		})
	}
	return out
}

// DecodeAreas converts polygon features to areas. Missing or non-numeric
// counts and shares default to 0 and are remembered as missing.
func DecodeAreas(fc *geojson.FeatureCollection) []Area {
	if fc == nil {
		return nil
	}
	out := make([]Area, 0, len(fc.Features))
	for _, f := range fc.Features {
		a := Area{
			Name:     text(f.Properties, PropAdminName),
			Geometry: f.Geometry,
			missing:  make(map[string]bool),
		}
		num := func(key string) float64 {
			v, ok := number(f.Properties, key)
			if !ok {
				a.missing[key] = true
			}
			return v
		}
		a.Counts = Counts{
			Primary:   num(PropPrimaryCount),
			Secondary: num(PropSecondaryCount),
			Total:     num(PropTotalCount),
		}
		a.Shares = Counts{
			Primary:   num(PropPrimaryPct),
			Secondary: num(PropSecondaryPct),
			Total:     num(PropTotalPct),
		}
		out = append(out, a)
	}
	return out
}

// Locations returns the points of schools, in order.
func Locations(schools []School) []orb.Point {
	out := make([]orb.Point, len(schools))
	for i, s := range schools {
		out[i] = s.Location
	}
	return out
}

func text(p geojson.Properties, key string) string {
	return strings.TrimSpace(p.MustString(key, ""))
}

func number(p geojson.Properties, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

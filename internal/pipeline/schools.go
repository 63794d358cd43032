package pipeline

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// RequiredColumns must all be present to build school points.
var RequiredColumns = []string{
	ColNumber, ColName, ColProvince, ColDistrict, ColLevel, ColGrantClass, ColLatitude, ColLongitude,
}

// BuildSchools reads a school CSV and returns the point features of one
// level. Rows with missing, zero or out-of-bounds coordinates are skipped.
func BuildSchools(r io.Reader, level string) (*geojson.FeatureCollection, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !t.has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, eris.Errorf("pipeline: csv missing required fields: %s", strings.Join(missing, ", "))
	}

	fc := geojson.NewFeatureCollection()
	for _, row := range t.rows {
		if strings.TrimSpace(t.get(row, ColLevel)) != level {
			continue
		}
		lat, latOK := parseFloat(t.get(row, ColLatitude))
		lon, lonOK := parseFloat(t.get(row, ColLongitude))
		if !latOK || !lonOK || lat == 0 || lon == 0 || !MapBounds.Contains(lat, lon) {
			continue
		}
		f := geojson.NewFeature(orb.Point{lon, lat})
		for _, key := range []string{
			schools.PropNumber, schools.PropName, schools.PropProvince,
			schools.PropDistrict, schools.PropLevel, schools.PropGrantClass,
		} {
			f.Properties[key] = strings.TrimSpace(t.get(row, key))
		}
		fc.Append(f)
	}
	return fc, nil
}

// SchoolsOutput names the files written for one level.
type SchoolsOutput struct {
	Level   string
	GeoJSON string
	JS      string
	// Window is the global the JS payload assigns, e.g. PRIMARY_SCHOOLS.
	Window string
}

// WriteGeoJSON writes fc to path.
func WriteGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrapf(err, "pipeline: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", path)
	}
	return nil
}

// WriteSchools writes the GeoJSON file and the script payload for fc.
func WriteSchools(out SchoolsOutput, fc *geojson.FeatureCollection) error {
	if err := WriteGeoJSON(out.GeoJSON, fc); err != nil {
		return err
	}
	if out.JS == "" {
		return nil
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrapf(err, "pipeline: marshal %s", out.JS)
	}
	payload := "window." + out.Window + " = " + string(data) + ";\n"
	if err := os.WriteFile(out.JS, []byte(payload), 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", out.JS)
	}
	return nil
}

// WriteBounds writes b as JSON to path.
func WriteBounds(path string, b Bounds) error {
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal bounds")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", path)
	}
	return nil
}

// Package servicetest builds a small, fully loaded dataset directory for
// handler tests.
package servicetest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zw-schools/schoolmap/internal/pipeline"
	"github.com/zw-schools/schoolmap/internal/schools"
	"github.com/zw-schools/schoolmap/internal/service"
)

// SchoolsCSV holds three primary schools (two in Harare, one in Midlands)
// and two secondary schools in Midlands.
const SchoolsCSV = `Schoolnumber,Name,Province,District,SchoolLevel,Grant_Class,latitude,longitude
001,Alpha Primary,Harare,Harare,Primary,P1,-17.83,31.05
002,Beta Primary,Harare,Harare,Primary,P2,-17.86,31.02
003,Gamma Primary,Midlands,Gweru,Primary,P1,-19.45,29.81
004,Delta High,Midlands,Gweru,Secondary,S1,-19.46,29.82
005,Epsilon High,Midlands,Kwekwe,Secondary,S2,-18.93,29.81
`

// Admin returns the Harare and Midlands regions.
func Admin() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	h := geojson.NewFeature(orb.Bound{Min: orb.Point{30.5, -18.5}, Max: orb.Point{31.5, -17.5}}.ToPolygon())
	h.Properties[schools.PropAdminName] = "Harare"
	fc.Append(h)
	m := geojson.NewFeature(orb.Bound{Min: orb.Point{29, -20}, Max: orb.Point{30.5, -18.5}}.ToPolygon())
	m.Properties[schools.PropAdminName] = "Midlands"
	fc.Append(m)
	return fc
}

// DataDir runs the build over SchoolsCSV and Admin and returns the data
// directory.
func DataDir(t *testing.T) string {
	t.Helper()
	zap.ReplaceGlobals(zap.NewNop())

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	input := filepath.Join(dir, "schools.csv")
	require.NoError(t, os.WriteFile(input, []byte(SchoolsCSV), 0o644))
	require.NoError(t, pipeline.WriteGeoJSON(filepath.Join(dataDir, pipeline.FileAdmin), Admin()))

	_, err := pipeline.Run(context.Background(), pipeline.Options{
		DataDir:   dataDir,
		InputCSV:  input,
		SkipClean: true,
	})
	require.NoError(t, err)
	return dataDir
}

// Loaded returns a dataset service loaded from DataDir.
func Loaded(t *testing.T, store service.SchoolStore) *service.DatasetService {
	t.Helper()
	svc := service.NewDatasetService(DataDir(t), store, nil)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

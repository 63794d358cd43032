package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// Dataset file names inside the data directory.
const (
	FileCleanCSV   = "clean_schools.csv"
	FileReport     = "quality_report.md"
	FilePrimary    = "primary_schools.geojson"
	FileSecondary  = "secondary_schools.geojson"
	FileBounds     = "bounds.json"
	FileGrid       = "zw_grid_density.geojson"
	FileHex        = "zw_hex_density.geojson"
	FileAdmin      = "zw_admin1.geojson"
	FileChoropleth = "zw_admin1_schools.geojson"
)

// Levels maps each school level to its output files.
var Levels = []SchoolsOutput{
	{Level: schools.LevelPrimary, GeoJSON: FilePrimary, JS: "primary_schools.js", Window: "PRIMARY_SCHOOLS"},
	{Level: schools.LevelSecondary, GeoJSON: FileSecondary, JS: "secondary_schools.js", Window: "SECONDARY_SCHOOLS"},
}

// Options configures a full build.
type Options struct {
	// DataDir receives every output.
	DataDir   string
	// InputCSV is the raw ministry export.
	InputCSV  string
	// SkipClean builds from InputCSV directly.
	SkipClean bool
	// AdminFile holds the admin-1 polygons. Defaults to DataDir/zw_admin1.geojson.
	AdminFile string
	CellSize  float64
	HexSize   float64
}

// Result summarizes a build.
type Result struct {
	Report    *Report
	Primary   int
	Secondary int
	GridCells int
	HexCells  int
	Regions   int
	Files     []string
}

// Run cleans the input, builds per-level school points and then the
// density and choropleth layers. Outputs that do not depend on each other
// are written concurrently. Hex and choropleth layers are skipped when
// the admin file does not exist.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("data_dir", opts.DataDir))
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: create %s", opts.DataDir)
	}
	if opts.AdminFile == "" {
		opts.AdminFile = filepath.Join(opts.DataDir, FileAdmin)
	}

	res := &Result{}
	var mu sync.Mutex
	wrote := func(name string) {
		mu.Lock()
		res.Files = append(res.Files, filepath.Join(opts.DataDir, name))
		mu.Unlock()
	}

	source := opts.InputCSV
	if !opts.SkipClean {
		rep, err := CleanFile(opts.InputCSV, filepath.Join(opts.DataDir, FileCleanCSV), filepath.Join(opts.DataDir, FileReport))
		if err != nil {
			return nil, err
		}
		res.Report = rep
		wrote(FileCleanCSV)
		wrote(FileReport)
		source = filepath.Join(opts.DataDir, FileCleanCSV)
		log.Info("pipeline: cleaned schools",
			zap.Int("rows", rep.Rows),
			zap.Int("missing_latlon", rep.MissingLatLonFinal),
		)
	}

	byLevel := make([][]schools.School, len(Levels))
	g, gctx := errgroup.WithContext(ctx)
	for i, out := range Levels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(source)
			if err != nil {
				return eris.Wrapf(err, "pipeline: open %s", source)
			}
			defer f.Close()

			fc, err := BuildSchools(f, out.Level)
			if err != nil {
				return err
			}
			out.GeoJSON = filepath.Join(opts.DataDir, out.GeoJSON)
			out.JS = filepath.Join(opts.DataDir, out.JS)
			if err := WriteSchools(out, fc); err != nil {
				return err
			}
			wrote(filepath.Base(out.GeoJSON))
			wrote(filepath.Base(out.JS))
			byLevel[i] = schools.DecodeSchools(fc)
			log.Info("pipeline: built schools", zap.String("level", out.Level), zap.Int("count", len(byLevel[i])))
			return nil
		})
	}
	g.Go(func() error {
		if err := WriteBounds(filepath.Join(opts.DataDir, FileBounds), MapBounds); err != nil {
			return err
		}
		wrote(FileBounds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	primary, secondary := byLevel[0], byLevel[1]
	res.Primary, res.Secondary = len(primary), len(secondary)

	var admin *geojson.FeatureCollection
	if _, err := os.Stat(opts.AdminFile); err == nil {
		admin, err = schools.ReadFeatureCollection(opts.AdminFile)
		if err != nil {
			return nil, err
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		log.Warn("pipeline: admin boundaries not found, skipping hex and choropleth layers",
			zap.String("path", opts.AdminFile))
	} else {
		return nil, eris.Wrapf(err, "pipeline: stat %s", opts.AdminFile)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		fc := BuildGrid(primary, secondary, MapBounds, opts.CellSize)
		if err := WriteGeoJSON(filepath.Join(opts.DataDir, FileGrid), fc); err != nil {
			return err
		}
		wrote(FileGrid)
		res.GridCells = len(fc.Features)
		log.Info("pipeline: built grid density", zap.Int("cells", res.GridCells))
		return nil
	})
	if admin != nil {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			geoms := make([]orb.Geometry, 0, len(admin.Features))
			for _, f := range admin.Features {
				geoms = append(geoms, f.Geometry)
			}
			fc := BuildHex(primary, secondary, geoms, MapBounds, opts.HexSize)
			if err := WriteGeoJSON(filepath.Join(opts.DataDir, FileHex), fc); err != nil {
				return err
			}
			wrote(FileHex)
			res.HexCells = len(fc.Features)
			log.Info("pipeline: built hex density", zap.Int("cells", res.HexCells))
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fc := JoinAdmin(admin, primary, secondary)
			if err := WriteGeoJSON(filepath.Join(opts.DataDir, FileChoropleth), fc); err != nil {
				return err
			}
			wrote(FileChoropleth)
			res.Regions = len(fc.Features)
			log.Info("pipeline: joined admin regions", zap.Int("regions", res.Regions))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// CleanFile runs Clean from inPath to outPath and writes the Markdown
// report to reportPath when it is not empty.
func CleanFile(inPath, outPath, reportPath string) (*Report, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: open %s", inPath)
	}
	defer in.Close()

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "pipeline: create %s", dir)
		}
	}
	out, err := os.Create(outPath)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: create %s", outPath)
	}
	rep, err := Clean(in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = eris.Wrapf(cerr, "pipeline: close %s", outPath)
	}
	if err != nil {
		return nil, err
	}

	if reportPath != "" {
		md := rep.Markdown(inPath, outPath)
		if err := os.WriteFile(reportPath, []byte(md), 0o644); err != nil {
			return nil, eris.Wrapf(err, "pipeline: write %s", reportPath)
		}
	}
	return rep, nil
}

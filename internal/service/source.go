package service

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// extToType maps listed extensions to display types.
var extToType = map[string]string{
	".geojson": "GeoJSON",
	".json":    "JSON",
	".csv":     "CSV",
	".js":      "Script",
	".md":      "Markdown",
}

// SourceService lists the files in the data directory.
type SourceService struct {
	dataDir string
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string) *SourceService {
	return &SourceService{dataDir: dataDir}
}

// List returns the data files sorted by name. A missing directory lists
// nothing.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, eris.Wrapf(err, "service: list %s", s.dataDir)
	}

	datasets := make(map[string]string, len(datasetFiles))
	for _, d := range datasetFiles {
		datasets[d.file] = d.name
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		fileType, ok := extToType[ext]
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
			Dataset:  datasets[entry.Name()],
		})
	}

	return files, nil
}

// DataDir returns the path to the data directory.
func (s *SourceService) DataDir() string {
	return s.dataDir
}

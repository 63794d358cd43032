// Package service loads the map datasets, tracks their status and lists
// the files in the data directory.
package service

import (
	"fmt"
	"time"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// Dataset names.
const (
	DatasetPrimary    = "primary"
	DatasetSecondary  = "secondary"
	DatasetChoropleth = "choropleth"
	DatasetGrid       = "grid"
	DatasetHex        = "hex"
)

// Status messages.
const (
	MessageLoading = "Loading school data..."
	MessageFailed  = "Failed to load school data."
)

// Datasets is an immutable snapshot of the loaded data. A reload swaps
// the whole snapshot.
type Datasets struct {
	Primary    []schools.School
	Secondary  []schools.School
	Choropleth []schools.Area
	Grid       []schools.Area
	Hex        []schools.Area
}

// DatasetState is the load outcome of one dataset.
type DatasetState struct {
	Name     string `json:"name" doc:"Dataset name" example:"primary"`
	File     string `json:"file" doc:"Source file name" example:"primary_schools.geojson"`
	Loaded   bool   `json:"loaded" doc:"Whether the last load succeeded"`
	Features int    `json:"features" doc:"Number of features loaded"`
	Error    string `json:"error,omitempty" doc:"Load error, if any"`
}

// Status summarizes the last load.
type Status struct {
	Ready    bool           `json:"ready" doc:"School points are loaded"`
	Message  string         `json:"message,omitempty" doc:"Status message for users" example:"Failed to load school data."`
	LoadedAt time.Time      `json:"loadedAt,omitempty" doc:"Time of the last load"`
	Datasets []DatasetState `json:"datasets" doc:"Per-dataset load state"`
}

// SourceFile is a file in the data directory.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"primary_schools.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
	Dataset  string `json:"dataset,omitempty" doc:"Dataset the file provides" example:"primary"`
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

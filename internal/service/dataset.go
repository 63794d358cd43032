package service

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zw-schools/schoolmap/internal/pipeline"
	"github.com/zw-schools/schoolmap/internal/schools"
)

type datasetFile struct {
	name string
	file string
}

// datasetFiles lists the datasets in load order.
var datasetFiles = []datasetFile{
	{DatasetPrimary, pipeline.FilePrimary},
	{DatasetSecondary, pipeline.FileSecondary},
	{DatasetChoropleth, pipeline.FileChoropleth},
	{DatasetGrid, pipeline.FileGrid},
	{DatasetHex, pipeline.FileHex},
}

// SchoolStore receives the school points after every successful load.
type SchoolStore interface {
	LoadSchools(ctx context.Context, list []schools.School) error
}

// DatasetService loads the GeoJSON datasets from the data directory and
// serves consistent snapshots of them.
type DatasetService struct {
	dataDir string
	store   SchoolStore
	bus     *EventBus

	loadMu sync.Mutex // serializes loads

	mu     sync.RWMutex
	data   Datasets
	status Status
}

// NewDatasetService creates a dataset service. store and bus may be nil.
func NewDatasetService(dataDir string, store SchoolStore, bus *EventBus) *DatasetService {
	if bus == nil {
		bus = NewEventBus()
	}
	return &DatasetService{
		dataDir: dataDir,
		store:   store,
		bus:     bus,
		status:  Status{Message: MessageLoading, Datasets: []DatasetState{}},
	}
}

// Bus returns the bus dataset events are published on.
func (s *DatasetService) Bus() *EventBus { return s.bus }

// Snapshot returns the current datasets.
func (s *DatasetService) Snapshot() Datasets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Status returns the state of the last load.
func (s *DatasetService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Datasets = append([]DatasetState(nil), s.status.Datasets...)
	return st
}

// Loaded reports whether the named dataset loaded successfully.
func (s *DatasetService) Loaded(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.status.Datasets {
		if d.Name == name {
			return d.Loaded
		}
	}
	return false
}

// Load reads every dataset concurrently and swaps in the new snapshot.
// Density and choropleth layers are optional; the returned error is
// non-nil only when the school points could not be loaded. Failures are
// reported through Status and the event bus and are not retried.
func (s *DatasetService) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	states := make([]DatasetState, len(datasetFiles))
	var next Datasets
	var g errgroup.Group
	for i, df := range datasetFiles {
		states[i] = DatasetState{Name: df.name, File: df.file}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				states[i].Error = err.Error()
				return err
			}
			path := filepath.Join(s.dataDir, df.file)
			n, err := s.loadOne(df.name, path, &next)
			if err != nil {
				states[i].Error = err.Error()
				zap.L().Warn("service: dataset load failed",
					zap.String("dataset", df.name), zap.Error(err))
				return nil
			}
			states[i].Loaded = true
			states[i].Features = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "service: load datasets")
	}

	ready := states[0].Loaded && states[1].Loaded
	var loadErr error
	if !ready {
		for _, st := range states[:2] {
			if st.Error != "" {
				loadErr = eris.Errorf("service: load %s: %s", st.Name, st.Error)
				break
			}
		}
	}

	if ready && s.store != nil {
		all := append(append([]schools.School(nil), next.Primary...), next.Secondary...)
		if err := s.store.LoadSchools(ctx, all); err != nil {
			zap.L().Warn("service: store load failed", zap.Error(err))
		}
	}

	status := Status{Ready: ready, LoadedAt: time.Now(), Datasets: states}
	event := Event{Action: ActionReloaded}
	if !ready {
		status.Message = MessageFailed
		event = Event{Action: ActionFailed, Message: MessageFailed}
	}

	s.mu.Lock()
	s.data = next
	s.status = status
	s.mu.Unlock()

	zap.L().Info("service: datasets loaded",
		zap.Bool("ready", ready),
		zap.Int("primary", len(next.Primary)),
		zap.Int("secondary", len(next.Secondary)),
		zap.Int("regions", len(next.Choropleth)),
		zap.Int("grid_cells", len(next.Grid)),
		zap.Int("hex_cells", len(next.Hex)),
	)
	s.bus.Publish(event)
	return loadErr
}

// loadOne reads one dataset into its field of next and returns its
// feature count. Concurrent calls write distinct fields.
func (s *DatasetService) loadOne(name, path string, next *Datasets) (int, error) {
	switch name {
	case DatasetPrimary, DatasetSecondary:
		list, err := schools.LoadSchools(path)
		if err != nil {
			return 0, err
		}
		if name == DatasetPrimary {
			next.Primary = list
		} else {
			next.Secondary = list
		}
		return len(list), nil
	default:
		areas, err := schools.LoadAreas(path)
		if err != nil {
			return 0, err
		}
		switch name {
		case DatasetChoropleth:
			next.Choropleth = areas
		case DatasetGrid:
			next.Grid = areas
		case DatasetHex:
			next.Hex = areas
		}
		return len(areas), nil
	}
}

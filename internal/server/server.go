// Package server wires the datasets, store and HTTP handlers into one
// http.Handler.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/go-chi/cors"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/zw-schools/schoolmap/internal/api"
	"github.com/zw-schools/schoolmap/internal/api/panel"
	"github.com/zw-schools/schoolmap/internal/config"
	"github.com/zw-schools/schoolmap/internal/db"
	"github.com/zw-schools/schoolmap/internal/service"
	"github.com/zw-schools/schoolmap/internal/templates"
	"github.com/zw-schools/schoolmap/internal/view"
)

// Server is the schoolmap HTTP server.
type Server struct {
	config   *config.Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	store    *db.Store
	services *api.Services
	renderer *templates.Renderer
}

// New creates a server. Datasets are not loaded until Load is called.
func New(cfg *config.Config) (*Server, error) {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("schoolmap API", api.Version)
	humaConfig.Info.Description = "School location maps for Zimbabwe: choropleth, density grid, heatmap and rankings."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	renderer, fragmentsDir, err := newRenderer(cfg.Server.WebDir)
	if err != nil {
		return nil, err
	}

	// The API serves without a store; db routes then answer 503.
	store, err := db.Open(db.Config{Driver: cfg.Store.Driver, Path: cfg.Store.Path})
	if err != nil {
		zap.L().Warn("store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		store = nil
	}

	var schoolStore service.SchoolStore
	if store != nil {
		schoolStore = store
	}

	defaults := view.DefaultContext()
	defaults.Zoom = cfg.Heat.Zoom
	defaults.Center = orb.Point{cfg.Heat.CenterLon, cfg.Heat.CenterLat}
	defaults.RadiusKm = cfg.Heat.RadiusKm

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		store:   store,
		services: &api.Services{
			Datasets:     service.NewDatasetService(cfg.Data.Dir, schoolStore, service.NewEventBus()),
			Source:       service.NewSourceService(cfg.Data.Dir),
			Views:        view.NewBuilder(renderer),
			Store:        store,
			Defaults:     defaults,
			GridSource:   cfg.Grid.Source,
			Templates:    renderer,
			FragmentsDir: fragmentsDir,
		},
		renderer: renderer,
	}
	s.routes()

	s.handler = cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Link", "Content-Length", "Content-Range", "Accept-Ranges"},
		MaxAge:         300,
	})(logRequests(mux))

	return s, nil
}

// newRenderer prefers fragments under webDir/templates/fragments so they
// can be edited without a rebuild. The returned directory is empty when
// the embedded fragments are used.
func newRenderer(webDir string) (*templates.Renderer, string, error) {
	if webDir != "" {
		fragmentsDir := filepath.Join(webDir, "templates", "fragments")
		if _, err := os.Stat(fragmentsDir); err == nil {
			r, err := templates.New(fragmentsDir)
			if err != nil {
				return nil, "", err
			}
			zap.L().Info("loaded fragment templates", zap.String("dir", fragmentsDir))
			return r, fragmentsDir, nil
		}
	}
	r, err := templates.NewEmbedded()
	return r, "", err
}

// Load loads the datasets. Failures are kept in the dataset status.
func (s *Server) Load(ctx context.Context) error {
	return s.services.Datasets.Load(ctx)
}

// Datasets returns the dataset service.
func (s *Server) Datasets() *service.DatasetService {
	return s.services.Datasets
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Server) routes() {
	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)

	// Datastar side panel
	panel.NewHandler(s.services, s.renderer).RegisterRoutes(s.humaAPI)

	// Generated datasets, fetched directly by the map
	s.mux.Handle("/data/", http.StripPrefix("/data/", http.FileServer(http.Dir(s.config.Data.Dir))))

	// Static files and the map page
	if s.config.Server.WebDir != "" {
		staticDir := filepath.Join(s.config.Server.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.config.Server.WebDir != "" {
		index := filepath.Join(s.config.Server.WebDir, "templates", "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service": "schoolmap",
		"status":  "running",
		"ready":   s.services.Datasets.Status().Ready,
	})
}

// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/zw-schools/schoolmap/internal/db"
	"github.com/zw-schools/schoolmap/internal/heat"
	"github.com/zw-schools/schoolmap/internal/rank"
	"github.com/zw-schools/schoolmap/internal/schools"
	"github.com/zw-schools/schoolmap/internal/service"
	"github.com/zw-schools/schoolmap/internal/templates"
	"github.com/zw-schools/schoolmap/internal/view"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Density layer sources.
const (
	SourceGrid = "grid"
	SourceHex  = "hex"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Datasets     *service.DatasetService
	Source       *service.SourceService
	Views        *view.Builder
	Store        *db.Store // nil when the store is unavailable
	// Defaults fills heatmap parameters a request leaves unset.
	Defaults     view.Context
	// GridSource is the density layer used when a request names none.
	GridSource   string
	// Templates is re-parsed from FragmentsDir on reload when both are set.
	Templates    *templates.Renderer
	FragmentsDir string
}

// RegisterRoutes registers every REST route.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewDBHandler(svc.Store).RegisterRoutes(api)
	NewInfoHandler(svc).RegisterRoutes(api)
}

// Types

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

type StatusOutput struct {
	Body service.Status
}

type SourcesOutput struct {
	Body []service.SourceFile
}

type ChoroplethInput struct {
	Metric string `query:"metric" enum:"primary,secondary,total" default:"total" doc:"Level the shares and counts refer to"`
	BBoxInput
}

type ChoroplethOutput struct {
	Body view.ChoroplethView
}

type GridInput struct {
	Metric string `query:"metric" enum:"primary,secondary,total" default:"total" doc:"Level the counts refer to"`
	Source string `query:"source" enum:"grid,hex" doc:"Density layer; defaults to the configured source"`
	BBoxInput
}

type GridOutput struct {
	Body view.GridView
}

type LevelToggles struct {
	Primary   bool `query:"primary" default:"true" doc:"Include primary schools"`
	Secondary bool `query:"secondary" default:"true" doc:"Include secondary schools"`
}

type HeatmapInput struct {
	LevelToggles
	Zoom     float64 `query:"zoom" minimum:"0" maximum:"22" doc:"Map zoom; 0 uses the configured zoom"`
	Lat      float64 `query:"lat" minimum:"-90" maximum:"90" doc:"Map center latitude; 0 uses the configured center"`
	Lon      float64 `query:"lon" minimum:"-180" maximum:"180" doc:"Map center longitude; 0 uses the configured center"`
	RadiusKm float64 `query:"radiusKm" minimum:"0" doc:"Heat point radius in km; 0 uses the configured radius"`
}

type HeatmapOutput struct {
	Body view.HeatView
}

type MarkersInput struct {
	Level string `query:"level" enum:"primary,secondary,all" default:"all" doc:"School level to show"`
}

type MarkersOutput struct {
	Body view.MarkerView
}

type RankingsInput struct {
	LevelToggles
	Field string `query:"field" enum:"Province,District,SchoolLevel,Grant_Class" default:"Province" doc:"Property to rank by"`
}

type RankingsBody struct {
	Field string `json:"field" doc:"Property ranked by" example:"Province"`
	rank.Ranking
}

type RankingsOutput struct {
	Body RankingsBody
}

type HeatRadiusInput struct {
	Zoom     float64 `query:"zoom" required:"true" minimum:"0" maximum:"22" doc:"Map zoom"`
	Lat      float64 `query:"lat" required:"true" minimum:"-90" maximum:"90" doc:"Latitude in degrees"`
	RadiusKm float64 `query:"radiusKm" default:"20" minimum:"0" doc:"Ground radius in km"`
}

type HeatRadiusBody struct {
	Radius         int     `json:"radius" doc:"Heat point radius in pixels, clamped to 6-60" example:"9"`
	MetersPerPixel float64 `json:"metersPerPixel" doc:"Ground resolution at the given zoom and latitude"`
}

type HeatRadiusOutput struct {
	Body HeatRadiusBody
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterDatasets registers dataset status and reload routes.
func (h *APIHandler) RegisterDatasets(api huma.API) {
	huma.Get(api, "/api/v1/status", h.GetStatus, huma.OperationTags("datasets"))
	huma.Post(api, "/api/v1/datasets/reload", h.Reload, huma.OperationTags("datasets"))
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("datasets"))
}

// RegisterViews registers the map view routes.
func (h *APIHandler) RegisterViews(api huma.API) {
	huma.Get(api, "/api/v1/views/choropleth", h.GetChoropleth, huma.OperationTags("views"))
	huma.Get(api, "/api/v1/views/grid", h.GetGrid, huma.OperationTags("views"))
	huma.Get(api, "/api/v1/views/heatmap", h.GetHeatmap, huma.OperationTags("views"))
	huma.Get(api, "/api/v1/views/markers", h.GetMarkers, huma.OperationTags("views"))
}

// RegisterAnalysis registers ranking and heat radius routes.
func (h *APIHandler) RegisterAnalysis(api huma.API) {
	huma.Get(api, "/api/v1/rankings", h.GetRankings, huma.OperationTags("analysis"))
	huma.Get(api, "/api/v1/heat-radius", h.GetHeatRadius, huma.OperationTags("analysis"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetStatus(ctx context.Context, input *struct{}) (*StatusOutput, error) {
	return &StatusOutput{Body: h.svc.Datasets.Status()}, nil
}

func (h *APIHandler) Reload(ctx context.Context, input *struct{}) (*StatusOutput, error) {
	if h.svc.Templates != nil && h.svc.FragmentsDir != "" {
		if err := h.svc.Templates.Reload(h.svc.FragmentsDir); err != nil {
			// The previous templates stay in use.
			zap.L().Warn("fragment reload failed", zap.String("dir", h.svc.FragmentsDir), zap.Error(err))
		}
	}
	// Dataset failures are reported in the returned status.
	_ = h.svc.Datasets.Load(ctx)
	return &StatusOutput{Body: h.svc.Datasets.Status()}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*SourcesOutput, error) {
	if h.svc.Source == nil {
		return &SourcesOutput{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list sources", err)
	}
	return &SourcesOutput{Body: sources}, nil
}

// require fails with 503 and the status message when dataset is not loaded.
func (h *APIHandler) require(names ...string) error {
	for _, name := range names {
		if !h.svc.Datasets.Loaded(name) {
			msg := h.svc.Datasets.Status().Message
			if msg == "" {
				msg = fmt.Sprintf("Failed to load %s data.", name)
			}
			return huma.Error503ServiceUnavailable(msg)
		}
	}
	return nil
}

func (h *APIHandler) GetChoropleth(ctx context.Context, input *ChoroplethInput) (*ChoroplethOutput, error) {
	if err := h.require(service.DatasetChoropleth); err != nil {
		return nil, err
	}
	vc, err := h.viewContext(input.Metric, input.BBoxInput)
	if err != nil {
		return nil, err
	}
	v, err := h.svc.Views.Choropleth(h.svc.Datasets.Snapshot().Choropleth, vc)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build choropleth", err)
	}
	return &ChoroplethOutput{Body: v}, nil
}

func (h *APIHandler) GetGrid(ctx context.Context, input *GridInput) (*GridOutput, error) {
	source := input.Source
	if source == "" {
		source = h.svc.GridSource
	}
	data := h.svc.Datasets.Snapshot()
	dataset, cells := service.DatasetGrid, data.Grid
	if source == SourceHex {
		dataset, cells = service.DatasetHex, data.Hex
	}
	if err := h.require(dataset); err != nil {
		return nil, err
	}
	vc, err := h.viewContext(input.Metric, input.BBoxInput)
	if err != nil {
		return nil, err
	}
	v, err := h.svc.Views.Grid(cells, vc)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build grid", err)
	}
	return &GridOutput{Body: v}, nil
}

func (h *APIHandler) GetHeatmap(ctx context.Context, input *HeatmapInput) (*HeatmapOutput, error) {
	if err := h.require(service.DatasetPrimary, service.DatasetSecondary); err != nil {
		return nil, err
	}
	vc := h.svc.Defaults
	vc.Primary, vc.Secondary = input.Primary, input.Secondary
	if input.Zoom > 0 {
		vc.Zoom = input.Zoom
	}
	if input.Lat != 0 || input.Lon != 0 {
		vc.Center = orbPoint(input.Lon, input.Lat)
	}
	if input.RadiusKm > 0 {
		vc.RadiusKm = input.RadiusKm
	}
	data := h.svc.Datasets.Snapshot()
	return &HeatmapOutput{Body: h.svc.Views.Heat(data.Primary, data.Secondary, vc)}, nil
}

func (h *APIHandler) GetMarkers(ctx context.Context, input *MarkersInput) (*MarkersOutput, error) {
	if err := h.require(service.DatasetPrimary, service.DatasetSecondary); err != nil {
		return nil, err
	}
	data := h.svc.Datasets.Snapshot()
	var list []schools.School
	switch input.Level {
	case "primary":
		list = data.Primary
	case "secondary":
		list = data.Secondary
	default:
		list = append(append(list, data.Primary...), data.Secondary...)
	}
	v, err := h.svc.Views.Markers(list)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build markers", err)
	}
	return &MarkersOutput{Body: v}, nil
}

func (h *APIHandler) GetRankings(ctx context.Context, input *RankingsInput) (*RankingsOutput, error) {
	if err := h.require(service.DatasetPrimary, service.DatasetSecondary); err != nil {
		return nil, err
	}
	data := h.svc.Datasets.Snapshot()
	vc := view.Context{Primary: input.Primary, Secondary: input.Secondary}
	return &RankingsOutput{Body: RankingsBody{
		Field:   input.Field,
		Ranking: rank.By(vc.Active(data.Primary, data.Secondary), input.Field),
	}}, nil
}

func (h *APIHandler) GetHeatRadius(ctx context.Context, input *HeatRadiusInput) (*HeatRadiusOutput, error) {
	return &HeatRadiusOutput{Body: HeatRadiusBody{
		Radius:         heat.RadiusPx(input.Zoom, input.Lat, input.RadiusKm),
		MetersPerPixel: heat.MetersPerPixel(input.Zoom, input.Lat),
	}}, nil
}

// viewContext builds the context of a polygon view.
func (h *APIHandler) viewContext(metric string, bbox BBoxInput) (view.Context, error) {
	vc := h.svc.Defaults
	m, err := schools.ParseMetric(metric)
	if err != nil {
		return vc, huma.Error422UnprocessableEntity(err.Error())
	}
	vc.Metric = m
	vp, err := bbox.Bound()
	if err != nil {
		return vc, huma.Error422UnprocessableEntity(err.Error())
	}
	vc.Viewport = vp
	return vc, nil
}

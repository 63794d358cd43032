package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir string
	driver  string
}

func NewInfoHandler(svc *Services) *InfoHandler {
	h := &InfoHandler{}
	if svc.Source != nil {
		h.dataDir = svc.Source.DataDir()
	}
	if svc.Store != nil {
		h.driver = svc.Store.Driver()
	}
	return h
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	DB       bool     `json:"db" doc:"Whether the database is available"`
	Driver   string   `json:"driver,omitempty" doc:"Database driver"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "schoolmap",
		Version:  Version,
		DataDir:  h.dataDir,
		DB:       h.driver != "",
		Driver:   h.driver,
		Features: []string{"choropleth", "grid", "hex", "heatmap", "rankings", "datastar"},
	}}, nil
}

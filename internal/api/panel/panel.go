// Package panel serves the Datastar side panel: legends, counters and
// rankings patched over SSE whenever the map state changes.
package panel

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/zw-schools/schoolmap/internal/api"
	"github.com/zw-schools/schoolmap/internal/humastar"
	"github.com/zw-schools/schoolmap/internal/service"
	"github.com/zw-schools/schoolmap/internal/templates"
	"github.com/zw-schools/schoolmap/internal/view"
)

// Panel element selectors.
const (
	SelectorStatus = "#status"
	SelectorLegend = "#legend"
	SelectorTop    = "#top-provinces"
	SelectorBottom = "#bottom-provinces"
)

// Handler streams panel fragments for the map views.
type Handler struct {
	humastar.Handler
	svc *api.Services
}

// NewHandler creates a panel handler.
func NewHandler(svc *api.Services, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		svc:     svc,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/panel/{view}", h.Refresh, huma.OperationTags("panel"))
	huma.Get(api, "/api/v1/panel/events", h.Events, huma.OperationTags("panel"))
}

type RefreshInput struct {
	View    string `path:"view" enum:"choropleth,grid,heatmap" doc:"Active map view"`
	RawBody []byte
}

// Refresh patches the status line, then the legend and counters of the
// requested view.
func (h *Handler) Refresh(ctx context.Context, input *RefreshInput) (*huma.StreamResponse, error) {
	signals, err := humastar.ParseSignals(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	vc, err := contextFrom(signals, h.svc.Defaults)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	status := h.svc.Datasets.Status()
	data := h.svc.Datasets.Snapshot()

	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.Render("status", status), SelectorStatus)

		switch input.View {
		case "choropleth":
			if !h.loaded(sse, service.DatasetChoropleth) {
				return
			}
			v, err := h.svc.Views.Choropleth(data.Choropleth, vc)
			if err != nil {
				h.fail(sse, err)
				return
			}
			sse.Patch(h.Render("legend-gradient", v.Legend), SelectorLegend)
			sse.Signals(summarySignals(v.Summary))

		case "grid":
			dataset, cells := service.DatasetGrid, data.Grid
			source := signals.String(SignalSource)
			if source == "" {
				source = h.svc.GridSource
			}
			if source == api.SourceHex {
				dataset, cells = service.DatasetHex, data.Hex
			}
			if !h.loaded(sse, dataset) {
				return
			}
			v, err := h.svc.Views.Grid(cells, vc)
			if err != nil {
				h.fail(sse, err)
				return
			}
			sse.Patch(h.Render("legend-swatches", v.Legend), SelectorLegend)
			sse.Signals(summarySignals(v.Summary))

		case "heatmap":
			if !h.loaded(sse, service.DatasetPrimary, service.DatasetSecondary) {
				return
			}
			v := h.svc.Views.Heat(data.Primary, data.Secondary, vc)
			sse.Signals(map[string]any{
				"statTotal":     v.Stats.TotalLabel,
				"statPrimary":   v.Stats.PrimaryLabel,
				"statSecondary": v.Stats.SecondaryLabel,
				"heatRadius":    v.Options.Radius,
			})
			sse.Patch(h.Render("rank-list", v.Ranking.Top), SelectorTop)
			sse.Patch(h.Render("rank-list", v.Ranking.Bottom), SelectorBottom)
		}
	}), nil
}

// Events pushes the status line and a datasets-changed event whenever the
// datasets are reloaded.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	bus := h.svc.Datasets.Bus()
	return h.Stream(func(sse humastar.SSE) {
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				sse.Patch(h.Render("status", h.svc.Datasets.Status()), SelectorStatus)
				sse.DispatchCustomEvent("datasets-changed", map[string]any{
					"action":  ev.Action,
					"message": ev.Message,
				})
			}
		}
	}), nil
}

// loaded reports whether every named dataset is loaded, and otherwise
// sends the status message as the error signal.
func (h *Handler) loaded(sse humastar.SSE, names ...string) bool {
	for _, name := range names {
		if !h.svc.Datasets.Loaded(name) {
			msg := h.svc.Datasets.Status().Message
			if msg == "" {
				msg = service.MessageFailed
			}
			sse.Error(msg)
			return false
		}
	}
	return true
}

func (h *Handler) fail(sse humastar.SSE, err error) {
	zap.L().Error("panel refresh", zap.Error(err))
	sse.Error(err.Error())
}

func summarySignals(s view.Summary) map[string]any {
	return map[string]any{
		"totalLabel":   s.TotalLabel,
		"visibleLabel": s.VisibleLabel,
	}
}

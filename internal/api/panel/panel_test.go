package panel

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zw-schools/schoolmap/internal/api"
	"github.com/zw-schools/schoolmap/internal/classify"
	"github.com/zw-schools/schoolmap/internal/humastar"
	"github.com/zw-schools/schoolmap/internal/service"
	"github.com/zw-schools/schoolmap/internal/service/servicetest"
	"github.com/zw-schools/schoolmap/internal/templates"
	"github.com/zw-schools/schoolmap/internal/view"
)

func newPanel(t *testing.T, datasets *service.DatasetService) (*http.ServeMux, humatest.TestAPI) {
	t.Helper()
	r, err := templates.NewEmbedded()
	require.NoError(t, err)
	svc := &api.Services{
		Datasets:   datasets,
		Views:      view.NewBuilder(r),
		Defaults:   view.DefaultContext(),
		GridSource: api.SourceGrid,
	}

	// SSE streams unwrap the request through the stdlib adapter.
	mux := http.NewServeMux()
	hapi := humago.New(mux, huma.DefaultConfig("schoolmap", api.Version))
	NewHandler(svc, r).RegisterRoutes(hapi)
	return mux, humatest.Wrap(t, hapi)
}

func TestRefreshChoropleth(t *testing.T) {
	_, tapi := newPanel(t, servicetest.Loaded(t, nil))

	resp := tapi.Post("/api/v1/panel/choropleth", strings.NewReader(`{"metric":"total","bbox":"31,-18,31.2,-17.8"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()

	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "selector "+SelectorStatus)
	assert.Contains(t, body, "selector "+SelectorLegend)
	assert.Contains(t, body, `<div class="legend-gradient"`)
	assert.Contains(t, body, "60.0%")
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"totalLabel":"5"`)
	assert.Contains(t, body, `"visibleLabel":"1"`)
	// The status line is patched first.
	assert.Less(t, strings.Index(body, SelectorStatus), strings.Index(body, SelectorLegend))
}

func TestRefreshGrid(t *testing.T) {
	_, tapi := newPanel(t, servicetest.Loaded(t, nil))

	resp := tapi.Post("/api/v1/panel/grid", strings.NewReader(`{"metric":"primary","source":"hex"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `class="legend-swatch"`)
	assert.Contains(t, body, classify.DensityLegendTitle)
	assert.Contains(t, body, `"totalLabel":"3"`)
}

func TestRefreshHeatmap(t *testing.T) {
	_, tapi := newPanel(t, servicetest.Loaded(t, nil))

	resp := tapi.Post("/api/v1/panel/heatmap", strings.NewReader(`{"primary":true,"secondary":false,"zoom":8}`))
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `"statTotal":"3 schools"`)
	assert.Contains(t, body, `"statSecondary":"0"`)
	assert.Contains(t, body, `"heatRadius":35`)
	assert.Contains(t, body, "selector "+SelectorTop)
	assert.Contains(t, body, "<li><span>Harare</span><strong>2</strong></li>")
	assert.Contains(t, body, "selector "+SelectorBottom)
}

func TestRefreshNotLoaded(t *testing.T) {
	_, tapi := newPanel(t, service.NewDatasetService(t.TempDir(), nil, nil))

	resp := tapi.Post("/api/v1/panel/heatmap", strings.NewReader(`{}`))
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `<div class="status">`+service.MessageLoading+`</div>`)
	assert.Contains(t, body, `"error":"`+service.MessageLoading+`"`)
	assert.NotContains(t, body, SelectorTop)
}

func TestRefreshRejectsBadSignals(t *testing.T) {
	_, tapi := newPanel(t, service.NewDatasetService(t.TempDir(), nil, nil))

	assert.Equal(t, http.StatusBadRequest,
		tapi.Post("/api/v1/panel/grid", strings.NewReader(`{not json`)).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		tapi.Post("/api/v1/panel/grid", strings.NewReader(`{"metric":"tertiary"}`)).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		tapi.Post("/api/v1/panel/markers", strings.NewReader(`{}`)).Code)
}

func TestEvents(t *testing.T) {
	datasets := service.NewDatasetService(t.TempDir(), nil, nil)
	mux, _ := newPanel(t, datasets)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/panel/events", nil)
	require.NoError(t, err)

	// Headers may only arrive with the first event.
	responses := make(chan *http.Response, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			close(responses)
			return
		}
		responses <- resp
	}()

	require.Eventually(t, func() bool { return datasets.Bus().Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)
	datasets.Bus().Publish(service.Event{Action: service.ActionFailed, Message: service.MessageFailed})

	resp, ok := <-responses
	require.True(t, ok)
	defer resp.Body.Close()

	found := false
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.Contains(sc.Text(), "datasets-changed") {
			found = true
			break
		}
	}
	assert.True(t, found)
	cancel()

	require.Eventually(t, func() bool { return datasets.Bus().Subscribers() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestContextFrom(t *testing.T) {
	defaults := view.DefaultContext()

	vc, err := contextFrom(humastar.Signals{}, defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, vc)

	vc, err = contextFrom(humastar.Signals{
		SignalMetric:    "secondary",
		SignalPrimary:   false,
		SignalZoom:      9.0,
		SignalLat:       -17.8,
		SignalLon:       31.0,
		SignalRadiusKm:  10.0,
		SignalBBox:      "30,-18,32,-17",
		SignalSecondary: "yes",
	}, defaults)
	require.NoError(t, err)
	assert.EqualValues(t, "secondary", vc.Metric)
	assert.False(t, vc.Primary)
	assert.True(t, vc.Secondary)
	assert.Equal(t, 9.0, vc.Zoom)
	assert.Equal(t, -17.8, vc.Center.Lat())
	assert.Equal(t, 10.0, vc.RadiusKm)
	require.NotNil(t, vc.Viewport)
	assert.Equal(t, 32.0, vc.Viewport.Max.Lon())

	_, err = contextFrom(humastar.Signals{SignalBBox: "1,2"}, defaults)
	assert.Error(t, err)
}

package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/status>; rel="status"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/status>; rel="status"`,
	},
	"/api/v1/status": {
		`</api/v1/datasets/reload>; rel="reload"`,
		`</api/v1/sources>; rel="sources"`,
		`</api/v1/views/choropleth>; rel="choropleth"`,
		`</api/v1/views/grid>; rel="grid"`,
		`</api/v1/views/heatmap>; rel="heatmap"`,
	},
	"/api/v1/sources": {
		`</api/v1/status>; rel="status"`,
	},
	"/api/v1/views/choropleth": {
		`</api/v1/views/grid>; rel="grid"`,
		`</api/v1/views/heatmap>; rel="heatmap"`,
	},
	"/api/v1/views/grid": {
		`</api/v1/views/choropleth>; rel="choropleth"`,
		`</api/v1/views/heatmap>; rel="heatmap"`,
	},
	"/api/v1/views/heatmap": {
		`</api/v1/rankings>; rel="rankings"`,
		`</api/v1/heat-radius>; rel="heat-radius"`,
		`</api/v1/views/markers>; rel="markers"`,
	},
	"/api/v1/rankings": {
		`</api/v1/counts>; rel="counts"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
		`</api/v1/counts>; rel="counts"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Parameterised paths get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}

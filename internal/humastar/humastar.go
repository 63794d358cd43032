// Package humastar bridges Huma streaming responses with the Datastar SSE
// protocol and parses the signals Datastar posts with each action.
//
// Usage:
//
//	type PanelHandler struct {
//	    humastar.Handler
//	}
//
//	func (h *PanelHandler) Refresh(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Patch(h.Render("status", status), "#status")
//	    }), nil
//	}
package humastar

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rotisserie/eris"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"github.com/zw-schools/schoolmap/internal/templates"
)

// Handler is an embeddable base for Huma handlers that produce Datastar SSE
// responses.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// Render renders a fragment. Failures are logged and yield an empty
// fragment so one broken template does not end the stream.
func (h *Handler) Render(name string, data any) string {
	html, err := h.Renderer.Render(name, data)
	if err != nil {
		zap.L().Error("render fragment", zap.String("template", name), zap.Error(err))
		return ""
	}
	return html
}

// SSE wraps a Datastar SSE generator.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch replaces the inner content at a CSS selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
	)
}

// Error sends an error signal to the UI.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg})
}

// Signals sends arbitrary signals to the UI.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Signals provides typed access to Datastar signal values.
// Datastar sends all signals as one JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body. An empty
// body yields no signals.
func ParseSignals(body []byte) (Signals, error) {
	signals := Signals{}
	if len(body) == 0 {
		return signals, nil
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, eris.Wrap(err, "humastar: parse signals")
	}
	return signals, nil
}

// String returns a string signal value, or "" if not found.
func (s Signals) String(key string) string {
	if str, ok := s[key].(string); ok {
		return str
	}
	return ""
}

// Float returns a numeric signal value, or 0 if not found.
func (s Signals) Float(key string) float64 {
	if f, ok := s[key].(float64); ok {
		return f
	}
	return 0
}

// BoolOr returns a bool signal value, or def if the signal is absent or
// not a bool.
func (s Signals) BoolOr(key string, def bool) bool {
	if b, ok := s[key].(bool); ok {
		return b
	}
	return def
}

// Has reports whether the signal key exists, even if zero-valued.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// EmptyInput is a shared input struct for handlers with no parameters.
type EmptyInput struct{}

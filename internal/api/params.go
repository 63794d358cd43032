package api

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// BBoxInput is the visible map extent of a polygon view.
type BBoxInput struct {
	BBox string `query:"bbox" doc:"Viewport as west,south,east,north in degrees; empty counts every feature" example:"25.2,-22.5,33.2,-15.3"`
}

// Bound parses the bbox parameter. An empty value yields nil.
func (in BBoxInput) Bound() (*orb.Bound, error) {
	return ParseBBox(in.BBox)
}

// ParseBBox parses "west,south,east,north".
func ParseBBox(s string) (*orb.Bound, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, eris.Errorf("api: bbox needs 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "api: bbox value %q", p)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, eris.Errorf("api: bbox %q has min greater than max", s)
	}
	return &orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func orbPoint(lon, lat float64) orb.Point {
	return orb.Point{lon, lat}
}

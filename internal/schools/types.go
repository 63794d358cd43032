// Package schools holds the typed records the map views work on, and
// decodes them from GeoJSON with defaults applied once at ingestion.
package schools

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// School levels as written in the source data.
const (
	LevelPrimary   = "Primary"
	LevelSecondary = "Secondary"
)

// Property keys of school point features.
const (
	PropNumber     = "Schoolnumber"
	PropName       = "Name"
	PropProvince   = "Province"
	PropDistrict   = "District"
	PropLevel      = "SchoolLevel"
	PropGrantClass = "Grant_Class"
)

// Property keys of aggregated area features.
const (
	PropAdminName      = "admin1_name"
	PropPrimaryCount   = "primary_count"
	PropSecondaryCount = "secondary_count"
	PropTotalCount     = "total_count"
	PropPrimaryPct     = "primary_pct"
	PropSecondaryPct   = "secondary_pct"
	PropTotalPct       = "total_pct"
)

// School is a single school location.
type School struct {
	Number     string    `json:"number"`
	Name       string    `json:"name"`
	Province   string    `json:"province"`
	District   string    `json:"district"`
	Level      string    `json:"level"`
	GrantClass string    `json:"grantClass"`
	Location   orb.Point `json:"location"`
}

// Label returns the trimmed value of a categorical property, or "" for an
// unknown key.
func (s School) Label(field string) string {
	switch field {
	case PropNumber:
		return strings.TrimSpace(s.Number)
	case PropName:
		return strings.TrimSpace(s.Name)
	case PropProvince:
		return strings.TrimSpace(s.Province)
	case PropDistrict:
		return strings.TrimSpace(s.District)
	case PropLevel:
		return strings.TrimSpace(s.Level)
	case PropGrantClass:
		return strings.TrimSpace(s.GrantClass)
	}
	return ""
}

// Metric selects which level a count or share refers to.
type Metric string

const (
	MetricPrimary   Metric = "primary"
	MetricSecondary Metric = "secondary"
	MetricTotal     Metric = "total"
)

// ParseMetric accepts "primary", "secondary" or "total" (case-insensitive).
// An empty string selects total.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricPrimary, MetricSecondary, MetricTotal:
		return m, nil
	case "":
		return MetricTotal, nil
	}
	return "", eris.Errorf("schools: unknown metric %q", s)
}

func (m Metric) countKey() string {
	switch m {
	case MetricPrimary:
		return PropPrimaryCount
	case MetricSecondary:
		return PropSecondaryCount
	}
	return PropTotalCount
}

// Counts holds one number per level plus their total.
type Counts struct {
	Primary   float64 `json:"primary"`
	Secondary float64 `json:"secondary"`
	Total     float64 `json:"total"`
}

// Get returns the value for m.
func (c Counts) Get(m Metric) float64 {
	switch m {
	case MetricPrimary:
		return c.Primary
	case MetricSecondary:
		return c.Secondary
	}
	return c.Total
}

// Area is an aggregated polygon: an admin region, grid cell or hex cell.
type Area struct {
	Name     string       `json:"name,omitempty"`
	Geometry orb.Geometry `json:"-"`
	Counts   Counts       `json:"counts"`
	Shares   Counts       `json:"shares"`

	// missing records property keys absent from the source feature.
	missing map[string]bool
}

// HasCount reports whether the source feature carried a count for m.
func (a Area) HasCount(m Metric) bool {
	return !a.missing[m.countKey()]
}

// Bound returns the geometry bounds, or an empty bound without geometry.
func (a Area) Bound() orb.Bound {
	if a.Geometry == nil {
		return orb.Bound{}
	}
	return a.Geometry.Bound()
}

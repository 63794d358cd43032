package pipeline

import (
	"encoding/csv"
	"io"
	"slices"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Allowed values after cleaning. Anything else is cleared.
var (
	AllowedLevels       = []string{"Primary", "Secondary"}
	AllowedGrantClasses = []string{"P1", "P2", "P3", "S1", "S2", "S3"}
)

const blankGrant = "(blank)"

// Clean normalizes the raw school CSV from r and writes it to w with an
// extra Name_Normalized column. Rows are never dropped: invalid levels,
// grant classes and coordinates are cleared and counted in the report.
func Clean(r io.Reader, w io.Writer) (*Report, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}

	header := append([]string(nil), t.header...)
	if !t.has(ColNameNormalized) {
		header = append(header, ColNameNormalized)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, eris.Wrap(err, "pipeline: write clean header")
	}

	rep := newReport()
	c := &cleaner{title: cases.Title(language.Und)}
	for _, raw := range t.rows {
		rep.Rows++
		for i, col := range t.header {
			if strings.TrimSpace(raw[i]) == "" {
				rep.Missing.add(col)
			}
		}

		row := c.row(t, raw, rep)
		if len(row) < len(header) {
			row = append(row, strings.ToLower(t.get(row, ColName)))
		} else {
			t.set(row, ColNameNormalized, strings.ToLower(t.get(row, ColName)))
		}
		if err := cw.Write(row); err != nil {
			return nil, eris.Wrap(err, "pipeline: write clean row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, eris.Wrap(err, "pipeline: flush clean csv")
	}
	return rep, nil
}

type cleaner struct {
	title cases.Caser
}

func (c *cleaner) row(t *table, raw []string, rep *Report) []string {
	row := append([]string(nil), raw...)

	t.set(row, ColNumber, normalizeSpaces(t.get(row, ColNumber)))
	t.set(row, ColName, normalizeSpaces(t.get(row, ColName)))
	t.set(row, ColProvince, c.normalizeTitle(t.get(row, ColProvince)))
	t.set(row, ColDistrict, c.normalizeTitle(t.get(row, ColDistrict)))

	level := c.normalizeTitle(t.get(row, ColLevel))
	if level != "" && !slices.Contains(AllowedLevels, level) {
		rep.InvalidLevel++
		level = ""
	}
	t.set(row, ColLevel, level)

	grant := normalizeSpaces(t.get(row, ColGrantClass))
	if grant == blankGrant {
		grant = ""
	}
	grant = strings.ToUpper(grant)
	if grant != "" && !slices.Contains(AllowedGrantClasses, grant) {
		rep.InvalidGrant++
		grant = ""
	}
	t.set(row, ColGrantClass, grant)

	rep.Levels.add(level)
	rep.GrantClasses.add(grant)

	lat, latOK := parseFloat(t.get(row, ColLatitude))
	lon, lonOK := parseFloat(t.get(row, ColLongitude))
	switch {
	case !latOK || !lonOK:
		rep.MissingLatLonRaw++
		rep.MissingLatLonFinal++
	case lat == 0 || lon == 0:
		rep.ZeroCoords++
		rep.MissingLatLonFinal++
		clearCoords(t, row)
	case !CleanBounds.Contains(lat, lon):
		rep.OutOfBounds++
		rep.MissingLatLonFinal++
		clearCoords(t, row)
	}
	return row
}

func clearCoords(t *table, row []string) {
	t.set(row, ColLatitude, "")
	t.set(row, ColLongitude, "")
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeTitle title-cases s unless it is already all upper case.
func (c *cleaner) normalizeTitle(s string) string {
	s = normalizeSpaces(s)
	if s == "" || isUpper(s) {
		return s
	}
	return c.title.String(s)
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

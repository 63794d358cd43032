package pipeline

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column names of the ministry school CSV.
const (
	ColNumber         = "Schoolnumber"
	ColName           = "Name"
	ColProvince       = "Province"
	ColDistrict       = "District"
	ColLevel          = "SchoolLevel"
	ColGrantClass     = "Grant_Class"
	ColLatitude       = "latitude"
	ColLongitude      = "longitude"
	ColNameNormalized = "Name_Normalized"
)

// table is a CSV read fully into memory with a header index.
type table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// readTable decodes a CSV in UTF-8 (with or without BOM) or UTF-16 with a
// BOM. Short rows are padded to the header width.
func readTable(r io.Reader) (*table, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("pipeline: csv has no header")
	}
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read csv header")
	}

	t := &table{header: header, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: read csv row")
		}
		// Rows are padded or cut to the header width.
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		rec = rec[:len(header)]
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok {
		return ""
	}
	return row[i]
}

func (t *table) set(row []string, col, v string) {
	if i, ok := t.index[col]; ok {
		row[i] = v
	}
}

// parseFloat returns false for blank or non-numeric values.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

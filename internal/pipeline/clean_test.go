package pipeline

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const rawCSV = `Schoolnumber,Name,Province,District,SchoolLevel,Grant_Class,latitude,longitude
001, Alpha   School ,harare,harare central,primary,p1,-17.8292,31.0522
002,Out of Bounds,HARARE,Harare,Secondary,S1,-5.0,40.0
003,Zero Coords,Harare,Harare,Primary,(blank),0,0
004,Unknown,Midlands,Gweru,Tertiary,X9,,
`

func readAll(t *testing.T, data []byte) [][]string {
	t.Helper()
	recs, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestClean(t *testing.T) {
	var out bytes.Buffer
	rep, err := Clean(strings.NewReader(rawCSV), &out)
	require.NoError(t, err)

	recs := readAll(t, out.Bytes())
	require.Len(t, recs, 5)
	assert.Equal(t, ColNameNormalized, recs[0][8])
	assert.Equal(t,
		[]string{"001", "Alpha School", "Harare", "Harare Central", "Primary", "P1", "-17.8292", "31.0522", "alpha school"},
		recs[1])
	assert.Equal(t,
		[]string{"002", "Out of Bounds", "HARARE", "Harare", "Secondary", "S1", "", "", "out of bounds"},
		recs[2])
	assert.Equal(t,
		[]string{"003", "Zero Coords", "Harare", "Harare", "Primary", "", "", "", "zero coords"},
		recs[3])
	assert.Equal(t,
		[]string{"004", "Unknown", "Midlands", "Gweru", "", "", "", "", "unknown"},
		recs[4])

	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, 1, rep.MissingLatLonRaw)
	assert.Equal(t, 3, rep.MissingLatLonFinal)
	assert.Equal(t, 1, rep.ZeroCoords)
	assert.Equal(t, 1, rep.OutOfBounds)
	assert.Equal(t, 1, rep.InvalidLevel)
	assert.Equal(t, 1, rep.InvalidGrant)
	assert.Equal(t, 2, rep.Levels.Get("Primary"))
	assert.Equal(t, 1, rep.Missing.Get(ColLatitude))
	assert.Equal(t,
		[]TallyEntry{{Label: "", Count: 2}, {Label: "P1", Count: 1}, {Label: "S1", Count: 1}},
		rep.GrantClasses.MostCommon(0))
}

func TestCleanKeepsExistingNormalizedColumn(t *testing.T) {
	in := "Name,Name_Normalized,latitude,longitude\nBeta  High,stale,-18,30\n"
	var out bytes.Buffer
	_, err := Clean(strings.NewReader(in), &out)
	require.NoError(t, err)

	recs := readAll(t, out.Bytes())
	assert.Equal(t, []string{"Name", "Name_Normalized", "latitude", "longitude"}, recs[0])
	assert.Equal(t, []string{"Beta High", "beta high", "-18", "30"}, recs[1])
}

func TestCleanRaggedRows(t *testing.T) {
	in := "Name,latitude,longitude\nGamma,-18,30,extra\nDelta\n"
	var out bytes.Buffer
	rep, err := Clean(strings.NewReader(in), &out)
	require.NoError(t, err)

	recs := readAll(t, out.Bytes())
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"Name", "latitude", "longitude", ColNameNormalized}, recs[0])
	assert.Equal(t, []string{"Gamma", "-18", "30", "gamma"}, recs[1])
	assert.Equal(t, []string{"Delta", "", "", "delta"}, recs[2])
	assert.Equal(t, 2, rep.Rows)
}

func TestCleanUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	in, err := enc.String(rawCSV)
	require.NoError(t, err)

	var out bytes.Buffer
	rep, err := Clean(strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, "Schoolnumber", readAll(t, out.Bytes())[0][0])
}

func TestCleanUTF8BOM(t *testing.T) {
	var out bytes.Buffer
	_, err := Clean(strings.NewReader("\ufeff"+rawCSV), &out)
	require.NoError(t, err)
	assert.Equal(t, "Schoolnumber", readAll(t, out.Bytes())[0][0])
}

func TestCleanEmpty(t *testing.T) {
	_, err := Clean(strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestReportMarkdown(t *testing.T) {
	rep, err := Clean(strings.NewReader(rawCSV), &bytes.Buffer{})
	require.NoError(t, err)

	md := rep.Markdown("in.csv", "out.csv")
	assert.True(t, strings.HasPrefix(md, "# Data Quality Report\n"))
	assert.Contains(t, md, "Source: `in.csv`")
	assert.Contains(t, md, "- Rows: 4\n")
	assert.Contains(t, md, "- Missing lat/lon (raw): 1 (25%)\n")
	assert.Contains(t, md, "- Missing lat/lon (final): 3 (75%)\n")
	assert.Contains(t, md, "## School Levels\n- Primary: 2\n- Secondary: 1\n- (blank): 1\n")
	assert.Contains(t, md, "## Grant Class\n- (blank): 2\n")
	assert.Contains(t, md, "- latitude: 1\n")
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	require.NoError(t, os.WriteFile(in, []byte(rawCSV), 0o644))

	out := filepath.Join(dir, "data", "clean.csv")
	report := filepath.Join(dir, "data", "report.md")
	rep, err := CleanFile(in, out, report)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Rows)

	md, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Output: `"+out+"`")

	_, err = CleanFile(filepath.Join(dir, "missing.csv"), out, "")
	assert.Error(t, err)
}

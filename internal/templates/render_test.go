package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewEmbedded()
	require.NoError(t, err)
	return r
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", Thousands(0))
	assert.Equal(t, "999", Thousands(999))
	assert.Equal(t, "12,345", Thousands(12345))
	assert.Equal(t, "1,234,567", Thousands(1234567))
}

func TestEmbeddedPopupEscapes(t *testing.T) {
	r := embeddedRenderer(t)
	html, err := r.Render("popup-school", map[string]string{
		"Name":     `<b>St. Mary's</b>`,
		"District": "Harare",
		"Province": "Harare",
		"Level":    "Primary",
	})
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="popup-title">&lt;b&gt;St. Mary&#39;s&lt;/b&gt;</div>`)
	assert.Contains(t, html, `<strong>District:</strong> Harare`)
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := embeddedRenderer(t)
	_, err := r.Render("nope", nil)
	assert.Error(t, err)
}

func TestRankList(t *testing.T) {
	r := embeddedRenderer(t)
	rows := []struct {
		Name  string
		Count int
	}{{"Harare", 1200}, {"Bulawayo", 800}}

	html, err := r.Render("rank-list", rows)
	require.NoError(t, err)
	assert.Equal(t,
		"<li><span>Harare</span><strong>1,200</strong></li><li><span>Bulawayo</span><strong>800</strong></li>",
		html)
}

func TestNewFromDirAndReload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(`{{define "hello"}}hi {{.}}{{end}}`), 0644))

	r, err := New(dir)
	require.NoError(t, err)
	html, err := r.Render("hello", "there")
	require.NoError(t, err)
	assert.Equal(t, "hi there", html)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(`{{define "hello"}}bye {{.}}{{end}}`), 0644))
	require.NoError(t, r.Reload(dir))
	html, err = r.Render("hello", "there")
	require.NoError(t, err)
	assert.Equal(t, "bye there", html)

	require.Error(t, r.Reload(filepath.Join(dir, "missing")))
	html, err = r.Render("hello", "there")
	require.NoError(t, err)
	assert.Equal(t, "bye there", html)

	_, err = New(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

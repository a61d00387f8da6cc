package filehandler

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lg *log.Logger
)

func TestMain(m *testing.M) {
	lg = log.New(os.Stdout, "test --> ", 1|4)
	os.Exit(m.Run())
}

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()
	static := filepath.Join(dir, "static")
	require.NoError(t, os.MkdirAll(filepath.Join(static, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(static, SinglePage), []byte("<html>single</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, GatewayPage), []byte("<html>gateway</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "css", "style.css"), []byte("body{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("secret"), 0644))

	h, err := NewHandler(static, lg)
	require.NoError(t, err, "new handler.")
	return h, dir
}

func TestHandler_Page(t *testing.T) {
	h, _ := newTestHandler(t)

	page, err := h.Page(SinglePage)
	require.NoError(t, err)
	assert.Equal(t, "<html>single</html>", string(page))

	page, err = h.Page(GatewayPage)
	require.NoError(t, err)
	assert.Equal(t, "<html>gateway</html>", string(page))
}

func TestHandler_PageMissing(t *testing.T) {
	h, _ := newTestHandler(t)
	require.NoError(t, os.Remove(filepath.Join(h.Path(), GatewayPage)))

	_, err := h.Page(GatewayPage)
	require.ErrorIs(t, err, ErrAssetNotFound)
}

func TestHandler_Open(t *testing.T) {
	h, _ := newTestHandler(t)

	a, err := h.Open("css/style.css")
	require.NoError(t, err)
	assert.Equal(t, "text/css; charset=utf-8", a.ContentType)
	assert.Equal(t, "body{}", string(a.Body))

	a, err = h.Open("/index.html")
	require.NoError(t, err, "a leading slash stays inside the directory.")
	assert.Equal(t, "text/html; charset=utf-8", a.ContentType)
}

func TestHandler_OpenErrors(t *testing.T) {
	h, dir := newTestHandler(t)
	require.NoError(t, os.Symlink(filepath.Join(dir, "secret.txt"), filepath.Join(h.Path(), "leak.txt")))

	tests := []struct {
		name string
		rel  string
		err  error
	}{
		{"parent", "../secret.txt", ErrForbidden},
		{"nested parent", "css/../../secret.txt", ErrForbidden},
		{"directory itself", "", ErrForbidden},
		{"symlink escape", "leak.txt", ErrForbidden},
		{"missing", "missing.js", ErrAssetNotFound},
		{"directory", "css", ErrAssetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Open(tt.rel)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/filehandler"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/hub"
	"github.com/PuerkitoBio/goquery"
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

const (
	gatewayHTML = `<!doctype html><html><head><title>gateway</title></head><body>
<div class="panel" data-folder="desktop"></div>
<div class="panel" data-folder="downloads"></div>
<div class="panel" data-folder="pictures"></div>
<div class="panel" data-folder="documents"></div>
</body></html>`
	singleHTML = `<!doctype html><html><head><title>single</title></head><body>
<div class="panel" data-folder="desktop"></div>
</body></html>`
)

type testEnv struct {
	dir      string
	cfg      *pkg.Config
	lister   *internal.Lister
	assets   *filehandler.Handler
	registry *hub.Registry
}

// newTestEnv lays out a base root with a populated desktop folder, the static
// pages and a secret file next to (not inside) the base.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "base")

	require.NoError(t, os.MkdirAll(filepath.Join(base, "desktop", "sub"), 0755))
	for _, name := range []string{"b.txt", ".hidden", "a.py"} {
		require.NoError(t, os.WriteFile(filepath.Join(base, "desktop", name), []byte("x"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("top secret"), 0644))

	static := filepath.Join(base, "static")
	require.NoError(t, os.MkdirAll(static, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(static, filehandler.GatewayPage), []byte(gatewayHTML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, filehandler.SinglePage), []byte(singleHTML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log('fsbrowser')"), 0644))

	cfg := pkg.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Root = base

	lister, err := internal.NewLister(base, lg)
	require.NoError(t, err, "new lister.")
	assets, err := filehandler.NewHandler(cfg.StaticDir(), lg)
	require.NoError(t, err, "new asset handler.")

	return &testEnv{
		dir:      dir,
		cfg:      cfg,
		lister:   lister,
		assets:   assets,
		registry: hub.NewRegistry(lg),
	}
}

func (e *testEnv) router(port int) *Router {
	return NewRouter(port, e.cfg.DefaultFolder, e.lister, e.assets, lg)
}

func (e *testEnv) server(options ...Option) *Server {
	return NewServer(e.cfg, e.lister, e.assets, e.registry, lg, options...)
}

func panels(t *testing.T, body []byte) int {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err, "parse page.")
	return doc.Find("div.panel").Length()
}

func TestRouter_RootPageDependsOnPort(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.router(8080).Route(http.MethodGet, "/", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, ContentTypeHTML, res.ContentType)
	assert.Equal(t, 4, panels(t, res.Body), "8080 serves the gateway.")

	res, err = env.router(9090).Route(http.MethodGet, "/", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, panels(t, res.Body), "other ports serve the single panel page.")
}

func TestRouter_SinglePage(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.router(8080).Route(http.MethodGet, "/single", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, singleHTML, string(res.Body), "pages are served verbatim.")
}

func TestRouter_MissingPageIsAnError(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(filepath.Join(env.assets.Path(), filehandler.SinglePage)))

	_, err := env.router(9090).Route(http.MethodGet, "/", nil)
	require.ErrorIs(t, err, filehandler.ErrAssetNotFound)
}

func TestRouter_List(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.router(8080).Route(http.MethodGet, "/api/list", url.Values{"path": {"desktop"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, ContentTypeJSON, res.ContentType)

	var entries []internal.Entry
	require.NoError(t, json.Unmarshal(res.Body, &entries))
	assert.Equal(t, []internal.Entry{
		{Name: "b.txt", IsFolder: false},
		{Name: "sub/", IsFolder: true},
	}, entries)
}

func TestRouter_ListDefaultsToDesktop(t *testing.T) {
	env := newTestEnv(t)

	withDefault, err := env.router(8080).Route(http.MethodGet, "/api/list", url.Values{})
	require.NoError(t, err)
	explicit, err := env.router(8080).Route(http.MethodGet, "/api/list", url.Values{"path": {"desktop"}})
	require.NoError(t, err)

	assert.Equal(t, explicit, withDefault)
}

func TestRouter_ListEmptyFolder(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.lister.Base(), "downloads"), 0755))

	res, err := env.router(8080).Route(http.MethodGet, "/api/list", url.Values{"path": {"downloads"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "[]", string(res.Body))
}

func TestRouter_ListErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"traversal", "../secret", internal.ErrInvalidPath.Error()},
		{"absolute", "/etc", internal.ErrAccessDenied.Error()},
		{"missing", "music", `folder "music" not found`},
		{"file", "desktop/b.txt", `folder "desktop/b.txt" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.router(8080).Route(http.MethodGet, "/api/list", url.Values{"path": {tt.key}})
			require.NoError(t, err, "listing errors never escape the router.")
			require.Equal(t, http.StatusNotFound, res.Status)
			require.Equal(t, ContentTypeJSON, res.ContentType)

			body := map[string]string{}
			require.NoError(t, json.Unmarshal(res.Body, &body))
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestRouter_WriteStubs(t *testing.T) {
	env := newTestEnv(t)
	r := env.router(8080)

	calls := []struct {
		method string
		path   string
		query  url.Values
	}{
		{http.MethodPost, "/api/create", url.Values{"path": {"desktop"}, "name": {"new"}}},
		{http.MethodPost, "/api/delete", url.Values{"path": {"desktop"}, "name": {"b.txt"}}},
		{http.MethodDelete, "/api/delete", url.Values{"path": {"desktop"}, "name": {"b.txt"}}},
		{http.MethodPost, "/api/rename", url.Values{"path": {"desktop"}, "old": {"b.txt"}, "new": {"c.txt"}}},
	}

	for _, c := range calls {
		res, err := r.Route(c.method, c.path, c.query)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Status, "%s %s", c.method, c.path)
		assert.JSONEq(t, `{"status":"ok"}`, string(res.Body))
	}

	_, err := os.Stat(filepath.Join(env.lister.Base(), "desktop", "b.txt"))
	require.NoError(t, err, "stubs must not touch the disk.")
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)
	r := env.router(8080)

	for _, c := range [][2]string{
		{http.MethodGet, "/nope"},
		{http.MethodPost, "/"},
		{http.MethodDelete, "/api/list"},
		{http.MethodGet, "/api/create"},
	} {
		res, err := r.Route(c[0], c[1], nil)
		require.NoError(t, err)
		assert.Equal(t, notFound, res, "%s %s", c[0], c[1])
	}
}

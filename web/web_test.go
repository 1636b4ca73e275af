package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexHTML = `<!doctype html><html><body><div id="root"></div>` +
	`<script type="module" src="/src/main.tsx"></script></body></html>`

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.GET("/api/groups", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	Mount(r, opts)
	return r
}

func do(r http.Handler, method, target string, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(closeNotifyingRecorder{rec}, req)
	return rec
}

// closeNotifyingRecorder lets gin's response writer satisfy the
// http.CloseNotifier that httputil.ReverseProxy asks for.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
}

func (closeNotifyingRecorder) CloseNotify() <-chan bool { return make(chan bool) }

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	r := newRouter(Options{StaticDir: dir})

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"asset", "/assets/app.js", http.StatusOK, "console.log(1)"},
		{"root", "/", http.StatusOK, `id="root"`},
		{"client route", "/attendance/G1", http.StatusOK, `id="root"`},
		{"missing asset falls back", "/assets/nope.js", http.StatusOK, `id="root"`},
		{"api route", "/api/groups", http.StatusOK, "[]"},
		{"unknown api route", "/api/nope", http.StatusNotFound, "Not found"},
		{"health subpath", "/health/deep", http.StatusNotFound, "Not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestMissingBuildOutputKeepsAPI(t *testing.T) {
	r := newRouter(Options{StaticDir: filepath.Join(t.TempDir(), "dist")})

	rec := do(r, http.MethodGet, "/api/groups", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRewriteEntry(t *testing.T) {
	out := RewriteEntry(indexHTML, "abc")
	assert.Contains(t, out, `src="/src/main.tsx?v=abc"`)

	// an existing token is replaced, not stacked
	out = RewriteEntry(out, "def")
	assert.Contains(t, out, `src="/src/main.tsx?v=def"`)
	assert.NotContains(t, out, "abc")

	plain := `<script src="/legacy.js"></script>`
	assert.Equal(t, plain, RewriteEntry(plain, "x"))

	tests := []struct {
		name string
		html string
		want string
	}{
		{"src before type", `<script src="/src/main.tsx" type="module"></script>`, `<script src="/src/main.tsx?v=x" type="module"></script>`},
		{"single quotes", `<script type='module' src='/src/main.tsx'></script>`, `<script type='module' src='/src/main.tsx?v=x'></script>`},
		{"extra attributes", `<script crossorigin src="/src/main.tsx?v=old" defer type="module"></script>`, `<script crossorigin src="/src/main.tsx?v=x" defer type="module"></script>`},
		{"data-src untouched", `<script type="module" data-src="/a.js" src="/b.js"></script>`, `<script type="module" data-src="/a.js" src="/b.js?v=x"></script>`},
		{"classic script with module in src", `<script src="/module.js"></script>`, `<script src="/module.js"></script>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteEntry(tt.html, "x"))
		})
	}
}

func TestDevMode(t *testing.T) {
	bundler := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("bundled " + r.URL.Path))
	}))
	defer bundler.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644))

	r := newRouter(Options{Dev: true, ClientDir: dir, BundlerURL: bundler.URL})

	first := do(r, http.MethodGet, "/", "text/html")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `src="/src/main.tsx?v=`)

	second := do(r, http.MethodGet, "/students", "text/html,application/xhtml+xml")
	require.Equal(t, http.StatusOK, second.Code)
	assert.NotEqual(t, first.Body.String(), second.Body.String(), "each page load gets a fresh token")

	asset := do(r, http.MethodGet, "/src/main.tsx", "*/*")
	assert.Equal(t, http.StatusOK, asset.Code)
	assert.Equal(t, "bundled /src/main.tsx", asset.Body.String())

	api := do(r, http.MethodGet, "/api/unknown", "text/html")
	assert.Equal(t, http.StatusNotFound, api.Code)
	assert.True(t, strings.Contains(api.Body.String(), "Not found"))
}

func TestDevModeBadBundlerURL(t *testing.T) {
	r := newRouter(Options{Dev: true, BundlerURL: "::not a url"})
	rec := do(r, http.MethodGet, "/api/groups", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodGet, "/", "text/html")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

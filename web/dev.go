package web

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// The entry script is the module script tag; its attributes may come in any
// order and with either quote style.
var (
	scriptTag  = regexp.MustCompile(`(?i)<script\b[^>]*>`)
	moduleType = regexp.MustCompile(`(?i)\stype\s*=\s*["']?module["'\s>/]`)
	scriptSrc  = regexp.MustCompile(`(?i)(\ssrc\s*=\s*["'])([^"'?]+)(\?[^"']*)?(["'])`)
)

type devHandler struct {
	clientDir string
	proxy     *httputil.ReverseProxy
	token     func() string
}

func newDevHandler(clientDir string, bundler *url.URL) *devHandler {
	proxy := httputil.NewSingleHostReverseProxy(bundler)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Error proxying %s to bundler: %v", r.URL.Path, err)
		w.WriteHeader(http.StatusBadGateway)
	}
	return &devHandler{
		clientDir: clientDir,
		proxy:     proxy,
		token:     func() string { return uuid.NewString() },
	}
}

// RewriteEntry appends a cache-busting token to the entry script's src
func RewriteEntry(html, token string) string {
	return scriptTag.ReplaceAllStringFunc(html, func(tag string) string {
		if !moduleType.MatchString(tag) {
			return tag
		}
		return scriptSrc.ReplaceAllString(tag, "${1}${2}?v="+token+"${4}")
	})
}

// isPage reports whether the request is for an HTML page rather than an asset
func isPage(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	p := r.URL.Path
	if p == "/" || p == "/index.html" {
		return true
	}
	return path.Ext(p) == "" && strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (h *devHandler) serve(c *gin.Context) {
	if reserved(c.Request.URL.Path) {
		notFound(c)
		return
	}
	if !isPage(c.Request) {
		h.proxy.ServeHTTP(c.Writer, c.Request)
		return
	}

	// re-read on every request so template edits show up without a restart
	raw, err := os.ReadFile(filepath.Join(h.clientDir, "index.html"))
	if err != nil {
		log.Printf("Error reading client entry point: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Client entry point unavailable"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(RewriteEntry(string(raw), h.token())))
}

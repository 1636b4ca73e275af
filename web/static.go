package web

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

type staticHandler struct {
	dir   string
	index string
}

func newStaticHandler(dir string) (*staticHandler, error) {
	if dir == "" {
		return nil, fmt.Errorf("no static directory configured")
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil, fmt.Errorf("build output not found at %s", index)
	}
	return &staticHandler{dir: dir, index: index}, nil
}

// serve returns the requested file if it exists and index.html otherwise
func (h *staticHandler) serve(c *gin.Context) {
	p := c.Request.URL.Path
	if reserved(p) {
		notFound(c)
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		notFound(c)
		return
	}

	clean := path.Clean("/" + p)
	if clean != "/" {
		file := filepath.Join(h.dir, filepath.FromSlash(clean))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
	}
	c.Header("Cache-Control", "no-cache")
	c.File(h.index)
}

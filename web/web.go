// Package web serves the browser client next to the API: a prebuilt static
// directory in production, or the dev bundler in development.
package web

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// ReservedPrefixes never fall back to the single-page entry point,
// so unknown API paths keep answering with a JSON 404.
var ReservedPrefixes = []string{"/api", "/health", "/metrics"}

// Options configures Mount
type Options struct {
	Dev        bool
	StaticDir  string // production: prebuilt client (must contain index.html)
	ClientDir  string // development: directory holding the index.html template
	BundlerURL string // development: dev server that serves modules and hot reload
}

func reserved(p string) bool {
	for _, prefix := range ReservedPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// Mount installs the client handler as the router's NoRoute fallback.
// A missing build directory or bad bundler URL is logged and leaves the API
// untouched.
func Mount(router *gin.Engine, opts Options) {
	if opts.Dev {
		target, err := url.Parse(opts.BundlerURL)
		if err != nil || target.Host == "" {
			log.Printf("Warning: invalid bundler URL %q. Client will not be served.", opts.BundlerURL)
			router.NoRoute(notFound)
			return
		}
		log.Printf("Development mode: proxying client assets to %s", target)
		router.NoRoute(newDevHandler(opts.ClientDir, target).serve)
		return
	}

	h, err := newStaticHandler(opts.StaticDir)
	if err != nil {
		log.Printf("Warning: %v. Static client will not be served; API routes remain available.", err)
		router.NoRoute(notFound)
		return
	}
	log.Printf("Serving static client from %s", opts.StaticDir)
	router.NoRoute(h.serve)
}

package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled single-page frontend. Unknown non-API GET
// paths fall back to index.html so client-side routes survive a reload.
func (s *Server) mountStatic() {
	indexPath := s.resolveIndex()

	s.engine.NoRoute(func(c *gin.Context) {
		if indexPath == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.File(indexPath)
	})
	if indexPath == "" {
		return
	}

	assetsDir := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		assets := s.engine.Group("/assets", func(c *gin.Context) {
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
			c.Next()
		})
		assets.StaticFS("/", gin.Dir(assetsDir, false))
	}

	for _, name := range []string{"favicon.ico", "manifest.json", "robots.txt"} {
		path := filepath.Join(s.staticDir, name)
		if _, err := os.Stat(path); err == nil {
			s.engine.StaticFile("/"+name, path)
		}
	}
}

// resolveIndex returns the path of index.html, or "" in API only mode.
func (s *Server) resolveIndex() string {
	if s.staticDir == "" {
		s.logger.Info("static directory not configured; API only mode")
		return ""
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.staticDir, "error", err)
		return ""
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
		return ""
	}
	return indexPath
}

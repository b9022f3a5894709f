package mockkernel

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthPath is the HTTP liveness route served next to the WebSocket endpoint.
const HealthPath = "/healthz"

// Router returns the HTTP handler: the WebSocket upgrade on the configured path
// and a liveness route.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	if s.cfg.Endpoint.Path != HealthPath {
		r.GET(HealthPath, s.healthz)
	}
	r.GET(s.cfg.Endpoint.Path, s.upgrade)
	return r
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": string(s.cfg.Mock.Mode)})
}

func (s *Server) upgrade(c *gin.Context) {
	// Registered before the hijack so Serve's shutdown never misses a handler.
	s.conns.Add(1)
	defer s.conns.Done()

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		s.log.Warn("WebSocket upgrade failed", s.log.Args("remote", c.Request.RemoteAddr, "error", err))
		return
	}

	newConnection(ws, s.cfg.Mock, s.log).run(c.Request.Context())
}

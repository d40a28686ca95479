// Package dashboard serves the operator HTTP surface: status, stored
// conversations, and the editable memory document.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/config"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/memory"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/session"
)

// Server wraps the gin engine with graceful shutdown helpers.
type Server struct {
	cfg       *config.Config
	engine    *gin.Engine
	log       zerolog.Logger
	store     *session.Store
	memory    *memory.FileMemory
	version   string
	startedAt time.Time
}

// New constructs the dashboard server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, store *session.Store, mem *memory.FileMemory, version string) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:       cfg,
		engine:    engine,
		log:       log.With().Str("component", "dashboard").Logger(),
		store:     store,
		memory:    mem,
		version:   version,
		startedAt: time.Now(),
	}
	s.registerRoutes()
	return s
}

// Run starts the HTTP listener and shuts down gracefully on context
// cancellation.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", server.Addr).Msg("dashboard listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down dashboard")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/sessions", s.handleSessions)
	api.GET("/memory", s.handleGetMemory)
	api.POST("/memory", s.handlePostMemory)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexPage)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "nanobot",
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleSessions(c *gin.Context) {
	summaries, err := s.store.List(0)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	if summaries == nil {
		summaries = []session.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

func (s *Server) handleGetMemory(c *gin.Context) {
	content, err := s.memory.Load()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load memory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load memory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

type memoryUpdate struct {
	Content string `json:"content"`
}

func (s *Server) handlePostMemory(c *gin.Context) {
	var req memoryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.memory.Save(req.Content); err != nil {
		s.log.Error().Err(err).Msg("failed to save memory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save memory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

const indexPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>nanobot</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2rem auto; }
textarea { width: 100%; height: 16rem; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; }
</style>
</head>
<body>
<h1>nanobot</h1>
<p id="status">loading…</p>
<h2>Sessions</h2>
<pre id="sessions"></pre>
<h2>Memory</h2>
<textarea id="memory"></textarea><br>
<button onclick="saveMemory()">Save</button>
<script>
fetch('/api/status').then(r => r.json()).then(d => {
  document.getElementById('status').textContent = d.service + ' ' + d.version + ' up ' + d.uptime;
});
fetch('/api/sessions').then(r => r.json()).then(d => {
  document.getElementById('sessions').textContent = JSON.stringify(d.sessions, null, 2);
});
fetch('/api/memory').then(r => r.json()).then(d => {
  document.getElementById('memory').value = d.content;
});
function saveMemory() {
  fetch('/api/memory', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({content: document.getElementById('memory').value}),
  }).then(() => alert('saved'));
}
</script>
</body>
</html>
`

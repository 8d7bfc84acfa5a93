package inspect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/coalesce/internal/logging"
	"github.com/arloliu/coalesce/types"
)

// Inspector is the read-only view of a manager served by Server.
// *coalesce.Manager satisfies it.
type Inspector interface {
	Snapshot(filter string) ([]types.ChannelSnapshot, error)
	Channel(signature string) (types.ChannelSnapshot, bool)
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is the listen address used by Start (default ":9090").
	Addr string

	// Inspector provides the channel tree. Required.
	Inspector Inspector

	// Timeline enables the timeline endpoints when set.
	Timeline *Timeline

	// Gatherer enables /metrics when set.
	Gatherer prometheus.Gatherer

	// Logger receives request logs (nop when nil).
	Logger types.Logger
}

// Server serves the inspection API.
//
// Routes:
//   - GET /health
//   - GET /metrics
//   - GET /api/v1/channels?filter=<regexp>
//   - GET /api/v1/channel?signature=<signature>
//   - GET /api/v1/timeline
//   - GET /api/v1/timeline/ws (live stream, ?replay=true sends the buffer first)
type Server struct {
	cfg      ServerConfig
	logger   types.Logger
	router   *gin.Engine
	server   *http.Server
	upgrader websocket.Upgrader
}

// NewServer creates a new inspection server.
//
// Parameters:
//   - cfg: Server configuration
//
// Returns:
//   - *Server: Server ready to Start or to mount via Handler
func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	if s.cfg.Gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/channels", s.handleChannels)
		v1.GET("/channel", s.handleChannel)

		if s.cfg.Timeline != nil {
			v1.GET("/timeline", s.handleTimeline)
			v1.GET("/timeline/ws", s.handleTimelineStream)
		}
	}
}

// Handler returns the HTTP handler, for mounting in an existing server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting inspection server", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start inspection server: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown inspection server: %w", err)
	}

	s.logger.Info("inspection server stopped")

	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChannels(c *gin.Context) {
	snaps, err := s.cfg.Inspector.Snapshot(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(snaps),
		"channels": snaps,
	})
}

func (s *Server) handleChannel(c *gin.Context) {
	sig := c.Query("signature")
	if sig == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature is required"})
		return
	}

	snap, ok := s.cfg.Inspector.Channel(sig)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleTimeline(c *gin.Context) {
	events := s.cfg.Timeline.Events()

	c.JSON(http.StatusOK, gin.H{
		"count":   len(events),
		"dropped": s.cfg.Timeline.Dropped(),
		"events":  events,
	})
}

func (s *Server) handleTimelineStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	cl, detach := s.cfg.Timeline.attach()
	defer detach()

	if c.Query("replay") == "true" {
		for _, ev := range s.cfg.Timeline.Events() {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}

	// The read loop only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case data := <-cl.send:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("timeline client write failed", "client", cl.id, "error", err)
				return
			}
		}
	}
}

func requestLogger(logger types.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

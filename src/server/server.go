package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/logger"
	"market-dashboard/src/metrics"
	"market-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// Controller is what the HTTP and websocket handlers drive.
type Controller interface {
	RequestSymbol(symbol string) bool
	Retry() bool
	RunAction(action models.Action, payload map[string]interface{}) bool
	State() dashboard.DashboardState
}

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine
	http   *http.Server

	ctrl Controller

	// WebSocket clients, owned by the hub loop
	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	quit       chan struct{}
	stopOnce   sync.Once

	mu          sync.RWMutex
	page        PageData
	clientCount int
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, log *logger.Logger) *DashboardServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:  cfg,
		Logger:  log,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Queue size of 256 absorbs bursts of chart updates
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, 16),
		quit:       make(chan struct{}),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Attach connects the server to the engine. It must be called before Start.
func (s *DashboardServer) Attach(ctrl Controller) {
	s.ctrl = ctrl
}

// Handler exposes the router, mostly for tests.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/ws" {
			return
		}
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/state", s.getState)
	api.GET("/config", s.getConfig)
	api.GET("/health", s.getHealth)
	api.POST("/symbol", s.postSymbol)
	api.POST("/retry", s.postRetry)
	api.POST("/actions/:name", s.postAction)

	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and serves HTTP until Stop. It returns nil after a clean stop.
func (s *DashboardServer) Start() error {
	s.Logger.Info("Starting dashboard server on %s", s.http.Addr)

	go s.handleWebsockets()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunHub starts only the websocket hub, for embedding the handler elsewhere.
func (s *DashboardServer) RunHub() {
	go s.handleWebsockets()
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.quit) })
	return s.http.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DashboardServer) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	strategies := make([]string, 0, len(s.Config.Display.Strategies))
	for _, st := range s.Config.Display.Strategies {
		strategies = append(strategies, st.Name)
	}
	c.JSON(http.StatusOK, gin.H{
		"title_prefix": s.Config.Session.TitlePrefix,
		"indicators":   s.Config.Display.Indicators,
		"strategies":   strategies,
		"placeholder":  s.Config.Display.Placeholder,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	st := s.ctrl.State()
	s.mu.RLock()
	connections := s.clientCount
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"connections":    connections,
		"feed_connected": st.Connected,
		"session":        st.Session.State,
		"symbol":         st.Session.Target(),
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) postSymbol(c *gin.Context) {
	var body struct {
		Symbol string `json:"symbol"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || dashboard.NormalizeSymbol(body.Symbol) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "symbol is required"})
		return
	}
	s.accepted(c, s.ctrl.RequestSymbol(body.Symbol))
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) postRetry(c *gin.Context) {
	s.accepted(c, s.ctrl.Retry())
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) postAction(c *gin.Context) {
	action, ok := parseAction(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "unknown action"})
		return
	}

	var payload map[string]interface{}
	if action == models.ActionSaveConfig {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid settings payload"})
			return
		}
	}
	s.accepted(c, s.ctrl.RunAction(action, payload))
}

func parseAction(name string) (models.Action, bool) {
	switch a := models.Action(name); a {
	case models.ActionSaveConfig, models.ActionEmergencyExit, models.ActionWipeData:
		return a, true
	}
	return "", false
}

func (s *DashboardServer) accepted(c *gin.Context, queued bool) {
	if !queued {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "dashboard is shutting down"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

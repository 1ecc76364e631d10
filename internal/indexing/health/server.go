package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/feedwatch/internal/core/config"
	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/intervention"
	"github.com/vietddude/feedwatch/internal/indexing/pipeline"
)

// Pipeline is the read side of the classification pipeline.
type Pipeline interface {
	Status() pipeline.Status
	Items() []pipeline.ItemView
	HighRisk(minRating int) []domain.Target
}

// Replayer suppresses targets through the automation driver.
type Replayer interface {
	Run(ctx context.Context, targets []domain.Target) []domain.Outcome
	RunAsync(ctx context.Context, targets []domain.Target)
}

// ActionedSet reports identities the replay engine already acted on.
type ActionedSet interface {
	Contains(id domain.Identity) bool
}

// Intervention is the user-driven side of the overlay.
type Intervention interface {
	State() intervention.State
	StartBreak(ctx context.Context) error
	Cleanse(ctx context.Context) (intervention.CleanseResult, error)
	Close(ctx context.Context) error
}

// SettingsStore holds the hot-reloadable settings.
type SettingsStore interface {
	Get() config.Settings
	Set(next config.Settings) error
}

// Deps groups what the server exposes. Replayer, Intervention,
// Presentation and Actioned are optional.
type Deps struct {
	Monitor      *Monitor
	Pipeline     Pipeline
	Settings     SettingsStore
	Replayer     Replayer
	Intervention Intervention
	Presentation http.Handler
	Actioned     ActionedSet

	// MinRating is used by replay requests that name neither targets nor a rating.
	MinRating int
}

// ReplayRequest selects replay targets explicitly or by minimum rating.
type ReplayRequest struct {
	Targets   []domain.Target `json:"targets"    binding:"omitempty,dive"`
	MinRating int             `json:"min_rating" binding:"omitempty,min=1,max=5"`
	// Async returns 202 at once; outcomes reach the audit log and metrics only.
	Async bool `json:"async"`
}

// InterventionRequest drives the overlay.
type InterventionRequest struct {
	Action string `json:"action" binding:"required,oneof=break cleanse close"`
}

// Server provides HTTP endpoints for health monitoring and control.
type Server struct {
	deps   Deps
	engine *gin.Engine
	server *http.Server
	log    *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		deps:   deps,
		engine: gin.New(),
		log:    slog.Default().With("component", "http"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())
	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.handleHealth)
	r.GET("/health/detailed", s.handleDetailed)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.deps.Presentation != nil {
		r.GET("/ws", gin.WrapH(s.deps.Presentation))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/items", s.handleItems)
		api.GET("/stats", s.handleStats)
		api.GET("/settings", s.handleGetSettings)
		api.PUT("/settings", s.handlePutSettings)
		api.POST("/replay", s.handleReplay)
		api.GET("/intervention", s.handleGetIntervention)
		api.POST("/intervention", s.handlePostIntervention)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.deps.Monitor.CheckHealth(c.Request.Context())
	code := http.StatusOK
	if report.SystemStatus == StatusCritical {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": report.SystemStatus})
}

func (s *Server) handleDetailed(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Monitor.CheckHealth(c.Request.Context()))
}

func (s *Server) handleItems(c *gin.Context) {
	items := s.deps.Pipeline.Items()
	if s.deps.Actioned != nil {
		for i := range items {
			items[i].Actioned = s.deps.Actioned.Contains(items[i].Identity)
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Pipeline.Status())
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Settings.Get())
}

func (s *Server) handlePutSettings(c *gin.Context) {
	next := s.deps.Settings.Get()
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.deps.Settings.Set(next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("Settings updated via API",
		"enabled", next.Enabled,
		"number_bound", next.NumberBound,
		"score_bound", next.ScoreBound,
	)
	c.JSON(http.StatusOK, s.deps.Settings.Get())
}

func (s *Server) handleReplay(c *gin.Context) {
	if s.deps.Replayer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "automation not configured"})
		return
	}
	var req ReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targets := req.Targets
	if len(targets) == 0 {
		minRating := req.MinRating
		if minRating == 0 {
			minRating = s.deps.MinRating
		}
		targets = s.deps.Pipeline.HighRisk(minRating)
	}
	if req.Async {
		s.deps.Replayer.RunAsync(context.WithoutCancel(c.Request.Context()), targets)
		c.JSON(http.StatusAccepted, gin.H{"targets": len(targets), "status": "accepted"})
		return
	}
	outcomes := s.deps.Replayer.Run(c.Request.Context(), targets)

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"targets":   len(targets),
		"succeeded": succeeded,
		"outcomes":  outcomes,
	})
}

func (s *Server) handleGetIntervention(c *gin.Context) {
	if s.deps.Intervention == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "intervention not configured"})
		return
	}
	c.JSON(http.StatusOK, s.deps.Intervention.State())
}

func (s *Server) handlePostIntervention(c *gin.Context) {
	if s.deps.Intervention == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "intervention not configured"})
		return
	}
	var req InterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case "break":
		// The countdown outlives the request
		if err := s.deps.Intervention.StartBreak(context.WithoutCancel(ctx)); err != nil {
			s.interventionError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.deps.Intervention.State())
	case "cleanse":
		result, err := s.deps.Intervention.Cleanse(ctx)
		if err != nil {
			s.interventionError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	case "close":
		if err := s.deps.Intervention.Close(ctx); err != nil {
			s.interventionError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.deps.Intervention.State())
	}
}

func (s *Server) interventionError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, intervention.ErrNotOpen):
		code = http.StatusConflict
	case errors.Is(err, intervention.ErrNoReplay):
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-rag/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg        *config.Config
	ragHandler *RAG
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, ragHandler *RAG) *Router {
	return &Router{
		cfg:        cfg,
		ragHandler: ragHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupRAGRoutes(v1)
}

// setupRAGRoutes configures transcript processing and query routes
func (rt *Router) setupRAGRoutes(g *echo.Group) {
	ragGroup := g.Group("/rag")

	if rt.ragHandler != nil {
		ragGroup.POST("/meetings", rt.ragHandler.ProcessMeeting)
		ragGroup.POST("/meetings/reprocess", rt.ragHandler.ReprocessMeeting)
		ragGroup.GET("/meetings/:id/status", rt.ragHandler.MeetingStatus)
		ragGroup.POST("/query", rt.ragHandler.Query)
		ragGroup.GET("/queue/status", rt.ragHandler.QueueStatus)
		ragGroup.POST("/queue/retry", rt.ragHandler.RetryQueue)
	} else {
		ragGroup.POST("/meetings", rt.notImplemented)
		ragGroup.POST("/meetings/reprocess", rt.notImplemented)
		ragGroup.GET("/meetings/:id/status", rt.notImplemented)
		ragGroup.POST("/query", rt.notImplemented)
		ragGroup.GET("/queue/status", rt.notImplemented)
		ragGroup.POST("/queue/retry", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	ready := rt.ragHandler != nil && rt.ragHandler.service != nil && rt.ragHandler.service.IsReady()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"rag_ready":   ready,
		"environment": rt.cfg.Server.Environment,
	})
}

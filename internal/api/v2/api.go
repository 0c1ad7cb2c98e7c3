// internal/api/v2/api.go
package api

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meshlock/meshlock-go/internal/conf"
	"github.com/meshlock/meshlock-go/internal/datastore"
	"github.com/meshlock/meshlock-go/internal/guard"
	"github.com/meshlock/meshlock-go/internal/logging"
	"github.com/meshlock/meshlock-go/internal/observability"
	"github.com/meshlock/meshlock-go/internal/overlay"
	"github.com/meshlock/meshlock-go/internal/session"
	"github.com/meshlock/meshlock-go/internal/unlockmode"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Sessions *session.Manager
	Guard    *guard.Engine
	Workflow *unlockmode.Mode

	// DisableSaveSettings keeps settings changes in memory only. Used in
	// tests and for read-only deployments.
	DisableSaveSettings bool

	settingsMutex sync.RWMutex
	metrics       *observability.Metrics
	apiLogger     *slog.Logger
	startTime     time.Time

	// Overlay draw registration, one draw function per open session.
	overlays   *overlay.Registry
	overlayMu  sync.Mutex
	overlayIDs map[string]overlay.Handle
}

// New creates the API controller and registers all /api/v2 routes on the
// given echo instance.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	sessions *session.Manager, g *guard.Engine, wf *unlockmode.Mode,
	metrics *observability.Metrics) *Controller {

	c := &Controller{
		Echo:       e,
		Group:      e.Group("/api/v2"),
		DS:         ds,
		Settings:   settings,
		Sessions:   sessions,
		Guard:      g,
		Workflow:   wf,
		metrics:    metrics,
		apiLogger:  logging.ForService("api"),
		startTime:  time.Now(),
		overlays:   overlay.NewRegistry(),
		overlayIDs: make(map[string]overlay.Handle),
	}
	if c.apiLogger == nil {
		// Embedders may not have initialized the logging package.
		c.apiLogger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "api")
	}
	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
			c.metrics.Registry(), promhttp.HandlerOpts{})))
	}

	c.initMeshRoutes()
	c.initSessionRoutes()
	c.initSettingsRoutes()
}

// HealthCheck reports service and datastore status.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":        "healthy",
		"timestamp":     time.Now().Format(time.RFC3339),
		"uptime":        time.Since(c.startTime).String(),
		"open_sessions": c.Sessions.Count(),
	}
	if _, err := c.DS.ListMeshes(); err != nil {
		response["status"] = "degraded"
		response["database_error"] = err.Error()
	}
	return ctx.JSON(http.StatusOK, response)
}

// Error response structure
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

func generateCorrelationID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return fmt.Sprintf("%02x%02x%02x%02x", b[0], b[1], b[2], b[3])
}

// HandleError constructs and returns an appropriate error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	c.apiLogger.Error("API Error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)
	return ctx.JSON(code, errorResp)
}

// ABOUTME: gin engine setup and route table for the dashboard HTTP API.
// ABOUTME: Middleware order: recovery, request id, access log, optional CORS, metrics.
package web

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harperreed/minilok/internal/report"
	"github.com/harperreed/minilok/internal/views"
)

// Handler serves the API on top of the view layer.
type Handler struct {
	Service  *views.Service
	Session  *views.Session
	Exporter *report.Exporter
}

// Config builds the engine with its middleware.
func Config() *gin.Engine {
	r := gin.New()

	r.ForwardedByClientIP = false
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, HTTPError{Error: "This HTTP method is not allowed for the endpoint you called"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, HTTPError{Error: "There is no endpoint at this path"})
	})
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithLogger(func(c *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().
				Str("request-id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Logger()
		})))

	if origins, ok := os.LookupEnv("CORS_ALLOW_ORIGINS"); ok {
		log.Debug().Str("origins", origins).Msg("cors enabled")
		r.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Fields(origins),
			AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
		}))
	}
	r.Use(MetricsMiddleware())

	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, numHandlers int) {}
	_ = r.SetTrustedProxies([]string{})

	return r
}

// AttachRoutes registers every endpoint on group.
func AttachRoutes(h *Handler, group *gin.RouterGroup) {
	group.GET("/healthz", h.Healthz)
	group.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := group.Group("/v1")
	v1.GET("/clusters", h.ListClusters)

	activities := v1.Group("/activities")
	{
		activities.GET("", h.ListActivities)
		activities.POST("", h.CreateActivity)
		activities.POST("/bulk", h.BulkCreateActivities)
		activities.PATCH("/:id", h.UpdateActivity)
		activities.DELETE("/:id", h.DeleteActivity)
	}

	achievements := v1.Group("/achievements")
	{
		achievements.GET("", h.ListAchievements)
		achievements.GET("/annual", h.ListAnnualAchievements)
		achievements.PUT("", h.SaveAchievement)
	}

	pdca := v1.Group("/pdca")
	{
		pdca.GET("", h.ListPdca)
		pdca.GET("/:activityId", h.GetPdca)
		pdca.PUT("", h.SavePdca)
	}

	vs := v1.Group("/views")
	{
		vs.GET("/dashboard", h.DashboardView)
		vs.GET("/entry", h.EntryView)
		vs.GET("/analysis", h.AnalysisView)
		vs.GET("/pdca", h.PdcaView)
	}

	selection := v1.Group("/selection")
	{
		selection.GET("", h.GetSelection)
		selection.PUT("", h.PutSelection)
		selection.GET("/dashboard", h.SelectionDashboard)
	}

	reports := v1.Group("/reports")
	{
		reports.GET("/document.html", h.DocumentHTML)
		reports.GET("/document.pdf", h.DocumentPDF)
		reports.GET("/slides.html", h.SlidesHTML)
		reports.GET("/slides.pdf", h.SlidesPDF)
	}
}

// New returns a ready engine with all routes attached.
func New(h *Handler) *gin.Engine {
	r := Config()
	AttachRoutes(h, r.Group("/"))
	return r
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

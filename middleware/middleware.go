package middleware

import (
	"net/http"

	"github.com/ariebrainware/patient-checkin/metrics"
	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	dbContextKey         = "db"
	controllerContextKey = "checkin_controller"
	metricsContextKey    = "checkin_metrics"
)

func setCorsHeaders(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type")
	c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
	c.Writer.Header().Set("Access-Control-Max-Age", "86400")
}

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCorsHeaders(c)

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware makes db available to handlers through GetDB.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbContextKey, db)
		c.Next()
	}
}

// GetDB returns the request's database, or nil when none was set.
func GetDB(c *gin.Context) *gorm.DB {
	if v, ok := c.Get(dbContextKey); ok {
		if db, ok := v.(*gorm.DB); ok {
			return db
		}
	}
	return nil
}

// WorkflowMiddleware makes the kiosk's check-in controller available to
// handlers through GetController.
func WorkflowMiddleware(ctrl *workflow.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(controllerContextKey, ctrl)
		c.Next()
	}
}

// GetController returns the request's check-in controller, or nil.
func GetController(c *gin.Context) *workflow.Controller {
	if v, ok := c.Get(controllerContextKey); ok {
		if ctrl, ok := v.(*workflow.Controller); ok {
			return ctrl
		}
	}
	return nil
}

// MetricsMiddleware makes the metrics collector available to handlers.
func MetricsMiddleware(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metricsContextKey, m)
		c.Next()
	}
}

// GetMetrics returns the request's metrics collector, or nil.
func GetMetrics(c *gin.Context) *metrics.Collector {
	if v, ok := c.Get(metricsContextKey); ok {
		if m, ok := v.(*metrics.Collector); ok {
			return m
		}
	}
	return nil
}

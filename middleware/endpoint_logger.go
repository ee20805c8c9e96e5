package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ariebrainware/patient-checkin/util"
	"github.com/gin-gonic/gin"
)

// EndpointCallLogger logs each HTTP request through slog and as a check-in
// endpoint event. Events are persisted when util.SetCheckInLoggerDB has been
// called during startup.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		slog.Debug("Request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", duration,
		)

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
			"user_agent":  c.Request.UserAgent(),
		}

		var cycleID string
		if ctrl := GetController(c); ctrl != nil {
			cycleID = ctrl.CycleID()
		}

		util.LogCheckInEvent(util.CheckInEvent{
			EventType: util.EventEndpointCall,
			CycleID:   cycleID,
			IP:        c.ClientIP(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		})
	}
}

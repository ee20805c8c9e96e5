package endpoint

import "github.com/gin-gonic/gin"

// RegisterCheckInRoutes mounts every check-in handler on r. limiter guards
// the routes that touch the camera and the patient source; nil disables it.
func RegisterCheckInRoutes(r gin.IRouter, limiter gin.HandlerFunc) {
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}

	checkin := r.Group("/checkin")
	checkin.GET("", GetCheckIn)
	checkin.POST("/start", limiter, StartCheckIn)
	checkin.POST("/detect", limiter, DetectPatient)
	checkin.POST("/reset", ResetCheckIn)

	checkin.POST("/edit", BeginEdit)
	checkin.PATCH("/edit", UpdateDraft)
	checkin.POST("/edit/save", SaveEdit)
	checkin.DELETE("/edit", CancelEdit)

	checkin.GET("/report", DownloadReport)
	checkin.GET("/events", ListCheckInEvents)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariebrainware/patient-checkin/camera"
	"github.com/ariebrainware/patient-checkin/metrics"
	"github.com/ariebrainware/patient-checkin/source"
	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setGinTestMode() {
	gin.SetMode(gin.TestMode)
}

func newTestController() *workflow.Controller {
	return workflow.NewController(&source.Mock{Patient: source.DemoPatient()}, camera.NewSimulated("face:jane-doe"), workflow.Config{})
}

func TestSetCorsHeadersDefaults(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	setCorsHeaders(c)

	assert.Equal(t, "*", c.Writer.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, c.Writer.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Equal(t, "Content-Disposition", c.Writer.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	setGinTestMode()
	r := gin.New()
	r.Use(CORSMiddleware())
	called := false
	r.OPTIONS("/checkin/start", func(c *gin.Context) { called = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/checkin/start", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_PassesThrough(t *testing.T) {
	setGinTestMode()
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/checkin", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkin", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDatabaseMiddlewareAndGetDB(t *testing.T) {
	setGinTestMode()
	r := gin.New()
	// Use a zero-value gorm.DB pointer as a placeholder
	db := &gorm.DB{}
	r.Use(DatabaseMiddleware(db))
	r.GET("/testdb", func(c *gin.Context) {
		if GetDB(c) != db {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/testdb", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetters_WithoutMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	assert.Nil(t, GetDB(c))
	assert.Nil(t, GetController(c))
	assert.Nil(t, GetMetrics(c))
}

func TestGetters_WrongType(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(dbContextKey, "not a db")
	c.Set(controllerContextKey, 42)
	c.Set(metricsContextKey, struct{}{})

	assert.Nil(t, GetDB(c))
	assert.Nil(t, GetController(c))
	assert.Nil(t, GetMetrics(c))
}

func TestWorkflowAndMetricsMiddleware(t *testing.T) {
	setGinTestMode()
	ctrl := newTestController()
	m := metrics.New()

	r := gin.New()
	r.Use(WorkflowMiddleware(ctrl), MetricsMiddleware(m))
	r.GET("/check", func(c *gin.Context) {
		if GetController(c) != ctrl || GetMetrics(c) != m {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/check", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariebrainware/patient-checkin/model"
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func captureCheckInLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	util.SetCheckInLoggerForTest(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() {
		util.SetCheckInLoggerForTest(nil)
		util.SetCheckInLoggerDB(nil)
	})
	return buf
}

func TestEndpointCallLogger_BasicRequest(t *testing.T) {
	buf := captureCheckInLog(t)
	setGinTestMode()

	r := gin.New()
	r.Use(EndpointCallLogger())
	r.GET("/checkin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/checkin?foo=bar", nil)
	req.RemoteAddr = "192.168.1.100:1234"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	out := buf.String()
	assert.Contains(t, out, "event=ENDPOINT_CALL")
	assert.Contains(t, out, `message="GET /checkin -> 200"`)
	assert.Contains(t, out, "ip=192.168.1.100")
	assert.Contains(t, out, "details_count=7")
}

func TestEndpointCallLogger_RecordsCycleID(t *testing.T) {
	buf := captureCheckInLog(t)
	setGinTestMode()

	ctrl := newTestController()
	snap, err := ctrl.Start(context.Background())
	require.NoError(t, err)

	r := gin.New()
	r.Use(WorkflowMiddleware(ctrl), EndpointCallLogger())
	r.GET("/checkin", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/checkin", nil))

	assert.Contains(t, buf.String(), "cycle_id="+snap.CycleID)
}

func TestEndpointCallLogger_PersistsEvent(t *testing.T) {
	captureCheckInLog(t)
	setGinTestMode()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.CheckInEvent{}))
	util.SetCheckInLoggerDB(db)

	r := gin.New()
	r.Use(DatabaseMiddleware(db), EndpointCallLogger())
	r.POST("/checkin/reset", func(c *gin.Context) { c.Status(http.StatusConflict) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/checkin/reset", nil)
	req.RemoteAddr = "10.0.0.5:5555"
	r.ServeHTTP(w, req)

	var events []model.CheckInEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, string(util.EventEndpointCall), events[0].EventType)
	assert.Equal(t, "10.0.0.5", events[0].IP)
	assert.Equal(t, "POST /checkin/reset -> 409", events[0].Message)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0].Details, &details))
	assert.Equal(t, "/checkin/reset", details["path"])
	assert.Equal(t, 409.0, details["status"])
}

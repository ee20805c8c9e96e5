package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariebrainware/patient-checkin/camera"
	"github.com/ariebrainware/patient-checkin/config"
	"github.com/ariebrainware/patient-checkin/model"
	"github.com/ariebrainware/patient-checkin/source"
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.ConnectDatabase(&config.Config{AppEnv: "test"})
	require.NoError(t, err)
	require.NoError(t, migrate(db))
	return db
}

func TestNewSource_Mock(t *testing.T) {
	cfg := &config.Config{DataSource: config.DataSourceMock}
	src, err := newSource(cfg, nil)
	require.NoError(t, err)

	p, err := src.FetchPatient(context.Background(), source.Query{Signature: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "PAT-001", p.ID)
}

func TestNewSource_MockFailure(t *testing.T) {
	cfg := &config.Config{DataSource: config.DataSourceMock, MockFailure: "Patient not found in the database."}
	src, err := newSource(cfg, nil)
	require.NoError(t, err)

	_, err = src.FetchPatient(context.Background(), source.Query{})
	require.Error(t, err)
	assert.Equal(t, "Patient not found in the database.", workflow.DisplayMessage(err))
}

func TestNewSource_DatabaseSeeds(t *testing.T) {
	db := setupTestDB(t)
	cfg := &config.Config{DataSource: config.DataSourceDatabase, FaceSignature: "face:jane-doe"}

	src, err := newSource(cfg, db)
	require.NoError(t, err)
	// A second start must not duplicate the seed.
	_, err = newSource(cfg, db)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.PatientRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	p, err := src.FetchPatient(context.Background(), source.Query{Signature: "face:jane-doe"})
	require.NoError(t, err)
	assert.Equal(t, source.DemoPatient(), p)
}

func TestNewSource_Unknown(t *testing.T) {
	_, err := newSource(&config.Config{DataSource: "ldap"}, nil)
	assert.ErrorContains(t, err, `unknown data source "ldap"`)
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader("")))
	return w
}

func TestRouter_CheckInFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	util.SetCheckInLoggerDB(db)
	t.Cleanup(func() { util.SetCheckInLoggerDB(nil) })

	cfg := &config.Config{AppName: "Kiosk", DataSource: config.DataSourceDatabase, FaceSignature: "face:jane-doe"}
	src, err := newSource(cfg, db)
	require.NoError(t, err)
	a := newApp(cfg, db, src, camera.NewSimulated(cfg.FaceSignature))
	t.Cleanup(a.ctrl.Close)
	r := a.router()

	w := serve(r, "GET", "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to Kiosk!"}`, w.Body.String())

	require.Equal(t, http.StatusOK, serve(r, "POST", "/checkin/start").Code)
	w = serve(r, "POST", "/checkin/detect?wait=true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data workflow.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, workflow.Displaying, resp.Data.State)
	require.NotNil(t, resp.Data.Patient)
	assert.Equal(t, "Jane Doe", resp.Data.Patient.Name)

	w = serve(r, "GET", "/checkin/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	w = serve(r, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `checkin_detections_total{outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "checkin_reports_exported_total 1")

	var detected int64
	require.NoError(t, db.Model(&model.CheckInEvent{}).Where("event_type = ?", string(util.EventPatientDetected)).Count(&detected).Error)
	assert.Equal(t, int64(1), detected)
	var calls int64
	require.NoError(t, db.Model(&model.CheckInEvent{}).Where("event_type = ?", string(util.EventEndpointCall)).Count(&calls).Error)
	assert.Positive(t, calls)
}

func TestRouter_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{DataSource: config.DataSourceMock}
	src, err := newSource(cfg, nil)
	require.NoError(t, err)
	a := newApp(cfg, nil, src, camera.NewSimulated(""))
	t.Cleanup(a.ctrl.Close)

	w := serve(a.router(), "OPTIONS", "/checkin/start")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

package endpoint

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariebrainware/patient-checkin/camera"
	"github.com/ariebrainware/patient-checkin/metrics"
	"github.com/ariebrainware/patient-checkin/middleware"
	"github.com/ariebrainware/patient-checkin/source"
	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestSpec struct {
	method  string
	path    string
	body    interface{}
	headers map[string]string
}

type apiResp struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func performRequest(r *gin.Engine, spec requestSpec) *httptest.ResponseRecorder {
	var reader *strings.Reader
	setJSONHeader := false
	switch v := spec.body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
		setJSONHeader = true
	default:
		b, _ := json.Marshal(spec.body)
		reader = strings.NewReader(string(b))
		setJSONHeader = true
	}

	req := httptest.NewRequest(spec.method, spec.path, reader)
	if setJSONHeader {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range spec.headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeSnapshot parses an envelope whose data is a workflow snapshot.
func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) (apiResp, workflow.Snapshot) {
	t.Helper()
	var resp apiResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snap))
	return resp, snap
}

type testKiosk struct {
	router  *gin.Engine
	ctrl    *workflow.Controller
	camera  *camera.Simulated
	source  *source.Mock
	metrics *metrics.Collector
}

// newTestKiosk wires a router around a controller backed by an instant mock
// source and a simulated camera. extra middleware runs before the routes.
func newTestKiosk(t *testing.T, extra ...gin.HandlerFunc) *testKiosk {
	t.Helper()
	gin.SetMode(gin.TestMode)

	k := &testKiosk{
		camera:  camera.NewSimulated("face:jane-doe"),
		source:  &source.Mock{Patient: source.DemoPatient()},
		metrics: metrics.New(),
	}
	k.ctrl = workflow.NewController(k.source, k.camera, workflow.Config{})
	k.ctrl.Subscribe(k.metrics.Observe)
	t.Cleanup(k.ctrl.Close)

	k.router = gin.New()
	k.router.Use(middleware.WorkflowMiddleware(k.ctrl), middleware.MetricsMiddleware(k.metrics))
	k.router.Use(extra...)
	RegisterCheckInRoutes(k.router, nil)
	return k
}

func (k *testKiosk) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResp, workflow.Snapshot) {
	t.Helper()
	w := performRequest(k.router, requestSpec{method: method, path: path, body: body})
	resp, snap := decodeSnapshot(t, w)
	return w, resp, snap
}

// display drives the kiosk to Displaying with the demo patient.
func (k *testKiosk) display(t *testing.T) workflow.Snapshot {
	t.Helper()
	w, _, _ := k.do(t, "POST", "/checkin/start", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	w, _, snap := k.do(t, "POST", "/checkin/detect?wait=true", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	require.Equal(t, workflow.Displaying, snap.State)
	return snap
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, w.Code, w.Body.String())
}

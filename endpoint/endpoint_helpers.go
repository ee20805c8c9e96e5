package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ariebrainware/patient-checkin/middleware"
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/gin-gonic/gin"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// requireController returns the kiosk controller or writes a server error.
func requireController(c *gin.Context) (*workflow.Controller, bool) {
	ctrl := middleware.GetController(c)
	if ctrl == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Check-in workflow not available",
			Err: fmt.Errorf("controller is nil"),
		})
		return nil, false
	}
	return ctrl, true
}

// callWorkflowError maps a controller error onto the API envelope. The
// unchanged snapshot is returned as data so clients can re-render.
func callWorkflowError(c *gin.Context, msg string, err error, snap workflow.Snapshot) {
	params := util.APIErrorParams{Msg: msg, Err: err, Data: snap}
	switch {
	case errors.Is(err, workflow.ErrCameraUnavailable):
		util.CallServiceUnavailable(c, params)
	case errors.Is(err, workflow.ErrUnknownField),
		errors.Is(err, workflow.ErrIdentityChanged),
		errors.Is(err, workflow.ErrHistoryChanged):
		util.CallUserError(c, params)
	case errors.Is(err, workflow.ErrDetectInProgress),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNoPatient),
		errors.Is(err, workflow.ErrNotEditing):
		util.CallConflict(c, params)
	default:
		util.CallServerError(c, params)
	}
}

// queryInt parses a non-negative integer query parameter, falling back to def.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

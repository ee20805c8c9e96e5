package endpoint

import (
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/gin-gonic/gin"
)

// GetCheckIn godoc
// @Summary      Current check-in state
// @Description  Returns the workflow state, the displayed patient and any open edit draft
// @Tags         CheckIn
// @Produce      json
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Check-in state"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /checkin [get]
func GetCheckIn(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Check-in state retrieved",
		Data: ctrl.Snapshot(),
	})
}

// StartCheckIn godoc
// @Summary      Start scanning
// @Description  Opens the camera and moves the kiosk from idle to scanning
// @Tags         CheckIn
// @Produce      json
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Scanning started"
// @Failure      409 {object} util.APIResponse "Not allowed in the current state"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      503 {object} util.APIResponse "Camera unavailable"
// @Router       /checkin/start [post]
func StartCheckIn(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}

	snap, err := ctrl.Start(c.Request.Context())
	if err != nil {
		callWorkflowError(c, "Failed to start scanning", err, snap)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Scanning started",
		Data: snap,
	})
}

// DetectPatient godoc
// @Summary      Detect patient
// @Description  Captures a frame and looks up the patient. The lookup runs in the background unless wait=true.
// @Tags         CheckIn
// @Produce      json
// @Param        wait query bool false "Block until the detection outcome has been applied"
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Detection started or finished"
// @Failure      409 {object} util.APIResponse "Not scanning or detection already in progress"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Router       /checkin/detect [post]
func DetectPatient(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}

	snap, err := ctrl.Detect(c.Request.Context())
	if err != nil {
		callWorkflowError(c, "Failed to start detection", err, snap)
		return
	}

	msg := "Detection started"
	if c.Query("wait") == "true" {
		if err := ctrl.Wait(c.Request.Context()); err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg:  "Detection did not finish before the request ended",
				Err:  err,
				Data: ctrl.Snapshot(),
			})
			return
		}
		snap = ctrl.Snapshot()
		msg = "Detection finished"
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  msg,
		Data: snap,
	})
}

// ResetCheckIn godoc
// @Summary      Reset check-in
// @Description  Returns to idle from any state, discarding the patient, any draft and any in-flight detection
// @Tags         CheckIn
// @Produce      json
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Check-in reset"
// @Router       /checkin/reset [post]
func ResetCheckIn(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Check-in reset",
		Data: ctrl.Reset(),
	})
}

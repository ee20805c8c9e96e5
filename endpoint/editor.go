package endpoint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ariebrainware/patient-checkin/util"
	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/gin-gonic/gin"
)

const allergiesKey = "allergies"

var errEmptyUpdate = errors.New("no fields to update")

// BeginEdit godoc
// @Summary      Begin editing
// @Description  Opens an edit draft of the displayed patient. Calling it again keeps the current draft.
// @Tags         Editor
// @Produce      json
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Editing"
// @Failure      409 {object} util.APIResponse "No patient displayed"
// @Router       /checkin/edit [post]
func BeginEdit(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}

	snap, err := ctrl.BeginEdit()
	if err != nil {
		callWorkflowError(c, "Failed to begin editing", err, snap)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Editing patient",
		Data: snap,
	})
}

// UpdateDraft godoc
// @Summary      Update edit draft
// @Description  Sets scalar fields (name, date_of_birth, blood_type, profile_image_url) and/or the allergies text on the draft
// @Tags         Editor
// @Accept       json
// @Produce      json
// @Param        request body map[string]string true "Field values; allergies is comma separated text"
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Draft updated"
// @Failure      400 {object} util.APIResponse "Invalid request body or unknown field"
// @Failure      409 {object} util.APIResponse "No edit session"
// @Router       /checkin/edit [patch]
func UpdateDraft(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}

	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if len(req) == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: errEmptyUpdate,
		})
		return
	}

	keys := make([]string, 0, len(req))
	for k := range req {
		if k == allergiesKey {
			continue
		}
		if _, err := workflow.ParseField(k); err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Field %q cannot be edited", k),
				Err: err,
			})
			return
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snap := ctrl.Snapshot()
	var err error
	for _, k := range keys {
		field, _ := workflow.ParseField(k)
		if snap, err = ctrl.UpdateField(field, req[k]); err != nil {
			callWorkflowError(c, "Failed to update draft", err, snap)
			return
		}
	}
	if text, ok := req[allergiesKey]; ok {
		if snap, err = ctrl.UpdateAllergies(text); err != nil {
			callWorkflowError(c, "Failed to update draft", err, snap)
			return
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Draft updated",
		Data: snap,
	})
}

// SaveEdit godoc
// @Summary      Save edits
// @Description  Replaces the displayed patient with the draft. Medical history and the patient ID are never changed.
// @Tags         Editor
// @Produce      json
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Patient updated"
// @Failure      409 {object} util.APIResponse "No edit session"
// @Router       /checkin/edit/save [post]
func SaveEdit(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}

	snap, err := ctrl.CommitEdit()
	if err != nil {
		callWorkflowError(c, "Failed to save patient", err, snap)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: snap,
	})
}

// CancelEdit godoc
// @Summary      Cancel editing
// @Description  Discards the draft; the displayed patient is unchanged
// @Tags         Editor
// @Produce      json
// @Success      200 {object} util.APIResponse{data=workflow.Snapshot} "Edit canceled"
// @Failure      409 {object} util.APIResponse "No edit session"
// @Router       /checkin/edit [delete]
func CancelEdit(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}

	snap, err := ctrl.CancelEdit()
	if err != nil {
		callWorkflowError(c, "Failed to cancel editing", err, snap)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Edit canceled",
		Data: snap,
	})
}

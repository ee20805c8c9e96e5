package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/patient-checkin/camera"
	"github.com/ariebrainware/patient-checkin/source"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrDetectInProgress  = errors.New("detection already in progress")
	ErrNoPatient         = errors.New("no patient is displayed")
	ErrNotEditing        = errors.New("no edit session is active")
	ErrIdentityChanged   = errors.New("patient identifier cannot change")
	ErrHistoryChanged    = errors.New("medical history cannot be edited")
	ErrUnknownField      = errors.New("unknown patient field")
	ErrCameraUnavailable = errors.New("camera unavailable")
)

// Messages shown to the operator.
const (
	UnknownErrorMessage = "An unknown error occurred."
	NotFoundMessage     = "Patient not found in the database."
	NoFaceMessage       = "No face detected. Please position the patient in front of the camera."
	TimeoutMessage      = "Patient lookup timed out. Please try again."
)

// DisplayMessage normalizes a detection failure into operator text.
func DisplayMessage(err error) string {
	var unknown *source.UnknownFailure
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unknown):
		return UnknownErrorMessage
	case errors.Is(err, source.ErrPatientNotFound):
		return NotFoundMessage
	case errors.Is(err, source.ErrNoFace), errors.Is(err, camera.ErrNoFace):
		return NoFaceMessage
	case errors.Is(err, context.DeadlineExceeded):
		return TimeoutMessage
	}
	return messageOrUnknown(err.Error())
}

func cameraMessage(err error) string {
	return fmt.Sprintf("Unable to access the camera: %v", err)
}

func messageOrUnknown(msg string) string {
	if msg == "" {
		return UnknownErrorMessage
	}
	return msg
}

// Package workflow implements the kiosk check-in state machine:
// scan, detect, display, edit and reset.
//
// Transition is a pure function from (Status, Event) to the next Status.
// Controller owns the single live Status together with the resources the
// states imply: the camera stream while scanning, the in-flight detection
// and the edit session while a patient is displayed.
package workflow

import (
	"fmt"

	"github.com/ariebrainware/patient-checkin/model"
)

// State is one of the four workflow states.
type State int

const (
	Idle State = iota
	Scanning
	Detecting
	Displaying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Detecting:
		return "detecting"
	case Displaying:
		return "displaying"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Scanning, Detecting, Displaying} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown workflow state %q", text)
}

// EventKind names what happened to the workflow.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventCameraFailed
	EventDetect
	EventDetectSucceeded
	EventDetectFailed
	EventEditBegan
	EventPatientUpdated
	EventEditCanceled
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventCameraFailed:
		return "camera_failed"
	case EventDetect:
		return "detect"
	case EventDetectSucceeded:
		return "detect_succeeded"
	case EventDetectFailed:
		return "detect_failed"
	case EventEditBegan:
		return "edit_began"
	case EventPatientUpdated:
		return "patient_updated"
	case EventEditCanceled:
		return "edit_canceled"
	case EventReset:
		return "reset"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is an input to Transition. Patient is set for EventDetectSucceeded
// and EventPatientUpdated; Err carries the display message of a failure.
type Event struct {
	Kind    EventKind
	Patient *model.Patient
	Err     string
}

// Status is the workflow's observable state.
type Status struct {
	State    State          `json:"state"`
	Patient  *model.Patient `json:"patient"`
	Error    string         `json:"error"`
	Loading  bool           `json:"loading"`
	Scanning bool           `json:"scanning"`
}

// Clone deep-copies the displayed patient.
func (s Status) Clone() Status {
	if s.Patient != nil {
		p := s.Patient.Clone()
		s.Patient = &p
	}
	return s
}

// Transition returns the status that follows ev. On error the returned status
// is s unchanged.
func Transition(s Status, ev Event) (Status, error) {
	switch ev.Kind {
	case EventReset:
		return Status{State: Idle}, nil

	case EventStart:
		if s.Loading {
			return s, ErrDetectInProgress
		}
		if s.State != Idle {
			return s, invalid(s, ev)
		}
		return Status{State: Scanning, Scanning: true}, nil

	case EventCameraFailed:
		if s.State != Scanning {
			return s, invalid(s, ev)
		}
		return Status{State: Idle, Error: messageOrUnknown(ev.Err)}, nil

	case EventDetect:
		if s.Loading {
			return s, ErrDetectInProgress
		}
		if s.State != Scanning {
			return s, invalid(s, ev)
		}
		return Status{State: Detecting, Loading: true, Scanning: true}, nil

	case EventDetectSucceeded:
		if s.State != Detecting {
			return s, invalid(s, ev)
		}
		if ev.Patient == nil {
			return s, fmt.Errorf("%w: detection succeeded without a patient", ErrInvalidTransition)
		}
		p := ev.Patient.Clone()
		return Status{State: Displaying, Patient: &p}, nil

	case EventDetectFailed:
		if s.State != Detecting {
			return s, invalid(s, ev)
		}
		return Status{State: Scanning, Scanning: true, Error: messageOrUnknown(ev.Err)}, nil

	case EventEditBegan, EventEditCanceled:
		if s.State != Displaying || s.Patient == nil {
			return s, ErrNoPatient
		}
		return s, nil

	case EventPatientUpdated:
		if s.State != Displaying || s.Patient == nil {
			return s, ErrNoPatient
		}
		if ev.Patient == nil {
			return s, fmt.Errorf("%w: update without a patient", ErrInvalidTransition)
		}
		if ev.Patient.ID != s.Patient.ID {
			return s, ErrIdentityChanged
		}
		if !sameHistory(s.Patient.MedicalHistory, ev.Patient.MedicalHistory) {
			return s, ErrHistoryChanged
		}
		p := ev.Patient.Clone()
		next := s
		next.Patient = &p
		return next, nil
	}
	return s, invalid(s, ev)
}

func invalid(s Status, ev Event) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, ev.Kind, s.State)
}

func sameHistory(a, b []model.MedicalRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

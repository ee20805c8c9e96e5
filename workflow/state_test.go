package workflow

import (
	"testing"

	"github.com/ariebrainware/patient-checkin/model"
	"github.com/stretchr/testify/assert"
)

func testPatient() model.Patient {
	return model.Patient{
		ID:          "PAT-001",
		Name:        "Jane Doe",
		DateOfBirth: "1985-05-22",
		BloodType:   "O+",
		Allergies:   []string{"Peanuts", "Penicillin"},
		MedicalHistory: []model.MedicalRecord{
			{ID: "REC-002", Date: "2023-01-01", Type: model.CheckUp, Summary: "Fine.", Doctor: "Dr. A"},
			{ID: "REC-001", Date: "2022-01-01", Type: model.Surgery, Summary: "Done.", Doctor: "Dr. B"},
		},
	}
}

func allStatuses() []Status {
	p := testPatient()
	return []Status{
		{State: Idle},
		{State: Idle, Error: "Unable to access the camera: denied"},
		{State: Scanning, Scanning: true},
		{State: Scanning, Scanning: true, Error: "Patient not found in the database."},
		{State: Detecting, Loading: true, Scanning: true},
		{State: Displaying, Patient: &p},
	}
}

func TestTransition_HappyPath(t *testing.T) {
	p := testPatient()

	s, err := Transition(Status{State: Idle}, Event{Kind: EventStart})
	assert.NoError(t, err)
	assert.Equal(t, Status{State: Scanning, Scanning: true}, s)

	s, err = Transition(s, Event{Kind: EventDetect})
	assert.NoError(t, err)
	assert.Equal(t, Status{State: Detecting, Loading: true, Scanning: true}, s)

	s, err = Transition(s, Event{Kind: EventDetectSucceeded, Patient: &p})
	assert.NoError(t, err)
	assert.Equal(t, Displaying, s.State)
	assert.False(t, s.Loading)
	assert.False(t, s.Scanning)
	assert.Empty(t, s.Error)
	assert.Equal(t, p, *s.Patient)
	assert.NotSame(t, &p, s.Patient)
}

func TestTransition_StartClearsPriorError(t *testing.T) {
	s, err := Transition(Status{State: Idle, Error: "boom"}, Event{Kind: EventStart})
	assert.NoError(t, err)
	assert.Empty(t, s.Error)
	assert.Nil(t, s.Patient)
}

func TestTransition_DetectClearsError(t *testing.T) {
	s, err := Transition(Status{State: Scanning, Scanning: true, Error: "old"}, Event{Kind: EventDetect})
	assert.NoError(t, err)
	assert.Empty(t, s.Error)
	assert.True(t, s.Loading)
}

func TestTransition_DetectFailedReturnsToScanning(t *testing.T) {
	s, err := Transition(Status{State: Detecting, Loading: true, Scanning: true},
		Event{Kind: EventDetectFailed, Err: "Patient not found in the database."})
	assert.NoError(t, err)
	assert.Equal(t, Status{State: Scanning, Scanning: true, Error: "Patient not found in the database."}, s)
}

func TestTransition_DetectFailedWithoutMessage(t *testing.T) {
	s, err := Transition(Status{State: Detecting, Loading: true, Scanning: true}, Event{Kind: EventDetectFailed})
	assert.NoError(t, err)
	assert.Equal(t, UnknownErrorMessage, s.Error)
}

func TestTransition_CameraFailed(t *testing.T) {
	s, err := Transition(Status{State: Scanning, Scanning: true}, Event{Kind: EventCameraFailed, Err: "Unable to access the camera: denied"})
	assert.NoError(t, err)
	assert.Equal(t, Status{State: Idle, Error: "Unable to access the camera: denied"}, s)
}

func TestTransition_ResetFromAnyState(t *testing.T) {
	for _, s := range allStatuses() {
		next, err := Transition(s, Event{Kind: EventReset})
		assert.NoError(t, err, s.State.String())
		assert.Equal(t, Status{State: Idle}, next)
		assert.Nil(t, next.Patient)
		assert.Empty(t, next.Error)
		assert.False(t, next.Loading)
		assert.False(t, next.Scanning)
	}
}

func TestTransition_OverlapGuard(t *testing.T) {
	detecting := Status{State: Detecting, Loading: true, Scanning: true}
	for _, kind := range []EventKind{EventStart, EventDetect} {
		next, err := Transition(detecting, Event{Kind: kind})
		assert.ErrorIs(t, err, ErrDetectInProgress)
		assert.Equal(t, detecting, next)
	}
}

func TestTransition_RejectsUndefinedPairs(t *testing.T) {
	p := testPatient()
	tests := []struct {
		name string
		from Status
		ev   Event
	}{
		{"start while scanning", Status{State: Scanning, Scanning: true}, Event{Kind: EventStart}},
		{"start while displaying", Status{State: Displaying, Patient: &p}, Event{Kind: EventStart}},
		{"detect while idle", Status{State: Idle}, Event{Kind: EventDetect}},
		{"detect while displaying", Status{State: Displaying, Patient: &p}, Event{Kind: EventDetect}},
		{"success while scanning", Status{State: Scanning, Scanning: true}, Event{Kind: EventDetectSucceeded, Patient: &p}},
		{"failure while idle", Status{State: Idle}, Event{Kind: EventDetectFailed, Err: "x"}},
		{"camera failure while idle", Status{State: Idle}, Event{Kind: EventCameraFailed, Err: "x"}},
		{"success without patient", Status{State: Detecting, Loading: true, Scanning: true}, Event{Kind: EventDetectSucceeded}},
		{"unknown event", Status{State: Idle}, Event{Kind: EventKind(99)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.from, tt.ev)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, next)
		})
	}
}

func TestTransition_PatientUpdated(t *testing.T) {
	p := testPatient()
	displaying := Status{State: Displaying, Patient: &p}

	edited := testPatient()
	edited.Name = "Jane Smith"
	edited.Allergies = []string{"Latex"}
	next, err := Transition(displaying, Event{Kind: EventPatientUpdated, Patient: &edited})
	assert.NoError(t, err)
	assert.Equal(t, "Jane Smith", next.Patient.Name)
	assert.Equal(t, []string{"Latex"}, next.Patient.Allergies)

	renamed := testPatient()
	renamed.ID = "PAT-999"
	_, err = Transition(displaying, Event{Kind: EventPatientUpdated, Patient: &renamed})
	assert.ErrorIs(t, err, ErrIdentityChanged)

	rewritten := testPatient()
	rewritten.MedicalHistory = rewritten.MedicalHistory[:1]
	_, err = Transition(displaying, Event{Kind: EventPatientUpdated, Patient: &rewritten})
	assert.ErrorIs(t, err, ErrHistoryChanged)

	_, err = Transition(Status{State: Idle}, Event{Kind: EventPatientUpdated, Patient: &edited})
	assert.ErrorIs(t, err, ErrNoPatient)
}

func TestTransition_EditEventsRequirePatient(t *testing.T) {
	p := testPatient()
	for _, kind := range []EventKind{EventEditBegan, EventEditCanceled} {
		_, err := Transition(Status{State: Scanning, Scanning: true}, Event{Kind: kind})
		assert.ErrorIs(t, err, ErrNoPatient)

		s := Status{State: Displaying, Patient: &p}
		next, err := Transition(s, Event{Kind: kind})
		assert.NoError(t, err)
		assert.Equal(t, s, next)
	}
}

func TestStateAndEventNames(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "scanning", Scanning.String())
	assert.Equal(t, "detecting", Detecting.String())
	assert.Equal(t, "displaying", Displaying.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "detect_failed", EventDetectFailed.String())
	assert.Equal(t, "EventKind(0)", EventKind(0).String())

	text, err := Displaying.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "displaying", string(text))
}

func TestState_UnmarshalText(t *testing.T) {
	var s State
	assert.NoError(t, s.UnmarshalText([]byte("detecting")))
	assert.Equal(t, Detecting, s)
	assert.Error(t, s.UnmarshalText([]byte("paused")))
	assert.Equal(t, Detecting, s)
}

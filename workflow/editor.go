package workflow

import (
	"fmt"

	"github.com/ariebrainware/patient-checkin/model"
)

// Field is an editable scalar field of a Patient.
type Field string

const (
	FieldName            Field = "name"
	FieldDateOfBirth     Field = "date_of_birth"
	FieldBloodType       Field = "blood_type"
	FieldProfileImageURL Field = "profile_image_url"
)

// ParseField validates an editable field name. The identifier and the
// medical history are not editable.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldName, FieldDateOfBirth, FieldBloodType, FieldProfileImageURL:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Editor holds the draft of a single edit session.
type Editor struct {
	draft *model.Patient
}

// Begin starts a session on a copy of p. It reports false and leaves the
// current draft alone when a session is already active.
func (e *Editor) Begin(p model.Patient) bool {
	if e.draft != nil {
		return false
	}
	d := p.Clone()
	e.draft = &d
	return true
}

func (e *Editor) Active() bool { return e.draft != nil }

// Draft returns a copy of the current draft.
func (e *Editor) Draft() (model.Patient, bool) {
	if e.draft == nil {
		return model.Patient{}, false
	}
	return e.draft.Clone(), true
}

// SetField sets one scalar field on the draft.
func (e *Editor) SetField(f Field, value string) error {
	if e.draft == nil {
		return ErrNotEditing
	}
	switch f {
	case FieldName:
		e.draft.Name = value
	case FieldDateOfBirth:
		e.draft.DateOfBirth = value
	case FieldBloodType:
		e.draft.BloodType = value
	case FieldProfileImageURL:
		e.draft.ProfileImageURL = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	return nil
}

// SetAllergies replaces the draft's allergies with the parsed edit text.
func (e *Editor) SetAllergies(text string) error {
	if e.draft == nil {
		return ErrNotEditing
	}
	e.draft.Allergies = model.ParseAllergies(text)
	return nil
}

// Commit ends the session and returns the draft.
func (e *Editor) Commit() (model.Patient, error) {
	if e.draft == nil {
		return model.Patient{}, ErrNotEditing
	}
	p := *e.draft
	e.draft = nil
	return p, nil
}

// Cancel discards the draft. It reports whether a session was active.
func (e *Editor) Cancel() bool {
	active := e.draft != nil
	e.draft = nil
	return active
}

package model

import (
	"encoding/json"
	"fmt"
)

// RecordType is the closed set of medical record kinds.
type RecordType int

const (
	CheckUp RecordType = iota + 1
	LabResults
	Prescription
	Surgery
	EmergencyVisit
)

// RecordTypes lists every valid RecordType.
var RecordTypes = []RecordType{CheckUp, LabResults, Prescription, Surgery, EmergencyVisit}

// String returns the display label, e.g. "Emergency Visit".
func (t RecordType) String() string {
	switch t {
	case CheckUp:
		return "Check-up"
	case LabResults:
		return "Lab Results"
	case Prescription:
		return "Prescription"
	case Surgery:
		return "Surgery"
	case EmergencyVisit:
		return "Emergency Visit"
	}
	return fmt.Sprintf("RecordType(%d)", int(t))
}

// Icon is the icon key the front end renders next to a record.
func (t RecordType) Icon() string {
	switch t {
	case CheckUp:
		return "stethoscope"
	case LabResults:
		return "file-text"
	case Prescription:
		return "pill"
	case Surgery:
		return "syringe"
	case EmergencyVisit:
		return "activity"
	}
	return "file-text"
}

// Valid reports whether t is one of the declared record types.
func (t RecordType) Valid() bool {
	return t >= CheckUp && t <= EmergencyVisit
}

// ParseRecordType maps a display label back to its RecordType.
func ParseRecordType(label string) (RecordType, error) {
	for _, t := range RecordTypes {
		if t.String() == label {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown record type %q", label)
}

func (t RecordType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid record type %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *RecordType) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseRecordType(label)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CheckInEvent is a persisted workflow or endpoint event.
type CheckInEvent struct {
	gorm.Model
	EventType string `json:"event_type" gorm:"column:event_type;type:varchar(64);index"`
	CycleID   string `json:"cycle_id" gorm:"column:cycle_id;type:varchar(64);index"`
	PatientID string `json:"patient_id" gorm:"column:patient_id;type:varchar(64);index"`
	FromState string `json:"from_state" gorm:"column:from_state;type:varchar(32)"`
	ToState   string `json:"to_state" gorm:"column:to_state;type:varchar(32)"`
	IP        string `json:"ip" gorm:"column:ip;type:varchar(45)"`
	Message   string `json:"message" gorm:"column:message;type:text"`
	// Details holds extra key/value context encoded as JSON.
	Details datatypes.JSON `json:"details" gorm:"column:details;type:json"`
}

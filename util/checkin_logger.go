package util

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ariebrainware/patient-checkin/model"
	"github.com/ariebrainware/patient-checkin/workflow"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CheckInEventType represents different types of check-in events
type CheckInEventType string

const (
	EventStateTransition      CheckInEventType = "STATE_TRANSITION"
	EventCameraFailed         CheckInEventType = "CAMERA_FAILED"
	EventPatientDetected      CheckInEventType = "PATIENT_DETECTED"
	EventDetectFailed         CheckInEventType = "DETECT_FAILED"
	EventPatientUpdated       CheckInEventType = "PATIENT_UPDATED"
	EventReportExported       CheckInEventType = "REPORT_EXPORTED"
	EventRateLimitExceeded    CheckInEventType = "RATE_LIMIT_EXCEEDED"
	EventRateLimitUnavailable CheckInEventType = "RATE_LIMIT_UNAVAILABLE"
	EventEndpointCall         CheckInEventType = "ENDPOINT_CALL"
)

// CheckInEvent represents a check-in event to be logged
type CheckInEvent struct {
	EventType CheckInEventType
	CycleID   string
	PatientID string
	FromState string
	ToState   string
	IP        string
	Message   string
	Details   map[string]interface{}
}

var (
	checkInMu     sync.RWMutex
	checkInLogger *slog.Logger
	checkInDB     *gorm.DB
)

// SetCheckInLoggerDB sets a gorm DB instance used by the check-in logger.
// Call this during application startup after DB initialization.
func SetCheckInLoggerDB(db *gorm.DB) {
	checkInMu.Lock()
	defer checkInMu.Unlock()
	checkInDB = db
}

// SetCheckInLoggerForTest sets a custom logger; nil restores slog.Default.
func SetCheckInLoggerForTest(logger *slog.Logger) {
	checkInMu.Lock()
	defer checkInMu.Unlock()
	checkInLogger = logger
}

func eventSinks() (*slog.Logger, *gorm.DB) {
	checkInMu.RLock()
	defer checkInMu.RUnlock()
	logger := checkInLogger
	if logger == nil {
		logger = slog.Default()
	}
	return logger, checkInDB
}

// maxLogValueLen bounds a logged value in bytes.
const maxLogValueLen = 200

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if len(value) > maxLogValueLen {
		cut := maxLogValueLen
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut] + "..."
	}
	return value
}

// LogCheckInEvent logs a check-in event and persists it when a DB is set.
func LogCheckInEvent(event CheckInEvent) {
	logger, db := eventSinks()

	attrs := []any{
		"event", sanitizeLogValue(string(event.EventType)),
		"cycle_id", sanitizeLogValue(event.CycleID),
		"patient_id", sanitizeLogValue(event.PatientID),
		"from", sanitizeLogValue(event.FromState),
		"to", sanitizeLogValue(event.ToState),
		"ip", sanitizeLogValue(event.IP),
		"message", sanitizeLogValue(event.Message),
	}
	if len(event.Details) > 0 {
		// Details are persisted, only their count is logged.
		attrs = append(attrs, "details_count", len(event.Details))
	}
	logger.Info("[CHECKIN]", attrs...)

	if db == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}
	entry := model.CheckInEvent{
		EventType: string(event.EventType),
		CycleID:   sanitizeLogValue(event.CycleID),
		PatientID: sanitizeLogValue(event.PatientID),
		FromState: event.FromState,
		ToState:   event.ToState,
		IP:        sanitizeLogValue(event.IP),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	// best-effort write
	if err := db.Create(&entry).Error; err != nil {
		logger.Error("Failed to persist check-in event", "error", err)
	}
}

// LogWorkflowChange is a workflow.Listener that records every applied change.
func LogWorkflowChange(ch workflow.Change) {
	event := CheckInEvent{
		EventType: changeEventType(ch.Event),
		CycleID:   ch.CycleID,
		PatientID: ch.PatientID,
		FromState: ch.From.String(),
		ToState:   ch.To.String(),
		Message:   ch.Event.String(),
	}
	if ch.Error != "" {
		event.Message = ch.Error
	}
	if ch.Duration > 0 {
		event.Details = map[string]interface{}{"duration_ms": ch.Duration.Milliseconds()}
	}
	LogCheckInEvent(event)
}

func changeEventType(kind workflow.EventKind) CheckInEventType {
	switch kind {
	case workflow.EventCameraFailed:
		return EventCameraFailed
	case workflow.EventDetectSucceeded:
		return EventPatientDetected
	case workflow.EventDetectFailed:
		return EventDetectFailed
	case workflow.EventPatientUpdated:
		return EventPatientUpdated
	}
	return EventStateTransition
}

// LogReportExported logs a served medical report
func LogReportExported(cycleID, patientID, ip, filename string) {
	LogCheckInEvent(CheckInEvent{
		EventType: EventReportExported,
		CycleID:   cycleID,
		PatientID: patientID,
		IP:        ip,
		Message:   fmt.Sprintf("Report exported: %s", filename),
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogCheckInEvent(CheckInEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}

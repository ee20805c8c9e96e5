package endpoint

import (
	"fmt"

	"github.com/ariebrainware/patient-checkin/middleware"
	"github.com/ariebrainware/patient-checkin/model"
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type eventListQuery struct {
	Limit     int
	Offset    int
	CycleID   string
	EventType string
}

func parseEventQuery(c *gin.Context) eventListQuery {
	limit := queryInt(c, "limit", defaultEventLimit)
	if limit == 0 || limit > maxEventLimit {
		limit = defaultEventLimit
	}
	return eventListQuery{
		Limit:     limit,
		Offset:    queryInt(c, "offset", 0),
		CycleID:   c.Query("cycle_id"),
		EventType: c.Query("event_type"),
	}
}

func fetchCheckInEvents(db *gorm.DB, q eventListQuery) ([]model.CheckInEvent, int64, error) {
	query := db.Model(&model.CheckInEvent{})
	if q.CycleID != "" {
		query = query.Where("cycle_id = ?", q.CycleID)
	}
	if q.EventType != "" {
		query = query.Where("event_type = ?", q.EventType)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.CheckInEvent
	if err := query.Order("id DESC").Limit(q.Limit).Offset(q.Offset).Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListCheckInEvents godoc
// @Summary      List check-in events
// @Description  Paginated audit trail of workflow transitions, exports and endpoint calls, newest first
// @Tags         CheckIn
// @Produce      json
// @Param        limit query int false "Limit number of results (default 50, max 500)"
// @Param        offset query int false "Offset for pagination"
// @Param        cycle_id query string false "Only events of this check-in cycle"
// @Param        event_type query string false "Only events of this type, e.g. PATIENT_DETECTED"
// @Success      200 {object} util.APIResponse{data=object} "Events retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /checkin/events [get]
func ListCheckInEvents(c *gin.Context) {
	q := parseEventQuery(c)

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	events, total, err := fetchCheckInEvents(db, q)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve check-in events",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Check-in events retrieved",
		Data: map[string]interface{}{
			"total":  total,
			"limit":  q.Limit,
			"offset": q.Offset,
			"events": events,
		},
	})
}

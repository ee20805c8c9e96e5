package endpoint

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/ariebrainware/patient-checkin/middleware"
	"github.com/ariebrainware/patient-checkin/report"
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/gin-gonic/gin"
)

// DownloadReport godoc
// @Summary      Download medical report
// @Description  Renders the displayed patient as an A4 PDF. Uncommitted edits are not included.
// @Tags         Report
// @Produce      application/pdf
// @Success      200 {file} file "Medical_Report_<name>.pdf"
// @Failure      404 {object} util.APIResponse "No patient displayed"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /checkin/report [get]
func DownloadReport(c *gin.Context) {
	ctrl, ok := requireController(c)
	if !ok {
		return
	}

	patient, err := ctrl.Patient()
	if err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "No patient to export",
			Err: err,
		})
		return
	}

	var buf bytes.Buffer
	if err := (report.Renderer{}).Export(&buf, patient); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to generate report",
			Err: err,
		})
		return
	}

	filename := report.Filename(patient.Name)
	if m := middleware.GetMetrics(c); m != nil {
		m.ReportExported()
	}
	util.LogReportExported(ctrl.CycleID(), patient.ID, c.ClientIP(), filename)

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

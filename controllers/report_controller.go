package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"verivault/app"
	"verivault/db"
	"verivault/models"
	"verivault/submission"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

func attachmentHeader(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

// POST /api/reports/generate (multipart: reportType, formData, verificationData, files)
func (rc *ReportController) Generate(c *gin.Context) {
	in, err := readSubmission(c, rc.Uploads.RequestLimit())
	if err != nil {
		rc.rejectBody(c, err)
		return
	}
	out, err := rc.Pipeline.GenerateReport(c.Request.Context(), submission.ReportInput{
		ReportType:       in.ReportType,
		FormData:         in.FormData,
		VerificationData: in.VerificationData,
		Files:            in.Files,
		ClientIP:         c.ClientIP(),
	})
	if err != nil {
		rc.respondError(c, err, "Report")
		return
	}
	c.Header("X-Submission-ID", out.Record.SubmissionID)
	attachmentHeader(c, out.Filename())
	c.Data(http.StatusOK, "application/pdf", out.PDF)
}

type watermarkRequest struct {
	ReportType       string                       `json:"reportType"`
	ReportData       map[string]any               `json:"reportData"`
	VerificationData *submission.VerificationInput `json:"verificationData"`
}

// POST /api/reports/generate-with-watermark
func (rc *ReportController) GenerateWithWatermark(c *gin.Context) {
	var in watermarkRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	if in.VerificationData == nil {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	out, err := rc.Pipeline.GenerateWatermarked(c.Request.Context(), submission.WatermarkInput{
		ReportType:   in.ReportType,
		ReportData:   in.ReportData,
		Verification: *in.VerificationData,
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		rc.respondError(c, err, "Report")
		return
	}
	c.JSON(http.StatusOK, app.H{
		"success":      true,
		"pdfContent":   out.HTML,
		"submissionId": out.Record.SubmissionID,
		"pages":        out.Pages,
		"watermark":    out.Watermark,
	})
}

// GET /api/reports?type=&status=&limit=&offset=
func (rc *ReportController) List(c *gin.Context) {
	limit, offset := pageParams(c)
	items, total, err := rc.Store.ListReports(c.Request.Context(), db.ReportQuery{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		rc.respondError(c, err, "Report")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "total": total, "reports": items})
}

// 路径参数既可以是数字 id，也可以是 submissionId
func (rc *ReportController) find(c *gin.Context) (*models.Report, error) {
	raw := c.Param("id")
	if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return rc.Store.FindReportByID(c.Request.Context(), uint(n))
	}
	return rc.Store.FindReportBySubmissionID(c.Request.Context(), raw)
}

// GET /api/reports/:id?format=json|pdf|html
func (rc *ReportController) Get(c *gin.Context) {
	rec, err := rc.find(c)
	if err != nil {
		rc.respondError(c, err, "Report")
		return
	}
	switch c.DefaultQuery("format", "json") {
	case "pdf":
		pdf, err := rc.Pipeline.RenderPDF(rec)
		if err != nil {
			rc.respondError(c, err, "Report")
			return
		}
		attachmentHeader(c, rec.SubmissionID+".pdf")
		c.Data(http.StatusOK, "application/pdf", pdf)
	case "html":
		html, _, err := rc.Pipeline.RenderHTML(rec, c.Query("print") == "1")
		if err != nil {
			rc.respondError(c, err, "Report")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	case "json":
		c.JSON(http.StatusOK, app.H{"success": true, "report": rec})
	default:
		fail(c, http.StatusBadRequest, "format must be json, pdf or html")
	}
}

// DELETE /api/reports/:id 连同附件文件一起删除
func (rc *ReportController) Delete(c *gin.Context) {
	rec, err := rc.find(c)
	if err != nil {
		rc.respondError(c, err, "Report")
		return
	}
	if err := rc.Pipeline.DeleteReport(c.Request.Context(), rec.ID); err != nil {
		rc.respondError(c, err, "Report")
		return
	}
	rc.Log.Info("report deleted", "submission_id", rec.SubmissionID, "by", actor(c))
	c.JSON(http.StatusOK, app.H{"success": true})
}

// POST /api/reports/trace {watermark}
func (rc *ReportController) Trace(c *gin.Context) {
	var in struct {
		Watermark string `json:"watermark"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Watermark == "" {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	res, err := rc.Pipeline.Trace(c.Request.Context(), in.Watermark)
	if errors.Is(err, db.ErrNotFound) {
		fail(c, http.StatusNotFound, "No record carries this watermark")
		return
	}
	if err != nil {
		rc.respondError(c, err, "Report")
		return
	}
	c.JSON(http.StatusOK, app.H{
		"success":     true,
		"kind":        res.Kind,
		"report":      res.Report,
		"dailyLog":    res.DailyLog,
		"hashMatches": res.HashMatches,
	})
}

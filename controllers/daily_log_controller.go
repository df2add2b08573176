package controllers

import (
	"net/http"
	"strconv"
	"time"

	"verivault/app"
	"verivault/models"
	"verivault/submission"

	"github.com/gin-gonic/gin"
)

type DailyLogController struct{ *Srv }

func NewDailyLogController(s *Srv) *DailyLogController { return &DailyLogController{Srv: s} }

type dailyLogSummary struct {
	ID           uint      `json:"id"`
	SubmissionID string    `json:"submissionId"`
	SubmittedBy  string    `json:"submittedBy"`
	Status       string    `json:"status"`
	Attachments  int       `json:"attachments"`
	CreatedAt    time.Time `json:"createdAt"`
}

func summarize(l *models.DailyLog) dailyLogSummary {
	return dailyLogSummary{
		ID:           l.ID,
		SubmissionID: l.SubmissionID,
		SubmittedBy:  l.SubmittedBy,
		Status:       l.Status,
		Attachments:  len(l.Attachments),
		CreatedAt:    l.CreatedAt,
	}
}

// POST /api/daily-logs/submit (multipart: formData, verificationData, attachment_N)
func (dc *DailyLogController) Submit(c *gin.Context) {
	in, err := readSubmission(c, dc.Uploads.RequestLimit())
	if err != nil {
		dc.rejectBody(c, err)
		return
	}
	l, err := dc.Pipeline.SubmitDailyLog(c.Request.Context(), submission.DailyLogInput{
		FormData:         in.FormData,
		VerificationData: in.VerificationData,
		Files:            in.Files,
		ClientIP:         c.ClientIP(),
	})
	if err != nil {
		dc.respondError(c, err, "Daily log")
		return
	}
	c.JSON(http.StatusCreated, app.H{
		"success":      true,
		"submissionId": l.SubmissionID,
		"dailyLog":     summarize(l),
	})
}

// GET /api/daily-logs?limit=&offset=
func (dc *DailyLogController) List(c *gin.Context) {
	limit, offset := pageParams(c)
	items, total, err := dc.Store.ListDailyLogs(c.Request.Context(), limit, offset)
	if err != nil {
		dc.respondError(c, err, "Daily log")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "total": total, "dailyLogs": items})
}

func (dc *DailyLogController) find(c *gin.Context) (*models.DailyLog, error) {
	raw := c.Param("id")
	if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return dc.Store.FindDailyLogByID(c.Request.Context(), uint(n))
	}
	return dc.Store.FindDailyLogBySubmissionID(c.Request.Context(), raw)
}

// GET /api/daily-logs/:id
func (dc *DailyLogController) Get(c *gin.Context) {
	l, err := dc.find(c)
	if err != nil {
		dc.respondError(c, err, "Daily log")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "dailyLog": l})
}

// DELETE /api/daily-logs/:id
func (dc *DailyLogController) Delete(c *gin.Context) {
	l, err := dc.find(c)
	if err != nil {
		dc.respondError(c, err, "Daily log")
		return
	}
	if err := dc.Pipeline.DeleteDailyLog(c.Request.Context(), l.ID); err != nil {
		dc.respondError(c, err, "Daily log")
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}

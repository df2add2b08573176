package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"verivault/analysis"
	"verivault/app"
	"verivault/submission"
	"verivault/uploads"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct{ *Srv }

func NewAnalysisController(s *Srv) *AnalysisController { return &AnalysisController{Srv: s} }

// CSV 文本上限，超出部分不读
const maxTableBytes = 10 << 20

type analyzeRequest struct {
	CSVData    string `json:"csvData"`
	ReportType string `json:"reportType"`
	Notes      string `json:"notes"`
}

// readTableInput accepts a multipart "file" (CSV or .xlsx) or JSON csvData.
func readTableInput(c *gin.Context) (analyzeRequest, string, []byte, error) {
	limitBody(c, maxTableBytes+1<<20)
	if isJSON(c) {
		var in analyzeRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			return in, "", nil, bodyError(err)
		}
		return in, "data.csv", []byte(in.CSVData), nil
	}
	in := analyzeRequest{ReportType: c.PostForm("reportType"), Notes: c.PostForm("notes")}
	fh, err := c.FormFile("file")
	if err != nil {
		if err = bodyError(err); errors.Is(err, uploads.ErrFileTooLarge) {
			return in, "", nil, err
		}
		return in, "data.csv", []byte(c.PostForm("csvData")), nil
	}
	f, err := fh.Open()
	if err != nil {
		return in, "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxTableBytes))
	return in, fh.Filename, data, err
}

// POST /api/analyze-csv
func (ac *AnalysisController) AnalyzeCSV(c *gin.Context) {
	if ac.Analyzer == nil {
		ac.respondError(c, analysis.ErrNotConfigured, "Analysis")
		return
	}
	in, name, data, err := readTableInput(c)
	if err != nil {
		ac.rejectBody(c, err)
		return
	}
	table, err := analysis.ReadTable(name, data)
	if err != nil {
		ac.respondError(c, err, "Analysis")
		return
	}
	prose, err := ac.Analyzer.Analyze(c.Request.Context(), analysis.Request{
		ReportType: in.ReportType,
		Table:      table,
		Notes:      in.Notes,
	})
	if err != nil {
		ac.respondError(c, err, "Analysis")
		return
	}
	rep := analysis.FormatReport(analysis.KindFor(in.ReportType), prose, table, time.Now())
	c.JSON(http.StatusOK, app.H{"success": true, "analysis": rep})
}

type printRequest struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	ReportType string            `json:"reportType"`
	Officer    string            `json:"officer"`
	Meta       map[string]string `json:"meta"`
}

// POST /api/generate-pdf 返回可直接打印的 HTML；?format=json 返回元数据
func (ac *AnalysisController) GeneratePDF(c *gin.Context) {
	var in printRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Required fields missing")
		return
	}
	if strings.TrimSpace(in.Officer) == "" {
		in.Officer = actor(c)
	}
	p, err := ac.Pipeline.BuildPrintable(submission.PrintInput{
		Title:      in.Title,
		Content:    in.Content,
		ReportType: in.ReportType,
		Officer:    in.Officer,
		Meta:       in.Meta,
	})
	if err != nil {
		ac.respondError(c, err, "Document")
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, app.H{
			"success":      true,
			"submissionId": p.SubmissionID,
			"html":         p.HTML,
			"pages":        p.Pages,
			"contentHash":  p.ContentHash,
			"watermark":    p.Watermark,
		})
		return
	}
	c.Header("X-Submission-ID", p.SubmissionID)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(p.HTML))
}

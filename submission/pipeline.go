// Package submission runs PIN-verified report and shift-log submissions:
// validate, verify, store attachments, persist, render.
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"verivault/config"
	"verivault/db"
	"verivault/idgen"
	"verivault/models"
	"verivault/render"
	"verivault/signing"
	"verivault/uploads"

	"gorm.io/datatypes"
)

type Store interface {
	db.ReportStore
	db.DailyLogStore
}

type Pipeline struct {
	store    Store
	verifier *signing.Verifier
	files    *uploads.Store
	ids      *idgen.Generator
	pdf      render.PDFRenderer
	cfg      config.ReportConfig
	log      *slog.Logger
	now      func() time.Time
}

func New(store Store, verifier *signing.Verifier, files *uploads.Store, ids *idgen.Generator,
	pdf render.PDFRenderer, cfg config.ReportConfig, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		verifier: verifier,
		files:    files,
		ids:      ids,
		pdf:      pdf,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// verify checks PIN shape before touching the user store.
func (p *Pipeline) verify(ctx context.Context, v VerificationInput, clientIP string) (*signing.Verification, error) {
	if err := signing.ValidatePINFormat(v.PIN); err != nil {
		return nil, err
	}
	return p.verifier.Verify(ctx, signing.Request{UserID: v.UserID, PIN: v.PIN, ClientIP: clientIP})
}

func (p *Pipeline) watermark(hash string, at time.Time, submissionID string) string {
	return signing.Watermark{
		Hash:         hash,
		Timestamp:    at,
		SubmissionID: submissionID,
		Version:      p.cfg.WatermarkVersion,
	}.String()
}

func formHash(form map[string]any) string {
	b, _ := json.Marshal(form)
	return signing.ContentHash(b)
}

// cleanup removes files written for a submission that did not complete.
func (p *Pipeline) cleanup(atts []models.Attachment) {
	if err := p.files.Remove(atts); err != nil {
		p.log.Error("attachment cleanup failed", "error", err, "count", len(atts))
	}
}

type ReportInput struct {
	ReportType       string
	FormData         string
	VerificationData string
	Files            []*multipart.FileHeader
	ClientIP         string
}

type GeneratedReport struct {
	Record *models.Report
	PDF    []byte
}

func (g GeneratedReport) Filename() string { return g.Record.SubmissionID + ".pdf" }

// GenerateReport handles the multipart report form and returns a PDF.
func (p *Pipeline) GenerateReport(ctx context.Context, in ReportInput) (*GeneratedReport, error) {
	form, err := parseForm(in.FormData)
	if err != nil {
		return nil, err
	}
	ver, err := parseVerification(in.VerificationData)
	if err != nil {
		return nil, err
	}
	if err := signing.ValidatePINFormat(ver.PIN); err != nil {
		return nil, err
	}
	typeName := in.ReportType
	if typeName == "" {
		typeName, _ = form["reportType"].(string)
	}
	rt, err := render.ParseReportType(typeName)
	if err != nil {
		return nil, err
	}
	v, err := p.verify(ctx, ver, in.ClientIP)
	if err != nil {
		return nil, err
	}

	atts, err := p.files.SaveAll(in.Files)
	if err != nil {
		return nil, err
	}

	out, err := p.persistAndRender(ctx, rt, form, v, atts)
	if err != nil {
		p.cleanup(atts)
		return nil, err
	}
	p.log.Info("report generated",
		"submission_id", out.Record.SubmissionID,
		"report_type", rt,
		"user", v.Username,
		"attachments", len(atts))
	return out, nil
}

func (p *Pipeline) persistAndRender(ctx context.Context, rt render.ReportType, form map[string]any,
	v *signing.Verification, atts []models.Attachment) (*GeneratedReport, error) {
	id, err := p.ids.ReportID(ctx)
	if err != nil {
		return nil, err
	}
	rec := &models.Report{
		SubmissionID: id,
		ReportType:   string(rt),
		FormData:     datatypes.JSONMap(form),
		Verification: v.Record(),
		Attachments:  datatypes.JSONSlice[models.Attachment](atts),
		Status:       models.ReportGenerated,
		ContentHash:  formHash(form),
		GeneratedBy:  v.Username,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.store.CreateReport(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	pdf, err := p.RenderPDF(rec)
	if err != nil {
		p.rollbackReport(ctx, rec)
		return nil, err
	}
	return &GeneratedReport{Record: rec, PDF: pdf}, nil
}

// rollbackReport removes a record whose rendering failed.
func (p *Pipeline) rollbackReport(ctx context.Context, rec *models.Report) {
	if err := p.store.DeleteReport(ctx, rec.ID); err != nil {
		p.log.Error("rollback report record failed", "submission_id", rec.SubmissionID, "error", err)
	}
}

// Document rebuilds the printable document for a stored report.
func (p *Pipeline) Document(rec *models.Report) (*render.Document, error) {
	rt, err := render.ParseReportType(rec.ReportType)
	if err != nil {
		return nil, err
	}
	secs, err := render.BuildSections(rt, rec.FormData)
	if err != nil {
		return nil, err
	}
	v := rec.Verification
	return &render.Document{
		Title:        rt.Title(),
		SubmissionID: rec.SubmissionID,
		GeneratedAt:  rec.CreatedAt,
		Meta: []render.Field{
			{Label: "Submission ID", Value: rec.SubmissionID},
			{Label: "Report Type", Value: rt.Title()},
			{Label: "Generated", Value: rec.CreatedAt.UTC().Format("2006-01-02 15:04 MST")},
			{Label: "Officer", Value: rec.GeneratedBy},
			{Label: "Attachments", Value: fmt.Sprintf("%d", len(rec.Attachments))},
		},
		Sections: secs,
		Footer: render.Footer{
			SubmittedBy:      v.Username,
			VerifiedAt:       v.Timestamp,
			VerificationHash: v.VerificationHash,
			ContentHash:      rec.ContentHash,
			Watermark:        p.watermark(v.VerificationHash, v.Timestamp, rec.SubmissionID),
		},
	}, nil
}

func (p *Pipeline) RenderPDF(rec *models.Report) ([]byte, error) {
	doc, err := p.Document(rec)
	if err != nil {
		return nil, err
	}
	return p.pdf.Render(doc)
}

func (p *Pipeline) RenderHTML(rec *models.Report, autoPrint bool) (string, int, error) {
	doc, err := p.Document(rec)
	if err != nil {
		return "", 0, err
	}
	return render.HTML(doc, p.htmlOptions(autoPrint))
}

func (p *Pipeline) htmlOptions(autoPrint bool) render.HTMLOptions {
	return render.HTMLOptions{
		WordsPerPage: p.cfg.WordsPerPage,
		MinPageWords: p.cfg.MinPageWords,
		AutoPrint:    autoPrint,
	}
}

type WatermarkInput struct {
	ReportType   string
	ReportData   map[string]any
	Verification VerificationInput
	ClientIP     string
}

type WatermarkedReport struct {
	Record    *models.Report
	HTML      string
	Pages     int
	Watermark string
}

// GenerateWatermarked stores a VV- record and returns paginated HTML for
// client-side printing.
func (p *Pipeline) GenerateWatermarked(ctx context.Context, in WatermarkInput) (*WatermarkedReport, error) {
	if in.ReportData == nil {
		return nil, fmt.Errorf("reportData: %w", ErrMissingField)
	}
	if in.Verification.empty() {
		return nil, fmt.Errorf("verificationData: %w", ErrMissingField)
	}
	if err := signing.ValidatePINFormat(in.Verification.PIN); err != nil {
		return nil, err
	}
	rt, err := render.ParseReportType(in.ReportType)
	if err != nil {
		return nil, err
	}
	v, err := p.verify(ctx, in.Verification, in.ClientIP)
	if err != nil {
		return nil, err
	}

	rec := &models.Report{
		SubmissionID: p.ids.PrintID(),
		ReportType:   string(rt),
		FormData:     datatypes.JSONMap(in.ReportData),
		Verification: v.Record(),
		Attachments:  datatypes.JSONSlice[models.Attachment]{},
		Status:       models.ReportGenerated,
		ContentHash:  formHash(in.ReportData),
		GeneratedBy:  v.Username,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.store.CreateReport(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	html, pages, err := p.RenderHTML(rec, false)
	if err != nil {
		p.rollbackReport(ctx, rec)
		return nil, err
	}
	return &WatermarkedReport{
		Record:    rec,
		HTML:      html,
		Pages:     pages,
		Watermark: p.watermark(v.VerificationHash, v.Timestamp, rec.SubmissionID),
	}, nil
}

type DailyLogInput struct {
	FormData         string
	VerificationData string
	Files            []*multipart.FileHeader
	ClientIP         string
}

// SubmitDailyLog stores a shift log under a DL- id. Identical payloads are
// not deduplicated.
func (p *Pipeline) SubmitDailyLog(ctx context.Context, in DailyLogInput) (*models.DailyLog, error) {
	form, err := parseForm(in.FormData)
	if err != nil {
		return nil, err
	}
	ver, err := parseVerification(in.VerificationData)
	if err != nil {
		return nil, err
	}
	v, err := p.verify(ctx, ver, in.ClientIP)
	if err != nil {
		return nil, err
	}
	atts, err := p.files.SaveAll(in.Files)
	if err != nil {
		return nil, err
	}
	l := &models.DailyLog{
		SubmissionID: p.ids.DailyLogID(),
		FormData:     datatypes.JSONMap(form),
		Verification: v.Record(),
		Attachments:  datatypes.JSONSlice[models.Attachment](atts),
		Status:       models.ReportSubmitted,
		SubmittedBy:  v.Username,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.store.CreateDailyLog(ctx, l); err != nil {
		p.cleanup(atts)
		return nil, fmt.Errorf("persist daily log: %w", err)
	}
	p.log.Info("daily log submitted", "submission_id", l.SubmissionID, "user", v.Username, "attachments", len(atts))
	return l, nil
}

type PrintInput struct {
	Title      string
	Content    string
	ReportType string
	Officer    string
	Meta       map[string]string
}

type Printable struct {
	SubmissionID string
	HTML         string
	Pages        int
	ContentHash  string
	Watermark    string
}

// BuildPrintable turns assembled report text into auto-printing HTML. Nothing
// is persisted.
func (p *Pipeline) BuildPrintable(in PrintInput) (*Printable, error) {
	if in.Content == "" {
		return nil, fmt.Errorf("content: %w", ErrMissingField)
	}
	title := in.Title
	if title == "" {
		if rt, err := render.ParseReportType(in.ReportType); err == nil {
			title = rt.Title()
		} else {
			title = "Security Report"
		}
	}
	now := p.now().UTC()
	id := p.ids.PrintID()
	hash := signing.ContentHash([]byte(in.Content))

	meta := []render.Field{
		{Label: "Document ID", Value: id},
		{Label: "Generated", Value: now.Format("2006-01-02 15:04 MST")},
	}
	if in.Officer != "" {
		meta = append(meta, render.Field{Label: "Officer", Value: in.Officer})
	}
	for _, k := range sortedKeys(in.Meta) {
		meta = append(meta, render.Field{Label: render.Humanize(k), Value: in.Meta[k]})
	}

	doc := render.TextDocument(title, in.Content, meta)
	doc.SubmissionID = id
	doc.GeneratedAt = now
	wm := p.watermark(hash, now, id)
	doc.Footer = render.Footer{SubmittedBy: in.Officer, VerifiedAt: now, ContentHash: hash, Watermark: wm}

	html, pages, err := render.HTML(doc, p.htmlOptions(true))
	if err != nil {
		return nil, err
	}
	return &Printable{SubmissionID: id, HTML: html, Pages: pages, ContentHash: hash, Watermark: wm}, nil
}

// DeleteReport removes the record, then its files.
func (p *Pipeline) DeleteReport(ctx context.Context, id uint) error {
	rec, err := p.store.FindReportByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.store.DeleteReport(ctx, id); err != nil {
		return err
	}
	p.cleanup(rec.Attachments)
	return nil
}

func (p *Pipeline) DeleteDailyLog(ctx context.Context, id uint) error {
	l, err := p.store.FindDailyLogByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.store.DeleteDailyLog(ctx, id); err != nil {
		return err
	}
	p.cleanup(l.Attachments)
	return nil
}

type TraceResult struct {
	Watermark signing.Watermark `json:"-"`
	Kind      string            `json:"kind"`
	Report    *models.Report    `json:"report,omitempty"`
	DailyLog  *models.DailyLog  `json:"dailyLog,omitempty"`
	// HashMatches reports whether the tag's hash prefix matches the stored verification hash.
	HashMatches bool `json:"hashMatches"`
}

// Trace resolves an audit tag back to the record it was stamped on.
func (p *Pipeline) Trace(ctx context.Context, tag string) (*TraceResult, error) {
	w, err := signing.ParseWatermark(tag)
	if err != nil {
		return nil, err
	}
	res := &TraceResult{Watermark: w}
	if idgen.Namespace(w.SubmissionID) == idgen.PrefixDailyLog {
		l, err := p.store.FindDailyLogBySubmissionID(ctx, w.SubmissionID)
		if err != nil {
			return nil, err
		}
		res.Kind, res.DailyLog = "dailyLog", l
		res.HashMatches = w.Matches(l.Verification.VerificationHash)
		return res, nil
	}
	rec, err := p.store.FindReportBySubmissionID(ctx, w.SubmissionID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", w.SubmissionID, err)
	}
	res.Kind, res.Report = "report", rec
	res.HashMatches = w.Matches(rec.Verification.VerificationHash)
	return res, nil
}

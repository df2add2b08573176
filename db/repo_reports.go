package db

import (
	"context"

	"verivault/models"
)

// Reports

func (r *Repo) CreateReport(ctx context.Context, rep *models.Report) error {
	return translate(r.DB.WithContext(ctx).Create(rep).Error)
}

func (r *Repo) FindReportByID(ctx context.Context, id uint) (*models.Report, error) {
	var rep models.Report
	if err := r.DB.WithContext(ctx).First(&rep, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *Repo) FindReportBySubmissionID(ctx context.Context, submissionID string) (*models.Report, error) {
	var rep models.Report
	if err := r.DB.WithContext(ctx).Where("submission_id = ?", submissionID).First(&rep).Error; err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *Repo) ListReports(ctx context.Context, q ReportQuery) ([]models.Report, int64, error) {
	limit, offset := Page(q.Limit, q.Offset)
	tx := r.DB.WithContext(ctx).Model(&models.Report{})
	if q.Type != "" {
		tx = tx.Where("report_type = ?", q.Type)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reps []models.Report
	if err := tx.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&reps).Error; err != nil {
		return nil, 0, err
	}
	return reps, total, nil
}

func (r *Repo) DeleteReport(ctx context.Context, id uint) error {
	return deleteByID[models.Report](ctx, r.DB, id)
}

// Daily logs

func (r *Repo) CreateDailyLog(ctx context.Context, l *models.DailyLog) error {
	return translate(r.DB.WithContext(ctx).Create(l).Error)
}

func (r *Repo) FindDailyLogByID(ctx context.Context, id uint) (*models.DailyLog, error) {
	var l models.DailyLog
	if err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *Repo) FindDailyLogBySubmissionID(ctx context.Context, submissionID string) (*models.DailyLog, error) {
	var l models.DailyLog
	if err := r.DB.WithContext(ctx).Where("submission_id = ?", submissionID).First(&l).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *Repo) ListDailyLogs(ctx context.Context, limit, offset int) ([]models.DailyLog, int64, error) {
	limit, offset = Page(limit, offset)
	tx := r.DB.WithContext(ctx).Model(&models.DailyLog{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []models.DailyLog
	if err := tx.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *Repo) DeleteDailyLog(ctx context.Context, id uint) error {
	return deleteByID[models.DailyLog](ctx, r.DB, id)
}

// AttachmentFilenames 只取 attachments 列，逐条展开
func (r *Repo) AttachmentFilenames(ctx context.Context) (map[string]struct{}, error) {
	keep := make(map[string]struct{})

	var reps []models.Report
	if err := r.DB.WithContext(ctx).Select("attachments").Find(&reps).Error; err != nil {
		return nil, err
	}
	for _, rep := range reps {
		for _, a := range rep.Attachments {
			keep[a.Filename] = struct{}{}
		}
	}

	var logs []models.DailyLog
	if err := r.DB.WithContext(ctx).Select("attachments").Find(&logs).Error; err != nil {
		return nil, err
	}
	for _, l := range logs {
		for _, a := range l.Attachments {
			keep[a.Filename] = struct{}{}
		}
	}
	return keep, nil
}

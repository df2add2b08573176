package db

import (
	"context"
	"fmt"

	"verivault/models"
)

func (r *Repo) LogVerification(ctx context.Context, l *models.VerificationLog) error {
	if err := r.DB.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("insert verification log: %w", err)
	}
	return nil
}

// userID 为 0 时返回全部
func (r *Repo) ListVerifications(ctx context.Context, userID uint, limit, offset int) ([]models.VerificationLog, int64, error) {
	limit, offset = Page(limit, offset)
	q := r.DB.WithContext(ctx).Model(&models.VerificationLog{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []models.VerificationLog
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

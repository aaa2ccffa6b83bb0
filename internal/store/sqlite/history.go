package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sqlchat/internal/store/model"
)

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) *historyRepo {
	return &historyRepo{db: db}
}

func (r *historyRepo) Insert(ctx context.Context, rec *model.QueryLogModel) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *historyRepo) ListRecent(ctx context.Context, limit int) ([]model.QueryLogModel, error) {
	var logs []model.QueryLogModel
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *historyRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.QueryLogModel, error) {
	var logs []model.QueryLogModel
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

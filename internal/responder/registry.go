package responder

import (
	"context"
	"errors"
	"time"

	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"gorm.io/gorm"
)

// 子状态只能前进：responding -> arrived -> completed，可跳过 arrived
var stepOrder = map[string]int{
	models.ResponderResponding: 0,
	models.ResponderArrived:    1,
	models.ResponderCompleted:  2,
}

// CanAdvance 判断子状态迁移是否合法
func CanAdvance(from, to string) bool {
	f, ok1 := stepOrder[from]
	t, ok2 := stepOrder[to]
	return ok1 && ok2 && t > f
}

// Registry 维护每个警报的响应者集合，保证同一用户不重复响应
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Add 追加响应者，已存在时返回 DuplicateResponse
func (r *Registry) Add(ctx context.Context, alertID, userID string, now time.Time) (*models.AlertResponder, error) {
	db := r.db.WithContext(ctx)
	exists, err := r.exists(db, alertID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicate(alertID, userID)
	}

	rec := &models.AlertResponder{
		AlertID:     alertID,
		UserID:      userID,
		RespondedAt: now,
		Status:      models.ResponderResponding,
	}
	if err := db.Create(rec).Error; err != nil {
		// 并发插入撞上唯一索引
		if again, qerr := r.exists(db, alertID, userID); qerr == nil && again {
			return nil, duplicate(alertID, userID)
		}
		return nil, apperrors.Storage(err, "add responder failed")
	}
	return rec, nil
}

func duplicate(alertID, userID string) error {
	return apperrors.WithCode(apperrors.CodeDuplicateResponse, "you have already responded to this alert").
		WithContext("alert_id", alertID).
		WithContext("user_id", userID)
}

func (r *Registry) exists(db *gorm.DB, alertID, userID string) (bool, error) {
	var n int64
	err := db.Model(&models.AlertResponder{}).
		Where("alert_id = ? AND user_id = ?", alertID, userID).
		Count(&n).Error
	if err != nil {
		return false, apperrors.Storage(err, "query responder failed")
	}
	return n > 0, nil
}

// List 按响应顺序列出响应者
func (r *Registry) List(ctx context.Context, alertID string) ([]models.AlertResponder, error) {
	var out []models.AlertResponder
	err := r.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("responded_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperrors.Storage(err, "list responders failed")
	}
	return out, nil
}

// Get 查询单个响应者
func (r *Registry) Get(ctx context.Context, alertID, userID string) (*models.AlertResponder, error) {
	var rec models.AlertResponder
	err := r.db.WithContext(ctx).
		Where("alert_id = ? AND user_id = ?", alertID, userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("responder", userID)
	}
	if err != nil {
		return nil, apperrors.Storage(err, "get responder failed")
	}
	return &rec, nil
}

// UpdateStatus 推进响应者子状态，基于当前子状态做条件更新
func (r *Registry) UpdateStatus(ctx context.Context, alertID, userID, status string) (*models.AlertResponder, error) {
	if !models.OneOf(status, models.ResponderSteps) {
		return nil, apperrors.Validation("invalid responder status %q", status)
	}
	rec, err := r.Get(ctx, alertID, userID)
	if err != nil {
		return nil, err
	}
	if !CanAdvance(rec.Status, status) {
		return nil, apperrors.InvalidTransition("responder", rec.Status, status)
	}

	res := r.db.WithContext(ctx).Model(&models.AlertResponder{}).
		Where("id = ? AND status = ?", rec.ID, rec.Status).
		Update("status", status)
	if res.Error != nil {
		return nil, apperrors.Storage(res.Error, "update responder failed")
	}
	if res.RowsAffected == 0 {
		// 并发推进，按最新状态重新判定
		cur, err := r.Get(ctx, alertID, userID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransition("responder", cur.Status, status)
	}
	rec.Status = status
	return rec, nil
}

package lifecycle

import (
	"context"

	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"go.uber.org/zap"
)

// EscalationFactor 超期求助重新匹配时的半径倍数
const EscalationFactor = 2

// SweepOverdue 对已过 urgentBy 仍未被接单的求助扩大半径重新匹配，不改变状态
//
// 每个求助只升级一次：先用 CAS 写入 escalated_at 认领，认领失败（已被其他实例处理或已接单）则跳过。
// 返回本次升级的求助数
func (e *Engine) SweepOverdue(ctx context.Context) (int, error) {
	if e.matcher == nil {
		return 0, nil
	}
	now := e.timestamp()
	var overdue []models.AssistanceRequest
	err := e.db.WithContext(ctx).
		Where("status = ? AND escalated_at IS NULL AND urgent_by IS NOT NULL AND urgent_by < ?", models.RequestPending, now).
		Order("urgent_by ASC").
		Find(&overdue).Error
	if err != nil {
		return 0, apperrors.Storage(err, "list overdue requests failed")
	}
	escalated := 0
	for i := range overdue {
		if ctx.Err() != nil {
			return escalated, ctx.Err()
		}
		r := &overdue[i]
		res := e.db.WithContext(ctx).Model(&models.AssistanceRequest{}).
			Where("id = ? AND status = ? AND escalated_at IS NULL", r.ID, models.RequestPending).
			UpdateColumn("escalated_at", now)
		if res.Error != nil {
			return escalated, apperrors.Storage(res.Error, "claim overdue request failed")
		}
		if res.RowsAffected == 0 {
			continue
		}
		r.EscalatedAt = &now
		m := e.matcher.Escalate(ctx, r, EscalationFactor)
		escalated++
		e.logger.Info("overdue request escalated",
			zap.String("request_id", r.ID),
			zap.Float64("radius", m.Radius),
			zap.Int("candidates", len(m.Candidates)))
	}
	return escalated, nil
}

// ResyncIndex 从数据库重建地理索引
func (e *Engine) ResyncIndex(ctx context.Context) error {
	return e.index.Resync(ctx, e.db)
}
